package chain

// BlockStatus describes how much of a block the local chain store holds.
type BlockStatus int

const (
	BlockStatusUnknown BlockStatus = iota
	BlockStatusHeaderOnly
	BlockStatusImported
)

func (s BlockStatus) String() string {
	switch s {
	case BlockStatusUnknown:
		return "unknown"
	case BlockStatusHeaderOnly:
		return "header_only"
	case BlockStatusImported:
		return "imported"
	default:
		return "invalid"
	}
}
