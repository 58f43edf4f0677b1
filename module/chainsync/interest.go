package chainsync

import (
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/messages"
)

// InterestKind describes how much we want to learn about a block.
type InterestKind int

const (
	// Uninterested means the block is finalized, imported or unknown.
	Uninterested InterestKind = iota
	// HighestJustified is the highest justified block we have not finalized yet.
	HighestJustified
	// TopRequired is the highest required block lacking a justification.
	TopRequired
	// Required is any other required block lacking a justification.
	Required
)

func (k InterestKind) String() string {
	switch k {
	case Uninterested:
		return "uninterested"
	case HighestJustified:
		return "highest_justified"
	case TopRequired:
		return "top_required"
	case Required:
		return "required"
	default:
		return "invalid"
	}
}

// Interest tells the sync service what to do about a block, and whom to ask.
type Interest struct {
	Kind     InterestKind
	ID       chain.BlockID
	KnowMost []peer.ID
	Branch   messages.BranchKnowledge
}

// Interesting returns true if a request should be sent for the block.
func (i Interest) Interesting() bool {
	return i.Kind != Uninterested
}
