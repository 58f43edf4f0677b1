package module

import (
	"github.com/selendra/selendra-finality/model/chain"
)

// ChainStatus is the authoritative view of the local chain store. It is an
// external oracle: reads are served with the store's own concurrency
// guarantees.
type ChainStatus interface {
	// TopFinalized returns the justification of the highest finalized block.
	TopFinalized() (*chain.Justification, error)

	// BlockStatus returns how much of the given block the store holds.
	BlockStatus(id chain.BlockID) (chain.BlockStatus, error)

	// FinalizedAt returns the justification of the finalized block with the given number.
	// Expected errors during normal operations:
	//  * storage.ErrNotFound if no block with this number is finalized
	FinalizedAt(number chain.BlockNumber) (*chain.Justification, error)

	// Children returns the headers of the imported children of the given block.
	Children(id chain.BlockID) ([]*chain.Header, error)
}

// HeaderBackend gives access to imported headers.
type HeaderBackend interface {
	// Header returns the header of the given block.
	// Expected errors during normal operations:
	//  * storage.ErrNotFound if the header is not known
	Header(id chain.BlockID) (*chain.Header, error)
}

// Finalizer finalizes blocks in the local chain store.
type Finalizer interface {
	// Finalize finalizes the block the justification is for, together with all
	// its ancestors, and stores the justification.
	Finalize(justification *chain.Justification) error
}

// Verifier checks BFT certificates.
type Verifier interface {
	// Verify checks the certificate of an unverified justification and returns
	// the verified justification.
	Verify(justification *chain.Justification) (*chain.Justification, error)
}

// JustificationTranslator turns certificates agreed upon by the BFT engine
// into justifications understood by the sync layer.
type JustificationTranslator interface {
	Translate(signatures *chain.SignatureSet, id chain.BlockID) (*chain.Justification, error)
}

// NotificationKind enumerates chain status notifications.
type NotificationKind int

const (
	BlockImported NotificationKind = iota
	BlockFinalized
)

func (k NotificationKind) String() string {
	switch k {
	case BlockImported:
		return "block_imported"
	case BlockFinalized:
		return "block_finalized"
	default:
		return "unknown"
	}
}

// ChainStatusNotification informs about a block import or finalization.
type ChainStatusNotification struct {
	Kind   NotificationKind
	Header *chain.Header
}

// ChainStatusNotifier streams chain status notifications.
type ChainStatusNotifier interface {
	// Notifications returns the channel notifications are delivered on. The
	// channel is closed when the notifier shuts down.
	Notifications() <-chan ChainStatusNotification
}

// JustificationSubmissions lets external code (e.g. RPC) inject justifications
// into the sync service.
type JustificationSubmissions interface {
	Submit(justification *chain.Justification) error
}

// RequestBlocks lets external code force a sync request for a block.
type RequestBlocks interface {
	RequestBlock(id chain.BlockID) error
}

// SelectChain picks the best block among the imported ones.
type SelectChain interface {
	BestChain() (*chain.Header, error)
}
