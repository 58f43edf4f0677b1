package blockimport

import (
	"context"

	"github.com/selendra/selendra-finality/model/chain"
)

// EngineID identifies the consensus engine a justification belongs to.
type EngineID [4]byte

// DefaultEngineID is the engine identifier of our finality justifications.
var DefaultEngineID = EngineID{'F', 'R', 'N', 'K'}

func (e EngineID) String() string {
	return string(e[:])
}

// Origin tells where an imported block came from.
type Origin int

const (
	OriginGenesis Origin = iota
	OriginNetworkInitialSync
	OriginNetworkBroadcast
	OriginConsensusBroadcast
	OriginOwn
	OriginFile
)

func (o Origin) String() string {
	switch o {
	case OriginGenesis:
		return "genesis"
	case OriginNetworkInitialSync:
		return "network_initial_sync"
	case OriginNetworkBroadcast:
		return "network_broadcast"
	case OriginConsensusBroadcast:
		return "consensus_broadcast"
	case OriginOwn:
		return "own"
	case OriginFile:
		return "file"
	default:
		return "unknown"
	}
}

// EncodedJustification is a raw justification of some consensus engine.
type EncodedJustification struct {
	EngineID EngineID
	Raw      []byte
}

// Justifications holds the raw justifications attached to a block, at most one per engine.
type Justifications []EncodedJustification

// Get returns the raw justification of the given engine.
func (j Justifications) Get(engineID EngineID) ([]byte, bool) {
	for _, justification := range j {
		if justification.EngineID == engineID {
			return justification.Raw, true
		}
	}
	return nil, false
}

// ImportParams describes a block to import.
type ImportParams struct {
	Header         chain.Header
	Origin         Origin
	Justifications Justifications
	Finalized      bool
}

// CheckParams describes a block to check before import.
type CheckParams struct {
	ID             chain.BlockID
	ParentHash     chain.Hash
	AllowMissing   bool
	ImportExisting bool
}

// ImportResultKind enumerates import outcomes.
type ImportResultKind int

const (
	Imported ImportResultKind = iota
	AlreadyInChain
	KnownBad
	UnknownParent
	MissingState
)

func (k ImportResultKind) String() string {
	switch k {
	case Imported:
		return "imported"
	case AlreadyInChain:
		return "already_in_chain"
	case KnownBad:
		return "known_bad"
	case UnknownParent:
		return "unknown_parent"
	case MissingState:
		return "missing_state"
	default:
		return "invalid"
	}
}

// ImportResult is the outcome of a block import or check.
type ImportResult struct {
	Kind ImportResultKind
}

// BlockImporter imports blocks into the local chain store.
type BlockImporter interface {
	// CheckBlock checks whether the block can be imported.
	CheckBlock(ctx context.Context, params CheckParams) (ImportResult, error)

	// ImportBlock imports the block.
	ImportBlock(ctx context.Context, params *ImportParams) (ImportResult, error)
}

// JustificationImporter imports justifications arriving separately from their blocks.
type JustificationImporter interface {
	// OnStart returns the blocks whose justifications should be requested at startup.
	OnStart(ctx context.Context) []chain.BlockID

	// ImportJustification imports the raw justification of the given block.
	ImportJustification(ctx context.Context, id chain.BlockID, justification EncodedJustification) error
}
