package module

import (
	"time"

	"github.com/selendra/selendra-finality/model/chain"
)

// Checkpoint is a stage in the life of a block that the finality layer tracks.
type Checkpoint int

const (
	CheckpointImporting Checkpoint = iota
	CheckpointImported
	CheckpointOrdering
	CheckpointOrdered
	CheckpointAggregating
	CheckpointFinalized
)

func (c Checkpoint) String() string {
	switch c {
	case CheckpointImporting:
		return "importing"
	case CheckpointImported:
		return "imported"
	case CheckpointOrdering:
		return "ordering"
	case CheckpointOrdered:
		return "ordered"
	case CheckpointAggregating:
		return "aggregating"
	case CheckpointFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Previous returns the checkpoint preceding c, and false for the first one.
func (c Checkpoint) Previous() (Checkpoint, bool) {
	if c == CheckpointImporting {
		return c, false
	}
	return c - 1, true
}

// BlockMetrics records the time blocks take between checkpoints.
type BlockMetrics interface {
	// ReportBlock records that the block with the given hash reached the
	// checkpoint at the given time.
	ReportBlock(hash chain.Hash, at time.Time, checkpoint Checkpoint)
}

// SyncMetrics records the activity of the synchronization service.
type SyncMetrics interface {
	// MessageSent is called when a sync message of the given type is sent.
	MessageSent(messageType string)

	// MessageReceived is called when a sync message of the given type is received.
	MessageReceived(messageType string)

	// MessageDropped is called when an inbound message cannot be decoded or handled.
	MessageDropped(reason string)

	// TaskScheduled is called when a request task is scheduled with the given delay.
	TaskScheduled(delay time.Duration)

	// JustificationsHandled is called with the number of justifications handled in a batch.
	JustificationsHandled(count int)

	// TopFinalized tracks the number of the top finalized block.
	TopFinalized(number chain.BlockNumber)

	// StallDetected is called when the finalized frontier did not move for a whole stall check period.
	StallDetected()

	// ForestRefreshed is called after the forest was rebuilt from the chain status.
	ForestRefreshed()
}
