package metrics

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
)

// DefaultTrackedBlocks is the default number of blocks whose checkpoint times are kept.
const DefaultTrackedBlocks = 1000

type checkpointTimes map[module.Checkpoint]time.Time

// BlockCollector measures how long blocks take to go from one checkpoint to the next.
// Checkpoint times are kept for a bounded number of recent blocks.
type BlockCollector struct {
	times    *lru.Cache[chain.Hash, checkpointTimes]
	duration *prometheus.HistogramVec
}

var _ module.BlockMetrics = (*BlockCollector)(nil)

// NewBlockCollector creates a BlockCollector tracking at most `tracked` blocks.
func NewBlockCollector(registerer prometheus.Registerer, tracked int) (*BlockCollector, error) {
	times, err := lru.New[chain.Hash, checkpointTimes](tracked)
	if err != nil {
		return nil, fmt.Errorf("could not create checkpoint cache: %w", err)
	}

	return &BlockCollector{
		times: times,
		duration: promauto.With(registerer).NewHistogramVec(prometheus.HistogramOpts{
			Name:      "checkpoint_duration_seconds",
			Namespace: namespaceFinality,
			Subsystem: subsystemImport,
			Help:      "the time a block took to reach a checkpoint from the previous one",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{LabelCheckpoint}),
	}, nil
}

// ReportBlock records the checkpoint time and observes the time elapsed since
// the previous checkpoint, if it was recorded.
func (bc *BlockCollector) ReportBlock(hash chain.Hash, at time.Time, checkpoint module.Checkpoint) {
	times, ok := bc.times.Get(hash)
	if !ok {
		times = make(checkpointTimes)
		bc.times.Add(hash, times)
	}
	times[checkpoint] = at

	previous, ok := checkpoint.Previous()
	if !ok {
		return
	}
	if start, ok := times[previous]; ok {
		bc.duration.WithLabelValues(checkpoint.String()).Observe(at.Sub(start).Seconds())
	}
}

// Checkpoint returns the time the block reached the checkpoint, if known.
func (bc *BlockCollector) Checkpoint(hash chain.Hash, checkpoint module.Checkpoint) (time.Time, bool) {
	times, ok := bc.times.Peek(hash)
	if !ok {
		return time.Time{}, false
	}
	at, ok := times[checkpoint]
	return at, ok
}
