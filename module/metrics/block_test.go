package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
)

func TestBlockCollector_ObservesCheckpointDurations(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector, err := NewBlockCollector(registry, 2)
	require.NoError(t, err)

	hash := chain.Hash{1}
	start := time.Now()
	collector.ReportBlock(hash, start, module.CheckpointImporting)
	collector.ReportBlock(hash, start.Add(time.Second), module.CheckpointImported)

	at, ok := collector.Checkpoint(hash, module.CheckpointImported)
	require.True(t, ok)
	assert.Equal(t, start.Add(time.Second), at)

	// only the imported checkpoint has a previous checkpoint to measure against
	assert.Equal(t, 1, testutil.CollectAndCount(collector.duration))
}

func TestBlockCollector_EvictsOldBlocks(t *testing.T) {
	collector, err := NewBlockCollector(prometheus.NewRegistry(), 2)
	require.NoError(t, err)

	now := time.Now()
	for i := byte(0); i < 3; i++ {
		collector.ReportBlock(chain.Hash{i}, now, module.CheckpointImporting)
	}

	_, ok := collector.Checkpoint(chain.Hash{0}, module.CheckpointImporting)
	assert.False(t, ok)
	_, ok = collector.Checkpoint(chain.Hash{2}, module.CheckpointImporting)
	assert.True(t, ok)
}

func TestSyncCollector_Registers(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewSyncCollector(registry)

	collector.MessageSent("request")
	collector.MessageSent("request")
	collector.TopFinalized(42)
	collector.StallDetected()

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.messagesSent.WithLabelValues("request")))
	assert.Equal(t, float64(42), testutil.ToFloat64(collector.topFinalized))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.stalls))
}
