package blockimport

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/selendra/selendra-finality/module"
)

var _ BlockImporter = (*TracingBlockImport)(nil)

// TracingBlockImport wraps a block importer and reports when the import of
// every block starts and when it successfully ends.
type TracingBlockImport struct {
	inner   BlockImporter
	metrics module.BlockMetrics
	clock   clock.Clock
}

func NewTracingBlockImport(inner BlockImporter, metrics module.BlockMetrics, clk clock.Clock) *TracingBlockImport {
	return &TracingBlockImport{
		inner:   inner,
		metrics: metrics,
		clock:   clk,
	}
}

func (t *TracingBlockImport) CheckBlock(ctx context.Context, params CheckParams) (ImportResult, error) {
	return t.inner.CheckBlock(ctx, params)
}

func (t *TracingBlockImport) ImportBlock(ctx context.Context, params *ImportParams) (ImportResult, error) {
	hash := params.Header.Hash()
	t.metrics.ReportBlock(hash, t.now(), module.CheckpointImporting)

	result, err := t.inner.ImportBlock(ctx, params)
	if err == nil && result.Kind == Imported {
		t.metrics.ReportBlock(hash, t.now(), module.CheckpointImported)
	}
	return result, err
}

func (t *TracingBlockImport) now() time.Time {
	return t.clock.Now()
}
