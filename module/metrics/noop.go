package metrics

import (
	"time"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
)

type NoopCollector struct{}

var _ module.SyncMetrics = (*NoopCollector)(nil)
var _ module.BlockMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) MessageSent(string)                                   {}
func (nc *NoopCollector) MessageReceived(string)                               {}
func (nc *NoopCollector) MessageDropped(string)                                {}
func (nc *NoopCollector) TaskScheduled(time.Duration)                          {}
func (nc *NoopCollector) JustificationsHandled(int)                            {}
func (nc *NoopCollector) TopFinalized(chain.BlockNumber)                       {}
func (nc *NoopCollector) StallDetected()                                       {}
func (nc *NoopCollector) ForestRefreshed()                                     {}
func (nc *NoopCollector) ReportBlock(chain.Hash, time.Time, module.Checkpoint) {}
