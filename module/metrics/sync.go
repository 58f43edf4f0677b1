package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
)

// SyncCollector collects metrics of the synchronization service.
type SyncCollector struct {
	messagesSent          *prometheus.CounterVec
	messagesReceived      *prometheus.CounterVec
	messagesDropped       *prometheus.CounterVec
	taskDelay             prometheus.Histogram
	justificationsHandled prometheus.Counter
	topFinalized          prometheus.Gauge
	stalls                prometheus.Counter
	forestRefreshes       prometheus.Counter
}

var _ module.SyncMetrics = (*SyncCollector)(nil)

// NewSyncCollector creates a SyncCollector registering its metrics with the given registerer.
func NewSyncCollector(registerer prometheus.Registerer) *SyncCollector {
	factory := promauto.With(registerer)

	return &SyncCollector{
		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_sent_total",
			Namespace: namespaceFinality,
			Subsystem: subsystemSync,
			Help:      "the number of sync messages sent, by message type",
		}, []string{LabelMessage}),

		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_received_total",
			Namespace: namespaceFinality,
			Subsystem: subsystemSync,
			Help:      "the number of sync messages received, by message type",
		}, []string{LabelMessage}),

		messagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_dropped_total",
			Namespace: namespaceFinality,
			Subsystem: subsystemSync,
			Help:      "the number of inbound sync messages dropped, by reason",
		}, []string{LabelReason}),

		taskDelay: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "task_delay_seconds",
			Namespace: namespaceFinality,
			Subsystem: subsystemSync,
			Help:      "the delay with which request tasks are scheduled",
			Buckets:   []float64{0, 0.5, 5},
		}),

		justificationsHandled: factory.NewCounter(prometheus.CounterOpts{
			Name:      "justifications_handled_total",
			Namespace: namespaceFinality,
			Subsystem: subsystemSync,
			Help:      "the number of justifications handled by the sync service",
		}),

		topFinalized: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "top_finalized_number",
			Namespace: namespaceFinality,
			Subsystem: subsystemSync,
			Help:      "the number of the top finalized block",
		}),

		stalls: factory.NewCounter(prometheus.CounterOpts{
			Name:      "stalls_total",
			Namespace: namespaceFinality,
			Subsystem: subsystemSync,
			Help:      "the number of detected finalization stalls",
		}),

		forestRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name:      "forest_refreshes_total",
			Namespace: namespaceFinality,
			Subsystem: subsystemSync,
			Help:      "the number of times the forest was rebuilt from the chain status",
		}),
	}
}

func (sc *SyncCollector) MessageSent(messageType string) {
	sc.messagesSent.WithLabelValues(messageType).Inc()
}

func (sc *SyncCollector) MessageReceived(messageType string) {
	sc.messagesReceived.WithLabelValues(messageType).Inc()
}

func (sc *SyncCollector) MessageDropped(reason string) {
	sc.messagesDropped.WithLabelValues(reason).Inc()
}

func (sc *SyncCollector) TaskScheduled(delay time.Duration) {
	sc.taskDelay.Observe(delay.Seconds())
}

func (sc *SyncCollector) JustificationsHandled(count int) {
	sc.justificationsHandled.Add(float64(count))
}

func (sc *SyncCollector) TopFinalized(number chain.BlockNumber) {
	sc.topFinalized.Set(float64(number))
}

func (sc *SyncCollector) StallDetected() {
	sc.stalls.Inc()
}

func (sc *SyncCollector) ForestRefreshed() {
	sc.forestRefreshes.Inc()
}
