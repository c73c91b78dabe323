package relayer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	Registry                *prometheus.Registry
	EventsObservedCounter   *prometheus.CounterVec
	MessagesRejectedCounter *prometheus.CounterVec
	MessagesEnqueuedCounter *prometheus.CounterVec
	MessagesRelayedCounter  *prometheus.CounterVec
	MessageFailureCounter   *prometheus.CounterVec
	MessagesRequeuedCounter prometheus.Counter
	MessagesPrunedCounter   prometheus.Counter
	ListenFailureCounter    *prometheus.CounterVec
	QueueSizeGauge          *prometheus.GaugeVec
}

func (m *PrometheusMetrics) AddEventsObserved(chain string, count int) {
	m.EventsObservedCounter.WithLabelValues(chain).Add(float64(count))
}

func (m *PrometheusMetrics) IncMessagesRejected(chain, reason string) {
	m.MessagesRejectedCounter.WithLabelValues(chain, reason).Inc()
}

func (m *PrometheusMetrics) IncMessagesEnqueued(srcChain, dstChain string) {
	m.MessagesEnqueuedCounter.WithLabelValues(srcChain, dstChain).Inc()
}

func (m *PrometheusMetrics) IncMessagesRelayed(srcChain, dstChain string) {
	m.MessagesRelayedCounter.WithLabelValues(srcChain, dstChain).Inc()
}

func (m *PrometheusMetrics) IncMessageFailure(srcChain, dstChain, reason string) {
	m.MessageFailureCounter.WithLabelValues(srcChain, dstChain, reason).Inc()
}

func (m *PrometheusMetrics) AddMessagesRequeued(count int) {
	m.MessagesRequeuedCounter.Add(float64(count))
}

func (m *PrometheusMetrics) AddMessagesPruned(count int) {
	m.MessagesPrunedCounter.Add(float64(count))
}

func (m *PrometheusMetrics) IncListenFailure(chain string) {
	m.ListenFailureCounter.WithLabelValues(chain).Inc()
}

// SetQueueSize records the number of queued messages for every status.
func (m *PrometheusMetrics) SetQueueSize(counts map[StatusKind]int) {
	for kind := range statusKindNames {
		m.QueueSizeGauge.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
}

func NewPrometheusMetrics() *PrometheusMetrics {
	chainLabels := []string{"chain"}
	rejectLabels := []string{"chain", "reason"}
	routeLabels := []string{"src_chain", "dst_chain"}
	failureLabels := []string{"src_chain", "dst_chain", "reason"}
	statusLabels := []string{"status"}
	registry := prometheus.NewRegistry()
	registerer := promauto.With(registry)
	return &PrometheusMetrics{
		Registry: registry,
		EventsObservedCounter: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "frostgate_relayer_observed_events",
			Help: "The total number of message events observed on the source chain",
		}, chainLabels),
		MessagesRejectedCounter: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "frostgate_relayer_rejected_messages",
			Help: "The total number of observed messages that failed validation",
		}, rejectLabels),
		MessagesEnqueuedCounter: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "frostgate_relayer_enqueued_messages",
			Help: "The total number of messages added to the relay queue",
		}, routeLabels),
		MessagesRelayedCounter: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "frostgate_relayer_relayed_messages",
			Help: "The total number of messages submitted to the destination chain",
		}, routeLabels),
		MessageFailureCounter: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "frostgate_relayer_message_failures_total",
			Help: "The total number of failed message processing attempts broken up by reason",
		}, failureLabels),
		MessagesRequeuedCounter: registerer.NewCounter(prometheus.CounterOpts{
			Name: "frostgate_relayer_requeued_messages",
			Help: "The total number of failed messages moved back to pending for a retry",
		}),
		MessagesPrunedCounter: registerer.NewCounter(prometheus.CounterOpts{
			Name: "frostgate_relayer_pruned_messages",
			Help: "The total number of messages removed from the queue by pruning",
		}),
		ListenFailureCounter: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "frostgate_relayer_listen_errors_total",
			Help: "The total number of failed event listing calls on the source chain",
		}, chainLabels),
		QueueSizeGauge: registerer.NewGaugeVec(prometheus.GaugeOpts{
			Name: "frostgate_relayer_queue_messages",
			Help: "The current number of messages in the relay queue per status",
		}, statusLabels),
	}
}
