package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus collectors.
type Metrics struct {
	TransactionsTotal   *prometheus.CounterVec
	TransactionDuration prometheus.Histogram
	QueueDepth          *prometheus.GaugeVec
	BreakerState        *prometheus.GaugeVec
	HTTPDuration        *prometheus.HistogramVec
}

// New registers the collectors against reg. Tests pass a fresh
// prometheus.NewRegistry to avoid cross-test registration conflicts.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Transactions by terminal status",
		}, []string{"status"}),

		TransactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "transaction_duration_seconds",
			Help:    "Time spent processing a single delivery",
			Buckets: prometheus.DefBuckets,
		}),

		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Ready messages per queue",
		}, []string{"queue"}),

		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per service (0 closed, 1 half-open, 2 open)",
		}, []string{"service"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// ObserveTransaction records a terminal processing outcome.
func (m *Metrics) ObserveTransaction(status string, seconds float64) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(status).Inc()
	m.TransactionDuration.Observe(seconds)
}

// SetBreakerState translates a breaker state name into the gauge encoding.
func (m *Metrics) SetBreakerState(service, state string) {
	if m == nil {
		return
	}
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	m.BreakerState.WithLabelValues(service).Set(v)
}

// SetQueueDepth records the ready-message count for a queue.
func (m *Metrics) SetQueueDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(queue).Set(float64(depth))
}
