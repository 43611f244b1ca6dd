package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics covers the reconciliation loop and its external feed calls.
type Metrics struct {
	CyclesTotal    *prometheus.CounterVec
	IntentsChecked prometheus.Counter
	IntentsMatched prometheus.Counter
	IntentsExpired prometheus.Counter
	FeedErrors     prometheus.Counter
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usdt_reconciler",
			Name:      "cycles_total",
			Help:      "Reconciliation cycles by outcome (completed, skipped, failed).",
		}, []string{"outcome"}),
		IntentsChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "usdt_reconciler",
			Name:      "intents_checked_total",
			Help:      "Pending intents checked against the transaction feed.",
		}),
		IntentsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "usdt_reconciler",
			Name:      "intents_matched_total",
			Help:      "Intents settled after a matching transfer was found.",
		}),
		IntentsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "usdt_reconciler",
			Name:      "intents_expired_total",
			Help:      "Intents swept to expired without a feed call.",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "usdt_reconciler",
			Name:      "feed_errors_total",
			Help:      "Transaction feed failures, isolated per intent.",
		}),
	}

	registry.MustRegister(
		m.CyclesTotal,
		m.IntentsChecked,
		m.IntentsMatched,
		m.IntentsExpired,
		m.FeedErrors,
	)

	return m
}
