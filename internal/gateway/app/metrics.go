package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_gateway",
			Name:      "dispatches_total",
			Help:      "Total dispatch attempts.",
		},
		[]string{"provider", "outcome"}, // outcome: "sent" or "failed"
	)

	providerRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sms_gateway",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of channel send calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	dlrProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_gateway",
			Name:      "dlrs_processed_total",
			Help:      "Total delivery receipts processed.",
		},
		[]string{"outcome"}, // "delivered", "recorded", "unmatched", "error"
	)

	receiptSweepCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_gateway",
			Name:      "receipt_sweep_transitions_total",
			Help:      "Messages moved to a heuristic delivery state by the receipt-wait sweep.",
		},
		[]string{"to_status"},
	)
)
