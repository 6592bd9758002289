package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundrouter_orders_total",
			Help: "Total number of order delegations by outcome",
		},
		[]string{"outcome"},
	)

	OrderLegsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundrouter_order_legs_total",
			Help: "Total number of processed deposit legs",
		},
		[]string{"asset"},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundrouter_withdrawals_total",
			Help: "Total number of withdrawal settlements by outcome",
		},
		[]string{"outcome"},
	)

	FeeSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundrouter_fee_sweeps_total",
			Help: "Total number of fee sweeps",
		},
		[]string{"asset"},
	)

	EmergencyWithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundrouter_emergency_withdrawals_total",
			Help: "Total number of emergency withdrawals",
		},
		[]string{"asset"},
	)

	BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fundrouter_breaker_paused",
		Help: "Circuit breaker state (1=paused, 0=normal)",
	})

	ReentrantRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundrouter_reentrant_rejections_total",
		Help: "Total number of calls rejected by the entry guard",
	})

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fundrouter_operation_duration_seconds",
			Help:    "Fund-moving operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundrouter_notifications_published_total",
			Help: "Total number of notifications published to NATS",
		},
		[]string{"event"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundrouter_notification_failures_total",
			Help: "Total number of notification publish failures",
		},
		[]string{"event"},
	)
)
