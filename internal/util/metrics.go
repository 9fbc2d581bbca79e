package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesCommittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_committed_total",
		Help: "Total number of committed purchase transactions",
	})

	PurchasesAbortedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_aborted_total",
		Help: "Total number of aborted purchase transactions",
	}, []string{"kind"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of checkout transactions",
		Buckets: prometheus.DefBuckets,
	})

	StockDecrementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_decrements_total",
		Help: "Total number of applied stock decrements",
	})

	LowStockEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_events_total",
		Help: "Total number of published low-stock reminders",
	})

	ReminderPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_publish_failures_total",
		Help: "Total number of low-stock reminders that could not be delivered",
	})

	RemindersConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminders_consumed_total",
		Help: "Total number of low-stock reminders consumed by the reminder worker",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
