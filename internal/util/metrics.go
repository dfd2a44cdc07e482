package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders marked paid",
	})

	OrdersReadyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_ready_total",
		Help: "Total number of orders that reached ready-for-pickup",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Total number of orders picked up",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	OrderTransitionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_failed_total",
		Help: "Total number of rejected order state transitions",
	}, []string{"reason"})

	ItemsConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_items_confirmed_total",
		Help: "Total number of order item confirmations",
	})

	StationsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stations_completed_total",
		Help: "Total number of station completions",
	})

	PrintJobsEnqueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_enqueued_total",
		Help: "Total number of print jobs enqueued",
	}, []string{"type"})

	PrintJobsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "print_jobs_sent_total",
		Help: "Total number of print jobs delivered",
	})

	PrintJobsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_failed_total",
		Help: "Total number of failed print job attempts",
	}, []string{"terminal"})

	PrintDispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "print_dispatch_latency_seconds",
		Help:    "Latency of print delivery attempts",
		Buckets: prometheus.DefBuckets,
	})

	TicketsCalledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_tickets_called_total",
		Help: "Total number of queue tickets called",
	})

	QueueResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_resets_total",
		Help: "Total number of administrative queue resets",
	})

	DaysOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "operational_days_opened_total",
		Help: "Total number of operational days opened",
	})

	DaysClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "operational_days_closed_total",
		Help: "Total number of operational days closed",
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
