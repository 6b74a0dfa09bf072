// Package metrics provides Prometheus metrics collection for invoicer.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "invoicer"

// Collector holds all Prometheus metrics for invoicer.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Invoice metrics
	InvoicesCreated   *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	InvoicesSent      prometheus.Counter
	NotificationErrs  prometheus.Counter

	// Payment metrics
	PaymentsRecorded *prometheus.CounterVec
	PaymentsAmount   *prometheus.CounterVec

	// Overdue sweep metrics
	OverdueSweeps       prometheus.Counter
	OverdueSweepErrors  prometheus.Counter
	OverdueMarked       prometheus.Counter
	OverdueSweepSeconds prometheus.Histogram

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),

		InvoicesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_created_total",
				Help:      "Total number of invoices created",
			},
			[]string{"currency"},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoice_status_transitions_total",
				Help:      "Invoice status changes by source and target status",
			},
			[]string{"from", "to"},
		),
		InvoicesSent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_sent_total",
				Help:      "Total number of invoices issued to clients",
			},
		),
		NotificationErrs: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoice_notification_errors_total",
				Help:      "Invoice emails that failed to render or send",
			},
		),

		PaymentsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_recorded_total",
				Help:      "Total number of payments recorded",
			},
			[]string{"method"},
		),
		PaymentsAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_amount_total",
				Help:      "Sum of recorded payment amounts",
			},
			[]string{"currency"},
		),

		OverdueSweeps: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overdue_sweeps_total",
				Help:      "Total number of overdue sweeps run",
			},
		),
		OverdueSweepErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overdue_sweep_errors_total",
				Help:      "Total number of overdue sweeps that failed",
			},
		),
		OverdueMarked: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overdue_invoices_marked_total",
				Help:      "Invoices whose status changed during an overdue sweep",
			},
		),
		OverdueSweepSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "overdue_sweep_duration_seconds",
				Help:      "Overdue sweep duration in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
			},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// NormalizePath reduces cardinality by replacing ID segments with ":id".
// e.g., /api/invoices/inv_42/payments -> /api/invoices/:id/payments
func NormalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if i > 0 && isIDSegment(parts[i-1], p) {
			parts[i] = ":id"
		}
	}
	out := strings.Join(parts, "/")
	if len(out) > 64 {
		return out[:64] + "..."
	}
	return out
}

// isIDSegment reports whether seg follows a collection name that takes IDs.
func isIDSegment(prev, seg string) bool {
	if seg == "" {
		return false
	}
	switch prev {
	case "invoices", "gateways":
		return true
	}
	return false
}
