package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Helpers are safe
// on a nil receiver so tests can pass nil instead of registering collectors.
type Metrics struct {
	ReportsGenerated    *prometheus.CounterVec
	ReportsAcknowledged prometheus.Counter
	GenerateDuration    prometheus.Histogram
	CriticalChanges     prometheus.Counter
	HTTPDuration        *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ReportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "acredita_reports_generated_total",
			Help: "Total reports generated, labeled by final status",
		}, []string{"final_status"}),
		ReportsAcknowledged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "acredita_reports_acknowledged_total",
			Help: "Total reports acknowledged and locked",
		}),
		GenerateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "acredita_report_generate_duration_seconds",
			Help:    "Latency of report generation",
			Buckets: prometheus.DefBuckets,
		}),
		CriticalChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "acredita_critical_config_changes_total",
			Help: "Total severity-reducing configuration changes applied",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acredita_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) ObserveReportGenerated(finalStatus string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(finalStatus).Inc()
	m.GenerateDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementReportsAcknowledged() {
	if m == nil {
		return
	}
	m.ReportsAcknowledged.Inc()
}

func (m *Metrics) IncrementCriticalChanges() {
	if m == nil {
		return
	}
	m.CriticalChanges.Inc()
}

func (m *Metrics) ObserveHTTPRequest(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
