// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for analyses and report rendering.
type Metrics struct {
	Analyses         *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	SourceErrors     prometheus.Counter
	Reports          *prometheus.CounterVec
}

// New registers all collectors with reg. Passing a fresh registry keeps
// tests independent of the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compliscope_analyses_total",
			Help: "Completed analyses by summary status",
		}, []string{"status"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliscope_analysis_duration_seconds",
			Help:    "Duration of analyses including compliance table load",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		SourceErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "compliscope_source_errors_total",
			Help: "Failures loading the compliance table",
		}),
		Reports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compliscope_reports_total",
			Help: "Rendered reports by format",
		}, []string{"format"}),
	}
}

// ObserveAnalysis records a completed analysis. Call with time.Now() at the
// start of the operation.
func (m *Metrics) ObserveAnalysis(start time.Time, status string) {
	m.AnalysisDuration.Observe(time.Since(start).Seconds())
	m.Analyses.WithLabelValues(status).Inc()
}

// IncrementSourceErrors records a failed compliance table load.
func (m *Metrics) IncrementSourceErrors() {
	m.SourceErrors.Inc()
}

// IncrementReports records a rendered report.
func (m *Metrics) IncrementReports(format string) {
	m.Reports.WithLabelValues(format).Inc()
}
