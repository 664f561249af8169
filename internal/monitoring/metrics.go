// Package monitoring exposes Prometheus counters describing pipeline runs.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/poxc-cli/internal/model"
)

// Metrics holds the poxc collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	platesProcessed prometheus.Counter
	platesFailed    *prometheus.CounterVec
	results         prometheus.Counter
	skipped         *prometheus.CounterVec
	belowThreshold  prometheus.Gauge
}

// NewMetrics creates and registers the poxc collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		platesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poxc_plates_processed_total",
			Help: "Plates seen by the pipeline, calibrated or not.",
		}),
		platesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poxc_plates_failed_total",
			Help: "Plates skipped before calibration, by reason.",
		}, []string{"reason"}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poxc_results_total",
			Help: "Computed sample results emitted.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poxc_skipped_total",
			Help: "Plates and samples skipped, by reason.",
		}, []string{"reason"}),
		belowThreshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poxc_plates_below_r2_threshold",
			Help: "Plates in the most recent run whose calibration R² fell below the review threshold.",
		}),
	}
	m.registry.MustRegister(m.platesProcessed, m.platesFailed, m.results, m.skipped, m.belowThreshold)
	return m
}

// Observe records one pipeline report.
func (m *Metrics) Observe(r *model.Report) {
	if r == nil {
		return
	}
	plates := len(r.Calibrations)
	for _, s := range r.Skipped {
		m.skipped.WithLabelValues(s.Reason).Inc()
		if s.SampleID == "" {
			plates++
			m.platesFailed.WithLabelValues(s.Reason).Inc()
		}
	}
	m.platesProcessed.Add(float64(plates))
	m.results.Add(float64(len(r.Results)))
	m.belowThreshold.Set(float64(len(r.FlaggedPlates())))
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
