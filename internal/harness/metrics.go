package harness

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes a run summary as Prometheus gauges, labelled by check.
// It uses its own registry so repeated runs in one process do not clash.
type Metrics struct {
	registry   *prometheus.Registry
	passed     *prometheus.GaugeVec
	mismatches *prometheus.GaugeVec
	cells      *prometheus.GaugeVec
	duration   *prometheus.GaugeVec
	failed     prometheus.Gauge
}

// NewMetrics creates and registers the g3dtest gauges.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "g3dtest_check_passed",
			Help: "Whether the check passed (1) or failed (0)",
		}, []string{"check", "kind"}),
		mismatches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "g3dtest_check_mismatches",
			Help: "Number of mismatching values found by the check",
		}, []string{"check"}),
		cells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "g3dtest_check_cells",
			Help: "Number of values verified by the check",
		}, []string{"check"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "g3dtest_check_duration_seconds",
			Help: "Wall time spent in the check",
		}, []string{"check"}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "g3dtest_failed_checks",
			Help: "Number of failed checks in the run",
		}),
	}
	m.registry.MustRegister(m.passed, m.mismatches, m.cells, m.duration, m.failed)
	return m
}

// Observe records every result of s.
func (m *Metrics) Observe(s Summary) {
	for _, r := range s.Results {
		name := string(r.Name)
		passed := 0.0
		if r.Passed {
			passed = 1.0
		}
		m.passed.WithLabelValues(name, string(r.Kind)).Set(passed)
		m.mismatches.WithLabelValues(name).Set(float64(r.FailureCount))
		m.cells.WithLabelValues(name).Set(float64(r.Cells))
		m.duration.WithLabelValues(name).Set(r.Duration.Seconds())
	}
	m.failed.Set(float64(s.Failed))
}

// Registry returns the registry the gauges live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the gauges in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
