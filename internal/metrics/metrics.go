package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Converged is the outcome of a descent that stabilised.
	Converged = "converged"
	// Excluded is the outcome of a descent that ran out of steps and was skipped.
	Excluded = "excluded"
	// Aborted is the outcome of a descent that ran out of steps and failed the run.
	Aborted = "aborted"

	// Cluster is the phase right after the greedy agglomeration.
	Cluster = "cluster"
	// Merge is the phase after merging overlapping clusters.
	Merge = "merge"
)

// Observer is the process wide instance, registered with the default prometheus registry.
var Observer = MustRegister(prometheus.DefaultRegisterer)

// Metrics tracks the progress of clustering runs.
type Metrics struct {
	prometheus Prometheus
}

// New creates a new set of metrics and registers them with the given registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	p := NewPrometheusMetrics()
	if reg != nil {
		for _, c := range p.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("could not register metrics: %w", err)
			}
		}
	}
	return &Metrics{prometheus: p}, nil
}

// MustRegister is like New but panics on a registration error.
func MustRegister(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// Descent records the outcome of one point descent and the steps it took.
func (m *Metrics) Descent(outcome string, steps int) {
	m.prometheus.Descents.WithLabelValues(outcome).Inc()
	m.prometheus.Steps.Observe(float64(steps))
}

// Points records the size of the fitted dataset.
func (m *Metrics) Points(n int) {
	m.prometheus.Points.Set(float64(n))
}

// Clusters records the number of clusters at the end of the given phase.
func (m *Metrics) Clusters(phase string, n int) {
	m.prometheus.Clusters.WithLabelValues(phase).Set(float64(n))
}

// Merged records a merge of two clusters.
func (m *Metrics) Merged() {
	m.prometheus.Merges.Inc()
}
