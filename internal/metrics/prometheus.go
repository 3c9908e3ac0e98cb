package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "gravity"

// Prometheus holds the collectors of a clustering run.
type Prometheus struct {
	Descents *prometheus.CounterVec
	Steps    prometheus.Histogram
	Clusters *prometheus.GaugeVec
	Merges   prometheus.Counter
	Points   prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors, unregistered.
func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Descents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "descents_total",
				Help:      "point descents by outcome",
			}, []string{"outcome"}),
		Steps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "descent_steps",
				Help:      "relocation steps per point descent",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			}),
		Clusters: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "clusters",
				Help:      "clusters realised by the last prediction, per phase",
			}, []string{"phase"}),
		Merges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merges_total",
				Help:      "cluster pairs merged",
			}),
		Points: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "points",
				Help:      "points of the last fitted dataset",
			}),
	}
}

func (p Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.Descents, p.Steps, p.Clusters, p.Merges, p.Points}
}
