package math

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrUnknownMetric is returned when a metric name cannot be resolved.
var ErrUnknownMetric = errors.New("unknown distance metric")

// Metric is a dissimilarity measure between two feature vectors.
type Metric string

const (
	// Manhattan is the sum of the absolute per-feature differences.
	Manhattan Metric = "manhattan"
	// Euclidean is the square root of the summed squared differences.
	Euclidean Metric = "euclidean"
	// Cosine is one minus the cosine similarity.
	// It is not finite if either vector has zero magnitude.
	Cosine Metric = "cosine"
	// Correlation is one minus the pearson correlation coefficient.
	Correlation Metric = "correlation"
)

// Metrics lists all the supported metrics.
var Metrics = []Metric{Manhattan, Euclidean, Cosine, Correlation}

// ParseMetric resolves the metric for the given name.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	for _, metric := range Metrics {
		if m == metric {
			return m, nil
		}
	}
	return "", fmt.Errorf("'%s': %w", name, ErrUnknownMetric)
}

// Measure returns the distance between a and b.
// Both vectors must have the same length.
func (m Metric) Measure(a, b []float64) float64 {
	switch m {
	case Manhattan:
		return floats.Distance(a, b, 1)
	case Euclidean:
		return floats.Distance(a, b, 2)
	case Cosine:
		return cosine(a, b)
	case Correlation:
		return correlation(a, b)
	}
	panic(fmt.Sprintf("measure called for unknown metric '%s'", string(m)))
}

func cosine(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return math.NaN()
	}
	if floats.Equal(a, b) {
		return 0
	}
	d := 1 - floats.Dot(a, b)/(na*nb)
	// rounding can push parallel vectors slightly below zero
	if d < 0 {
		return 0
	}
	return d
}

func correlation(a, b []float64) float64 {
	if floats.Equal(a, b) {
		return 0
	}
	c := stat.Correlation(a, b, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		// zero variance on either side
		return 0
	}
	if c > 1 {
		return 0
	}
	return 1 - c
}
