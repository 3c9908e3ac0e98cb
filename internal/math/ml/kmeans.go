package ml

import (
	"errors"
	"fmt"

	"github.com/cdipaolo/goml/cluster"
	"github.com/drakos74/gravity/internal/buffer"
	"github.com/rs/zerolog/log"
)

// ErrInvalidK is returned for a number of clusters that the data cannot support.
var ErrInvalidK = errors.New("invalid number of clusters")

// KMeans is a k-means baseline to compare gravity clusterings against.
type KMeans struct {
	k          int
	iterations int
	model      *cluster.KMeans
	sizes      map[int]*buffer.Stats
}

// NewKMeans creates a new k-means baseline with k clusters.
func NewKMeans(k int, iterations int) *KMeans {
	return &KMeans{
		k:          k,
		iterations: iterations,
	}
}

// Fit trains the model on the points and returns the label of each point, in 1..k.
func (k *KMeans) Fit(points [][]float64) ([]int, error) {
	if k.k < 1 || k.k > len(points) {
		return nil, fmt.Errorf("%d clusters for %d points: %w", k.k, len(points), ErrInvalidK)
	}
	k.model = cluster.NewKMeans(k.k, k.iterations, points)
	if err := k.model.Learn(); err != nil {
		log.Error().
			Err(err).
			Int("k", k.k).
			Int("points", len(points)).
			Msg("error during training on k-means")
		return nil, fmt.Errorf("could not train: %w", err)
	}
	guesses := k.model.Guesses()
	if len(guesses) != len(points) {
		return nil, fmt.Errorf("could not align guesses with data [ %d | %d ]", len(guesses), len(points))
	}
	labels := make([]int, len(guesses))
	k.sizes = make(map[int]*buffer.Stats, k.k)
	for i, g := range guesses {
		labels[i] = g + 1
		if _, ok := k.sizes[labels[i]]; !ok {
			k.sizes[labels[i]] = buffer.NewStats()
		}
		k.sizes[labels[i]].Push(1)
	}
	return labels, nil
}

// Predict returns the label of the nearest centroid.
func (k *KMeans) Predict(x []float64) (int, error) {
	if k.model == nil {
		return 0, fmt.Errorf("no model present")
	}
	guess, err := k.model.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("could not predict: %w", err)
	}
	return int(guess[0]) + 1, nil
}

// Sizes returns the number of points per label of the last fit.
func (k *KMeans) Sizes() map[int]int {
	sizes := make(map[int]int, len(k.sizes))
	for l, s := range k.sizes {
		sizes[l] = s.Count()
	}
	return sizes
}

func pairs(n int) float64 {
	return float64(n) * float64(n-1) / 2
}

// Agreement returns the rand index of two labelings of the same points,
// e.g. the fraction of point pairs on which both agree to be together or apart.
func Agreement(a, b []int) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("labelings of %d and %d points", len(a), len(b))
	}
	n := len(a)
	if n < 2 {
		return 1, nil
	}
	type cell struct{ a, b int }
	joint := make(map[cell]int)
	rows := make(map[int]int)
	cols := make(map[int]int)
	for i := range a {
		joint[cell{a[i], b[i]}]++
		rows[a[i]]++
		cols[b[i]]++
	}
	var same, sa, sb float64
	for _, c := range joint {
		same += pairs(c)
	}
	for _, c := range rows {
		sa += pairs(c)
	}
	for _, c := range cols {
		sb += pairs(c)
	}
	total := pairs(n)
	return (total + 2*same - sa - sb) / total, nil
}
