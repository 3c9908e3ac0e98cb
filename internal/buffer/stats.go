package buffer

import (
	"math"
)

// Stats is a set of statistical properties of a set of numbers.
// Non finite values are counted separately and do not affect the moments.
type Stats struct {
	count          int
	skipped        int
	sum            float64
	min, max       float64
	mean, dSquared float64
}

// NewStats creates a new Stats.
func NewStats() *Stats {
	return &Stats{
		min: math.MaxFloat64,
		max: -math.MaxFloat64,
	}
}

// Push adds another element to the set.
func (s *Stats) Push(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.skipped++
		return
	}
	s.count++
	s.sum += v
	diff := (v - s.mean) / float64(s.count)
	mean := s.mean + diff
	squaredDiff := (v - mean) * (v - s.mean)
	s.dSquared += squaredDiff
	s.mean = mean

	if s.min > v {
		s.min = v
	}

	if s.max < v {
		s.max = v
	}
}

// Avg returns the average value of the set.
func (s Stats) Avg() float64 {
	return s.mean
}

// Sum returns the sum of the set.
func (s Stats) Sum() float64 {
	return s.sum
}

// Count returns the number of finite elements.
func (s Stats) Count() int {
	return s.count
}

// Skipped returns the number of non finite elements pushed.
func (s Stats) Skipped() int {
	return s.skipped
}

// Min returns the smallest element, 0 for an empty set.
func (s Stats) Min() float64 {
	if s.count == 0 {
		return 0
	}
	return s.min
}

// Max returns the largest element, 0 for an empty set.
func (s Stats) Max() float64 {
	if s.count == 0 {
		return 0
	}
	return s.max
}

// Variance is the mathematical variance of the set.
func (s Stats) Variance() float64 {
	if s.count == 0 {
		return 0
	}
	return s.dSquared / float64(s.count)
}

// StDev is the standard deviation of the set.
func (s Stats) StDev() float64 {
	return math.Sqrt(s.Variance())
}

// Summary is an exportable snapshot of a Stats.
type Summary struct {
	Count   int     `json:"count"`
	Skipped int     `json:"skipped,omitempty"`
	Sum     float64 `json:"sum"`
	Avg     float64 `json:"avg"`
	StDev   float64 `json:"stdev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Summary returns a snapshot of the current state.
func (s Stats) Summary() Summary {
	return Summary{
		Count:   s.count,
		Skipped: s.skipped,
		Sum:     s.Sum(),
		Avg:     s.Avg(),
		StDev:   s.StDev(),
		Min:     s.Min(),
		Max:     s.Max(),
	}
}

// Summarize pushes all values into a new Stats.
func Summarize(vv []float64) *Stats {
	s := NewStats()
	for _, v := range vv {
		s.Push(v)
	}
	return s
}
