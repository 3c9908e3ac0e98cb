package math

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Format formats a float based on the given precision
func Format(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// Finite returns true if none of the values is NaN or infinite.
func Finite(v ...float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Blend returns candidate*weight + from*(1-weight).
func Blend(candidate, from []float64, weight float64) []float64 {
	v := make([]float64, len(from))
	for i := range from {
		v[i] = candidate[i]*weight + from[i]*(1-weight)
	}
	return v
}

// RunningMean folds x into the mean of the previous n-1 vectors.
// For n == 1 the mean becomes a copy of x.
func RunningMean(mean, x []float64, n int) {
	for i := range mean {
		mean[i] += (x[i] - mean[i]) / float64(n)
	}
}

// Median returns the median of the given values, 0 for an empty slice.
// The input is sorted in place.
func Median(ff []float64) float64 {
	n := len(ff)
	if n == 0 {
		return 0
	}
	sort.Float64s(ff)
	if n%2 == 1 {
		return ff[n/2]
	}
	return (ff[n/2-1] + ff[n/2]) / 2
}

// NewDense creates a matrix out of the given rows.
// All rows are expected to have the same length.
func NewDense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data)
}

// Rows returns a copy of the matrix rows.
func Rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, m)
	}
	return rows
}

// Spacing returns the median distance of the probed rows to their k-th nearest neighbour.
// Non finite distances are ignored. A nil probe slice evaluates all rows.
func Spacing(m *mat.Dense, metric Metric, k int, probes []int) float64 {
	n, _ := m.Dims()
	if n < 2 || k < 1 {
		return 0
	}
	if probes == nil {
		probes = make([]int, n)
		for i := range probes {
			probes[i] = i
		}
	}
	kth := make([]float64, 0, len(probes))
	dd := make([]float64, 0, n-1)
	for _, i := range probes {
		dd = dd[:0]
		p := m.RawRowView(i)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := metric.Measure(p, m.RawRowView(j))
			if Finite(d) {
				dd = append(dd, d)
			}
		}
		if len(dd) == 0 {
			continue
		}
		sort.Float64s(dd)
		idx := k
		if idx > len(dd) {
			idx = len(dd)
		}
		kth = append(kth, dd[idx-1])
	}
	return Median(kth)
}
