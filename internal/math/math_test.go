package math

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {

	type test struct {
		input  float64
		output string
	}

	tests := map[string]test{
		"0": {
			input:  0,
			output: "0.0000",
		},
		"-1": {
			input:  -1,
			output: "-1.0000",
		},
		"5": {
			input:  1.55556,
			output: "1.5556",
		},
		"4": {
			input:  1.44444,
			output: "1.4444",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := Format(tt.input)
			assert.Equal(t, tt.output, s)
		})
	}

}

func TestFinite(t *testing.T) {
	assert.True(t, Finite())
	assert.True(t, Finite(1, -2, 0))
	assert.False(t, Finite(1, math.NaN()))
	assert.False(t, Finite(math.Inf(-1)))
}

func TestBlend(t *testing.T) {
	v := Blend([]float64{10, 0}, []float64{0, 10}, 0.3)
	assert.InDelta(t, 3.0, v[0], 1e-12)
	assert.InDelta(t, 7.0, v[1], 1e-12)
}

func TestRunningMean(t *testing.T) {
	xx := [][]float64{{1, 2}, {3, 4}, {5, 9}}
	mean := make([]float64, 2)
	for i, x := range xx {
		RunningMean(mean, x, i+1)
	}
	assert.InDelta(t, 3.0, mean[0], 1e-12)
	assert.InDelta(t, 5.0, mean[1], 1e-12)

	// identical vectors leave the mean untouched
	same := []float64{0.1, 0.7}
	mean = make([]float64, 2)
	for i := 0; i < 7; i++ {
		RunningMean(mean, same, i+1)
	}
	assert.Equal(t, same, mean)
}

func TestMedian(t *testing.T) {

	type test struct {
		input  []float64
		output float64
	}

	tests := map[string]test{
		"empty": {
			input:  []float64{},
			output: 0,
		},
		"odd": {
			input:  []float64{5, 1, 3},
			output: 3,
		},
		"even": {
			input:  []float64{4, 1, 3, 2},
			output: 2.5,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.output, Median(tt.input))
		})
	}
}

func TestDense_Rows(t *testing.T) {
	rows := [][]float64{{1, 2, 3}, {4, 5, 6}}
	m := NewDense(rows)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, rows, Rows(m))
}

func TestSpacing(t *testing.T) {

	t.Run("grid", func(t *testing.T) {
		m := NewDense(Grid(0, 0, 4, 0.5))
		// first neighbour is always one step away
		assert.InDelta(t, 0.5, Spacing(m, Euclidean, 1, nil), 1e-12)
		// interior and edge points have their 5th neighbour on the diagonal
		assert.InDelta(t, math.Sqrt(0.5), Spacing(m, Euclidean, 5, nil), 1e-12)
	})

	t.Run("k-beyond-size", func(t *testing.T) {
		m := NewDense([][]float64{{0, 0}, {0, 1}, {0, 3}})
		// all points fall back to their furthest neighbour: 3, 2, 3
		assert.InDelta(t, 3.0, Spacing(m, Euclidean, 10, nil), 1e-12)
	})

	t.Run("identical", func(t *testing.T) {
		m := NewDense(Repeat([]float64{1, 1}, 5))
		assert.Equal(t, 0.0, Spacing(m, Euclidean, 2, nil))
	})

	t.Run("single", func(t *testing.T) {
		m := NewDense([][]float64{{1, 1}})
		assert.Equal(t, 0.0, Spacing(m, Euclidean, 2, nil))
	})

	t.Run("probes", func(t *testing.T) {
		m := NewDense([][]float64{{0, 0}, {0, 1}, {0, 3}})
		assert.InDelta(t, 1.0, Spacing(m, Euclidean, 1, []int{0}), 1e-12)
	})
}

func TestCloud(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cloud := Cloud(rng, []float64{10, -10}, 500, 0.1)
	require.Len(t, cloud, 500)
	m := NewDense(cloud)
	var sx, sy float64
	for i := 0; i < 500; i++ {
		sx += m.At(i, 0)
		sy += m.At(i, 1)
	}
	assert.InDelta(t, 10, sx/500, 0.05)
	assert.InDelta(t, -10, sy/500, 0.05)
}
