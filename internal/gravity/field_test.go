package gravity

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	gmath "github.com/drakos74/gravity/internal/math"
	"github.com/drakos74/gravity/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func offset(points [][]float64, x, y float64) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = []float64{p[0] + x, p[1] + y}
	}
	return out
}

var six = [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0.5, 0.5}, {0.5, 0}}

func fitPredict(t *testing.T, data [][]float64, cfg Config) (*Field, *Fit, []int) {
	field, err := New(gmath.NewDense(data), cfg)
	require.NoError(t, err)
	fit, err := field.Fit(context.Background())
	require.NoError(t, err)
	labels, err := field.Predict(fit)
	require.NoError(t, err)
	return field, fit, labels
}

func distinct(labels []int) map[int]int {
	ll := make(map[int]int)
	for _, l := range labels {
		ll[l]++
	}
	return ll
}

func TestNew(t *testing.T) {

	type test struct {
		data   *mat.Dense
		update func(c *Config)
		err    error
	}

	tests := map[string]test{
		"valid": {
			data:   gmath.NewDense(scenarioA),
			update: func(c *Config) {},
		},
		"nil": {
			update: func(c *Config) {},
			err:    ErrEmptyDataset,
		},
		"empty": {
			data:   &mat.Dense{},
			update: func(c *Config) {},
			err:    ErrEmptyDataset,
		},
		"invalid-scaling": {
			data:   gmath.NewDense(scenarioA),
			update: func(c *Config) { c.ScalingFactor = 0 },
			err:    ErrInvalidScaling,
		},
		"unknown-metric": {
			data:   gmath.NewDense(scenarioA),
			update: func(c *Config) { c.Distance = "chebyshev" },
			err:    ErrUnknownMetric,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := euclidean()
			tt.update(&cfg)
			f, err := New(tt.data, cfg)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "%v", err)
				assert.Nil(t, f)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, f.RunID())
			assert.Equal(t, int64(1), f.Seed())
		})
	}
}

func TestNew_NonFinite(t *testing.T) {

	type test struct {
		value    float64
		row, col int
	}

	tests := map[string]test{
		"nan": {
			value: math.NaN(),
			row:   3,
			col:   1,
		},
		"inf": {
			value: math.Inf(1),
			row:   0,
			col:   0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data := gmath.NewDense(scenarioA)
			data.Set(tt.row, tt.col, tt.value)
			_, err := New(data, euclidean())
			var de *DataError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.row, de.Row)
			assert.Equal(t, tt.col, de.Col)
		})
	}
}

func TestNew_TimeSeed(t *testing.T) {
	cfg := euclidean()
	cfg.Seed = 0
	f, err := New(gmath.NewDense(scenarioA), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, int64(0), f.Seed())
}

// The five points are laid out in euclidean terms, so this departs from the default
// cosine metric on purpose. Under cosine all of them point the same way.
func TestField_FivePoints(t *testing.T) {
	_, _, cosine := fitPredict(t, scenarioA, DefaultConfig())
	assert.Equal(t, []int{1, 1, 1, 1, 1}, cosine)

	_, fit, labels := fitPredict(t, scenarioA, euclidean())
	assert.Equal(t, []int{1, 1, 2, 2, 2}, labels)
	for _, z := range fit.Fuzz {
		assert.Equal(t, 0.0, z)
	}
	assert.Empty(t, fit.Excluded)
	assert.True(t, fit.Resolution > 0)
}

func TestField_Separated(t *testing.T) {

	type test struct {
		data      [][]float64
		size      int
		subsample int
	}

	grid := gmath.Grid(0, 0, 4, 0.5)

	tests := map[string]test{
		"six-points": {
			data: append(offset(six, 10, 0), offset(six, 0, 10)...),
			size: 6,
		},
		"grids": {
			data: append(offset(grid, 10, 0), offset(grid, 0, 40)...),
			size: 16,
		},
		"near-grids": {
			data: append(offset(grid, 10, 0), offset(grid, 0, 10)...),
			size: 16,
		},
		"grids-subsampled": {
			data:      append(offset(grid, 10, 0), offset(grid, 0, 40)...),
			size:      16,
			subsample: 10,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := euclidean()
			cfg.SampleSubsample = tt.subsample
			_, _, labels := fitPredict(t, tt.data, cfg)
			assert.Equal(t, 2, len(distinct(labels)), "%v", labels)
			assert.Equal(t, 1, len(distinct(labels[:tt.size])))
			assert.Equal(t, 1, len(distinct(labels[tt.size:])))
			assert.NotEqual(t, 0, labels[0])
		})
	}
}

func TestField_Identical(t *testing.T) {
	for _, metric := range gmath.Metrics {
		t.Run(string(metric), func(t *testing.T) {
			cfg := euclidean()
			cfg.Distance = string(metric)
			field, fit, labels := fitPredict(t, gmath.Repeat([]float64{2, 3}, 6), cfg)
			assert.Equal(t, []int{1, 1, 1, 1, 1, 1}, labels)
			for _, z := range fit.Fuzz {
				assert.Equal(t, 0.0, z)
			}
			clusters := field.Clusters()
			require.Len(t, clusters, 1)
			assert.Equal(t, 6, clusters[0].Weight())
			assert.Equal(t, 0.0, clusters[0].Radius())
		})
	}
}

func TestField_SinglePoint(t *testing.T) {
	_, fit, labels := fitPredict(t, [][]float64{{1, 2, 3}}, euclidean())
	assert.Equal(t, []int{1}, labels)
	assert.Equal(t, 0.0, fit.Fuzz[0])
}

func cloudData(seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	data := gmath.Cloud(rng, []float64{0, 0, 0}, 40, 1)
	data = append(data, gmath.Cloud(rng, []float64{5, 5, 5}, 40, 2)...)
	return append(data, gmath.Cloud(rng, []float64{-4, 6, 0}, 20, 0.5)...)
}

func TestField_Labels(t *testing.T) {
	for _, metric := range gmath.Metrics {
		t.Run(string(metric), func(t *testing.T) {
			cfg := euclidean()
			cfg.Distance = string(metric)
			cfg.SampleSubsample = 20
			cfg.Workers = 4
			field, fit, labels := fitPredict(t, cloudData(3), cfg)

			clusters := field.Clusters()
			k := len(clusters)
			require.True(t, k > 0)
			// labels cover 1..K
			ll := distinct(labels)
			assert.Equal(t, k, len(ll))
			total := 0
			for i, c := range clusters {
				assert.Equal(t, i+1, c.ID())
				assert.Equal(t, c.Weight(), ll[c.ID()])
				total += c.Weight()
			}
			assert.Equal(t, len(labels), total)

			// predicting again gives the same result
			again, err := field.Predict(fit)
			require.NoError(t, err)
			assert.Equal(t, labels, again)
			assert.Equal(t, k, len(field.Clusters()))
		})
	}
}

func TestField_Deterministic(t *testing.T) {
	cfg := euclidean()
	cfg.SampleSubsample = 15
	cfg.Seed = 42
	cfg.Workers = 8
	_, fit1, labels1 := fitPredict(t, cloudData(1), cfg)
	cfg.Workers = 1
	_, fit2, labels2 := fitPredict(t, cloudData(1), cfg)
	assert.Equal(t, labels1, labels2)
	assert.Equal(t, fit1.Fuzz, fit2.Fuzz)
	assert.True(t, mat.Equal(fit1.Positions, fit2.Positions))
}

func TestField_ClusterExactness(t *testing.T) {
	cfg := euclidean()
	cfg.SampleSubsample = 20
	field, err := New(gmath.NewDense(cloudData(5)), cfg)
	require.NoError(t, err)
	fit, err := field.Fit(context.Background())
	require.NoError(t, err)

	require.NoError(t, field.ClusterPoints(fit))
	for _, c := range field.clusters {
		assertExact(t, c)
	}
	field.MergeClusters()
	for _, c := range field.clusters {
		assertExact(t, c)
	}
	// no pair left to merge
	for i, a := range field.clusters {
		for _, b := range field.clusters[i+1:] {
			d := gmath.Euclidean.Measure(a.centroid, b.centroid)
			assert.False(t, field.policy.Mergeable(d, a.radius, b.radius))
		}
	}
}

func TestField_SingleTrial(t *testing.T) {
	cfg := euclidean()
	cfg.SampleSubsample = 10
	cfg.FuzzTrials = 1
	field, err := New(gmath.NewDense(cloudData(2)), cfg)
	require.NoError(t, err)
	fit, err := field.Fit(context.Background())
	require.NoError(t, err)
	for _, z := range fit.Fuzz {
		assert.Equal(t, 0.0, z)
	}
}

func TestField_NoMerge(t *testing.T) {
	cfg := euclidean()
	cfg.SampleSubsample = 20
	cfg.Merge = false
	field, _, labels := fitPredict(t, cloudData(4), cfg)
	assert.Equal(t, len(field.Clusters()), len(distinct(labels)))

	cfg.Merge = true
	merged, _, _ := fitPredict(t, cloudData(4), cfg)
	assert.True(t, len(merged.Clusters()) <= len(field.Clusters()))
}

func TestField_NonConvergence(t *testing.T) {

	t.Run("abort", func(t *testing.T) {
		cfg := euclidean()
		cfg.MaxSteps = 1
		field, err := New(gmath.NewDense(scenarioA), cfg)
		require.NoError(t, err)
		_, err = field.Fit(context.Background())
		var nc *NonConvergenceError
		require.True(t, errors.As(err, &nc), "%v", err)
		assert.Equal(t, 2, nc.Steps)
	})

	t.Run("exclude", func(t *testing.T) {
		cfg := euclidean()
		cfg.MaxSteps = 1
		cfg.OnNonConvergence = Exclude
		field, fit, labels := fitPredict(t, scenarioA, cfg)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, fit.Excluded)
		assert.Equal(t, []int{0, 0, 0, 0, 0}, labels)
		assert.Empty(t, field.Clusters())
		for i, z := range fit.Fuzz {
			assert.True(t, math.IsInf(z, 1))
			assert.Equal(t, scenarioA[i], fit.Positions.RawRowView(i))
		}
	})

	t.Run("restored", func(t *testing.T) {
		field, fit, _ := fitPredict(t, scenarioA, euclidean())
		fuzz := append([]float64{}, fit.Fuzz...)
		fuzz[4] = math.Inf(1)
		restored, err := field.Restore(fit.Positions, fuzz)
		require.NoError(t, err)
		assert.Equal(t, []int{4}, restored.Excluded)
		labels, err := field.Predict(restored)
		require.NoError(t, err)
		assert.Equal(t, 0, labels[4])
		for _, l := range labels[:4] {
			assert.NotEqual(t, 0, l)
		}
	})
}

func TestField_Cancelled(t *testing.T) {
	field, err := New(gmath.NewDense(scenarioA), euclidean())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = field.Fit(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestField_Restore(t *testing.T) {
	cfg := euclidean()
	field, fit, labels := fitPredict(t, scenarioA, cfg)

	restored, err := field.Restore(fit.Positions, fit.Fuzz)
	require.NoError(t, err)
	assert.Equal(t, fit.Resolution, restored.Resolution)
	for i := range fit.Displacement {
		assert.InDelta(t, fit.Displacement[i], restored.Displacement[i], 1e-9)
	}
	again, err := field.Predict(restored)
	require.NoError(t, err)
	assert.Equal(t, labels, again)

	_, err = field.Restore(fit.Positions, fit.Fuzz[:2])
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = field.Restore(gmath.NewDense([][]float64{{1, 1}}), fit.Fuzz)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestField_ResolutionOverride(t *testing.T) {
	// first neighbours are 0.5 apart, the derived resolution is 0.45
	data := gmath.NewDense([][]float64{{0, 0}, {0.5, 0}, {3, 0}, {3.5, 0}})
	positions := gmath.NewDense([][]float64{{0, 0}, {0, 0}, {0.3, 0}, {0.3, 0}})
	fuzz := []float64{0, 0, 0, 0}

	type test struct {
		resolution *float64
		expected   float64
		labels     []int
	}

	tests := map[string]test{
		"derived": {
			expected: 0.45,
			labels:   []int{1, 1, 1, 1},
		},
		"zero": {
			resolution: resolution(0),
			expected:   0,
			labels:     []int{1, 1, 2, 2},
		},
		"wide": {
			resolution: resolution(5),
			expected:   5,
			labels:     []int{1, 1, 1, 1},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := euclidean()
			cfg.Resolution = tt.resolution
			field, err := New(data, cfg)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, field.Resolution(), 1e-12)
			fit, err := field.Restore(positions, fuzz)
			require.NoError(t, err)
			labels, err := field.Predict(fit)
			require.NoError(t, err)
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestField_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observer := metrics.MustRegister(reg)

	field, err := New(gmath.NewDense(scenarioA), euclidean(), WithMetrics(observer), WithRunID("test-run"))
	require.NoError(t, err)
	assert.Equal(t, "test-run", field.RunID())
	fit, err := field.Fit(context.Background())
	require.NoError(t, err)
	_, err = field.Predict(fit)
	require.NoError(t, err)

	assert.Equal(t, 5.0, counterValue(t, reg, "gravity_descents_total", metrics.Converged))
	assert.Equal(t, 0.0, counterValue(t, reg, "gravity_descents_total", metrics.Excluded))
}
