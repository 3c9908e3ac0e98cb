package gravity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/drakos74/gravity/internal/concurrent"
	gmath "github.com/drakos74/gravity/internal/math"
	"github.com/drakos74/gravity/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// maxProbes bounds the rows evaluated for the resolution of large datasets.
const maxProbes = 1000

// Fit is the outcome of the descent of all points of a dataset.
type Fit struct {
	// Positions holds the stable position of each point, row by row.
	Positions *mat.Dense
	// Fuzz is the mean deviation of each point's trial positions, +Inf for excluded points.
	Fuzz []float64
	// Displacement is the distance of each stable position to its origin.
	Displacement []float64
	// Steps is the number of steps each point took over all trials.
	Steps []int
	// Excluded lists the points that did not converge, in ascending order.
	Excluded []int
	// Resolution is the acceptance margin added to every cluster.
	Resolution float64
}

// Option configures a Field.
type Option func(f *Field)

// WithMetrics reports to the given metrics instead of the process wide ones.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Field) {
		f.observer = m
	}
}

// WithRunID tags all logs of the field with the given run id.
func WithRunID(id string) Option {
	return func(f *Field) {
		f.runID = id
	}
}

// Field clusters the points of a dataset by letting each of them descend
// towards its neighbourhood and grouping the stable positions.
// The dataset is shared read only and must not be modified while the field is in use.
type Field struct {
	runID    string
	data     *mat.Dense
	n, d     int
	cfg      Config
	metric   gmath.Metric
	seed     int64
	sample   int
	k        int
	observer *metrics.Metrics

	resolution *float64
	policy     Policy
	clusters   []*Cluster
}

// New creates a new field for the dataset.
func New(data *mat.Dense, cfg Config, opts ...Option) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	metric, err := cfg.Metric()
	if err != nil {
		return nil, err
	}
	if data == nil || data.IsEmpty() {
		return nil, ErrEmptyDataset
	}
	if err := CheckData(data); err != nil {
		return nil, err
	}
	n, d := data.Dims()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sample := cfg.subsample(n)
	f := &Field{
		runID:    uuid.New().String(),
		data:     data,
		n:        n,
		d:        d,
		cfg:      cfg,
		metric:   metric,
		seed:     seed,
		sample:   sample,
		k:        cfg.smoothing(sample),
		observer: metrics.Observer,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// CheckData returns a *DataError for the first non finite entry of the dataset, in row order.
func CheckData(data *mat.Dense) error {
	n, _ := data.Dims()
	for i := 0; i < n; i++ {
		for j, v := range data.RawRowView(i) {
			if !gmath.Finite(v) {
				return &DataError{Row: i, Col: j, Value: v}
			}
		}
	}
	return nil
}

// RunID returns the id the field logs with.
func (f *Field) RunID() string {
	return f.runID
}

// Seed returns the resolved seed of the random sources.
func (f *Field) Seed() int64 {
	return f.seed
}

// Config returns the parameters of the field.
func (f *Field) Config() Config {
	return f.cfg
}

// Resolution returns the scaling factor multiple of the median distance
// of the dataset points to their k-th nearest neighbour, unless the config sets it.
func (f *Field) Resolution() float64 {
	if f.resolution != nil {
		return *f.resolution
	}
	if f.cfg.Resolution != nil {
		r := *f.cfg.Resolution
		f.resolution = &r
		return r
	}
	var probes []int
	if f.n > maxProbes {
		probes = rand.New(rand.NewSource(f.seed)).Perm(f.n)[:maxProbes]
	}
	r := f.cfg.ScalingFactor * gmath.Spacing(f.data, f.metric, f.k, probes)
	f.resolution = &r
	return r
}

func (f *Field) pointSeed(point int) int64 {
	return f.seed*1000003 + int64(point)
}

// Fit runs the ensemble descent of every point on a pool of workers.
// The context is checked before each point starts its descent.
func (f *Field) Fit(ctx context.Context) (*Fit, error) {
	start := time.Now()
	log.Info().
		Str("run", f.runID).
		Int("points", f.n).
		Int("features", f.d).
		Str("distance", string(f.metric)).
		Int("subsample", f.sample).
		Int("smoothing", f.k).
		Int64("seed", f.seed).
		Msg("fitting")
	f.observer.Points(f.n)

	fit := &Fit{
		Positions:    mat.NewDense(f.n, f.d, nil),
		Fuzz:         make([]float64, f.n),
		Displacement: make([]float64, f.n),
		Steps:        make([]int, f.n),
	}
	excluded := make([]bool, f.n)
	progress := concurrent.NewCounter(f.n)

	err := concurrent.Map(ctx, f.n, f.cfg.Workers, func(i int) error {
		p := newPathfinder(i, f.data, f.cfg, f.metric, f.sample, f.k, f.pointSeed(i))
		descent, err := p.fuzzyDescend(f.cfg.FuzzTrials)
		fit.Steps[i] = descent.Steps
		if err != nil {
			var nc *NonConvergenceError
			if !errors.As(err, &nc) || f.cfg.OnNonConvergence == Abort {
				f.observer.Descent(metrics.Aborted, descent.Steps)
				return err
			}
			log.Warn().Str("run", f.runID).Int("point", i).Int("steps", nc.Steps).Msg("excluding point")
			f.observer.Descent(metrics.Excluded, descent.Steps)
			excluded[i] = true
			fit.Positions.SetRow(i, f.data.RawRowView(i))
			fit.Fuzz[i] = math.Inf(1)
			return nil
		}
		f.observer.Descent(metrics.Converged, descent.Steps)
		fit.Positions.SetRow(i, descent.Position)
		fit.Fuzz[i] = descent.Deviation
		fit.Displacement[i] = descent.Displacement
		log.Debug().
			Str("run", f.runID).
			Int("point", i).
			Int("steps", descent.Steps).
			Float64("fuzz", descent.Deviation).
			Float64("displacement", descent.Displacement).
			Msg("descent")
		if done, ok := progress.Track(); ok {
			log.Debug().Str("run", f.runID).Int("done", done).Int("total", progress.Total()).Msg("progress")
		}
		return nil
	})
	if err != nil {
		log.Error().Str("run", f.runID).Err(err).Msg("fit failed")
		return nil, fmt.Errorf("could not fit dataset: %w", err)
	}

	for i, ex := range excluded {
		if ex {
			fit.Excluded = append(fit.Excluded, i)
		}
	}
	fit.Resolution = f.Resolution()
	log.Info().
		Str("run", f.runID).
		Int("converged", progress.Get()).
		Int("excluded", len(fit.Excluded)).
		Float64("resolution", fit.Resolution).
		Dur("duration", time.Since(start)).
		Msg("fitted")
	return fit, nil
}

// Restore rebuilds a fit from previously computed positions and fuzz.
// Non finite fuzz marks a point as excluded.
func (f *Field) Restore(positions *mat.Dense, fuzz []float64) (*Fit, error) {
	if err := f.check(positions, fuzz); err != nil {
		return nil, err
	}
	fit := &Fit{
		Positions:    positions,
		Fuzz:         fuzz,
		Displacement: make([]float64, f.n),
		Steps:        make([]int, f.n),
		Resolution:   f.Resolution(),
	}
	for i := range fuzz {
		if !gmath.Finite(fuzz[i]) {
			fit.Excluded = append(fit.Excluded, i)
			continue
		}
		fit.Displacement[i] = f.metric.Measure(f.data.RawRowView(i), positions.RawRowView(i))
	}
	return fit, nil
}

func (f *Field) check(positions *mat.Dense, fuzz []float64) error {
	if positions == nil || positions.IsEmpty() {
		return ErrEmptyDataset
	}
	r, c := positions.Dims()
	if r != f.n || c != f.d {
		return fmt.Errorf("positions of %dx%d for dataset of %dx%d: %w", r, c, f.n, f.d, ErrInvalidConfig)
	}
	if len(fuzz) != f.n {
		return fmt.Errorf("fuzz of length %d for %d points: %w", len(fuzz), f.n, ErrInvalidConfig)
	}
	for i := 0; i < r; i++ {
		for j, v := range positions.RawRowView(i) {
			if !gmath.Finite(v) {
				return &DataError{Row: i, Col: j, Value: v}
			}
		}
	}
	return nil
}

// ClusterPoints groups the fitted positions greedily.
// Starting from the unclustered point with the smallest fuzz, points join their nearest cluster
// as long as they are accepted by it. When no point joins any more, a new cluster is seeded.
// Excluded points are never clustered.
func (f *Field) ClusterPoints(fit *Fit) error {
	if err := f.check(fit.Positions, fit.Fuzz); err != nil {
		return err
	}
	f.policy = Policy{
		Resolution:  fit.Resolution,
		MergeFactor: f.cfg.MergeFactor,
	}
	f.clusters = make([]*Cluster, 0)

	remaining := make([]int, 0, f.n)
	for i, z := range fit.Fuzz {
		if gmath.Finite(z) {
			remaining = append(remaining, i)
		}
	}

	for len(remaining) > 0 {
		seed := 0
		for s, i := range remaining {
			if fit.Fuzz[i] < fit.Fuzz[remaining[seed]] {
				seed = s
			}
		}
		c := newCluster(len(f.clusters)+1, fit.Positions, f.metric, remaining[seed])
		f.clusters = append(f.clusters, c)
		remaining = append(remaining[:seed], remaining[seed+1:]...)

		for {
			assigned := 0
			left := remaining[:0]
			for _, i := range remaining {
				if f.assign(fit, i) {
					assigned++
					continue
				}
				left = append(left, i)
			}
			remaining = left
			if assigned == 0 {
				break
			}
		}
	}
	f.observer.Clusters(metrics.Cluster, len(f.clusters))
	return nil
}

// assign merges the point into its nearest cluster if the cluster accepts it.
func (f *Field) assign(fit *Fit, point int) bool {
	p := fit.Positions.RawRowView(point)
	var nearest *Cluster
	best := math.Inf(1)
	for _, c := range f.clusters {
		d := c.distance(p)
		if !gmath.Finite(d) {
			continue
		}
		if nearest == nil || d < best {
			nearest = c
			best = d
		}
	}
	if nearest == nil || !f.policy.Accept(best, nearest.radius, fit.Fuzz[point]) {
		return false
	}
	nearest.mergePoint(point)
	return true
}

// MergeClusters merges the closest pair of overlapping clusters until none is left.
// The merged cluster keeps the lower id. It returns the number of merges.
func (f *Field) MergeClusters() int {
	merges := 0
	for {
		a, b := -1, -1
		best := math.Inf(1)
		for i := 0; i < len(f.clusters); i++ {
			for j := i + 1; j < len(f.clusters); j++ {
				ci, cj := f.clusters[i], f.clusters[j]
				d := f.metric.Measure(ci.centroid, cj.centroid)
				if !gmath.Finite(d) || !f.policy.Mergeable(d, ci.radius, cj.radius) {
					continue
				}
				if a < 0 || d < best {
					a, b, best = i, j, d
				}
			}
		}
		if a < 0 {
			break
		}
		f.clusters[a].mergeCluster(f.clusters[b])
		f.clusters = append(f.clusters[:b], f.clusters[b+1:]...)
		f.observer.Merged()
		merges++
	}
	f.observer.Clusters(metrics.Merge, len(f.clusters))
	return merges
}

// Predict clusters the fitted positions and returns a label for each point.
// Labels run from 1 to the number of clusters, 0 marks excluded points.
// Every call starts from scratch, so repeated calls give the same labels.
func (f *Field) Predict(fit *Fit) ([]int, error) {
	if err := f.ClusterPoints(fit); err != nil {
		return nil, err
	}
	merges := 0
	if f.cfg.Merge {
		merges = f.MergeClusters()
	}
	labels := make([]int, f.n)
	for k, c := range f.clusters {
		c.id = k + 1
		for _, m := range c.members {
			labels[m] = c.id
		}
	}
	log.Info().
		Str("run", f.runID).
		Int("clusters", len(f.clusters)).
		Int("merges", merges).
		Int("excluded", len(fit.Excluded)).
		Msg("predicted")
	return labels, nil
}

// Clusters returns copies of the clusters of the last prediction.
func (f *Field) Clusters() []Cluster {
	cc := make([]Cluster, len(f.clusters))
	for i, c := range f.clusters {
		cc[i] = c.copy()
	}
	return cc
}
