package gravity

import (
	"errors"
	"math/rand"

	"github.com/drakos74/gravity/internal/buffer"
	gmath "github.com/drakos74/gravity/internal/math"
	"gonum.org/v1/gonum/mat"
)

// Descent is the outcome of the ensemble descent of one point.
type Descent struct {
	// Position is the mean of the trial end positions.
	Position []float64
	// Deviation is the mean distance of the trial end positions to Position.
	Deviation float64
	// Displacement is the distance of the origin to Position.
	Displacement float64
	// Steps is the number of steps over all trials.
	Steps int
}

type neighbour struct {
	index    int
	distance float64
}

// pathfinder walks a single point of the dataset towards a stable position.
type pathfinder struct {
	id     int
	data   *mat.Dense
	origin []float64

	metric      gmath.Metric
	sample      int
	features    int
	k           int
	damping     float64
	convergence float64
	maxSteps    int

	history   *buffer.Ring
	converged bool
	rng       *rand.Rand

	pool      []int
	mask      []int
	nearest   []neighbour
	projected [2][]float64
}

func newPathfinder(id int, data *mat.Dense, cfg Config, metric gmath.Metric, sample, k int, seed int64) *pathfinder {
	n, d := data.Dims()
	pool := make([]int, 0, n-1)
	for j := 0; j < n; j++ {
		if j != id {
			pool = append(pool, j)
		}
	}
	features := cfg.FeatureSubsample
	if features >= d {
		features = 0
	}
	p := &pathfinder{
		id:          id,
		data:        data,
		origin:      data.RawRowView(id),
		metric:      metric,
		sample:      sample,
		features:    features,
		k:           k,
		damping:     cfg.Damping,
		convergence: cfg.ConvergenceFactor,
		maxSteps:    cfg.MaxSteps,
		history:     buffer.NewRing(cfg.History),
		rng:         rand.New(rand.NewSource(seed)),
		pool:        pool,
		nearest:     make([]neighbour, 0, k+1),
	}
	if features > 0 {
		p.mask = make([]int, d)
		for i := range p.mask {
			p.mask[i] = i
		}
		p.projected = [2][]float64{make([]float64, features), make([]float64, features)}
	}
	return p
}

// draw selects a random subset of size m from the front of ids.
func (p *pathfinder) draw(ids []int, m int) []int {
	if m >= len(ids) {
		return ids
	}
	for i := 0; i < m; i++ {
		j := i + p.rng.Intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:m]
}

func (p *pathfinder) measure(from []float64, j int, mask []int) float64 {
	to := p.data.RawRowView(j)
	if mask == nil {
		return p.metric.Measure(from, to)
	}
	for i, f := range mask {
		p.projected[0][i] = from[f]
		p.projected[1][i] = to[f]
	}
	return p.metric.Measure(p.projected[0], p.projected[1])
}

// step relocates from towards the mean of its nearest candidates.
// It returns false if there is no movement.
func (p *pathfinder) step(from []float64) ([]float64, bool) {
	candidates := p.draw(p.pool, p.sample)
	var mask []int
	if p.features > 0 {
		mask = p.draw(p.mask, p.features)
	}

	p.nearest = p.nearest[:0]
	for _, j := range candidates {
		d := p.measure(from, j, mask)
		if d == 0 || !gmath.Finite(d) {
			continue
		}
		p.insert(neighbour{index: j, distance: d})
	}
	if len(p.nearest) == 0 {
		return nil, false
	}

	candidate := make([]float64, len(from))
	for i, nb := range p.nearest {
		gmath.RunningMean(candidate, p.data.RawRowView(nb.index), i+1)
	}
	next := gmath.Blend(candidate, from, p.damping)
	jump := p.metric.Measure(next, from)
	if jump == 0 || !gmath.Finite(jump) {
		return nil, false
	}
	return next, true
}

// insert keeps the k nearest neighbours in ascending distance,
// earlier candidates first on equal distance.
func (p *pathfinder) insert(nb neighbour) {
	if len(p.nearest) == p.k && nb.distance >= p.nearest[p.k-1].distance {
		return
	}
	i := len(p.nearest)
	for i > 0 && p.nearest[i-1].distance > nb.distance {
		i--
	}
	if len(p.nearest) < p.k {
		p.nearest = append(p.nearest, neighbour{})
	}
	copy(p.nearest[i+1:], p.nearest[i:len(p.nearest)-1])
	p.nearest[i] = nb
}

// stable checks if the position has stopped making progress
// against the remembered path.
func (p *pathfinder) stable(position []float64) bool {
	if !p.history.Full() {
		return false
	}
	short := p.metric.Measure(p.history.Newest(), position)
	long := p.metric.Measure(p.history.Oldest(), position)
	return long < short*p.convergence
}

func (p *pathfinder) memorize(position []float64) {
	if p.converged {
		return
	}
	p.history.Push(position)
}

func (p *pathfinder) reset() {
	p.history.Reset()
	p.converged = false
}

// descend walks the point from its origin until it stops moving or converges.
func (p *pathfinder) descend() ([]float64, int, error) {
	defer p.reset()
	position := append([]float64{}, p.origin...)
	steps := 0
	for {
		next, moved := p.step(position)
		if !moved {
			break
		}
		steps++
		if steps > p.maxSteps {
			return nil, steps, &NonConvergenceError{Point: p.id, Steps: steps}
		}
		p.converged = p.stable(next)
		position = next
		if p.converged {
			break
		}
		p.memorize(position)
	}
	return position, steps, nil
}

// fuzzyDescend runs the given number of descents and summarises them.
func (p *pathfinder) fuzzyDescend(trials int) (Descent, error) {
	results := make([][]float64, trials)
	mean := make([]float64, len(p.origin))
	var steps int
	for t := 0; t < trials; t++ {
		position, s, err := p.descend()
		steps += s
		if err != nil {
			var nc *NonConvergenceError
			if errors.As(err, &nc) {
				nc.Steps = steps
			}
			return Descent{Steps: steps}, err
		}
		results[t] = position
		gmath.RunningMean(mean, position, t+1)
	}
	var deviation float64
	for _, r := range results {
		deviation += p.metric.Measure(r, mean)
	}
	return Descent{
		Position:     mean,
		Deviation:    deviation / float64(trials),
		Displacement: p.metric.Measure(p.origin, mean),
		Steps:        steps,
	}, nil
}
