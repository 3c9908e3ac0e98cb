package gravity

import (
	gmath "github.com/drakos74/gravity/internal/math"
	"gonum.org/v1/gonum/mat"
)

// Cluster is a group of points with its centroid and radius.
// The centroid is the mean of the member positions
// and the radius the mean distance of the members to the centroid.
type Cluster struct {
	id       int
	weight   int
	centroid []float64
	radius   float64
	members  []int

	points *mat.Dense
	metric gmath.Metric
}

func newCluster(id int, points *mat.Dense, metric gmath.Metric, point int) *Cluster {
	return &Cluster{
		id:       id,
		weight:   1,
		centroid: append([]float64{}, points.RawRowView(point)...),
		members:  []int{point},
		points:   points,
		metric:   metric,
	}
}

// ID returns the cluster id.
func (c *Cluster) ID() int {
	return c.id
}

// Weight returns the number of members.
func (c *Cluster) Weight() int {
	return c.weight
}

// Radius returns the mean member distance to the centroid.
func (c *Cluster) Radius() float64 {
	return c.radius
}

// Centroid returns a copy of the centroid.
func (c *Cluster) Centroid() []float64 {
	return append([]float64{}, c.centroid...)
}

// Members returns a copy of the member ids, in the order they joined.
func (c *Cluster) Members() []int {
	return append([]int{}, c.members...)
}

func (c *Cluster) distance(v []float64) float64 {
	return c.metric.Measure(v, c.centroid)
}

func (c *Cluster) mergePoint(point int) {
	p := c.points.RawRowView(point)
	w := float64(c.weight)
	// c*w/(w+1) + p/(w+1), exact when p equals the centroid
	for i := range c.centroid {
		c.centroid[i] += (p[i] - c.centroid[i]) / (w + 1)
	}
	c.weight++
	c.members = append(c.members, point)
	c.updateRadius()
}

func (c *Cluster) mergeCluster(other *Cluster) {
	w := float64(other.weight) / float64(c.weight+other.weight)
	for i := range c.centroid {
		c.centroid[i] += (other.centroid[i] - c.centroid[i]) * w
	}
	c.weight += other.weight
	c.members = append(c.members, other.members...)
	c.updateRadius()
}

func (c *Cluster) updateRadius() {
	var sum float64
	for _, m := range c.members {
		sum += c.distance(c.points.RawRowView(m))
	}
	c.radius = sum / float64(c.weight)
}

// copy returns a detached copy of the cluster.
func (c *Cluster) copy() Cluster {
	return Cluster{
		id:       c.id,
		weight:   c.weight,
		centroid: c.Centroid(),
		radius:   c.radius,
		members:  c.Members(),
		metric:   c.metric,
	}
}
