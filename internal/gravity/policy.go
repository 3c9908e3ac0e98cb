package gravity

// Policy holds the acceptance and merge thresholds of the clustering.
type Policy struct {
	// Resolution is added to the acceptance envelope of every cluster.
	Resolution float64
	// MergeFactor is the multiple of the combined radii under which two clusters merge.
	MergeFactor float64
}

// Accept returns true if a point at distance d from a cluster of the given radius
// and with the given fuzz joins that cluster.
func (p Policy) Accept(d, radius, fuzz float64) bool {
	return d == 0 || d < radius+fuzz+p.Resolution
}

// Mergeable returns true if two clusters of radius r1 and r2 with centroids
// at distance d should become one.
func (p Policy) Mergeable(d, r1, r2 float64) bool {
	return d == 0 || d < p.MergeFactor*(r1+r2)
}
