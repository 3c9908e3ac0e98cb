package buffer

// Ring is a fixed capacity ring buffer of vectors keeping the last x elements.
// Pushed vectors are copied, so the caller can keep mutating its own slice.
type Ring struct {
	index  int
	count  int
	values [][]float64
}

// NewRing creates a new ring with the given buffer size.
func NewRing(size int) *Ring {
	if size < 1 {
		size = 1
	}
	return &Ring{
		values: make([][]float64, size),
	}
}

// Push adds an element to the ring, evicting the oldest one if the ring is full.
func (r *Ring) Push(v []float64) {
	slot := r.values[r.index]
	if cap(slot) < len(v) {
		slot = make([]float64, len(v))
	}
	slot = slot[:len(v)]
	copy(slot, v)
	r.values[r.index] = slot
	r.index = r.next(r.index)
	if r.count < len(r.values) {
		r.count++
	}
}

func (r *Ring) next(index int) int {
	return (index + 1) % len(r.values)
}

// Full returns true if the ring holds as many elements as its capacity.
func (r *Ring) Full() bool {
	return r.count == len(r.values)
}

// Oldest returns the least recently pushed element, nil for an empty ring.
func (r *Ring) Oldest() []float64 {
	if r.count == 0 {
		return nil
	}
	if r.Full() {
		return r.values[r.index]
	}
	return r.values[0]
}

// Newest returns the most recently pushed element, nil for an empty ring.
func (r *Ring) Newest() []float64 {
	if r.count == 0 {
		return nil
	}
	return r.values[(r.index-1+len(r.values))%len(r.values)]
}

// Reset empties the ring, keeping the allocated slots.
func (r *Ring) Reset() {
	r.index = 0
	r.count = 0
}
