package audio

import "sync"

// Ring is a fixed-capacity history of float64 values. When full, Push
// overwrites the oldest value. Safe for concurrent use.
type Ring struct {
	mu    sync.Mutex
	data  []float64
	start int
	size  int
}

// NewRing creates a ring holding at most capacity values (minimum 1).
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{data: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value when the ring is full.
func (r *Ring) Push(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.data) {
		r.data[(r.start+r.size)%len(r.data)] = v
		r.size++
		return
	}
	r.data[r.start] = v
	r.start = (r.start + 1) % len(r.data)
}

// Len returns the number of stored values.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.data)
}

// Snapshot copies the stored values, oldest first.
func (r *Ring) Snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, r.size)
	for i := range out {
		out[i] = r.data[(r.start+i)%len(r.data)]
	}
	return out
}
