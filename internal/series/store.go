package series

import (
	"math"
	"sort"
)

// DefaultCapacity bounds each buffer when the store is built with a non-positive capacity.
const DefaultCapacity = 4000

// Store keeps one bounded FIFO buffer of finite samples per key.
// It is owned by a single writer (the polling loop) and is not safe for concurrent use.
type Store struct {
	capacity int
	buffers  map[string]*ring
}

// NewStore builds a store whose buffers hold at most capacity samples each.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, buffers: make(map[string]*ring)}
}

// Capacity returns the per-key bound.
func (s *Store) Capacity() int { return s.capacity }

// Append stores v under key. Non-finite values are dropped and false is returned.
func (s *Store) Append(key string, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	buf := s.buffers[key]
	if buf == nil {
		buf = newRing(s.capacity)
		s.buffers[key] = buf
	}
	buf.push(v)
	return true
}

// Snapshot returns up to the n most recent samples for key, oldest first.
// n <= 0 returns everything retained. Unknown keys yield an empty slice.
func (s *Store) Snapshot(key string, n int) []float64 {
	buf := s.buffers[key]
	if buf == nil {
		return []float64{}
	}
	return buf.tail(n)
}

// Len reports how many samples are retained for key.
func (s *Store) Len(key string) int {
	if buf := s.buffers[key]; buf != nil {
		return buf.n
	}
	return 0
}

// Keys lists the keys that have at least one sample.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.buffers))
	for k := range s.buffers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type ring struct {
	buf  []float64
	head int // next write position
	n    int
}

func newRing(capacity int) *ring { return &ring{buf: make([]float64, capacity)} }

func (r *ring) push(v float64) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

func (r *ring) tail(n int) []float64 {
	if n <= 0 || n > r.n {
		n = r.n
	}
	out := make([]float64, n)
	start := r.head - n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}
