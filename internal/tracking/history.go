package tracking

import (
	"errors"
	"math"
	"sync"
	"time"
)

// DefaultHistoryCapacity is one hour of samples at the default one second interval
const DefaultHistoryCapacity = 3600

// ErrOutOfOrder is returned when a sample is older than the newest one held
var ErrOutOfOrder = errors.New("sample is older than the last one in history")

// Stats summarizes the samples currently held
type Stats struct {
	Count          int
	Duration       time.Duration
	RADriftArcsec  float64 // Newest minus oldest RA, in arcseconds
	DecDriftArcsec float64 // Newest minus oldest Dec, in arcseconds
}

type queryOptions struct {
	last  int
	since time.Time
}

// QueryOption narrows a history query
type QueryOption func(*queryOptions)

// WithLast keeps only the n newest samples. n <= 0 is ignored.
func WithLast(n int) QueryOption {
	return func(o *queryOptions) {
		o.last = n
	}
}

// WithSince keeps samples taken at or after t
func WithSince(t time.Time) QueryOption {
	return func(o *queryOptions) {
		o.since = t
	}
}

// History is a bounded, time-ordered ring of samples. When full the oldest
// sample is evicted. It is safe for concurrent use.
type History struct {
	mu    sync.RWMutex
	buf   []PositionSample
	start int
	size  int
}

// NewHistory creates a history holding up to capacity samples (at least one)
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]PositionSample, capacity)}
}

// Append adds s as the newest sample
func (h *History) Append(s PositionSample) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size > 0 && s.Timestamp.Before(h.at(h.size-1).Timestamp) {
		return ErrOutOfOrder
	}

	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = s
		h.size++
		return nil
	}

	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
	return nil
}

// Last returns the newest sample
func (h *History) Last() (PositionSample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 {
		return PositionSample{}, false
	}
	return h.at(h.size - 1), true
}

// Samples returns a copy of the held samples, oldest first
func (h *History) Samples(options ...QueryOption) []PositionSample {
	var q queryOptions
	for _, option := range options {
		option(&q)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	first := 0
	if !q.since.IsZero() {
		for first < h.size && h.at(first).Timestamp.Before(q.since) {
			first++
		}
	}
	if q.last > 0 && h.size-first > q.last {
		first = h.size - q.last
	}

	out := make([]PositionSample, 0, h.size-first)
	for i := first; i < h.size; i++ {
		out = append(out, h.at(i))
	}
	return out
}

// Stats summarizes the held samples, endpoint to endpoint
func (h *History) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 {
		return Stats{}
	}

	first, last := h.at(0), h.at(h.size-1)
	return Stats{
		Count:          h.size,
		Duration:       last.Timestamp.Sub(first.Timestamp),
		RADriftArcsec:  math.Remainder(last.RAHours-first.RAHours, 24) * 15 * 3600,
		DecDriftArcsec: (last.DecDegrees - first.DecDegrees) * 3600,
	}
}

// Clear drops every sample
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.buf)
	h.start, h.size = 0, 0
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

func (h *History) Capacity() int {
	return len(h.buf)
}

// at returns the i-th oldest sample; callers hold the lock
func (h *History) at(i int) PositionSample {
	return h.buf[(h.start+i)%len(h.buf)]
}
