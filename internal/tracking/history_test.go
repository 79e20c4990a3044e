package tracking

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)

func at(sec int) PositionSample {
	return PositionSample{Timestamp: epoch.Add(time.Duration(sec) * time.Second), RAHours: float64(sec)}
}

func timestamps(samples []PositionSample) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = int(s.Timestamp.Sub(epoch) / time.Second)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(3)
	for i := range 5 {
		if err := h.Append(at(i)); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	if h.Len() != 3 || h.Capacity() != 3 {
		t.Fatalf("Len() = %d, Capacity() = %d", h.Len(), h.Capacity())
	}
	if got := timestamps(h.Samples()); !equalInts(got, []int{2, 3, 4}) {
		t.Errorf("Samples() = %v, want [2 3 4]", got)
	}
	if last, ok := h.Last(); !ok || !last.Timestamp.Equal(at(4).Timestamp) {
		t.Errorf("Last() = %v, %v", last.Timestamp, ok)
	}
}

func TestHistoryOrdering(t *testing.T) {
	h := NewHistory(10)
	_ = h.Append(at(5))

	if err := h.Append(at(4)); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("Append(older) error = %v, want ErrOutOfOrder", err)
	}
	if err := h.Append(at(5)); err != nil {
		t.Errorf("Append(equal timestamp) error = %v", err)
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestHistoryQuery(t *testing.T) {
	h := NewHistory(100)
	for i := range 10 {
		_ = h.Append(at(i))
	}

	tests := []struct {
		name    string
		options []QueryOption
		want    []int
	}{
		{name: "all", want: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{name: "last", options: []QueryOption{WithLast(3)}, want: []int{7, 8, 9}},
		{name: "last more than held", options: []QueryOption{WithLast(50)}, want: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{name: "last zero ignored", options: []QueryOption{WithLast(0)}, want: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{name: "since", options: []QueryOption{WithSince(at(6).Timestamp)}, want: []int{6, 7, 8, 9}},
		{name: "since then last", options: []QueryOption{WithSince(at(3).Timestamp), WithLast(2)}, want: []int{8, 9}},
		{name: "since limits last", options: []QueryOption{WithLast(5), WithSince(at(8).Timestamp)}, want: []int{8, 9}},
		{name: "since future", options: []QueryOption{WithSince(at(20).Timestamp)}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timestamps(h.Samples(tt.options...)); !equalInts(got, tt.want) {
				t.Errorf("Samples() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistorySamplesAreCopies(t *testing.T) {
	h := NewHistory(4)
	_ = h.Append(at(1))

	s := h.Samples()
	s[0].RAHours = 99

	if got := h.Samples()[0].RAHours; got != 1 {
		t.Errorf("history mutated through returned slice: RA = %f", got)
	}
}

func TestHistoryStats(t *testing.T) {
	h := NewHistory(10)
	if s := h.Stats(); s.Count != 0 {
		t.Errorf("empty Stats() = %+v", s)
	}

	_ = h.Append(PositionSample{Timestamp: epoch, RAHours: 23.999, DecDegrees: 10})
	_ = h.Append(PositionSample{Timestamp: epoch.Add(30 * time.Second), RAHours: 0.001, DecDegrees: 10.01})

	s := h.Stats()
	if s.Count != 2 || s.Duration != 30*time.Second {
		t.Errorf("Stats() = %+v", s)
	}
	if math.Abs(s.RADriftArcsec-108) > 1e-6 {
		t.Errorf("RA drift = %f arcsec, want 108", s.RADriftArcsec)
	}
	if math.Abs(s.DecDriftArcsec-36) > 1e-6 {
		t.Errorf("Dec drift = %f arcsec, want 36", s.DecDriftArcsec)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(0)
	if h.Capacity() != 1 {
		t.Fatalf("Capacity() = %d, want 1", h.Capacity())
	}

	_ = h.Append(at(3))
	h.Clear()

	if h.Len() != 0 || len(h.Samples()) != 0 {
		t.Error("Clear() left samples behind")
	}
	if err := h.Append(at(1)); err != nil {
		t.Errorf("Append() after Clear() error = %v", err)
	}
}

func TestHistoryConcurrentAccess(t *testing.T) {
	h := NewHistory(50)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 500 {
			_ = h.Append(at(i))
		}
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				samples := h.Samples(WithLast(10))
				for i := 1; i < len(samples); i++ {
					if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
						t.Error("samples out of order")
						return
					}
				}
				_ = h.Stats()
			}
		}()
	}
	wg.Wait()

	if h.Len() != 50 {
		t.Errorf("Len() = %d, want 50", h.Len())
	}
}
