package app

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/roman-kulish/skytrack/internal/tracking"
)

var start = time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)

// driftingSamples moves RA by 1.5″ and Dec by -0.5″ per second
func driftingSamples(n int, ra float64) []tracking.PositionSample {
	samples := make([]tracking.PositionSample, n)
	for i := range samples {
		samples[i] = tracking.PositionSample{
			Timestamp:  start.Add(time.Duration(i) * time.Second),
			RAHours:    math.Mod(ra+float64(i)*1.5/(15*3600)+24, 24),
			DecDegrees: 30 - float64(i)*0.5/3600,
		}
	}
	return samples
}

func TestNewDriftSeries(t *testing.T) {
	s, err := NewDriftSeries(driftingSamples(61, 10))
	if err != nil {
		t.Fatal(err)
	}

	if s.Duration() != time.Minute {
		t.Errorf("Duration() = %s", s.Duration())
	}
	last := s.Last()
	if math.Abs(last.RAArcsec-90) > 1e-6 || math.Abs(last.DecArcsec+30) > 1e-6 {
		t.Errorf("last point = %+v, want RA 90″ Dec -30″", last)
	}
	if math.Abs(s.Min+30) > 1e-6 || math.Abs(s.Max-90) > 1e-6 {
		t.Errorf("range = [%f, %f]", s.Min, s.Max)
	}
}

func TestNewDriftSeriesAcrossZeroHours(t *testing.T) {
	s, err := NewDriftSeries(driftingSamples(11, 24-5.0/(15*3600)))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Last().RAArcsec; math.Abs(got-15) > 1e-6 {
		t.Errorf("RA offset across 0h = %f, want 15", got)
	}
}

func TestNewDriftSeriesFlat(t *testing.T) {
	s, err := NewDriftSeries(driftingSamples(1, 3))
	if err != nil {
		t.Fatal(err)
	}
	if s.Min != -1 || s.Max != 1 {
		t.Errorf("flat range = [%f, %f], want [-1, 1]", s.Min, s.Max)
	}
	if _, err = NewDriftSeries(nil); !errors.Is(err, ErrNoSamples) {
		t.Errorf("error = %v, want ErrNoSamples", err)
	}
}
