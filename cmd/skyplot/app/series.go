package app

import (
	"errors"
	"math"
	"time"

	"github.com/roman-kulish/skytrack/internal/tracking"
)

var ErrNoSamples = errors.New("no samples to plot")

// DriftPoint is the pointing offset from the first sample, in arcseconds
type DriftPoint struct {
	At        time.Time
	RAArcsec  float64
	DecArcsec float64
}

// DriftSeries holds the plotted points and their value range
type DriftSeries struct {
	Start, End time.Time
	Points     []DriftPoint
	Min, Max   float64
}

// NewDriftSeries converts samples into offsets relative to the first one.
// RA offsets are taken along the shortest way round the 24h circle.
func NewDriftSeries(samples []tracking.PositionSample) (*DriftSeries, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	first := samples[0]
	s := DriftSeries{
		Start:  first.Timestamp,
		End:    samples[len(samples)-1].Timestamp,
		Points: make([]DriftPoint, 0, len(samples)),
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
	}

	for _, sample := range samples {
		p := DriftPoint{
			At:        sample.Timestamp,
			RAArcsec:  math.Remainder(sample.RAHours-first.RAHours, 24) * 15 * 3600,
			DecArcsec: (sample.DecDegrees - first.DecDegrees) * 3600,
		}
		s.Points = append(s.Points, p)
		s.Min = math.Min(s.Min, math.Min(p.RAArcsec, p.DecArcsec))
		s.Max = math.Max(s.Max, math.Max(p.RAArcsec, p.DecArcsec))
	}

	// keep a visible band around a flat series
	if s.Max-s.Min < 1 {
		mid := (s.Max + s.Min) / 2
		s.Min, s.Max = mid-1, mid+1
	}
	return &s, nil
}

// Duration is the time covered by the series
func (s *DriftSeries) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Last returns the final offsets
func (s *DriftSeries) Last() DriftPoint {
	return s.Points[len(s.Points)-1]
}
