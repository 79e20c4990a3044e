// Package tracking monitors a telescope mount in the background. A Tracker
// polls the mount on a fixed cadence, keeps a bounded history of positions,
// derives velocity between consecutive samples and raises drift alerts.
package tracking

import (
	"time"

	"github.com/roman-kulish/skytrack/internal/mount"
)

// PositionSample is a single reading of the mount pointing
type PositionSample struct {
	Timestamp  time.Time `json:"timestamp"`
	RAHours    float64   `json:"ra_hours"`
	DecDegrees float64   `json:"dec_degrees"`
	AltDegrees float64   `json:"alt_degrees"`
	AzDegrees  float64   `json:"az_degrees"`
	IsSlewing  bool      `json:"-"`

	Velocity      Velocity `json:"velocity"` // Velocity relative to the previous sample
	VelocityValid bool     `json:"-"`        // False for the first sample of a session
}

// NewSample assembles a sample from the three link readings
func NewSample(at time.Time, eq mount.RADec, hz mount.AltAz, slewing bool) PositionSample {
	return PositionSample{
		Timestamp:  at,
		RAHours:    eq.RAHours,
		DecDegrees: eq.DecDegrees,
		AltDegrees: hz.AltDegrees,
		AzDegrees:  hz.AzDegrees,
		IsSlewing:  slewing,
	}
}

// Equatorial returns the RA/Dec part of the sample
func (s PositionSample) Equatorial() mount.RADec {
	return mount.RADec{RAHours: s.RAHours, DecDegrees: s.DecDegrees}
}

// Horizontal returns the Alt/Az part of the sample
func (s PositionSample) Horizontal() mount.AltAz {
	return mount.AltAz{AltDegrees: s.AltDegrees, AzDegrees: s.AzDegrees}
}
