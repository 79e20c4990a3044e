package tracking

import (
	"math"
	"time"
)

// Velocity is the speed of the pointing along each axis in degrees per
// second. Components are magnitudes; RA is converted from hours to degrees.
type Velocity struct {
	RA    float64 `json:"ra"`
	Dec   float64 `json:"dec"`
	Alt   float64 `json:"alt"`
	Az    float64 `json:"az"`
	Total float64 `json:"-"` // Equatorial magnitude, sqrt(RA² + Dec²)
}

// ComputeVelocity returns the velocity between two samples taken dt apart.
// Differences are taken the short way round across 0h/24h and 0°/360°.
// A non-positive dt yields the zero vector.
func ComputeVelocity(prev, curr PositionSample, dt time.Duration) Velocity {
	sec := dt.Seconds()
	if sec <= 0 {
		return Velocity{}
	}

	v := Velocity{
		RA:  math.Abs(math.Remainder(curr.RAHours-prev.RAHours, 24)) * 15 / sec,
		Dec: math.Abs(curr.DecDegrees-prev.DecDegrees) / sec,
		Alt: math.Abs(curr.AltDegrees-prev.AltDegrees) / sec,
		Az:  math.Abs(math.Remainder(curr.AzDegrees-prev.AzDegrees, 360)) / sec,
	}
	v.Total = math.Hypot(v.RA, v.Dec)
	return v
}
