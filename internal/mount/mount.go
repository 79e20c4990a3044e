package mount

import "context"

// RADec is an equatorial pointing reported by the mount
type RADec struct {
	RAHours    float64 // Right ascension in hours, [0, 24)
	DecDegrees float64 // Declination in degrees, [-90, 90]
}

// AltAz is a horizon-relative pointing reported by the mount
type AltAz struct {
	AltDegrees float64 // Altitude above the horizon in degrees
	AzDegrees  float64 // Azimuth in degrees, 0 = North, clockwise
}

// Link is the connection to a telescope mount. Implementations own the device
// handle and bound every call by their own timeout; callers pass a context to
// cut a call short. Any failure talking to the device should be reported as a
// *TransportError.
type Link interface {
	// PositionRADec returns the current equatorial pointing.
	PositionRADec(ctx context.Context) (RADec, error)

	// PositionAltAz returns the current horizon-relative pointing.
	PositionAltAz(ctx context.Context) (AltAz, error)

	// IsSlewing reports whether a commanded slew is in progress.
	IsSlewing(ctx context.Context) (bool, error)
}
