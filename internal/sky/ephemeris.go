package sky

import (
	"math"
	"strings"
	"time"
)

const moonMagnitude = -12.7

// MoonState is the Moon's position and lit fraction at a given time
type MoonState struct {
	RAHours      float64 // Geocentric right ascension in hours
	DecDegrees   float64 // Geocentric declination in degrees
	Illumination float64 // Illuminated fraction of the disk, [0, 1]
}

// orbitalElements are mean Keplerian elements at J2000 and their rates per
// Julian century (Standish, JPL "Approximate Positions of the Planets").
type orbitalElements struct {
	a, aDot           float64 // semi-major axis, AU
	e, eDot           float64 // eccentricity
	i, iDot           float64 // inclination, degrees
	l, lDot           float64 // mean longitude, degrees
	peri, periDot     float64 // longitude of perihelion, degrees
	node, nodeDot     float64 // longitude of the ascending node, degrees
	absoluteMagnitude float64 // V(1,0)
}

var earthBarycenter = orbitalElements{
	1.00000261, 0.00000562, 0.01671123, -0.00004392, -0.00001531, -0.01294668,
	100.46457166, 35999.37244981, 102.93768193, 0.32327364, 0.0, 0.0, 0,
}

var planets = map[string]orbitalElements{
	"mercury": {0.38709927, 0.00000037, 0.20563593, 0.00001906, 7.00497902, -0.00594749,
		252.25032350, 149472.67411175, 77.45779628, 0.16047689, 48.33076593, -0.12534081, -0.42},
	"venus": {0.72333566, 0.00000390, 0.00677672, -0.00004107, 3.39467605, -0.00078890,
		181.97909950, 58517.81538729, 131.60246718, 0.00268329, 76.67984255, -0.27769418, -4.40},
	"mars": {1.52371034, 0.00001847, 0.09339410, 0.00007882, 1.84969142, -0.00813131,
		-4.55343205, 19140.30268499, -23.94362959, 0.44441088, 49.55953891, -0.29257343, -1.52},
	"jupiter": {5.20288700, -0.00011607, 0.04838624, -0.00013253, 1.30439695, -0.00183714,
		34.39644051, 3034.74612775, 14.72847983, 0.21252668, 100.47390909, 0.20469106, -9.40},
	"saturn": {9.53667594, -0.00125060, 0.05386179, -0.00050991, 2.48599187, 0.00193609,
		49.95424423, 1222.49362201, 92.59887831, -0.41897216, 113.66242448, -0.28867794, -8.88},
	"uranus": {19.18916464, -0.00196176, 0.04725744, -0.00004397, 0.77263783, -0.00242939,
		313.23810451, 428.48202785, 170.95427630, 0.40805281, 74.01692503, 0.04240589, -7.19},
	"neptune": {30.06992276, 0.00026291, 0.00859048, 0.00005105, 1.77004347, 0.00035372,
		-55.12002969, 218.45945325, 44.96476227, -0.32241464, 131.78422574, -0.00508664, -6.87},
}

// LowPrecisionEphemeris computes positions of the Sun, Moon and major planets
// to within a fraction of a degree, which is plenty for choosing alignment
// objects. It holds no state and is safe for concurrent use.
type LowPrecisionEphemeris struct{}

// Locate returns obj with its position and magnitude computed for t when the
// object is dynamic. Static objects are returned unchanged. The boolean is
// false for dynamic objects this ephemeris does not know.
func (LowPrecisionEphemeris) Locate(obj Object, t time.Time) (Object, bool) {
	switch obj.Kind {
	case Moon:
		m := MoonPosition(t)
		obj.RAHours, obj.DecDegrees, obj.Magnitude = m.RAHours, m.DecDegrees, moonMagnitude
		return obj, true

	case Planet:
		ra, dec, mag, ok := PlanetPosition(obj.ID, t)
		if !ok {
			ra, dec, mag, ok = PlanetPosition(obj.Name, t)
		}
		if !ok {
			return obj, false
		}
		obj.RAHours, obj.DecDegrees, obj.Magnitude = ra, dec, mag
		return obj, true

	default:
		return obj, true
	}
}

// Moon implements the ephemeris lookup of the Moon
func (LowPrecisionEphemeris) Moon(t time.Time) MoonState {
	return MoonPosition(t)
}

// Sun returns the Sun's right ascension (hours) and declination (degrees)
func (LowPrecisionEphemeris) Sun(t time.Time) (raHours, decDeg float64) {
	return SunPosition(t)
}

// SunPosition returns the Sun's apparent right ascension (hours) and declination (degrees)
func SunPosition(t time.Time) (raHours, decDeg float64) {
	lambda, _, eps := sunEcliptic(t)
	ra, dec := eclipticToEquatorial(lambda, 0, eps)
	return ra, dec
}

// sunEcliptic returns the Sun's ecliptic longitude, distance in AU and the
// obliquity of the ecliptic (Astronomical Almanac low precision formulae).
func sunEcliptic(t time.Time) (lambdaDeg, distanceAU, epsDeg float64) {
	n := JulianDate(t) - j2000
	l := 280.460 + 0.9856474*n
	g := (357.528 + 0.9856003*n) * deg2rad

	lambdaDeg = NormalizeDegrees(l + 1.915*math.Sin(g) + 0.020*math.Sin(2*g))
	distanceAU = 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)
	epsDeg = 23.439 - 0.0000004*n
	return
}

// MoonPosition returns the Moon's geocentric position and illuminated fraction
func MoonPosition(t time.Time) MoonState {
	T := (JulianDate(t) - j2000) / 36525.0
	s := func(a, b float64) float64 { return math.Sin((a + b*T) * deg2rad) }

	lambda := 218.32 + 481267.881*T +
		6.29*s(135.0, 477198.87) -
		1.27*s(259.3, -413335.36) +
		0.66*s(235.7, 890534.22) +
		0.21*s(269.9, 954397.74) -
		0.19*s(357.5, 35999.05) -
		0.11*s(186.5, 966404.03)
	beta := 5.13*s(93.3, 483202.02) +
		0.28*s(228.2, 960400.89) -
		0.28*s(318.3, 6003.15) -
		0.17*s(217.6, -407332.21)
	lambda = NormalizeDegrees(lambda)

	sunLambda, _, eps := sunEcliptic(t)
	ra, dec := eclipticToEquatorial(lambda, beta, eps)

	// elongation from the Sun; the lit fraction follows from the phase angle ~ 180° - elongation
	cosElong := math.Cos(beta*deg2rad) * math.Cos((lambda-sunLambda)*deg2rad)

	return MoonState{
		RAHours:      ra,
		DecDegrees:   dec,
		Illumination: clamp((1-cosElong)/2, 0, 1),
	}
}

// PlanetPosition returns the geocentric right ascension (hours), declination
// (degrees) and approximate visual magnitude of a major planet named name.
func PlanetPosition(name string, t time.Time) (raHours, decDeg, magnitude float64, ok bool) {
	el, ok := planets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, 0, 0, false
	}

	T := (JulianDate(t) - j2000) / 36525.0
	px, py, pz, r := heliocentric(el, T)
	ex, ey, ez, _ := heliocentric(earthBarycenter, T)

	x, y, z := px-ex, py-ey, pz-ez
	delta := math.Sqrt(x*x + y*y + z*z)

	eps := (23.43928 - 0.0130042*T) * deg2rad
	xe := x
	ye := y*math.Cos(eps) - z*math.Sin(eps)
	ze := y*math.Sin(eps) + z*math.Cos(eps)

	raHours = NormalizeDegrees(math.Atan2(ye, xe)*rad2deg) / 15.0
	decDeg = math.Atan2(ze, math.Sqrt(xe*xe+ye*ye)) * rad2deg
	magnitude = el.absoluteMagnitude + 5*math.Log10(r*delta)
	return raHours, decDeg, magnitude, true
}

// heliocentric returns ecliptic J2000 coordinates in AU and the heliocentric distance
func heliocentric(el orbitalElements, T float64) (x, y, z, r float64) {
	a := el.a + el.aDot*T
	e := el.e + el.eDot*T
	inc := (el.i + el.iDot*T) * deg2rad
	l := el.l + el.lDot*T
	peri := el.peri + el.periDot*T
	node := el.node + el.nodeDot*T

	omega := (peri - node) * deg2rad
	m := math.Remainder(l-peri, 360) * deg2rad
	node *= deg2rad

	E := m + e*math.Sin(m)
	for range 8 {
		dE := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-10 {
			break
		}
	}

	xp := a * (math.Cos(E) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(E)

	cw, sw := math.Cos(omega), math.Sin(omega)
	cn, sn := math.Cos(node), math.Sin(node)
	ci, si := math.Cos(inc), math.Sin(inc)

	x = (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp
	y = (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp
	z = (sw*si)*xp + (cw*si)*yp
	r = math.Sqrt(xp*xp + yp*yp)
	return
}

func eclipticToEquatorial(lambdaDeg, betaDeg, epsDeg float64) (raHours, decDeg float64) {
	l := lambdaDeg * deg2rad
	b := betaDeg * deg2rad
	e := epsDeg * deg2rad

	ra := math.Atan2(math.Sin(l)*math.Cos(e)-math.Tan(b)*math.Sin(e), math.Cos(l))
	dec := math.Asin(clamp(math.Sin(b)*math.Cos(e)+math.Cos(b)*math.Sin(e)*math.Sin(l), -1, 1))
	return NormalizeDegrees(ra*rad2deg) / 15.0, dec * rad2deg
}
