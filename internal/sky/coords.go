package sky

import (
	"math"
	"time"

	"github.com/joshuaferrara/go-satellite"
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi

	j2000 = 2451545.0
)

// JulianDate converts t to a Julian date, keeping sub-second precision
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return jd + float64(t.Nanosecond())/86400e9
}

// LocalSiderealTime returns the local mean sidereal time in hours for an
// observer at lonDeg (east positive).
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	gmst := satellite.ThetaG_JD(JulianDate(t)) * rad2deg
	return NormalizeDegrees(gmst+lonDeg) / 15.0
}

// ToHorizontal converts an equatorial position to altitude and azimuth in
// degrees. Azimuth is measured from north through east.
func ToHorizontal(raHours, decDeg float64, obs Observer, t time.Time) (altDeg, azDeg float64) {
	ha := (LocalSiderealTime(t, obs.LonDeg) - raHours) * 15.0 * deg2rad
	dec := decDeg * deg2rad
	lat := obs.LatDeg * deg2rad

	sinAlt := math.Sin(lat)*math.Sin(dec) + math.Cos(lat)*math.Cos(dec)*math.Cos(ha)
	alt := math.Asin(clamp(sinAlt, -1, 1))

	y := -math.Cos(dec) * math.Sin(ha)
	x := math.Sin(dec)*math.Cos(lat) - math.Cos(dec)*math.Sin(lat)*math.Cos(ha)
	az := math.Atan2(y, x)

	return alt * rad2deg, NormalizeDegrees(az * rad2deg)
}

// Separation returns the angular distance in degrees between two equatorial positions
func Separation(ra1Hours, dec1Deg, ra2Hours, dec2Deg float64) float64 {
	d1 := dec1Deg * deg2rad
	d2 := dec2Deg * deg2rad
	dra := (ra1Hours - ra2Hours) * 15.0 * deg2rad

	cosSep := math.Sin(d1)*math.Sin(d2) + math.Cos(d1)*math.Cos(d2)*math.Cos(dra)
	return math.Acos(clamp(cosSep, -1, 1)) * rad2deg
}

// NormalizeDegrees maps an angle to [0, 360)
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
