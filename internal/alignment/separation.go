package alignment

import (
	"math"
)

const (
	DefaultCollinearThreshold = 10.0 // degrees

	minUsefulSeparation = 15.0
	fullSeparation      = 90.0
	clusteredScore      = 0.25

	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// AngularSeparation returns the great-circle distance in degrees between two
// alt/az positions
func AngularSeparation(alt1, az1, alt2, az2 float64) float64 {
	a1, a2 := alt1*deg2rad, alt2*deg2rad
	daz := (az1 - az2) * deg2rad

	c := math.Sin(a1)*math.Sin(a2) + math.Cos(a1)*math.Cos(a2)*math.Cos(daz)
	return math.Acos(clamp(c, -1, 1)) * rad2deg
}

// ScoreSeparation returns the smallest pairwise separation of the triple and
// a score in [0, 1]. The score climbs steeply to 0.25 at 15°, then eases up
// to 1 at 90° and beyond.
func ScoreSeparation(a, b, c Candidate) (minSepDeg, score float64) {
	minSepDeg = math.Min(separation(a, b), math.Min(separation(b, c), separation(a, c)))
	return minSepDeg, separationScore(minSepDeg)
}

func separationScore(minSep float64) float64 {
	switch {
	case minSep >= fullSeparation:
		return 1
	case minSep < minUsefulSeparation:
		r := minSep / minUsefulSeparation
		return clusteredScore * r * r
	default:
		x := (minSep - minUsefulSeparation) / (fullSeparation - minUsefulSeparation)
		return clusteredScore + (1-clusteredScore)*math.Sin(x*math.Pi/2)
	}
}

func separation(a, b Candidate) float64 {
	return AngularSeparation(a.AltitudeDeg, a.AzimuthDeg, b.AltitudeDeg, b.AzimuthDeg)
}

// IsCollinear reports whether the triple lies within thresholdDeg of a single
// great circle. For each point the angular distance to the great circle
// through the other two is measured, and the smallest one is compared.
// A pair that coincides or is antipodal defines no circle; such a triple is
// degenerate and counts as collinear.
func IsCollinear(a, b, c Candidate, thresholdDeg float64) bool {
	pa, pb, pc := unit(a), unit(b), unit(c)

	deviation := math.Min(offCircle(pa, pb, pc), math.Min(offCircle(pb, pc, pa), offCircle(pc, pa, pb)))
	return deviation < thresholdDeg
}

type vec3 [3]float64

func unit(c Candidate) vec3 {
	alt, az := c.AltitudeDeg*deg2rad, c.AzimuthDeg*deg2rad
	return vec3{math.Cos(alt) * math.Cos(az), math.Cos(alt) * math.Sin(az), math.Sin(alt)}
}

// offCircle returns the angle in degrees between p and the great circle through u and v
func offCircle(u, v, p vec3) float64 {
	n := cross(u, v)
	norm := math.Sqrt(dot(n, n))
	if norm < 1e-9 {
		return 0
	}
	return math.Asin(clamp(math.Abs(dot(p, n))/norm, 0, 1)) * rad2deg
}

func cross(a, b vec3) vec3 {
	return vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
