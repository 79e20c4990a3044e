package sky

import (
	"math"
	"testing"
	"time"
)

func hoursApart(a, b float64) float64 {
	return math.Abs(math.Remainder(a-b, 24))
}

func TestSunPosition(t *testing.T) {
	ra, dec := SunPosition(time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC))
	if hoursApart(ra, 0) > 0.02 || !near(dec, 0, 0.1) {
		t.Errorf("equinox sun = (%f h, %f), want (0 h, 0)", ra, dec)
	}

	ra, dec = SunPosition(time.Date(2024, 6, 20, 20, 51, 0, 0, time.UTC))
	if hoursApart(ra, 6) > 0.02 || !near(dec, 23.44, 0.1) {
		t.Errorf("solstice sun = (%f h, %f), want (6 h, 23.44)", ra, dec)
	}
}

func TestMoonIllumination(t *testing.T) {
	full := MoonPosition(time.Date(2024, 4, 23, 23, 49, 0, 0, time.UTC))
	if full.Illumination < 0.97 {
		t.Errorf("full moon illumination = %f", full.Illumination)
	}
	fresh := MoonPosition(time.Date(2024, 4, 8, 18, 21, 0, 0, time.UTC))
	if fresh.Illumination > 0.03 {
		t.Errorf("new moon illumination = %f", fresh.Illumination)
	}

	// the new moon on 2024-04-08 was a total solar eclipse, so it sat on the sun
	sunRA, sunDec := SunPosition(time.Date(2024, 4, 8, 18, 21, 0, 0, time.UTC))
	if sep := Separation(fresh.RAHours, fresh.DecDegrees, sunRA, sunDec); sep > 1.5 {
		t.Errorf("moon-sun separation at eclipse = %f", sep)
	}
}

func TestPlanetPosition(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		ra, dec      float64
		magLo, magHi float64
	}{
		{"Jupiter", 2.22, 12.1, -3, -1.5},
		{"saturn", 22.37, -11.9, 0, 2},
		{"MARS", 17.78, -23.9, 0, 2},
		{"uranus", 3.11, 17.2, 5.2, 6.2},
		{"neptune", 23.71, -3.2, 7.5, 8.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra, dec, mag, ok := PlanetPosition(tt.name, at)
			if !ok {
				t.Fatal("planet not found")
			}
			if hoursApart(ra, tt.ra) > 0.1 || !near(dec, tt.dec, 1) {
				t.Errorf("position = (%f h, %f), want (%f h, %f)", ra, dec, tt.ra, tt.dec)
			}
			if mag < tt.magLo || mag > tt.magHi {
				t.Errorf("magnitude = %f, want [%f, %f]", mag, tt.magLo, tt.magHi)
			}
		})
	}

	if _, _, _, ok := PlanetPosition("pluto", at); ok {
		t.Error("pluto should not be known")
	}
}

func TestLocate(t *testing.T) {
	eph := LowPrecisionEphemeris{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	vega := Object{ID: "vega", Name: "Vega", Kind: Star, RAHours: 18.6156, DecDegrees: 38.78, Magnitude: 0.03}
	got, ok := eph.Locate(vega, at)
	if !ok || got != vega {
		t.Errorf("Locate(star) = %+v, %v; want unchanged", got, ok)
	}

	jupiter, ok := eph.Locate(Object{ID: "jupiter", Name: "Jupiter", Kind: Planet, Magnitude: 99}, at)
	if !ok || jupiter.Magnitude > 0 || hoursApart(jupiter.RAHours, 2.22) > 0.1 {
		t.Errorf("Locate(jupiter) = %+v, %v", jupiter, ok)
	}

	moon, ok := eph.Locate(Object{ID: "moon", Name: "Moon", Kind: Moon}, at)
	if !ok || moon.Magnitude != moonMagnitude {
		t.Errorf("Locate(moon) = %+v, %v", moon, ok)
	}

	if _, ok := eph.Locate(Object{ID: "vulcan", Kind: Planet}, at); ok {
		t.Error("Locate(unknown planet) reported ok")
	}
}
