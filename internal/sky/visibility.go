package sky

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMinAltitude    = 20.0
	DefaultTwilightSunAlt = -6.0

	fullScoreAltitude = 60.0
	faintestMagnitude = 4.0
	magnitudeRange    = 5.5
)

// Visibility describes where an object is and how suitable it is for
// observation at a given time and place.
type Visibility struct {
	AltitudeDeg        float64
	AzimuthDeg         float64
	ObservabilityScore float64 // [0, 1]
	IsVisible          bool
}

// AssessorConfig tunes the visibility model
type AssessorConfig struct {
	MinAltitudeDeg    float64 `yaml:"minAltitude" json:"minAltitude" default:"20"`
	TwilightSunAltDeg float64 `yaml:"twilightSunAltitude" json:"twilightSunAltitude" default:"-6"`
}

// Validate checks the configuration bounds
func (c AssessorConfig) Validate() error {
	if c.MinAltitudeDeg < 0 || c.MinAltitudeDeg >= fullScoreAltitude {
		return fmt.Errorf("sky.AssessorConfig: minAltitude must be in [0, %.0f)", fullScoreAltitude)
	}
	if c.TwilightSunAltDeg > 0 || c.TwilightSunAltDeg < -18 {
		return errors.New("sky.AssessorConfig: twilightSunAltitude must be in [-18, 0]")
	}
	return nil
}

// Assessor scores objects by altitude, brightness and sky darkness
type Assessor struct {
	config AssessorConfig
}

// NewAssessor returns an Assessor. A zero config selects the defaults.
func NewAssessor(config AssessorConfig) *Assessor {
	if config == (AssessorConfig{}) {
		config = AssessorConfig{MinAltitudeDeg: DefaultMinAltitude, TwilightSunAltDeg: DefaultTwilightSunAlt}
	}
	return &Assessor{config: config}
}

// Assess evaluates obj for an observer at time t. The object's RA/Dec must
// already be current for t.
func (a *Assessor) Assess(obj Object, obs Observer, t time.Time) Visibility {
	alt, az := ToHorizontal(obj.RAHours, obj.DecDegrees, obs, t)

	sunRA, sunDec := SunPosition(t)
	sunAlt, _ := ToHorizontal(sunRA, sunDec, obs, t)

	v := Visibility{AltitudeDeg: alt, AzimuthDeg: az}
	if sunAlt > 0 {
		return v
	}

	altScore := clamp((alt-a.config.MinAltitudeDeg)/(fullScoreAltitude-a.config.MinAltitudeDeg), 0, 1)
	magScore := clamp((faintestMagnitude-obj.Magnitude)/magnitudeRange, 0, 1)
	score := 0.7*altScore + 0.3*magScore
	if sunAlt > a.config.TwilightSunAltDeg {
		score /= 2
	}

	v.ObservabilityScore = score
	v.IsVisible = alt >= a.config.MinAltitudeDeg
	return v
}
