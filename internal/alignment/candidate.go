// Package alignment picks reference objects for a three-star mount
// alignment. Candidates are the bright objects currently visible; triples are
// scored by how well they are spread across the sky, how observable they are
// and by the sky conditions.
package alignment

import (
	"github.com/roman-kulish/skytrack/internal/sky"
)

// Candidate is a visible object considered for alignment
type Candidate struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Kind               sky.Kind `json:"kind"`
	RAHours            float64  `json:"raHours"`
	DecDegrees         float64  `json:"decDegrees"`
	Magnitude          float64  `json:"magnitude"`
	AltitudeDeg        float64  `json:"altitude"`
	AzimuthDeg         float64  `json:"azimuth"`
	ObservabilityScore float64  `json:"observability"`
}

// NewCandidate combines a located object with its visibility assessment
func NewCandidate(obj sky.Object, v sky.Visibility) Candidate {
	return Candidate{
		ID:                 obj.ID,
		Name:               obj.DisplayName(),
		Kind:               obj.Kind,
		RAHours:            obj.RAHours,
		DecDegrees:         obj.DecDegrees,
		Magnitude:          obj.Magnitude,
		AltitudeDeg:        v.AltitudeDeg,
		AzimuthDeg:         v.AzimuthDeg,
		ObservabilityScore: v.ObservabilityScore,
	}
}

// Group is a scored triple of candidates
type Group struct {
	Candidates       [3]Candidate `json:"candidates"`
	MinSeparationDeg float64      `json:"minSeparation"`
	AvgObservability float64      `json:"avgObservability"`
	SeparationScore  float64      `json:"separationScore"`
	ConditionsScore  float64      `json:"conditionsScore"`
	Score            float64      `json:"score"`
	IsCollinear      bool         `json:"collinear"`
}

// Conditions are optional environmental inputs. Nil fields are unknown.
type Conditions struct {
	CloudCover *float64       // percent, 0-100
	Moon       *sky.MoonState // nil when the Moon is below the horizon
}
