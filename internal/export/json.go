package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/roman-kulish/skytrack/internal/tracking"
)

type document struct {
	ExportTime time.Time  `json:"export_time"`
	Count      int        `json:"count"`
	Positions  []position `json:"positions"`
}

type position struct {
	Timestamp  time.Time          `json:"timestamp"`
	RAHours    float64            `json:"ra_hours"`
	DecDegrees float64            `json:"dec_degrees"`
	AltDegrees float64            `json:"alt_degrees"`
	AzDegrees  float64            `json:"az_degrees"`
	Velocity   *tracking.Velocity `json:"velocity,omitempty"`
}

// WriteJSON writes samples as an indented document stamped with exportTime
func WriteJSON(w io.Writer, samples []tracking.PositionSample, exportTime time.Time) error {
	doc := document{
		ExportTime: exportTime.UTC(),
		Count:      len(samples),
		Positions:  make([]position, len(samples)),
	}

	for i, s := range samples {
		p := position{
			Timestamp:  s.Timestamp.UTC(),
			RAHours:    s.RAHours,
			DecDegrees: s.DecDegrees,
			AltDegrees: s.AltDegrees,
			AzDegrees:  s.AzDegrees,
		}
		if s.VelocityValid {
			v := s.Velocity
			p.Velocity = &v
		}
		doc.Positions[i] = p
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
