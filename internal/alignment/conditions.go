package alignment

import (
	"math"

	"github.com/roman-kulish/skytrack/internal/sky"
)

const (
	clearSkyCloudCover = 20.0 // percent, no penalty up to here
	moonGlareRadius    = 45.0 // degrees
)

// ScoreConditions folds cloud cover and moonlight into a score in [0, 1].
// Missing data does not penalize: nil conditions score 1.
func ScoreConditions(cands [3]Candidate, cond *Conditions) float64 {
	if cond == nil {
		return 1
	}

	score := 1.0

	if cond.CloudCover != nil && !math.IsNaN(*cond.CloudCover) {
		score *= 1 - clamp((*cond.CloudCover-clearSkyCloudCover)/(100-clearSkyCloudCover), 0, 1)
	}

	if m := cond.Moon; m != nil {
		var glare float64
		for _, c := range cands {
			d := sky.Separation(c.RAHours, c.DecDegrees, m.RAHours, m.DecDegrees)
			glare += math.Max(0, 1-d/moonGlareRadius)
		}
		score *= 1 - clamp(m.Illumination, 0, 1)*glare/float64(len(cands))
	}

	return clamp(score, 0, 1)
}
