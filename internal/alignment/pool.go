package alignment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/roman-kulish/skytrack/internal/sky"
)

const DefaultMagnitudeCeiling = 2.5

// Catalog enumerates objects at least as bright as magCeiling
type Catalog interface {
	Bright(ctx context.Context, magCeiling float64) ([]sky.Object, error)
}

// Visibility assesses an object with current coordinates for an observer
type Visibility interface {
	Assess(obj sky.Object, obs sky.Observer, t time.Time) sky.Visibility
}

// Ephemeris recomputes the position and brightness of moving objects
type Ephemeris interface {
	Locate(obj sky.Object, t time.Time) (sky.Object, bool)
}

// WithMagnitudeCeiling sets the faintest magnitude considered
func WithMagnitudeCeiling(mag float64) func(p *Pool) {
	return func(p *Pool) {
		p.magCeiling = mag
	}
}

// WithPoolLogger sets the logger for the pool
func WithPoolLogger(logger *slog.Logger) func(p *Pool) {
	return func(p *Pool) {
		p.logger = logger
	}
}

// Pool builds the list of alignment candidates for a time and place
type Pool struct {
	catalog    Catalog
	visibility Visibility
	ephemeris  Ephemeris
	magCeiling float64
	logger     *slog.Logger
}

func NewPool(catalog Catalog, visibility Visibility, ephemeris Ephemeris, options ...func(p *Pool)) *Pool {
	p := Pool{
		catalog:    catalog,
		visibility: visibility,
		ephemeris:  ephemeris,
		magCeiling: DefaultMagnitudeCeiling,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// Candidates returns the visible objects no fainter than the magnitude
// ceiling, best observable first
func (p *Pool) Candidates(ctx context.Context, obs sky.Observer, at time.Time) ([]Candidate, error) {
	objects, err := p.catalog.Bright(ctx, p.magCeiling)
	if err != nil {
		return nil, fmt.Errorf("enumerating bright objects: %w", err)
	}

	seen := make(map[string]struct{}, len(objects))
	candidates := make([]Candidate, 0, len(objects))

	for _, obj := range objects {
		if _, ok := seen[obj.ID]; ok {
			continue
		}

		if obj.Kind.Dynamic() {
			if p.ephemeris == nil {
				continue
			}
			located, ok := p.ephemeris.Locate(obj, at)
			if !ok {
				p.logger.Debug("no ephemeris for object", slog.String("id", obj.ID))
				continue
			}
			obj = located
		}

		if obj.Magnitude > p.magCeiling {
			continue
		}

		v := p.visibility.Assess(obj, obs, at)
		if !v.IsVisible {
			continue
		}

		seen[obj.ID] = struct{}{}
		candidates = append(candidates, NewCandidate(obj, v))
	}

	sortCandidates(candidates)

	p.logger.Debug(fmt.Sprintf("%d of %d objects visible", len(candidates), len(objects)))
	return candidates, nil
}

// sortCandidates orders by observability, then brightness, then ID
func sortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].ObservabilityScore != c[j].ObservabilityScore {
			return c[i].ObservabilityScore > c[j].ObservabilityScore
		}
		if c[i].Magnitude != c[j].Magnitude {
			return c[i].Magnitude < c[j].Magnitude
		}
		return c[i].ID < c[j].ID
	})
}
