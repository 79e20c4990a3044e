// Package telescope is the control surface used by the command line and
// other front ends. It combines background tracking, history export and
// alignment suggestions behind one type.
package telescope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/skytrack/internal/alignment"
	"github.com/roman-kulish/skytrack/internal/export"
	"github.com/roman-kulish/skytrack/internal/sky"
	"github.com/roman-kulish/skytrack/internal/tracking"
)

var (
	ErrNoCandidatePool = errors.New("alignment suggestions are not configured")
	ErrInvalidLocation = errors.New("invalid observer location")
)

// CloudCoverSource reports the cloud cover in percent for a site
type CloudCoverSource interface {
	CloudCover(ctx context.Context, obs sky.Observer, at time.Time) (float64, error)
}

// MoonProvider locates the Moon
type MoonProvider interface {
	Moon(t time.Time) sky.MoonState
}

// WithLogger sets the logger for the controller
func WithLogger(logger *slog.Logger) func(c *Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock replaces time.Now for alignment planning
func WithClock(now func() time.Time) func(c *Controller) {
	return func(c *Controller) {
		c.now = now
	}
}

// WithCloudCover sets a weather source for alignment scoring
func WithCloudCover(src CloudCoverSource) func(c *Controller) {
	return func(c *Controller) {
		c.clouds = src
	}
}

// WithMoon sets the Moon ephemeris used for alignment scoring
func WithMoon(m MoonProvider) func(c *Controller) {
	return func(c *Controller) {
		c.moon = m
	}
}

// WithAlignment enables alignment suggestions
func WithAlignment(pool *alignment.Pool, ranker *alignment.Ranker) func(c *Controller) {
	return func(c *Controller) {
		c.pool = pool
		c.ranker = ranker
	}
}

// Controller is the single entry point for front ends
type Controller struct {
	tracker  *tracking.Tracker
	exporter *export.Exporter

	pool   *alignment.Pool
	ranker *alignment.Ranker
	moon   MoonProvider
	clouds CloudCoverSource

	now    func() time.Time
	logger *slog.Logger
}

// New creates a controller around tracker
func New(tracker *tracking.Tracker, options ...func(c *Controller)) *Controller {
	c := Controller{
		tracker: tracker,
		moon:    sky.LowPrecisionEphemeris{},
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	if c.ranker == nil {
		c.ranker = alignment.NewRanker()
	}
	c.exporter = export.New(tracker.History(), export.WithLogger(c.logger))

	return &c
}

func (c *Controller) Start(ctx context.Context) error {
	return c.tracker.Start(ctx)
}

func (c *Controller) Stop() {
	c.tracker.Stop()
}

func (c *Controller) SetInterval(seconds float64) bool {
	return c.tracker.SetInterval(seconds)
}

func (c *Controller) Interval() float64 {
	return c.tracker.Interval()
}

func (c *Controller) SetAlertThreshold(v float64) bool {
	return c.tracker.SetAlertThreshold(v)
}

func (c *Controller) AlertThreshold() float64 {
	return c.tracker.AlertThreshold()
}

func (c *Controller) SetExpectedSlew(expected bool) {
	c.tracker.SetExpectedSlew(expected)
}

func (c *Controller) SetEnabled(enabled bool) {
	c.tracker.SetEnabled(enabled)
}

func (c *Controller) State() tracking.State {
	return c.tracker.State()
}

// History returns recorded samples, oldest first
func (c *Controller) History(options ...tracking.QueryOption) []tracking.PositionSample {
	return c.tracker.History().Samples(options...)
}

func (c *Controller) ClearHistory() {
	c.tracker.ClearHistory()
}

func (c *Controller) HistoryStats() tracking.Stats {
	return c.tracker.History().Stats()
}

// ExportHistory writes the history to path as "csv" or "json"
func (c *Controller) ExportHistory(path, format string) (bool, string) {
	return c.exporter.Export(path, format)
}

// SuggestSkyAlignObjects returns up to maxGroups triples of reference objects
// for an observer at lat/lon right now. No suitable objects is not an error;
// the result is then empty.
func (c *Controller) SuggestSkyAlignObjects(ctx context.Context, lat, lon float64, maxGroups int) ([]alignment.Group, error) {
	if c.pool == nil {
		return nil, ErrNoCandidatePool
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: lat %.4f, lon %.4f", ErrInvalidLocation, lat, lon)
	}

	obs := sky.Observer{LatDeg: lat, LonDeg: lon}
	at := c.now()

	candidates, err := c.pool.Candidates(ctx, obs, at)
	if err != nil {
		return nil, fmt.Errorf("building candidates: %w", err)
	}

	groups := c.ranker.Rank(candidates, c.conditions(ctx, obs, at), maxGroups)

	c.logger.Info(fmt.Sprintf("suggested %d alignment groups from %d candidates", len(groups), len(candidates)),
		slog.Float64("lat", lat),
		slog.Float64("lon", lon),
	)
	return groups, nil
}

// conditions gathers whatever environmental data is available. Missing data
// is left nil so it does not penalize scoring.
func (c *Controller) conditions(ctx context.Context, obs sky.Observer, at time.Time) *alignment.Conditions {
	var cond alignment.Conditions

	if c.moon != nil {
		m := c.moon.Moon(at)
		if alt, _ := sky.ToHorizontal(m.RAHours, m.DecDegrees, obs, at); alt > 0 {
			cond.Moon = &m
		}
	}

	if c.clouds != nil {
		cc, err := c.clouds.CloudCover(ctx, obs, at)
		if err != nil {
			c.logger.Warn(fmt.Sprintf("cloud cover unavailable: %s", err.Error()))
		} else {
			cond.CloudCover = &cc
		}
	}

	if cond.Moon == nil && cond.CloudCover == nil {
		return nil
	}
	return &cond
}
