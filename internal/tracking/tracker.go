package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/skytrack/internal/mount"
)

const (
	DefaultInterval       = 1.0 // seconds
	DefaultAlertThreshold = 0.5 // degrees per second
	DefaultLinkTimeout    = 5 * time.Second

	MinInterval       = 0.5
	MaxInterval       = 30.0
	MinAlertThreshold = 0.1
	MaxAlertThreshold = 20.0
)

// ErrNoLink is returned by Start when the tracker has no mount link
var ErrNoLink = errors.New("tracker has no mount link")

// State is a snapshot of the tracker
type State struct {
	Enabled        bool
	Running        bool
	Interval       float64 // seconds
	AlertThreshold float64 // degrees per second
	ExpectedSlew   bool
	IsSlewing      bool
	ErrorCount     int64
	AlertCount     int64
	LastPosition   *PositionSample
	LastUpdate     time.Time
}

// WithLogger sets the logger for the tracker
func WithLogger(logger *slog.Logger) func(t *Tracker) {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithInterval sets the polling interval in seconds. Values outside the
// accepted range are ignored.
func WithInterval(seconds float64) func(t *Tracker) {
	return func(t *Tracker) {
		if validInterval(seconds) {
			t.state.Interval = seconds
		}
	}
}

// WithAlertThreshold sets the drift alert threshold in degrees per second.
// Values outside the accepted range are ignored.
func WithAlertThreshold(threshold float64) func(t *Tracker) {
	return func(t *Tracker) {
		if validThreshold(threshold) {
			t.state.AlertThreshold = threshold
		}
	}
}

// WithHistoryCapacity sets the number of samples kept in history
func WithHistoryCapacity(capacity int) func(t *Tracker) {
	return func(t *Tracker) {
		t.history = NewHistory(capacity)
	}
}

// WithMetrics sets the collectors updated by the tracker
func WithMetrics(m *Metrics) func(t *Tracker) {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// WithAlertHandler sets a callback for drift alerts. The handler runs on the
// tracker goroutine and must not call Stop.
func WithAlertHandler(h AlertHandler) func(t *Tracker) {
	return func(t *Tracker) {
		t.alertHandler = h
	}
}

// WithLinkTimeout bounds each mount query
func WithLinkTimeout(d time.Duration) func(t *Tracker) {
	return func(t *Tracker) {
		if d > 0 {
			t.linkTimeout = d
		}
	}
}

// WithClock replaces time.Now as the source of sample timestamps
func WithClock(now func() time.Time) func(t *Tracker) {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker polls a mount in the background and records its position
type Tracker struct {
	link         mount.Link
	history      *History
	drift        *DriftMonitor
	metrics      *Metrics
	alertHandler AlertHandler
	linkTimeout  time.Duration
	now          func() time.Time

	mu    sync.RWMutex // guards state
	state State

	lifecycle sync.Mutex // serializes Start and Stop
	isRunning atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	logger *slog.Logger
}

// New creates a tracker for link. It does not start polling.
func New(link mount.Link, options ...func(t *Tracker)) *Tracker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	t := Tracker{
		link:        link,
		linkTimeout: DefaultLinkTimeout,
		now:         time.Now,
		logger:      logger,
		state: State{
			Enabled:        true,
			Interval:       DefaultInterval,
			AlertThreshold: DefaultAlertThreshold,
		},
	}

	for _, option := range options {
		option(&t)
	}

	if t.history == nil {
		t.history = NewHistory(DefaultHistoryCapacity)
	}
	t.drift = NewDriftMonitor(t.alertHandler, t.metrics, t.logger)

	return &t
}

// Start launches the polling goroutine. Calling Start on a running tracker
// is a no-op. Cancelling ctx stops polling as Stop does, after which Start
// may be called again.
func (t *Tracker) Start(ctx context.Context) error {
	if t.link == nil {
		return ErrNoLink
	}

	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	if t.isRunning.Load() {
		return nil
	}

	// a goroutine ended by its parent context may still be unwinding
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()

	ctx, t.cancel = context.WithCancel(ctx)
	t.isRunning.Store(true)

	t.wg.Add(1)
	go t.run(ctx)

	t.logger.Info("tracking started", slog.Float64("interval", t.Interval()))
	return nil
}

// Stop cancels the polling goroutine and waits for it to exit. It is safe to
// call from any goroutine other than an alert handler, any number of times.
func (t *Tracker) Stop() {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	if !t.isRunning.Load() {
		return // already stopped
	}

	t.cancel()
	t.wg.Wait()
	t.isRunning.Store(false)

	t.logger.Info("tracking stopped")
}

// IsRunning returns true while the polling goroutine is alive
func (t *Tracker) IsRunning() bool {
	return t.isRunning.Load()
}

func (t *Tracker) run(ctx context.Context) {
	defer t.wg.Done()
	defer t.isRunning.Store(false)

	timer := time.NewTimer(0) // first tick immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if t.Enabled() {
			t.tick(ctx)
		}

		timer.Reset(seconds(t.Interval()))
	}
}

// tick performs one poll and records the result
func (t *Tracker) tick(ctx context.Context) {
	start := time.Now()
	sample, err := t.poll(ctx)
	t.metrics.pollDuration(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return // shutting down
		}

		t.mu.Lock()
		t.state.ErrorCount++
		count := t.state.ErrorCount
		t.mu.Unlock()

		t.metrics.transportError()
		t.logger.Warn(fmt.Sprintf("error polling mount: %s", err.Error()), slog.Int64("errors", count))
		return
	}

	t.record(sample)
}

// poll queries the link for a complete sample. The tracker locks are not
// held here.
func (t *Tracker) poll(ctx context.Context) (PositionSample, error) {
	at := t.now()

	eq, err := query(ctx, t.linkTimeout, "position ra/dec", t.link.PositionRADec)
	if err != nil {
		return PositionSample{}, err
	}
	hz, err := query(ctx, t.linkTimeout, "position alt/az", t.link.PositionAltAz)
	if err != nil {
		return PositionSample{}, err
	}
	slewing, err := query(ctx, t.linkTimeout, "slewing state", t.link.IsSlewing)
	if err != nil {
		return PositionSample{}, err
	}

	return NewSample(at, eq, hz, slewing), nil
}

func query[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil && !mount.IsTransport(err) {
		err = mount.NewTransportError(op, err)
	}
	return v, err
}

// record derives velocity, checks for drift and appends the sample
func (t *Tracker) record(sample PositionSample) {
	t.mu.RLock()
	prev := t.state.LastPosition
	expectedSlew := t.state.ExpectedSlew
	wasSlewing := t.state.IsSlewing
	threshold := t.state.AlertThreshold
	t.mu.RUnlock()

	if prev != nil {
		if dt := sample.Timestamp.Sub(prev.Timestamp); dt > 0 {
			sample.Velocity = ComputeVelocity(*prev, sample, dt)
			sample.VelocityValid = true
		}
	}

	if err := t.history.Append(sample); err != nil {
		t.logger.Warn(fmt.Sprintf("dropping sample: %s", err.Error()), slog.Time("timestamp", sample.Timestamp))
		return
	}

	if sample.VelocityValid {
		t.drift.Check(sample.Velocity, threshold, expectedSlew, wasSlewing, sample.Timestamp)
	}

	t.mu.Lock()
	t.state.LastPosition = &sample
	t.state.LastUpdate = sample.Timestamp
	t.state.IsSlewing = sample.IsSlewing
	t.mu.Unlock()

	t.metrics.sample(t.history.Len(), sample.IsSlewing)
}

// SetInterval changes the polling interval from the next tick on. It returns
// false, keeping the current value, when seconds is outside [0.5, 30].
func (t *Tracker) SetInterval(seconds float64) bool {
	if !validInterval(seconds) {
		return false
	}

	t.mu.Lock()
	t.state.Interval = seconds
	t.mu.Unlock()

	t.logger.Debug("interval changed", slog.Float64("interval", seconds))
	return true
}

// SetAlertThreshold changes the drift threshold in degrees per second. It
// returns false, keeping the current value, when v is outside [0.1, 20].
func (t *Tracker) SetAlertThreshold(v float64) bool {
	if !validThreshold(v) {
		return false
	}

	t.mu.Lock()
	t.state.AlertThreshold = v
	t.mu.Unlock()
	return true
}

// SetExpectedSlew tells the tracker that fast movement is intended, e.g.
// during a GOTO, so that no drift alerts are raised
func (t *Tracker) SetExpectedSlew(expected bool) {
	t.mu.Lock()
	t.state.ExpectedSlew = expected
	t.mu.Unlock()
}

// SetEnabled pauses or resumes polling without stopping the goroutine
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.state.Enabled = enabled
	t.mu.Unlock()
}

func (t *Tracker) Interval() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Interval
}

func (t *Tracker) AlertThreshold() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.AlertThreshold
}

func (t *Tracker) ExpectedSlew() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.ExpectedSlew
}

func (t *Tracker) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Enabled
}

// State returns a copy of the tracker state
func (t *Tracker) State() State {
	t.mu.RLock()
	s := t.state
	t.mu.RUnlock()

	if s.LastPosition != nil {
		last := *s.LastPosition
		s.LastPosition = &last
	}
	s.Running = t.isRunning.Load()
	s.AlertCount = t.drift.Count()
	return s
}

// History returns the tracker's sample history
func (t *Tracker) History() *History {
	return t.history
}

// ClearHistory drops all recorded samples
func (t *Tracker) ClearHistory() {
	t.history.Clear()
	t.metrics.historySize(0)
}

func validInterval(v float64) bool {
	return !math.IsNaN(v) && v >= MinInterval && v <= MaxInterval
}

func validThreshold(v float64) bool {
	return !math.IsNaN(v) && v >= MinAlertThreshold && v <= MaxAlertThreshold
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
