// Package sim provides an in-memory telescope mount. It applies a constant
// tracking drift, performs timed slews and can be told to fail calls, which is
// enough to exercise the tracker without hardware.
package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/roman-kulish/skytrack/internal/mount"
	"github.com/roman-kulish/skytrack/internal/sky"
)

// ErrInjected is the cause of failures requested with FailNext
var ErrInjected = errors.New("injected failure")

// WithObserver sets the site used to derive alt/az from the equatorial pointing
func WithObserver(o sky.Observer) func(*Mount) {
	return func(m *Mount) {
		m.observer = o
	}
}

// WithPosition sets the initial equatorial pointing
func WithPosition(p mount.RADec) func(*Mount) {
	return func(m *Mount) {
		m.pos = p
	}
}

// WithDrift sets a constant tracking error in arcseconds per second
func WithDrift(raArcsecPerSec, decArcsecPerSec float64) func(*Mount) {
	return func(m *Mount) {
		m.driftRA = raArcsecPerSec
		m.driftDec = decArcsecPerSec
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) func(*Mount) {
	return func(m *Mount) {
		m.now = now
	}
}

type slew struct {
	from, to mount.RADec
	start    time.Time
	duration time.Duration
}

// Mount is a simulated equatorial mount that is always tracking
type Mount struct {
	mu sync.Mutex

	observer sky.Observer
	pos      mount.RADec
	driftRA  float64
	driftDec float64
	slew     *slew
	failures int

	now  func() time.Time
	last time.Time
}

// New creates a simulated mount pointing at RA 0h, Dec 0° unless configured otherwise
func New(options ...func(*Mount)) *Mount {
	m := Mount{now: time.Now}

	for _, option := range options {
		option(&m)
	}

	m.last = m.now()
	return &m
}

// Slew starts a linear move to target that completes after duration
func (m *Mount) Slew(target mount.RADec, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.advance()
	if duration <= 0 {
		m.pos = target
		m.slew = nil
		return
	}
	m.slew = &slew{from: m.pos, to: target, start: m.last, duration: duration}
}

// FailNext makes the next n link calls return a transport error
func (m *Mount) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *Mount) PositionRADec(ctx context.Context) (mount.RADec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "position ra/dec"); err != nil {
		return mount.RADec{}, err
	}
	m.advance()
	return m.pos, nil
}

func (m *Mount) PositionAltAz(ctx context.Context) (mount.AltAz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "position alt/az"); err != nil {
		return mount.AltAz{}, err
	}
	m.advance()

	alt, az := sky.ToHorizontal(m.pos.RAHours, m.pos.DecDegrees, m.observer, m.last)
	return mount.AltAz{AltDegrees: alt, AzDegrees: az}, nil
}

func (m *Mount) IsSlewing(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "slewing state"); err != nil {
		return false, err
	}
	m.advance()
	return m.slew != nil, nil
}

func (m *Mount) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return mount.NewTransportError(op, err)
	}
	if m.failures > 0 {
		m.failures--
		return mount.NewTransportError(op, ErrInjected)
	}
	return nil
}

// advance moves the simulated pointing to the current clock reading
func (m *Mount) advance() {
	now := m.now()
	dt := now.Sub(m.last).Seconds()
	m.last = now
	if dt <= 0 {
		return
	}

	if m.slew != nil {
		frac := float64(now.Sub(m.slew.start)) / float64(m.slew.duration)
		if frac >= 1 {
			m.pos = m.slew.to
			m.slew = nil
		} else {
			dRA := math.Remainder(m.slew.to.RAHours-m.slew.from.RAHours, 24)
			m.pos = mount.RADec{
				RAHours:    normalizeHours(m.slew.from.RAHours + dRA*frac),
				DecDegrees: m.slew.from.DecDegrees + (m.slew.to.DecDegrees-m.slew.from.DecDegrees)*frac,
			}
		}
		return
	}

	m.pos.RAHours = normalizeHours(m.pos.RAHours + m.driftRA*dt/(15*3600))
	m.pos.DecDegrees = math.Max(-90, math.Min(90, m.pos.DecDegrees+m.driftDec*dt/3600))
}

func normalizeHours(h float64) float64 {
	h = math.Mod(h, 24)
	if h < 0 {
		h += 24
	}
	return h
}
