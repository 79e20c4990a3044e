package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/roman-kulish/skytrack/internal/mount"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)}
}

func TestDrift(t *testing.T) {
	clock := newClock()
	m := New(
		WithClock(clock.Now),
		WithPosition(mount.RADec{RAHours: 23.99999, DecDegrees: 10}),
		WithDrift(15, 36),
	)

	clock.Add(10 * time.Second)
	pos, err := m.PositionRADec(context.Background())
	if err != nil {
		t.Fatalf("PositionRADec() error = %v", err)
	}

	// 150 arcsec of RA is 10 seconds of time and wraps past 24h
	wantRA := math.Mod(23.99999+150.0/(15*3600), 24)
	if math.Abs(pos.RAHours-wantRA) > 1e-9 {
		t.Errorf("RA = %.9f, want %.9f", pos.RAHours, wantRA)
	}
	if math.Abs(pos.DecDegrees-10.1) > 1e-9 {
		t.Errorf("Dec = %.9f, want 10.1", pos.DecDegrees)
	}
}

func TestSlew(t *testing.T) {
	clock := newClock()
	m := New(WithClock(clock.Now), WithPosition(mount.RADec{RAHours: 23, DecDegrees: 0}))
	ctx := context.Background()

	m.Slew(mount.RADec{RAHours: 1, DecDegrees: 20}, 10*time.Second)

	clock.Add(5 * time.Second)
	slewing, err := m.IsSlewing(ctx)
	if err != nil || !slewing {
		t.Fatalf("IsSlewing() = %v, %v; want true", slewing, err)
	}
	pos, _ := m.PositionRADec(ctx)
	if math.Abs(pos.RAHours-0) > 1e-9 && math.Abs(pos.RAHours-24) > 1e-9 {
		t.Errorf("midway RA = %f, want 0 (shortest way across 0h)", pos.RAHours)
	}
	if math.Abs(pos.DecDegrees-10) > 1e-9 {
		t.Errorf("midway Dec = %f, want 10", pos.DecDegrees)
	}

	clock.Add(6 * time.Second)
	if slewing, _ := m.IsSlewing(ctx); slewing {
		t.Error("slew should have finished")
	}
	pos, _ = m.PositionRADec(ctx)
	if pos != (mount.RADec{RAHours: 1, DecDegrees: 20}) {
		t.Errorf("final position = %+v", pos)
	}
}

func TestSlewImmediate(t *testing.T) {
	m := New()
	target := mount.RADec{RAHours: 5.5, DecDegrees: -30}
	m.Slew(target, 0)

	slewing, _ := m.IsSlewing(context.Background())
	pos, _ := m.PositionRADec(context.Background())
	if slewing || math.Abs(pos.RAHours-5.5) > 1e-3 || math.Abs(pos.DecDegrees+30) > 1e-3 {
		t.Errorf("after immediate slew: slewing=%v pos=%+v", slewing, pos)
	}
}

func TestFailNext(t *testing.T) {
	m := New()
	ctx := context.Background()
	m.FailNext(2)

	if _, err := m.PositionRADec(ctx); !mount.IsTransport(err) || !errors.Is(err, ErrInjected) {
		t.Errorf("first call error = %v, want injected transport error", err)
	}
	if _, err := m.PositionAltAz(ctx); !mount.IsTransport(err) {
		t.Errorf("second call error = %v, want transport error", err)
	}
	if _, err := m.IsSlewing(ctx); err != nil {
		t.Errorf("third call error = %v, want nil", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().PositionRADec(ctx); !errors.Is(err, context.Canceled) || !mount.IsTransport(err) {
		t.Errorf("error = %v, want transport error wrapping context.Canceled", err)
	}
}

func TestPositionAltAzPole(t *testing.T) {
	m := New(WithPosition(mount.RADec{RAHours: 0, DecDegrees: 90}))
	m.observer.LatDeg = 52

	aa, err := m.PositionAltAz(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(aa.AltDegrees-52) > 1e-6 {
		t.Errorf("pole altitude = %f, want observer latitude", aa.AltDegrees)
	}
}
