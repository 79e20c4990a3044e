package tracking

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// Alert is raised when the mount moves faster than the alert threshold
// without a slew being expected.
type Alert struct {
	At        time.Time
	Velocity  Velocity
	Threshold float64
}

func (a Alert) String() string {
	return fmt.Sprintf("drift %.4f°/s exceeds threshold %.4f°/s (ra %.4f, dec %.4f)",
		a.Velocity.Total, a.Threshold, a.Velocity.RA, a.Velocity.Dec)
}

// AlertHandler receives drift alerts. It is called on the tracker goroutine
// and must not block.
type AlertHandler func(Alert)

// DriftMonitor decides whether a velocity is an unexpected movement
type DriftMonitor struct {
	count   atomic.Int64
	handler AlertHandler
	metrics *Metrics
	logger  *slog.Logger
}

// NewDriftMonitor creates a monitor. Any argument may be nil.
func NewDriftMonitor(handler AlertHandler, metrics *Metrics, logger *slog.Logger) *DriftMonitor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DriftMonitor{handler: handler, metrics: metrics, logger: logger}
}

// Check raises an alert when v.Total exceeds threshold. An expected slew
// suppresses the alert unconditionally and is evaluated first; a mount that
// was slewing on the previous sample suppresses it as well, so the tail of a
// slew is not reported. A movement that starts while the current sample
// reports slewing, with neither flag set, is still alerted.
func (m *DriftMonitor) Check(v Velocity, threshold float64, expectedSlew, wasSlewing bool, at time.Time) (Alert, bool) {
	if expectedSlew {
		return Alert{}, false
	}
	if wasSlewing {
		return Alert{}, false
	}
	if v.Total <= threshold {
		return Alert{}, false
	}

	alert := Alert{At: at, Velocity: v, Threshold: threshold}
	m.count.Add(1)
	m.metrics.alert()
	m.logger.Warn(fmt.Sprintf("unexpected movement: %s", alert),
		slog.Float64("total", v.Total),
		slog.Float64("threshold", threshold),
	)
	if m.handler != nil {
		m.handler(alert)
	}
	return alert, true
}

// Count returns the number of alerts raised so far
func (m *DriftMonitor) Count() int64 {
	return m.count.Load()
}
