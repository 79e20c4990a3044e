package tracking

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors of one tracker. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Samples         prometheus.Counter
	TransportErrors prometheus.Counter
	DriftAlerts     prometheus.Counter
	PollDuration    prometheus.Histogram
	HistorySize     prometheus.Gauge
	Slewing         prometheus.Gauge
}

// NewMetrics registers the tracker collectors against reg, defaulting to the
// global registry when nil. Collectors are labelled with trackerID so several
// trackers can share a registry.
func NewMetrics(reg prometheus.Registerer, trackerID string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"tracker": trackerID}

	var (
		m   Metrics
		err error
	)

	if m.Samples, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "skytrack_samples_total",
		Help:        "Total number of position samples recorded.",
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}
	if m.TransportErrors, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "skytrack_transport_errors_total",
		Help:        "Total number of failed mount polls.",
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}
	if m.DriftAlerts, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "skytrack_drift_alerts_total",
		Help:        "Total number of unexpected movement alerts.",
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}
	if m.PollDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "skytrack_poll_duration_seconds",
		Help:        "Time spent querying the mount per tick.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}
	if m.HistorySize, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "skytrack_history_samples",
		Help:        "Number of samples currently held in history.",
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}
	if m.Slewing, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "skytrack_slewing",
		Help:        "1 while the mount reports a slew in progress.",
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}

	return &m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return c, fmt.Errorf("collector %T already registered with incompatible type", c)
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) sample(historySize int, slewing bool) {
	if m == nil {
		return
	}
	m.Samples.Inc()
	m.HistorySize.Set(float64(historySize))
	if slewing {
		m.Slewing.Set(1)
	} else {
		m.Slewing.Set(0)
	}
}

func (m *Metrics) transportError() {
	if m == nil {
		return
	}
	m.TransportErrors.Inc()
}

func (m *Metrics) alert() {
	if m == nil {
		return
	}
	m.DriftAlerts.Inc()
}

func (m *Metrics) pollDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PollDuration.Observe(seconds)
}

func (m *Metrics) historySize(n int) {
	if m == nil {
		return
	}
	m.HistorySize.Set(float64(n))
}
