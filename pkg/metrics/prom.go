package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tick outcomes.
const (
	OutcomeSkipped   = "skipped"
	OutcomeUnchanged = "unchanged"
	OutcomeSameHash  = "same_hash"
	OutcomeChanged   = "changed"
	OutcomeBaseline  = "baseline"
	OutcomeFailed    = "failed"
)

// Recorder exposes the watcher's Prometheus metrics.
type Recorder struct {
	ticks         *prometheus.CounterVec
	notifications prometheus.Counter
	captcha       *prometheus.CounterVec
	anomalies     prometheus.Counter
	duration      prometheus.Histogram
	sessionState  prometheus.Gauge
}

// NewRecorder registers the collectors on reg, or the default registerer when
// reg is nil. Collectors that are already registered are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outagewatch_ticks_total",
		Help: "Poll ticks by outcome",
	}, []string{"outcome"})
	notifications := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outagewatch_notifications_total",
		Help: "Schedule change notifications sent",
	})
	captcha := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outagewatch_captcha_waits_total",
		Help: "CAPTCHA waits by result",
	}, []string{"result"})
	anomalies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outagewatch_parse_anomalies_total",
		Help: "Schedule cells parsed with reduced confidence",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outagewatch_tick_duration_seconds",
		Help:    "Wall time of poll ticks",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120, 300},
	})
	sessionState := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outagewatch_session_state",
		Help: "Browser session state (0 uninitialized, 1 initializing, 2 ready, 3 degraded, 4 closed)",
	})

	var err error
	if ticks, err = register(reg, ticks); err != nil {
		return nil, err
	}
	if notifications, err = register(reg, notifications); err != nil {
		return nil, err
	}
	if captcha, err = register(reg, captcha); err != nil {
		return nil, err
	}
	if anomalies, err = register(reg, anomalies); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if sessionState, err = register(reg, sessionState); err != nil {
		return nil, err
	}

	return &Recorder{
		ticks:         ticks,
		notifications: notifications,
		captcha:       captcha,
		anomalies:     anomalies,
		duration:      duration,
		sessionState:  sessionState,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *Recorder) Tick(outcome string, took time.Duration) {
	r.ticks.WithLabelValues(outcome).Inc()
	r.duration.Observe(took.Seconds())
}

func (r *Recorder) Notified() {
	r.notifications.Inc()
}

func (r *Recorder) Captcha(result string) {
	r.captcha.WithLabelValues(result).Inc()
}

func (r *Recorder) Anomalies(n int) {
	if n > 0 {
		r.anomalies.Add(float64(n))
	}
}

func (r *Recorder) SessionState(state int) {
	r.sessionState.Set(float64(state))
}
