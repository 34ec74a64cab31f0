// Package metrics exports suite activity as Prometheus metrics. A
// [Recorder] turns ticktock hooks into counters and gauges.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/byte4ever/ticktock"
)

const namespace = "ticktock"

// Recorder holds the suite metrics.
type Recorder struct {
	renders            *prom.CounterVec
	laps               prom.Counter
	alarmEvents        *prom.CounterVec
	cityEvents         *prom.CounterVec
	countdownFired     prom.Counter
	countdownRemaining prom.Gauge
	storeErrors        *prom.CounterVec
}

// NewRecorder constructs the metrics and registers them with reg. A nil reg
// gets a fresh registry. Registering a second recorder with the same
// registry panics, as prom.MustRegister does.
func NewRecorder(reg prom.Registerer) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{}

	r.renders = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "renders_total",
		Help:      "Render notifications by component",
	}, []string{"component"})
	r.laps = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stopwatch_laps_total",
		Help:      "Stopwatch laps recorded",
	})
	r.alarmEvents = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "alarm_events_total",
		Help:      "Alarm lifecycle events by event and recurrence",
	}, []string{"event", "recurrence"})
	r.cityEvents = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "world_clock_city_events_total",
		Help:      "World clock cities added and removed",
	}, []string{"event"})
	r.countdownFired = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "countdown_fired_total",
		Help:      "Countdowns that reached zero",
	})
	r.countdownRemaining = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "countdown_remaining_seconds",
		Help:      "Seconds left on the countdown at its last tick",
	})
	r.storeErrors = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Persistence failures by key",
	}, []string{"key"})
	reg.MustRegister(r.renders, r.laps, r.alarmEvents, r.cityEvents,
		r.countdownFired, r.countdownRemaining, r.storeErrors)

	return r
}

// Hooks returns suite hooks feeding the recorder. Combine them with other
// hooks through ticktock.ChainHooks.
func (r *Recorder) Hooks() *ticktock.Hooks {
	return &ticktock.Hooks{
		OnRender: func(c ticktock.Component) {
			r.renders.WithLabelValues(string(c)).Inc()
		},
		OnLap: func(time.Duration) {
			r.laps.Inc()
		},
		OnCountdownTick: func(remaining int) {
			r.countdownRemaining.Set(float64(remaining))
		},
		OnCountdownFired: func() {
			r.countdownFired.Inc()
		},
		OnAlarmAdded: func(a ticktock.Alarm) {
			r.alarmEvents.WithLabelValues("added", string(a.Recur)).Inc()
		},
		OnAlarmRemoved: func(a ticktock.Alarm) {
			r.alarmEvents.WithLabelValues("removed", string(a.Recur)).Inc()
		},
		OnAlarmFired: func(a ticktock.Alarm) {
			r.alarmEvents.WithLabelValues("fired", string(a.Recur)).Inc()
		},
		OnCityAdded: func(string) {
			r.cityEvents.WithLabelValues("added").Inc()
		},
		OnCityRemoved: func(string) {
			r.cityEvents.WithLabelValues("removed").Inc()
		},
		OnStoreError: func(key string, _ error) {
			r.storeErrors.WithLabelValues(key).Inc()
		},
	}
}

// Handler serves the metrics gathered by g in the Prometheus exposition
// format.
func Handler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}

	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
