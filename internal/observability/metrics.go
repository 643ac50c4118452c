package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/signal-hunter/model"
)

// HuntCollector bundles Prometheus metrics for a running match and exposes
// them over HTTP.
type HuntCollector struct {
	gatherer prometheus.Gatherer

	Ticks          prometheus.Counter
	TickDurations  prometheus.Histogram
	AudibleSignals prometheus.Gauge
	Searches       *prometheus.CounterVec

	SignalsFound  prometheus.Gauge
	TunedFreq     prometheus.Gauge
	MatchPhase    prometheus.Gauge
	HeldItem      prometheus.Gauge
	ActiveEffects prometheus.Gauge
}

// NewHuntCollector registers match metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewHuntCollector(reg prometheus.Registerer) (*HuntCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hunt_ticks_total",
		Help: "Total number of simulation ticks applied to the match.",
	}), "hunt_ticks_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hunt_tick_duration_seconds",
		Help:    "Wall-clock time spent applying one tick.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}), "hunt_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	audible, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hunt_audible_signals",
		Help: "Signals on the tuned frequency during the last tick.",
	}), "hunt_audible_signals")
	if err != nil {
		return nil, err
	}

	searches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hunt_searches_total",
		Help: "Search attempts, labeled by outcome (found, miss, cooling).",
	}, []string{"outcome"}), "hunt_searches_total")
	if err != nil {
		return nil, err
	}

	found, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hunt_signals_found",
		Help: "Signals discovered so far in the match.",
	}), "hunt_signals_found")
	if err != nil {
		return nil, err
	}
	freq, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hunt_tuned_frequency",
		Help: "Frequency the receiver is tuned to (1-6).",
	}), "hunt_tuned_frequency")
	if err != nil {
		return nil, err
	}
	phase, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hunt_match_phase",
		Help: "Match phase: 0 no room, 1 waiting, 2 ready, 3 started, 4 game over.",
	}), "hunt_match_phase")
	if err != nil {
		return nil, err
	}
	held, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hunt_held_item",
		Help: "1 while the player carries a usable item.",
	}), "hunt_held_item")
	if err != nil {
		return nil, err
	}
	effects, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hunt_active_effects",
		Help: "Effects currently applied to the player.",
	}), "hunt_active_effects")
	if err != nil {
		return nil, err
	}

	return &HuntCollector{
		gatherer:       gatherer,
		Ticks:          ticks,
		TickDurations:  durations,
		AudibleSignals: audible,
		Searches:       searches,
		SignalsFound:   found,
		TunedFreq:      freq,
		MatchPhase:     phase,
		HeldItem:       held,
		ActiveEffects:  effects,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *HuntCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick records one applied tick.
func (c *HuntCollector) ObserveTick(d time.Duration, audible int) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.TickDurations.Observe(d.Seconds())
	c.AudibleSignals.Set(float64(audible))
}

// ObserveSearch counts one search attempt.
func (c *HuntCollector) ObserveSearch(outcome string) {
	if c == nil {
		return
	}
	c.Searches.WithLabelValues(outcome).Inc()
}

// SetMatchGauges satisfies match.MetricsRecorder so a session can drive the
// gauges directly from its mutators.
func (c *HuntCollector) SetMatchGauges(phase model.Phase, frequency, found, effects int, holding bool) {
	if c == nil {
		return
	}
	c.MatchPhase.Set(float64(phase))
	c.TunedFreq.Set(float64(frequency))
	c.SignalsFound.Set(float64(found))
	c.ActiveEffects.Set(float64(effects))
	if holding {
		c.HeldItem.Set(1)
	} else {
		c.HeldItem.Set(0)
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
