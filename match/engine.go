package match

import (
	"context"
	"time"

	"github.com/signalsfoundry/signal-hunter/core"
	"github.com/signalsfoundry/signal-hunter/internal/logging"
	"github.com/signalsfoundry/signal-hunter/internal/observability"
	"github.com/signalsfoundry/signal-hunter/model"
)

// TickReport summarises what one engine step did.
type TickReport struct {
	SimTime   time.Time
	Elapsed   time.Duration
	Position  model.Coordinate
	Heading   float64
	Frequency int
	Audible   int
	// Discovered is the index collected by this step's search, or
	// core.NoDiscovery.
	Discovered int
}

// Engine drives a session from a player track, standing in for the game
// client: it feeds telemetry every tick and optionally presses search and
// turns the tuner on the player's behalf.
type Engine struct {
	Session *Session
	Track   core.PlayerTrack

	// AutoSearch searches whenever the gate is open.
	AutoSearch bool
	// ScanWhenSilent moves to the next frequency when no unfound signal on
	// the tuned one can be heard.
	ScanWhenSilent bool

	tickListeners []func(TickReport)
	batch         *observability.TickBatch
}

// NewEngine wires a session to a track with auto-search enabled.
func NewEngine(session *Session, track core.PlayerTrack) *Engine {
	return &Engine{
		Session:    session,
		Track:      track,
		AutoSearch: true,
	}
}

// TraceTicks groups every size ticks under one tracing span. Call Flush
// when the loop stops to end a partial batch.
func (e *Engine) TraceTicks(size int) {
	e.batch = observability.NewTickBatch(size)
}

// Flush ends any open tick batch span.
func (e *Engine) Flush() {
	if e.batch != nil {
		e.batch.Flush()
	}
}

// RegisterTickListener adds a callback run after every step.
func (e *Engine) RegisterTickListener(fn func(TickReport)) {
	e.tickListeners = append(e.tickListeners, fn)
}

// Step advances the match to simTime. It has the shape of a
// timectrl.Listener once bound to a context.
func (e *Engine) Step(ctx context.Context, simTime time.Time, elapsed time.Duration) TickReport {
	ctx = e.Session.Context(ctx)
	pos, heading := e.Track.PoseAt(simTime)
	report := TickReport{
		SimTime:    simTime,
		Elapsed:    elapsed,
		Position:   pos,
		Heading:    heading,
		Discovered: core.NoDiscovery,
	}

	report.Audible = e.Session.Advance(ctx, model.Telemetry{
		Elapsed:  elapsed,
		Position: pos,
		Heading:  heading,
	})

	if e.AutoSearch && e.Session.SearchReady() {
		report.Discovered = e.Session.Search(ctx, pos)
	}
	if e.ScanWhenSilent && !e.hearsTuned() {
		e.Session.AdvanceFrequency(ctx)
	}
	report.Frequency = e.Session.CurrentFrequency()

	logging.LoggerFromContext(ctx).Debug(ctx, "tick",
		logging.Float64("lat", pos.Lat),
		logging.Float64("lon", pos.Lon),
		logging.Float64("heading", heading),
		logging.Int("frequency", report.Frequency),
		logging.Int("audible", report.Audible),
	)

	if e.batch != nil {
		e.batch.Observe(ctx, simTime, report.Audible, report.Discovered != core.NoDiscovery)
	}
	for _, fn := range e.tickListeners {
		fn(report)
	}
	return report
}

// Run steps the engine ticks times from start, tick apart, without a time
// controller. It stops early when ctx is cancelled.
func (e *Engine) Run(ctx context.Context, start time.Time, tick time.Duration, ticks int) {
	defer e.Flush()
	simTime := start
	for i := 0; i < ticks; i++ {
		if ctx.Err() != nil {
			return
		}
		simTime = simTime.Add(tick)
		e.Step(ctx, simTime, tick)
	}
}

func (e *Engine) hearsTuned() bool {
	freq := e.Session.CurrentFrequency()
	for _, s := range e.Session.Signals() {
		if s.Signal.Frequency == freq && !s.Found && s.Loudness > 0 {
			return true
		}
	}
	return false
}
