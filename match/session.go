package match

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/signal-hunter/core"
	"github.com/signalsfoundry/signal-hunter/internal/logging"
	"github.com/signalsfoundry/signal-hunter/internal/observability"
	"github.com/signalsfoundry/signal-hunter/model"
)

// Search outcomes reported to the metrics recorder.
const (
	OutcomeFound   = "found"
	OutcomeMiss    = "miss"
	OutcomeCooling = "cooling"
)

// MetricsRecorder receives tick, search and gauge updates from a session.
type MetricsRecorder interface {
	ObserveTick(d time.Duration, audible int)
	ObserveSearch(outcome string)
	SetMatchGauges(phase model.Phase, frequency, found, effects int, holding bool)
}

// Session owns the game state of one match and serialises every access to
// it, so ticks and player actions may arrive from different goroutines.
type Session struct {
	// mu guards state and subs. Subscribers are always invoked after it is
	// released.
	mu    sync.RWMutex
	state *core.GameState

	id      string
	log     logging.Logger
	metrics MetricsRecorder

	subs   []subscription
	nextID int
}

type subscription struct {
	id int
	fn func(Event)
}

// Snapshot is a consistent copy of a session's observable state.
type Snapshot struct {
	MatchID           string
	Phase             model.Phase
	Frequency         int
	SearchReady       bool
	CooldownRemaining time.Duration
	Signals           []core.SignalState
	HeldItem          *model.Item
	ActiveEffects     []*model.Item
}

// Option customises Session construction.
type Option func(*options)

type options struct {
	id      string
	log     logging.Logger
	metrics MetricsRecorder
	state   []core.GameStateOption
}

// WithMatchID sets the match identifier used in logs and spans. A random
// UUID is used otherwise.
func WithMatchID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSoundBank forwards the ambient sound assignment to the game state.
func WithSoundBank(bank core.SoundBank) Option {
	return func(o *options) {
		o.state = append(o.state, core.WithSoundBank(bank))
	}
}

// NewSession builds a session around a fresh game state for the given
// registry.
func NewSession(phase model.Phase, signals []model.Signal, opts ...Option) (*Session, error) {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	idCtx := context.Background()
	if o.id != "" {
		idCtx = logging.ContextWithMatchID(idCtx, o.id)
	}
	idCtx, log := logging.WithMatchLogger(idCtx, o.log)

	state, err := core.NewGameState(phase, signals, o.state...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		state:   state,
		id:      logging.MatchIDFromContext(idCtx),
		log:     log,
		metrics: o.metrics,
	}
	s.updateGaugesLocked()
	s.log.Info(context.Background(), "match session created",
		logging.Int("signals", len(signals)),
		logging.String("phase", phase.String()),
	)
	return s, nil
}

// ID returns the match identifier.
func (s *Session) ID() string {
	return s.id
}

// Context returns ctx carrying the session's match ID and match-scoped
// logger, unless ctx already has its own.
func (s *Session) Context(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logging.MatchIDFromContext(ctx) == "" {
		ctx = logging.ContextWithMatchID(ctx, s.id)
	}
	if logging.LoggerFromContext(ctx) == nil {
		ctx = logging.ContextWithLogger(ctx, s.log)
	}
	return ctx
}

// Advance applies one tick of player telemetry and returns how many
// signals were audible.
func (s *Session) Advance(ctx context.Context, tel model.Telemetry) int {
	ctx = s.Context(ctx)
	start := time.Now()

	s.mu.Lock()
	wasReady := s.state.SearchReady()
	audible := s.state.Advance(tel)
	reopened := !wasReady && s.state.SearchReady()
	s.updateGaugesLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveTick(time.Since(start), audible)
	}
	if reopened {
		s.log.Debug(ctx, "search gate reopened")
		s.publish(Event{Type: EventSearchReady, SignalIndex: core.NoDiscovery})
	}
	return audible
}

// Search attempts a discovery at pos. It returns the collected signal's
// index or core.NoDiscovery. Attempts while the gate is cooling are
// rejected without touching the cooldown.
func (s *Session) Search(ctx context.Context, pos model.Coordinate) int {
	ctx, span := observability.StartSpan(s.Context(ctx), "Session/Search",
		attribute.Float64("player.lat", pos.Lat),
		attribute.Float64("player.lon", pos.Lon),
	)
	defer span.End()

	s.mu.Lock()
	ready := s.state.SearchReady()
	index := s.state.Search(pos)
	s.updateGaugesLocked()
	s.mu.Unlock()

	outcome := OutcomeMiss
	switch {
	case !ready:
		outcome = OutcomeCooling
	case index != core.NoDiscovery:
		outcome = OutcomeFound
	}
	span.SetAttributes(
		attribute.String("search.outcome", outcome),
		attribute.Int("signal.index", index),
	)
	if s.metrics != nil {
		s.metrics.ObserveSearch(outcome)
	}

	switch outcome {
	case OutcomeFound:
		s.log.Info(ctx, "signal discovered", logging.Int("signal_index", index))
		s.publish(Event{Type: EventSignalDiscovered, SignalIndex: index})
	case OutcomeCooling:
		s.log.Debug(ctx, "search rejected while cooling")
	default:
		s.log.Debug(ctx, "search found nothing")
	}
	return index
}

// AdvanceFrequency tunes the receiver to the next channel.
func (s *Session) AdvanceFrequency(ctx context.Context) int {
	ctx = s.Context(ctx)

	s.mu.Lock()
	freq := s.state.AdvanceFrequency()
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.log.Debug(ctx, "frequency changed", logging.Int("frequency", freq))
	s.publish(Event{Type: EventFrequencyChanged, SignalIndex: core.NoDiscovery, Frequency: freq})
	return freq
}

// CurrentFrequency returns the tuned channel.
func (s *Session) CurrentFrequency() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentFrequency()
}

// ReceiveItem replaces the held item. A nil item is ignored.
func (s *Session) ReceiveItem(ctx context.Context, item *model.Item) {
	if item == nil {
		return
	}
	ctx, span := observability.StartSpan(s.Context(ctx), "Session/ReceiveItem", itemAttrs(item)...)
	defer span.End()

	s.mu.Lock()
	s.state.ReceiveItem(item)
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.log.Info(ctx, "item received", itemFields(item)...)
	s.publish(Event{Type: EventItemReceived, SignalIndex: core.NoDiscovery, Item: item})
}

// ReceiveAffect records an effect applied to the player. Every call is
// recorded, a nil token included.
func (s *Session) ReceiveAffect(ctx context.Context, item *model.Item) {
	ctx, span := observability.StartSpan(s.Context(ctx), "Session/ReceiveAffect", itemAttrs(item)...)
	defer span.End()

	s.mu.Lock()
	s.state.ReceiveAffect(item)
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.log.Info(ctx, "effect applied", itemFields(item)...)
	s.publish(Event{Type: EventEffectApplied, SignalIndex: core.NoDiscovery, Item: item})
}

// UseItem clears the held item and returns it, or nil when the player was
// empty-handed.
func (s *Session) UseItem(ctx context.Context) *model.Item {
	ctx, span := observability.StartSpan(s.Context(ctx), "Session/UseItem")
	defer span.End()

	s.mu.Lock()
	used := s.state.UseItem()
	s.updateGaugesLocked()
	s.mu.Unlock()

	if used == nil {
		s.log.Debug(ctx, "use item with empty hand")
		return nil
	}
	span.SetAttributes(itemAttrs(used)...)
	s.log.Info(ctx, "item used", itemFields(used)...)
	s.publish(Event{Type: EventItemUsed, SignalIndex: core.NoDiscovery, Item: used})
	return used
}

// ClaimSignal tags a signal as owned by a team.
func (s *Session) ClaimSignal(ctx context.Context, index int, team model.Team) error {
	ctx = s.Context(ctx)

	s.mu.Lock()
	err := s.state.ClaimSignal(index, team)
	s.mu.Unlock()

	if err != nil {
		s.log.Warn(ctx, "claim rejected", logging.Int("signal_index", index), logging.Err(err))
		return err
	}
	s.log.Info(ctx, "signal claimed", logging.Int("signal_index", index), logging.String("team", team.String()))
	s.publish(Event{Type: EventSignalClaimed, SignalIndex: index, Team: team})
	return nil
}

// SetPhase stores a phase update from the server. Repeating the current
// phase is accepted but publishes nothing.
func (s *Session) SetPhase(ctx context.Context, p model.Phase) error {
	ctx = s.Context(ctx)

	s.mu.Lock()
	prev := s.state.Phase()
	err := s.state.SetPhase(p)
	if err == nil {
		s.updateGaugesLocked()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn(ctx, "phase update rejected", logging.Err(err))
		return err
	}
	if prev != p {
		s.log.Info(ctx, "match phase changed",
			logging.String("from", prev.String()),
			logging.String("to", p.String()),
		)
		s.publish(Event{Type: EventPhaseChanged, SignalIndex: core.NoDiscovery, Phase: p})
	}
	return nil
}

// Phase returns the stored match phase.
func (s *Session) Phase() model.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Phase()
}

// SearchReady reports whether the search gate is open.
func (s *Session) SearchReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SearchReady()
}

// HeldItem returns the carried item, or nil.
func (s *Session) HeldItem() *model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HeldItem()
}

// ActiveEffects returns the applied effects in order.
func (s *Session) ActiveEffects() []*model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveEffects()
}

// Signal returns the state of one registry slot.
func (s *Session) Signal(index int) (core.SignalState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Signal(index)
}

// Signals returns every registry slot in order.
func (s *Session) Signals() []core.SignalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Signals()
}

// Snapshot captures the whole observable state under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		MatchID:           s.id,
		Phase:             s.state.Phase(),
		Frequency:         s.state.CurrentFrequency(),
		SearchReady:       s.state.SearchReady(),
		CooldownRemaining: s.state.Gate().Remaining(),
		Signals:           s.state.Signals(),
		HeldItem:          s.state.HeldItem(),
		ActiveEffects:     s.state.ActiveEffects(),
	}
}

// Subscribe registers a callback for session events. It returns an
// unsubscribe function.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) publish(ev Event) {
	s.mu.RLock()
	subs := append([]subscription(nil), s.subs...)
	s.mu.RUnlock()

	// Notify subscribers outside the lock so they may call back in.
	for _, sub := range subs {
		sub.fn(ev)
	}
}

func (s *Session) updateGaugesLocked() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetMatchGauges(
		s.state.Phase(),
		s.state.CurrentFrequency(),
		s.state.FoundCount(),
		len(s.state.ActiveEffects()),
		s.state.HeldItem() != nil,
	)
}

func itemAttrs(item *model.Item) []attribute.KeyValue {
	if item == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("item.id", item.ID.String()),
		attribute.String("item.kind", item.Kind),
	}
}

func itemFields(item *model.Item) []logging.Field {
	if item == nil {
		return []logging.Field{logging.String("item_kind", "none")}
	}
	return []logging.Field{
		logging.String("item_id", item.ID.String()),
		logging.String("item_kind", item.Kind),
	}
}
