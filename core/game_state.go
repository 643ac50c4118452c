package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/signal-hunter/model"
)

var (
	// ErrInvalidSignal indicates a registry entry failed validation.
	ErrInvalidSignal = errors.New("invalid signal")
	// ErrInvalidPhase indicates an unknown match phase.
	ErrInvalidPhase = errors.New("invalid match phase")
	// ErrSignalIndex indicates a registry index outside the match registry.
	ErrSignalIndex = errors.New("signal index out of range")
	// ErrInvalidTeam indicates a claim by something other than red or blue.
	ErrInvalidTeam = errors.New("invalid team")
)

// signalSlot is everything the match tracks for one registry entry. Keeping
// it in one struct keeps the per-signal records aligned with the registry.
type signalSlot struct {
	signal   model.Signal
	loudness float64
	found    bool
	owner    model.Team
	sound    AmbientSound
}

// SignalState is a read-only view of one registry slot.
type SignalState struct {
	Index    int
	Signal   model.Signal
	Loudness float64
	Found    bool
	Owner    model.Team
}

// GameState is the per-match aggregate: phase, tuner, search gate, signal
// registry and item bookkeeping.
//
// GameState is not safe for concurrent use. It is meant to be owned by the
// game loop; see match.Session for a locked wrapper.
type GameState struct {
	phase model.Phase
	tuner *Tuner
	gate  *SearchGate
	slots []signalSlot
	items ItemTracker
}

// GameStateOption customises GameState construction.
type GameStateOption func(*gameStateConfig)

type gameStateConfig struct {
	sounds SoundBank
}

// WithSoundBank assigns each registry slot its ambient sound.
func WithSoundBank(bank SoundBank) GameStateOption {
	return func(c *gameStateConfig) {
		c.sounds = bank
	}
}

// NewGameState builds the state for one match from the server-provided
// registry. The registry is copied; its order fixes signal identity.
func NewGameState(phase model.Phase, signals []model.Signal, opts ...GameStateOption) (*GameState, error) {
	if !phase.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPhase, phase)
	}
	cfg := gameStateConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	slots := make([]signalSlot, len(signals))
	for i, s := range signals {
		if err := ValidateSignal(s); err != nil {
			return nil, fmt.Errorf("signal %d: %w", i, err)
		}
		var sound AmbientSound = silentSound{}
		if cfg.sounds != nil {
			if snd := cfg.sounds(i); snd != nil {
				sound = snd
			}
		}
		slots[i] = signalSlot{signal: s, sound: sound}
	}

	return &GameState{
		phase: phase,
		tuner: NewTuner(),
		gate:  NewSearchGate(),
		slots: slots,
	}, nil
}

// ValidateSignal checks a registry entry's frequency and coordinates.
func ValidateSignal(s model.Signal) error {
	if !model.ValidFrequency(s.Frequency) {
		return fmt.Errorf("%w: frequency %d outside %d..%d", ErrInvalidSignal, s.Frequency, model.MinFrequency, model.MaxFrequency)
	}
	if !finite(s.Position.Lat) || !finite(s.Position.Lon) {
		return fmt.Errorf("%w: non-finite position %v", ErrInvalidSignal, s.Position)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Advance runs one tick: loudness for the tuned frequency, then the search
// cooldown. It returns how many signals were audible.
func (g *GameState) Advance(tel model.Telemetry) int {
	audible := g.updateLoudness(tel.Elapsed, tel.Position, tel.Heading)
	g.gate.tick(tel.Elapsed)
	return audible
}

// Phase returns the stored match phase.
func (g *GameState) Phase() model.Phase {
	return g.phase
}

// SetPhase stores a phase reported by the server.
func (g *GameState) SetPhase(p model.Phase) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPhase, p)
	}
	g.phase = p
	return nil
}

// AdvanceFrequency tunes to the next channel and returns it.
func (g *GameState) AdvanceFrequency() int {
	return g.tuner.Advance()
}

// CurrentFrequency returns the tuned channel.
func (g *GameState) CurrentFrequency() int {
	return g.tuner.Current()
}

// SearchReady reports whether the search gate is open.
func (g *GameState) SearchReady() bool {
	return g.gate.Open()
}

// Gate exposes the search gate for read access.
func (g *GameState) Gate() *SearchGate {
	return g.gate
}

// ReceiveItem replaces the held item; nil is ignored.
func (g *GameState) ReceiveItem(item *model.Item) {
	g.items.Receive(item)
}

// ReceiveAffect records an effect applied to the player.
func (g *GameState) ReceiveAffect(item *model.Item) {
	g.items.Affect(item)
}

// UseItem clears and returns the held item.
func (g *GameState) UseItem() *model.Item {
	return g.items.Use()
}

// HeldItem returns the carried item, or nil.
func (g *GameState) HeldItem() *model.Item {
	return g.items.Held()
}

// ActiveEffects returns the applied effects in order.
func (g *GameState) ActiveEffects() []*model.Item {
	return g.items.Effects()
}

// ClaimSignal tags a signal as owned by a team.
func (g *GameState) ClaimSignal(index int, team model.Team) error {
	if index < 0 || index >= len(g.slots) {
		return fmt.Errorf("%w: %d", ErrSignalIndex, index)
	}
	if team != model.TeamRed && team != model.TeamBlue {
		return fmt.Errorf("%w: %d", ErrInvalidTeam, team)
	}
	g.slots[index].owner = team
	return nil
}

// SignalCount is the registry size.
func (g *GameState) SignalCount() int {
	return len(g.slots)
}

// Signal returns the state of one slot.
func (g *GameState) Signal(index int) (SignalState, bool) {
	if index < 0 || index >= len(g.slots) {
		return SignalState{}, false
	}
	return g.slots[index].view(index), true
}

// Signals returns a snapshot of every slot in registry order.
func (g *GameState) Signals() []SignalState {
	out := make([]SignalState, len(g.slots))
	for i := range g.slots {
		out[i] = g.slots[i].view(i)
	}
	return out
}

// FoundCount returns how many signals have been discovered.
func (g *GameState) FoundCount() int {
	n := 0
	for i := range g.slots {
		if g.slots[i].found {
			n++
		}
	}
	return n
}

func (s *signalSlot) view(index int) SignalState {
	return SignalState{
		Index:    index,
		Signal:   s.signal,
		Loudness: s.loudness,
		Found:    s.found,
		Owner:    s.owner,
	}
}
