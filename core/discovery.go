package core

import (
	"time"

	"github.com/signalsfoundry/signal-hunter/model"
)

const (
	// SearchCooldown is how long the search gate stays closed after an
	// attempt.
	SearchCooldown = 2 * time.Second
	// DiscoveryRangeM is how close the player must stand to a signal for a
	// search to collect it.
	DiscoveryRangeM = 10.0
	// NoDiscovery is returned by Search when nothing new was found.
	NoDiscovery = -1
)

// SearchGate is the cooldown-gated permission to attempt a discovery. It is
// either open (ready) or cooling down.
type SearchGate struct {
	open      bool
	remaining time.Duration
}

// NewSearchGate returns an open gate.
func NewSearchGate() *SearchGate {
	return &SearchGate{open: true, remaining: SearchCooldown}
}

// Open reports whether a search may be attempted.
func (sg *SearchGate) Open() bool {
	return sg.open
}

// Remaining is the cooldown left. It only means something while the gate is
// closed; an open gate always reports the full cooldown.
func (sg *SearchGate) Remaining() time.Duration {
	return sg.remaining
}

func (sg *SearchGate) close() {
	sg.open = false
	sg.remaining = SearchCooldown
}

// tick counts the cooldown down. Once it is used up the gate reopens and
// the stored duration is reset for the next attempt.
func (sg *SearchGate) tick(elapsed time.Duration) {
	if sg.open {
		return
	}
	sg.remaining -= elapsed
	if sg.remaining <= 0 {
		sg.open = true
		sg.remaining = SearchCooldown
	}
}

// Search attempts to collect a signal at pos. While the gate is cooling the
// call is rejected: it returns NoDiscovery and leaves the cooldown alone.
//
// Otherwise the gate closes whatever the outcome, and the first unfound
// signal in registry order within DiscoveryRangeM is marked found and its
// index returned. At most one signal is collected per attempt.
func (g *GameState) Search(pos model.Coordinate) int {
	if !g.gate.Open() {
		return NoDiscovery
	}
	g.gate.close()

	for i := range g.slots {
		slot := &g.slots[i]
		if slot.found {
			continue
		}
		if DistanceBetween(slot.signal.Position, pos) < DiscoveryRangeM {
			slot.found = true
			return i
		}
	}
	return NoDiscovery
}
