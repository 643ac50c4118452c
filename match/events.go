package match

import "github.com/signalsfoundry/signal-hunter/model"

// EventType indicates what changed in a session.
type EventType int

const (
	EventSignalDiscovered EventType = iota
	EventSignalClaimed
	EventPhaseChanged
	EventFrequencyChanged
	EventSearchReady
	EventItemReceived
	EventEffectApplied
	EventItemUsed
)

func (t EventType) String() string {
	switch t {
	case EventSignalDiscovered:
		return "signal_discovered"
	case EventSignalClaimed:
		return "signal_claimed"
	case EventPhaseChanged:
		return "phase_changed"
	case EventFrequencyChanged:
		return "frequency_changed"
	case EventSearchReady:
		return "search_ready"
	case EventItemReceived:
		return "item_received"
	case EventEffectApplied:
		return "effect_applied"
	case EventItemUsed:
		return "item_used"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers after a session mutation. Only the
// fields relevant to Type are set; SignalIndex is -1 when no signal is
// involved.
type Event struct {
	Type        EventType
	SignalIndex int
	Team        model.Team
	Phase       model.Phase
	Frequency   int
	Item        *model.Item
}
