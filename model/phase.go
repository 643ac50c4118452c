package model

// Phase is the coarse lifecycle of a match as reported by the server.
type Phase int

const (
	PhaseNoRoom Phase = iota
	PhaseWaitingForPlayers
	PhaseReady
	PhaseStarted
	PhaseGameOver
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	return p >= PhaseNoRoom && p <= PhaseGameOver
}

func (p Phase) String() string {
	switch p {
	case PhaseNoRoom:
		return "no_room"
	case PhaseWaitingForPlayers:
		return "waiting_for_players"
	case PhaseReady:
		return "ready"
	case PhaseStarted:
		return "started"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}
