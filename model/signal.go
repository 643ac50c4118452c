package model

// Frequency bounds for a signal source and the receiver's tuner.
const (
	MinFrequency = 1
	MaxFrequency = 6
)

// Coordinate is a geographic position in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Signal is a stationary broadcaster as handed over by the room
// configuration. Its identity is its index in the match registry.
type Signal struct {
	Frequency int
	Position  Coordinate
}

// ValidFrequency reports whether f is one of the six receiver channels.
func ValidFrequency(f int) bool {
	return f >= MinFrequency && f <= MaxFrequency
}

// Team identifies which side owns a signal in team mode.
type Team int

const (
	TeamNone Team = iota // unclaimed
	TeamRed
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamNone:
		return "none"
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "unknown"
	}
}
