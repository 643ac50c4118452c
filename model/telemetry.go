package model

import "time"

// Telemetry is the per-tick player input: time elapsed since the previous
// tick, where the player stands and which way they face.
type Telemetry struct {
	Elapsed  time.Duration
	Position Coordinate
	// Heading in degrees from the receiver's reference direction.
	Heading float64
}
