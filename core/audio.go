package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/signal-hunter/model"
)

// Loudness falloff thresholds in metres.
const (
	PointBlankRangeM = 10.0
	FalloffRangeM    = 500.0
	MaxAudibleRangeM = PointBlankRangeM + FalloffRangeM
)

// AmbientSound is the looping sound bound to one registry slot. The core
// drives it but does not own the audio device.
type AmbientSound interface {
	// Play advances playback by the elapsed tick time.
	Play(elapsed time.Duration)
	// SetVolume applies the latest loudness in [0,1].
	SetVolume(v float64)
}

// SoundBank hands out the ambient sound for a registry slot. It is called
// once per slot when the game state is built.
type SoundBank func(index int) AmbientSound

type silentSound struct{}

func (silentSound) Play(time.Duration) {}
func (silentSound) SetVolume(float64)  {}

// LoudnessAt maps a distance in metres and a bearing offset in degrees to a
// loudness in [0,1].
//
// Inside point-blank range the source is at full volume and beyond the
// audible range it is silent. In between, a linear falloff is scaled by a
// directional factor that is 1 when facing the source and 0.5 when it is
// abeam. The product is not clamped again; both factors already lie in
// [0,1].
func LoudnessAt(length, offset float64) float64 {
	switch {
	case length <= PointBlankRangeM:
		return 1
	case length > MaxAudibleRangeM:
		return 0
	}
	base := 1 - (length-PointBlankRangeM)/FalloffRangeM
	directional := 0.5 + 0.5*math.Cos(rad(offset))
	return base * directional
}

// updateLoudness refreshes every signal on the tuned frequency in a single
// pass. Detuned signals keep their last loudness.
func (g *GameState) updateLoudness(elapsed time.Duration, pos model.Coordinate, heading float64) int {
	freq := g.tuner.Current()
	audible := 0
	for i := range g.slots {
		slot := &g.slots[i]
		if slot.signal.Frequency != freq {
			continue
		}
		audible++
		slot.sound.Play(elapsed)

		offset, length := BearingOffset(pos, slot.signal.Position, heading)
		slot.loudness = LoudnessAt(length, offset)
		slot.sound.SetVolume(slot.loudness)
	}
	return audible
}
