package core

import "github.com/signalsfoundry/signal-hunter/model"

// Tuner is the receiver's frequency selector. It cycles through the six
// channels and starts on the first.
type Tuner struct {
	freq int
}

// NewTuner returns a tuner set to the lowest frequency.
func NewTuner() *Tuner {
	return &Tuner{freq: model.MinFrequency}
}

// Advance moves to the next channel, wrapping from the highest back to the
// lowest, and returns the new frequency.
func (t *Tuner) Advance() int {
	t.freq++
	if t.freq > model.MaxFrequency {
		t.freq = model.MinFrequency
	}
	return t.freq
}

// Current returns the tuned frequency.
func (t *Tuner) Current() int {
	return t.freq
}
