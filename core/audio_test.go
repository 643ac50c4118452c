package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/signal-hunter/model"
)

type recordingSound struct {
	played  time.Duration
	plays   int
	volume  float64
	volumes int
}

func (r *recordingSound) Play(elapsed time.Duration) {
	r.played += elapsed
	r.plays++
}

func (r *recordingSound) SetVolume(v float64) {
	r.volume = v
	r.volumes++
}

func newTestState(t *testing.T, signals []model.Signal, opts ...GameStateOption) *GameState {
	t.Helper()
	gs, err := NewGameState(model.PhaseStarted, signals, opts...)
	if err != nil {
		t.Fatalf("NewGameState: %v", err)
	}
	return gs
}

func tick(pos model.Coordinate, heading float64) model.Telemetry {
	return model.Telemetry{Elapsed: 100 * time.Millisecond, Position: pos, Heading: heading}
}

func loudness(t *testing.T, gs *GameState, index int) float64 {
	t.Helper()
	s, ok := gs.Signal(index)
	if !ok {
		t.Fatalf("Signal(%d) not found", index)
	}
	return s.Loudness
}

func TestLoudnessAt_Thresholds(t *testing.T) {
	for _, offset := range []float64{0, 45, 90, 135, 180, -90, 270} {
		if got := LoudnessAt(PointBlankRangeM, offset); got != 1 {
			t.Fatalf("LoudnessAt(10, %v) = %v, want 1", offset, got)
		}
		if got := LoudnessAt(0, offset); got != 1 {
			t.Fatalf("LoudnessAt(0, %v) = %v, want 1", offset, got)
		}
		if got := LoudnessAt(MaxAudibleRangeM, offset); got != 0 {
			t.Fatalf("LoudnessAt(510, %v) = %v, want 0", offset, got)
		}
		if got := LoudnessAt(MaxAudibleRangeM+1, offset); got != 0 {
			t.Fatalf("LoudnessAt(511, %v) = %v, want 0", offset, got)
		}
	}
}

func TestLoudnessAt_Directional(t *testing.T) {
	tests := []struct {
		name   string
		length float64
		offset float64
		want   float64
	}{
		{name: "facing", length: 260, offset: 0, want: 0.5},
		{name: "abeam", length: 260, offset: 90, want: 0.25},
		{name: "abeam other side", length: 260, offset: -90, want: 0.25},
		{name: "facing away", length: 260, offset: 180, want: 0},
		{name: "just outside point blank", length: 10.5, offset: 0, want: 0.999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoudnessAt(tt.length, tt.offset); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("LoudnessAt(%v, %v) = %v, want %v", tt.length, tt.offset, got, tt.want)
			}
		})
	}
}

func TestLoudnessAt_StaysWithinUnitRange(t *testing.T) {
	for length := 0.0; length <= 600; length += 3.7 {
		for offset := -720.0; offset <= 720; offset += 11.3 {
			v := LoudnessAt(length, offset)
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("LoudnessAt(%v, %v) = %v, want within [0,1]", length, offset, v)
			}
		}
	}
}

func TestAdvance_LoudnessScenario(t *testing.T) {
	origin := model.Coordinate{}
	gs := newTestState(t, []model.Signal{{Frequency: 1, Position: origin}})

	gs.Advance(tick(origin, 0))
	if got := loudness(t, gs, 0); got != 1 {
		t.Fatalf("loudness at source = %v, want 1", got)
	}

	gs.Advance(tick(metresNorth(origin, 1000), 0))
	if got := loudness(t, gs, 0); got != 0 {
		t.Fatalf("loudness at 1000 m = %v, want 0", got)
	}

	gs.Advance(tick(metresNorth(origin, 260), 0))
	if got := loudness(t, gs, 0); math.Abs(got-0.5) > 1e-6 {
		t.Fatalf("loudness at 260 m facing source = %v, want ~0.5", got)
	}
}

func TestAdvance_DetunedSignalKeepsLastLoudness(t *testing.T) {
	origin := model.Coordinate{}
	gs := newTestState(t, []model.Signal{
		{Frequency: 1, Position: origin},
		{Frequency: 2, Position: origin},
	})

	gs.Advance(tick(origin, 0))
	if got := loudness(t, gs, 0); got != 1 {
		t.Fatalf("tuned signal loudness = %v, want 1", got)
	}
	if got := loudness(t, gs, 1); got != 0 {
		t.Fatalf("detuned signal loudness = %v, want 0 before first tune", got)
	}

	gs.AdvanceFrequency()
	gs.Advance(tick(metresNorth(origin, 2000), 0))

	if got := loudness(t, gs, 0); got != 1 {
		t.Fatalf("detuned signal loudness = %v, want stale 1", got)
	}
	if got := loudness(t, gs, 1); got != 0 {
		t.Fatalf("tuned signal loudness = %v, want 0 out of range", got)
	}
}

func TestAdvance_DrivesOnlyAudibleSounds(t *testing.T) {
	sounds := map[int]*recordingSound{}
	bank := func(i int) AmbientSound {
		s := &recordingSound{}
		sounds[i] = s
		return s
	}
	origin := model.Coordinate{}
	gs := newTestState(t, []model.Signal{
		{Frequency: 1, Position: origin},
		{Frequency: 3, Position: origin},
		{Frequency: 1, Position: metresNorth(origin, 260)},
	}, WithSoundBank(bank))

	if len(sounds) != 3 {
		t.Fatalf("sound bank called %d times, want 3", len(sounds))
	}

	audible := gs.Advance(model.Telemetry{Elapsed: 250 * time.Millisecond, Position: origin})
	if audible != 2 {
		t.Fatalf("Advance audible = %d, want 2", audible)
	}
	if sounds[0].plays != 1 || sounds[0].played != 250*time.Millisecond {
		t.Fatalf("slot 0 sound = %+v, want one 250ms play", sounds[0])
	}
	if sounds[1].plays != 0 || sounds[1].volumes != 0 {
		t.Fatalf("detuned slot 1 sound was driven: %+v", sounds[1])
	}
	if sounds[0].volume != 1 {
		t.Fatalf("slot 0 volume = %v, want 1", sounds[0].volume)
	}
	if got := loudness(t, gs, 2); sounds[2].volume != got {
		t.Fatalf("slot 2 volume = %v, want loudness %v", sounds[2].volume, got)
	}
}
