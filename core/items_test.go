package core

import (
	"testing"

	"github.com/signalsfoundry/signal-hunter/model"
)

func TestItemTracker_ReceiveReplaces(t *testing.T) {
	var it ItemTracker
	a := model.NewItem("jammer")
	b := model.NewItem("radar")

	it.Receive(a)
	it.Receive(b)
	if got := it.Held(); got != b {
		t.Fatalf("Held() = %+v, want %+v", got, b)
	}

	if used := it.Use(); used != b {
		t.Fatalf("Use() = %+v, want %+v", used, b)
	}
	if got := it.Held(); got != nil {
		t.Fatalf("Held() after Use = %+v, want nil", got)
	}
	if used := it.Use(); used != nil {
		t.Fatalf("Use() with empty hand = %+v, want nil", used)
	}
}

func TestItemTracker_ReceiveNilIsNoop(t *testing.T) {
	var it ItemTracker
	a := model.NewItem("jammer")
	it.Receive(a)
	it.Receive(nil)
	if got := it.Held(); got != a {
		t.Fatalf("Held() = %+v, want %+v", got, a)
	}
}

func TestItemTracker_EffectsKeepOrderAndDuplicates(t *testing.T) {
	var it ItemTracker
	slow := model.NewItem("slow")
	mute := model.NewItem("mute")

	it.Affect(slow)
	it.Affect(mute)
	it.Affect(slow)

	got := it.Effects()
	want := []*model.Item{slow, mute, slow}
	if len(got) != len(want) {
		t.Fatalf("Effects() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Effects()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestItemTracker_UseLeavesEffects(t *testing.T) {
	var it ItemTracker
	it.Receive(model.NewItem("boost"))
	it.Affect(model.NewItem("boost"))
	it.Use()
	if got := len(it.Effects()); got != 1 {
		t.Fatalf("Effects() len after Use = %d, want 1", got)
	}
}

func TestItemTracker_EffectsIsACopy(t *testing.T) {
	var it ItemTracker
	it.Affect(model.NewItem("slow"))
	snapshot := it.Effects()
	snapshot[0] = nil
	if it.Effects()[0] == nil {
		t.Fatalf("mutating Effects() result changed tracker state")
	}
}

func TestItemTracker_AffectAppendsNil(t *testing.T) {
	var it ItemTracker
	slow := model.NewItem("slow")
	it.Affect(nil)
	it.Affect(slow)

	got := it.Effects()
	if len(got) != 2 || got[0] != nil || got[1] != slow {
		t.Fatalf("Effects() = %+v, want [nil slow]", got)
	}
}
