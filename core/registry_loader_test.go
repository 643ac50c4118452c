package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/signalsfoundry/signal-hunter/model"
)

func TestLoadRegistry_PreservesOrder(t *testing.T) {
	const payload = `{
  "signals": [
    {"frequency": 3, "latitude": 31.0251, "longitude": 121.4337},
    {"frequency": 1, "latitude": 31.0260, "longitude": 121.4350},
    {"frequency": 6, "latitude": 31.0242, "longitude": 121.4321}
  ]
}`
	signals, err := LoadRegistry(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	want := []model.Signal{
		{Frequency: 3, Position: model.Coordinate{Lat: 31.0251, Lon: 121.4337}},
		{Frequency: 1, Position: model.Coordinate{Lat: 31.0260, Lon: 121.4350}},
		{Frequency: 6, Position: model.Coordinate{Lat: 31.0242, Lon: 121.4321}},
	}
	if len(signals) != len(want) {
		t.Fatalf("LoadRegistry returned %d signals, want %d", len(signals), len(want))
	}
	for i := range want {
		if signals[i] != want[i] {
			t.Fatalf("signal %d = %+v, want %+v", i, signals[i], want[i])
		}
	}
}

func TestLoadRegistry_EmptyRegistry(t *testing.T) {
	signals, err := LoadRegistry(strings.NewReader(`{"signals": []}`))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(signals) != 0 {
		t.Fatalf("LoadRegistry returned %d signals, want 0", len(signals))
	}
}

func TestLoadRegistry_RejectsBadFrequency(t *testing.T) {
	_, err := LoadRegistry(strings.NewReader(`{"signals": [{"frequency": 1}, {"frequency": 9}]}`))
	if !errors.Is(err, ErrInvalidSignal) {
		t.Fatalf("LoadRegistry error = %v, want ErrInvalidSignal", err)
	}
	if !strings.Contains(err.Error(), "signal 1") {
		t.Fatalf("error %q does not name the offending entry", err)
	}
}

func TestLoadRegistry_RejectsMalformedJSON(t *testing.T) {
	for _, payload := range []string{
		`{"signals": [`,
		`{"signals": [{"frequency": "one"}]}`,
		`{"signals": [], "bogus": true}`,
	} {
		if _, err := LoadRegistry(strings.NewReader(payload)); err == nil {
			t.Fatalf("LoadRegistry(%q) succeeded, want error", payload)
		}
	}
}

func TestLoadRoute(t *testing.T) {
	const payload = `{"waypoints": [
		{"latitude": 31.0251, "longitude": 121.4337},
		{"latitude": 31.0260, "longitude": 121.4337}
	]}`
	points, err := LoadRoute(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("LoadRoute: %v", err)
	}
	want := []model.Coordinate{{Lat: 31.0251, Lon: 121.4337}, {Lat: 31.0260, Lon: 121.4337}}
	if len(points) != len(want) || points[0] != want[0] || points[1] != want[1] {
		t.Fatalf("points = %+v, want %+v", points, want)
	}
}

func TestLoadRoute_RejectsEmptyRoute(t *testing.T) {
	_, err := LoadRoute(strings.NewReader(`{"waypoints": []}`))
	if !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("LoadRoute error = %v, want ErrInvalidTrack", err)
	}
}
