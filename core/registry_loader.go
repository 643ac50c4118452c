// core/registry_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/signal-hunter/model"
)

// internal JSON shapes – keep them unexported so the room payload can evolve.
type registryJSON struct {
	Signals []signalJSON `json:"signals"`
}

type signalJSON struct {
	Frequency int     `json:"frequency"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LoadRegistry decodes the signal registry handed over by the room
// configuration. Entry order is preserved because it defines signal
// identity for the rest of the match.
func LoadRegistry(r io.Reader) ([]model.Signal, error) {
	var payload registryJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadRegistry: decode failed: %w", err)
	}

	signals := make([]model.Signal, 0, len(payload.Signals))
	for i, js := range payload.Signals {
		s := model.Signal{
			Frequency: js.Frequency,
			Position:  model.Coordinate{Lat: js.Latitude, Lon: js.Longitude},
		}
		if err := ValidateSignal(s); err != nil {
			return nil, fmt.Errorf("LoadRegistry: signal %d: %w", i, err)
		}
		signals = append(signals, s)
	}
	return signals, nil
}

type routeJSON struct {
	Waypoints []waypointJSON `json:"waypoints"`
}

type waypointJSON struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LoadRoute decodes a walking route for a simulated player.
func LoadRoute(r io.Reader) ([]model.Coordinate, error) {
	var payload routeJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadRoute: decode failed: %w", err)
	}
	if len(payload.Waypoints) == 0 {
		return nil, fmt.Errorf("LoadRoute: %w: no waypoints", ErrInvalidTrack)
	}

	points := make([]model.Coordinate, len(payload.Waypoints))
	for i, wp := range payload.Waypoints {
		if !finite(wp.Latitude) || !finite(wp.Longitude) {
			return nil, fmt.Errorf("LoadRoute: waypoint %d: %w: non-finite position", i, ErrInvalidTrack)
		}
		points[i] = model.Coordinate{Lat: wp.Latitude, Lon: wp.Longitude}
	}
	return points, nil
}
