package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/signal-hunter/model"
)

// ErrInvalidTrack indicates a player track could not be built.
var ErrInvalidTrack = errors.New("invalid player track")

// PlayerTrack produces the player's pose for a given simulation time.
type PlayerTrack interface {
	PoseAt(simTime time.Time) (pos model.Coordinate, heading float64)
}

// StaticTrack keeps the player standing still.
type StaticTrack struct {
	Position model.Coordinate
	Heading  float64
}

// PoseAt for a static track always returns the same pose.
func (s StaticTrack) PoseAt(time.Time) (model.Coordinate, float64) {
	return s.Position, s.Heading
}

// WaypointTrack walks the player along a polyline at constant speed,
// starting at the first waypoint at the start time and stopping at the
// last. The heading is the compass direction of the current leg (0 north,
// clockwise).
type WaypointTrack struct {
	start  time.Time
	speed  float64 // metres per second
	points []model.Coordinate
	// ends[i] is the cumulative distance at the end of leg i.
	ends []float64
}

// NewWaypointTrack builds a walker over the given waypoints.
func NewWaypointTrack(start time.Time, speedMps float64, points ...model.Coordinate) (*WaypointTrack, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no waypoints", ErrInvalidTrack)
	}
	if speedMps < 0 || math.IsNaN(speedMps) || math.IsInf(speedMps, 0) {
		return nil, fmt.Errorf("%w: speed %v", ErrInvalidTrack, speedMps)
	}

	wt := &WaypointTrack{
		start:  start,
		speed:  speedMps,
		points: append([]model.Coordinate(nil), points...),
		ends:   make([]float64, 0, len(points)-1),
	}
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceBetween(points[i-1], points[i])
		wt.ends = append(wt.ends, total)
	}
	return wt, nil
}

// Length is the total walking distance in metres.
func (wt *WaypointTrack) Length() float64 {
	if len(wt.ends) == 0 {
		return 0
	}
	return wt.ends[len(wt.ends)-1]
}

// PoseAt interpolates the player's position along the current leg.
func (wt *WaypointTrack) PoseAt(simTime time.Time) (model.Coordinate, float64) {
	if len(wt.ends) == 0 {
		return wt.points[0], 0
	}

	travelled := wt.speed * simTime.Sub(wt.start).Seconds()
	if travelled < 0 {
		travelled = 0
	}

	legStart := 0.0
	for i, end := range wt.ends {
		from, to := wt.points[i], wt.points[i+1]
		if travelled <= end {
			frac := 0.0
			if legLen := end - legStart; legLen > 0 {
				frac = (travelled - legStart) / legLen
			}
			pos := model.Coordinate{
				Lat: from.Lat + (to.Lat-from.Lat)*frac,
				Lon: from.Lon + (to.Lon-from.Lon)*frac,
			}
			return pos, compassHeading(from, to)
		}
		legStart = end
	}

	last := len(wt.points) - 1
	return wt.points[last], compassHeading(wt.points[last-1], wt.points[last])
}

// compassHeading is the flat-earth direction from a to b in degrees,
// 0 north, clockwise, in [0, 360).
func compassHeading(a, b model.Coordinate) float64 {
	dNorth := b.Lat - a.Lat
	dEast := (b.Lon - a.Lon) * math.Cos(rad(a.Lat))
	if dNorth == 0 && dEast == 0 {
		return 0
	}
	h := deg(math.Atan2(dEast, dNorth))
	if h < 0 {
		h += 360
	}
	return h
}
