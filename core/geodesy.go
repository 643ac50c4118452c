package core

import (
	"math"

	"github.com/signalsfoundry/signal-hunter/model"
)

// EarthRadiusM is the WGS-84 equatorial radius in metres. It is used as-is
// for every haversine distance so loudness stays comparable across devices.
const EarthRadiusM = 6378137.0

func rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Distance returns the great-circle distance in metres between
// (lon1, lat1) and (lon2, lat2) using the haversine formula.
func Distance(lon1, lat1, lon2, lat2 float64) float64 {
	radLat1 := rad(lat1)
	radLat2 := rad(lat2)
	a := radLat1 - radLat2
	b := rad(lon1) - rad(lon2)

	sinA := math.Sin(a / 2)
	sinB := math.Sin(b / 2)
	h := sinA*sinA + math.Cos(radLat1)*math.Cos(radLat2)*sinB*sinB
	if h > 1 {
		h = 1
	}
	return 2 * math.Asin(math.Sqrt(h)) * EarthRadiusM
}

// DistanceBetween is Distance for two coordinates.
func DistanceBetween(p, q model.Coordinate) float64 {
	return Distance(p.Lon, p.Lat, q.Lon, q.Lat)
}

// BearingOffset returns how far, in degrees, the player's heading is off the
// direction to target, along with the player↔target distance.
//
// The angle is a short-range chord approximation: the east-west leg is the
// distance from (target lon, player lat) to the player, negated when the
// player is north of the target, and the angle is asin(leg/distance).
func BearingOffset(player, target model.Coordinate, heading float64) (offset, length float64) {
	length = DistanceBetween(target, player)
	dx := Distance(target.Lon, player.Lat, player.Lon, player.Lat)
	if player.Lat > target.Lat {
		dx = -dx
	}

	var angle float64
	if length > 0 {
		ratio := dx / length
		// Rounding can push |dx| a hair past length on an east-west line.
		if ratio > 1 {
			ratio = 1
		} else if ratio < -1 {
			ratio = -1
		}
		angle = deg(math.Asin(ratio))
	}
	return angle - heading, length
}
