package tracking

import (
	"math"
	"time"
)

// Position is a WGS84 latitude/longitude pair in degrees.
type Position struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

const (
	metersPerDegreeLat = 111320.0
	earthRadiusMeters  = 6371000.0
)

// ProjectForward dead-reckons a target position: where the vehicle will be
// after the given duration, assuming it holds its current speed and heading.
// Flat-earth approximation; fine at bus speeds over a few seconds.
func ProjectForward(p Position, speedMps, headingDeg float64, d time.Duration) Position {
	seconds := d.Seconds()
	heading := headingDeg * math.Pi / 180
	dLat := (speedMps * seconds * math.Cos(heading)) / metersPerDegreeLat
	dLng := (speedMps * seconds * math.Sin(heading)) / (metersPerDegreeLat * math.Cos(p.Lat*math.Pi/180))
	return Position{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}

// GreatCircleMeters returns the haversine distance between two positions.
// Used for the viewer's "distance to vehicle" readout.
func GreatCircleMeters(a, b Position) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
