package tracking

import (
	"math"
	"testing"
	"time"
)

func TestProjectForwardNorth(t *testing.T) {
	p := Position{Lat: 10, Lng: 10}
	got := ProjectForward(p, 10, 0, 5*time.Second)

	// 50m due north: lat advances by 50/111320 degrees, lng is untouched.
	wantLat := 10 + 50.0/metersPerDegreeLat
	if math.Abs(got.Lat-wantLat) > 1e-12 {
		t.Errorf("lat = %v, want %v", got.Lat, wantLat)
	}
	if math.Abs(got.Lng-10) > 1e-12 {
		t.Errorf("lng = %v, want 10", got.Lng)
	}
}

func TestProjectForwardEastScalesWithLatitude(t *testing.T) {
	d := 5200 * time.Millisecond
	got := ProjectForward(Position{Lat: 10, Lng: 10}, 10, 90, d)

	// 52m due east at lat 10: longitude degrees shrink by cos(lat).
	wantLng := 10 + 52.0/(metersPerDegreeLat*math.Cos(10*math.Pi/180))
	if math.Abs(got.Lng-wantLng) > 1e-12 {
		t.Errorf("lng = %v, want %v", got.Lng, wantLng)
	}
	if math.Abs(got.Lat-10) > 1e-9 {
		t.Errorf("lat drifted on a due-east projection: %v", got.Lat)
	}
}

func TestProjectForwardZeroSpeed(t *testing.T) {
	p := Position{Lat: 10, Lng: 10}
	if got := ProjectForward(p, 0, 123, 8*time.Second); got != p {
		t.Errorf("zero speed moved the target: %+v", got)
	}
}

func TestGreatCircleMeters(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Position
		want   float64
		within float64
	}{
		{"same point", Position{10, 10}, Position{10, 10}, 0, 0.001},
		{"one degree of latitude", Position{0, 0}, Position{1, 0}, 111195, 5},
		{"one degree of longitude at equator", Position{0, 0}, Position{0, 1}, 111195, 5},
		{"symmetric", Position{59.3, 18.1}, Position{59.4, 18.2}, GreatCircleMeters(Position{59.4, 18.2}, Position{59.3, 18.1}), 0.001},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GreatCircleMeters(tc.a, tc.b)
			if math.Abs(got-tc.want) > tc.within {
				t.Errorf("distance = %v, want %v ± %v", got, tc.want, tc.within)
			}
		})
	}
}
