package tracking

import (
	"math"
	"testing"
)

func TestShortestTurn(t *testing.T) {
	tests := []struct {
		from, to, want float64
	}{
		{350, 5, 15},
		{5, 350, -15},
		{0, 0, 0},
		{0, 180, 180},
		{180, 0, 180},
		{90, 270, 180},
		{270, 90, 180},
		{10, 350, -20},
		{359, 1, 2},
		{0, 359.5, -0.5},
		{-10, 20, 30},  // displayed heading mid-turn can sit below zero
		{365, 10, 5},   // or above a full revolution
		{720, 90, 90},
	}

	for _, tc := range tests {
		got := shortestTurn(tc.from, tc.to)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("shortestTurn(%v, %v) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestShortestTurnRange(t *testing.T) {
	for from := -360.0; from <= 720; from += 7.3 {
		for to := 0.0; to < 360; to += 11.7 {
			d := shortestTurn(from, to)
			if d <= -180 || d > 180 {
				t.Fatalf("shortestTurn(%v, %v) = %v outside (-180, 180]", from, to, d)
			}
		}
	}
}

func TestNormalizeDeg(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{359.9, 359.9},
		{360, 0},
		{365, 5},
		{-10, 350},
		{720, 0},
		{-345, 15},
	}
	for _, tc := range tests {
		if got := normalizeDeg(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("normalizeDeg(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
