package tracking

import "math"

// shortestTurn returns the signed rotation in (-180, 180] that carries the
// heading `from` onto `to` along the shortest angular path. 350°→5° yields
// +15, never -345.
func shortestTurn(from, to float64) float64 {
	d := math.Mod(math.Mod(to-from, 360)+540, 360) - 180
	if d <= -180 {
		d += 360
	}
	return d
}

// normalizeDeg maps a degree value into [0, 360). Displayed headings may
// drift outside the range while a turn animation is running; this brings
// them back once it settles.
func normalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
