package tracking

import "time"

// easing maps normalized progress [0,1] to an interpolation factor.
type easing func(t float64) float64

func linear(t float64) float64 { return t }

// easeOut decelerates into the target (quadratic out).
func easeOut(t float64) float64 { return t * (2 - t) }

// tween is a single in-flight animation job: a fixed-duration interpolation
// of a small value vector toward a target. It has no timer of its own; the
// owner drives it by calling advance with the current time, and replaces or
// cancels it when a new fix supersedes it.
type tween struct {
	from, to []float64
	start    time.Time
	duration time.Duration
	ease     easing
	stopped  bool
}

func newTween(from, to []float64, start time.Time, d time.Duration, ease easing) *tween {
	f := make([]float64, len(from))
	copy(f, from)
	t := make([]float64, len(to))
	copy(t, to)
	return &tween{from: f, to: t, start: start, duration: d, ease: ease}
}

// advance returns the interpolated values at the given instant and whether
// the job has run to completion. A zero or negative duration completes
// immediately at the target.
func (tw *tween) advance(now time.Time) ([]float64, bool) {
	if tw.stopped {
		return tw.valuesAt(1), true
	}
	if tw.duration <= 0 {
		tw.stopped = true
		return tw.valuesAt(1), true
	}
	p := float64(now.Sub(tw.start)) / float64(tw.duration)
	if p <= 0 {
		return tw.valuesAt(0), false
	}
	if p >= 1 {
		tw.stopped = true
		return tw.valuesAt(1), true
	}
	return tw.valuesAt(tw.ease(p)), false
}

// cancel freezes the job where it stands; subsequent advances report done.
// The owner is expected to drop the reference right after.
func (tw *tween) cancel(now time.Time) []float64 {
	if tw.stopped {
		return tw.valuesAt(1)
	}
	vals, _ := tw.advance(now)
	tw.stopped = true
	tw.to = vals
	return vals
}

func (tw *tween) valuesAt(f float64) []float64 {
	out := make([]float64, len(tw.from))
	for i := range tw.from {
		out[i] = tw.from[i] + (tw.to[i]-tw.from[i])*f
	}
	return out
}
