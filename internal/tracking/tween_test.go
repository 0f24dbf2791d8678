package tracking

import (
	"testing"
	"time"
)

func TestTweenLinearProgress(t *testing.T) {
	tw := newTween([]float64{0, 100}, []float64{10, 200}, t0, time.Second, linear)

	vals, done := tw.advance(t0.Add(500 * time.Millisecond))
	if done {
		t.Fatal("done at midpoint")
	}
	if vals[0] != 5 || vals[1] != 150 {
		t.Fatalf("midpoint = %v, want [5 150]", vals)
	}

	vals, done = tw.advance(t0.Add(time.Second))
	if !done {
		t.Fatal("not done at full duration")
	}
	if vals[0] != 10 || vals[1] != 200 {
		t.Fatalf("end = %v, want [10 200]", vals)
	}
}

func TestTweenClampsOutsideWindow(t *testing.T) {
	tw := newTween([]float64{0}, []float64{10}, t0, time.Second, linear)

	if vals, done := tw.advance(t0.Add(-time.Second)); done || vals[0] != 0 {
		t.Fatalf("before start: vals=%v done=%v", vals, done)
	}
	if vals, done := tw.advance(t0.Add(5 * time.Second)); !done || vals[0] != 10 {
		t.Fatalf("past end: vals=%v done=%v", vals, done)
	}
}

func TestTweenZeroDurationCompletesImmediately(t *testing.T) {
	tw := newTween([]float64{0}, []float64{10}, t0, 0, linear)
	vals, done := tw.advance(t0)
	if !done || vals[0] != 10 {
		t.Fatalf("zero duration: vals=%v done=%v", vals, done)
	}
}

func TestTweenCancelFreezesValue(t *testing.T) {
	tw := newTween([]float64{0}, []float64{10}, t0, time.Second, linear)

	vals := tw.cancel(t0.Add(300 * time.Millisecond))
	if vals[0] != 3 {
		t.Fatalf("cancel value = %v, want 3", vals[0])
	}

	// After cancel the job is inert: it reports done and holds the frozen value.
	vals, done := tw.advance(t0.Add(time.Second))
	if !done || vals[0] != 3 {
		t.Fatalf("after cancel: vals=%v done=%v", vals, done)
	}
}

func TestEaseOutShape(t *testing.T) {
	if easeOut(0) != 0 || easeOut(1) != 1 {
		t.Fatal("ease-out must pin endpoints")
	}
	// Decelerating: ahead of linear in the middle.
	if easeOut(0.5) <= 0.5 {
		t.Fatalf("easeOut(0.5) = %v, want > 0.5", easeOut(0.5))
	}
}
