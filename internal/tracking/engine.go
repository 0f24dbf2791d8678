package tracking

import (
	"math"
	"time"
)

// MotionState classifies the vehicle as moving or stopped based on the raw
// reported speed.
type MotionState string

const (
	Moving  MotionState = "moving"
	Stopped MotionState = "stopped"
)

// Phase is where the estimator sits in its lifecycle. Staleness is not a
// phase; it is an orthogonal advisory flag on the snapshot.
type Phase string

const (
	PhaseNoFix      Phase = "no_fix"
	PhaseSnapped    Phase = "snapped"
	PhaseProjecting Phase = "projecting"
	PhaseSettled    Phase = "settled"
)

// RawFix is one telemetry report from a tracked vehicle: position, speed,
// heading and the moment it was recorded. Immutable once received.
type RawFix struct {
	Lat        float64
	Lng        float64
	SpeedMps   float64
	HeadingDeg float64
	RecordedAt time.Time
	TripActive bool
}

// Valid reports whether the fix carries usable coordinates. Malformed fixes
// are dropped and the previous estimate kept; they are never fatal.
func (f RawFix) Valid() bool {
	return !math.IsNaN(f.Lat) && !math.IsInf(f.Lat, 0) &&
		!math.IsNaN(f.Lng) && !math.IsInf(f.Lng, 0)
}

// Motion derives the motion state from the reported speed.
func (f RawFix) Motion(cfg Config) MotionState {
	if f.SpeedMps > cfg.MovingSpeedMps {
		return Moving
	}
	return Stopped
}

// Snapshot is what the estimator exposes to a render surface: the smoothed
// position and heading plus passthrough values for textual display.
type Snapshot struct {
	HasFix     bool        `json:"has_fix"`
	Position   Position    `json:"position"`
	HeadingDeg float64     `json:"heading_deg"`
	Motion     MotionState `json:"motion"`
	Stale      bool        `json:"stale"`
	Phase      Phase       `json:"phase"`
	Camera     Position    `json:"camera"`
	SpeedMps   float64     `json:"speed_mps"`
	LastFixAt  time.Time   `json:"last_fix_at"`
}

// Estimator turns a sparse, irregular stream of raw fixes into a
// continuously moving position and heading: dead-reckoning glides while the
// vehicle moves, a short settle while it stands, shortest-path heading
// turns, and hard snaps on first contact, large jumps or long silences.
//
// The estimator is single-threaded by contract: Ingest and Advance must be
// called from one logical thread of control (the Registry serializes access
// for concurrent hosts). At most one position job is in flight at a time;
// every ingest supersedes whatever was running, so a long-lived feed never
// leaks animation handles.
type Estimator struct {
	cfg     Config
	lastFix *RawFix
	pos     Position
	heading float64
	camera  Position
	phase   Phase

	posJob     *tween
	headingJob *tween
}

// NewEstimator returns an estimator with no fix yet; the first ingested fix
// places the marker immediately, with no animation.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg, phase: PhaseNoFix}
}

// Ingest processes one raw fix at the given instant. It returns false when
// the fix is malformed and was dropped.
func (e *Estimator) Ingest(fix RawFix, now time.Time) bool {
	if !fix.Valid() {
		return false
	}

	first := e.lastFix == nil
	interval := e.cfg.DefaultFixInterval
	jumped, silent := false, false
	if !first {
		if d := now.Sub(e.lastFix.RecordedAt); d > 0 {
			interval = d
		}
		jumped = math.Abs(fix.Lat-e.lastFix.Lat) > e.cfg.JumpThresholdDeg ||
			math.Abs(fix.Lng-e.lastFix.Lng) > e.cfg.JumpThresholdDeg
		silent = interval > e.cfg.SilenceThreshold
	}

	// A new fix always owns the marker: bring any in-flight jobs up to this
	// instant so glides depart from the displayed position, then drop them.
	e.cancelJobs(now)

	// The camera follows the raw fix regardless of snap/glide.
	e.camera = Position{Lat: fix.Lat, Lng: fix.Lng}

	moving := fix.Motion(e.cfg) == Moving
	switch {
	case first || jumped || silent:
		e.pos = Position{Lat: fix.Lat, Lng: fix.Lng}
		e.phase = PhaseSnapped
		if moving {
			// Keep the marker from freezing right after a relocation.
			e.startProjection(fix, interval, now)
		}
	case moving:
		e.startProjection(fix, interval, now)
		e.phase = PhaseProjecting
	default:
		// Stationary: settle straight onto the fix so the marker stops
		// drifting past a parked vehicle.
		e.posJob = newTween(
			[]float64{e.pos.Lat, e.pos.Lng},
			[]float64{fix.Lat, fix.Lng},
			now, e.cfg.SettleDuration, easeOut)
		e.phase = PhaseSettled
	}

	if first {
		// Immediate placement: the marker appears already facing its heading.
		e.heading = normalizeDeg(fix.HeadingDeg)
	} else {
		e.turnToward(fix.HeadingDeg, now)
	}
	e.lastFix = &fix
	return true
}

// startProjection glides the marker from wherever it is toward a
// dead-reckoned point ahead of the fix. The duration scales with the
// observed fix interval but is always clamped, bounding extrapolation error
// however sparse the feed gets.
func (e *Estimator) startProjection(fix RawFix, interval time.Duration, now time.Time) {
	d := time.Duration(float64(interval) * e.cfg.ProjectIntervalGain)
	if d < e.cfg.MinProjectDuration {
		d = e.cfg.MinProjectDuration
	}
	if d > e.cfg.MaxProjectDuration {
		d = e.cfg.MaxProjectDuration
	}
	target := ProjectForward(Position{Lat: fix.Lat, Lng: fix.Lng}, fix.SpeedMps, fix.HeadingDeg, d)
	// Constant-velocity assumption, hence linear easing.
	e.posJob = newTween(
		[]float64{e.pos.Lat, e.pos.Lng},
		[]float64{target.Lat, target.Lng},
		now, d, linear)
}

// turnToward rotates the displayed heading to the target via the shortest
// angular path. Deltas inside the deadband are GPS jitter and ignored.
func (e *Estimator) turnToward(headingDeg float64, now time.Time) {
	delta := shortestTurn(e.heading, headingDeg)
	if math.Abs(delta) < e.cfg.HeadingDeadbandDeg {
		return
	}
	e.headingJob = newTween(
		[]float64{e.heading},
		[]float64{e.heading + delta},
		now, e.cfg.HeadingTurnDuration, easeOut)
}

// Advance progresses any in-flight animations to the given instant and
// returns the resulting snapshot. Hosts call this from their render loop.
func (e *Estimator) Advance(now time.Time) Snapshot {
	if e.posJob != nil {
		vals, done := e.posJob.advance(now)
		e.pos = Position{Lat: vals[0], Lng: vals[1]}
		if done {
			e.posJob = nil
		}
	}
	if e.headingJob != nil {
		vals, done := e.headingJob.advance(now)
		e.heading = vals[0]
		if done {
			e.headingJob = nil
			e.heading = normalizeDeg(e.heading)
		}
	}
	return e.Snapshot(now)
}

// Snapshot reports the current view state without advancing animations.
func (e *Estimator) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		HasFix:     e.lastFix != nil,
		Position:   e.pos,
		HeadingDeg: e.heading,
		Motion:     Stopped,
		Phase:      e.phase,
		Camera:     e.camera,
	}
	if e.lastFix != nil {
		s.Motion = e.lastFix.Motion(e.cfg)
		s.SpeedMps = e.lastFix.SpeedMps
		s.LastFixAt = e.lastFix.RecordedAt
		s.Stale = IsStale(*e.lastFix, now, e.cfg.StaleAfter)
	}
	return s
}

// cancelJobs advances in-flight jobs to now, freezing the displayed values,
// then releases both slots.
func (e *Estimator) cancelJobs(now time.Time) {
	if e.posJob != nil {
		vals := e.posJob.cancel(now)
		e.pos = Position{Lat: vals[0], Lng: vals[1]}
		e.posJob = nil
	}
	if e.headingJob != nil {
		vals := e.headingJob.cancel(now)
		e.heading = vals[0]
		e.headingJob = nil
	}
}

// IsStale reports whether an active trip's feed has gone quiet for longer
// than the threshold. Purely derived; it flips back to false the instant a
// fresh fix arrives.
func IsStale(lastFix RawFix, now time.Time, after time.Duration) bool {
	return lastFix.TripActive && now.Sub(lastFix.RecordedAt) > after
}
