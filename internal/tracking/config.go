package tracking

import "time"

// Config holds the tuning thresholds for the position estimator.
// The defaults were chosen empirically against real bus telemetry; treat
// them as knobs, not invariants.
type Config struct {
	// JumpThresholdDeg is the per-axis raw-fix delta (in degrees, ~0.005° ≈ 500m)
	// beyond which the marker snaps instead of gliding.
	JumpThresholdDeg float64

	// SilenceThreshold is the max gap between fixes before the next fix snaps.
	SilenceThreshold time.Duration

	// StaleAfter is how old the last fix may be, on an active trip, before
	// the feed is flagged stale.
	StaleAfter time.Duration

	// MovingSpeedMps separates Moving from Stopped.
	MovingSpeedMps float64

	// HeadingDeadbandDeg suppresses heading animations smaller than this,
	// which are almost always GPS noise.
	HeadingDeadbandDeg float64

	// HeadingTurnDuration is the fixed duration of a heading animation.
	HeadingTurnDuration time.Duration

	// SettleDuration is the fixed duration of the direct glide onto a fix
	// from a stopped vehicle.
	SettleDuration time.Duration

	// MinProjectDuration and MaxProjectDuration clamp the dead-reckoning
	// glide duration, bounding extrapolation error from sparse feeds.
	MinProjectDuration time.Duration
	MaxProjectDuration time.Duration

	// ProjectIntervalGain scales the observed fix interval into the
	// projection duration before clamping.
	ProjectIntervalGain float64

	// DefaultFixInterval is assumed when no prior fix exists.
	DefaultFixInterval time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		JumpThresholdDeg:    0.005,
		SilenceThreshold:    10 * time.Second,
		StaleAfter:          300 * time.Second,
		MovingSpeedMps:      0.5,
		HeadingDeadbandDeg:  1.0,
		HeadingTurnDuration: 400 * time.Millisecond,
		SettleDuration:      500 * time.Millisecond,
		MinProjectDuration:  2 * time.Second,
		MaxProjectDuration:  8 * time.Second,
		ProjectIntervalGain: 1.3,
		DefaultFixInterval:  4 * time.Second,
	}
}
