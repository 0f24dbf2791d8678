package tracking

import (
	"sync"
	"time"
)

// Registry owns one estimator per tracked vehicle. Estimators themselves are
// single-threaded; the registry is the serialization point for hosts that
// ingest fixes and tick snapshots from different goroutines.
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	vehicles map[string]*Estimator
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, vehicles: make(map[string]*Estimator)}
}

// Ingest feeds a fix to the vehicle's estimator, creating it on first
// contact. Returns the fresh snapshot and whether the fix was accepted.
func (r *Registry) Ingest(vehicleID string, fix RawFix, now time.Time) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	est, ok := r.vehicles[vehicleID]
	if !ok {
		est = NewEstimator(r.cfg)
		r.vehicles[vehicleID] = est
	}
	if !est.Ingest(fix, now) {
		return est.Snapshot(now), false
	}
	return est.Snapshot(now), true
}

// Snapshot returns the current view state for one vehicle.
func (r *Registry) Snapshot(vehicleID string, now time.Time) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	est, ok := r.vehicles[vehicleID]
	if !ok {
		return Snapshot{}, false
	}
	return est.Snapshot(now), true
}

// Advance progresses every estimator's animations to now and returns the
// snapshots, keyed by vehicle ID. Called from the broadcast tick.
func (r *Registry) Advance(now time.Time) map[string]Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Snapshot, len(r.vehicles))
	for id, est := range r.vehicles {
		out[id] = est.Advance(now)
	}
	return out
}

// Remove discards a vehicle's estimator when tracking stops. The next fix
// for the same vehicle starts over with an immediate placement.
func (r *Registry) Remove(vehicleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.vehicles, vehicleID)
}

// TrackedVehicles lists the vehicle IDs with live estimators.
func (r *Registry) TrackedVehicles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.vehicles))
	for id := range r.vehicles {
		ids = append(ids, id)
	}
	return ids
}
