package services

import (
	"log"
	"time"

	"edutrack-backend/internal/database"
	"edutrack-backend/internal/tracking"

	"github.com/jmoiron/sqlx"
)

// StaleNotifier is the slice of FCMService the watcher needs; kept as an
// interface so the watcher runs (and tests) without Firebase credentials.
type StaleNotifier interface {
	SendStaleFeedNotification(tokens []string, vehicleName string) error
}

// StaleWatcher polls the tracking registry and pushes one notification per
// vehicle each time its feed turns stale. Staleness itself stays a pure,
// advisory flag on the engine; the edge detection lives here.
type StaleWatcher struct {
	registry *tracking.Registry
	notifier StaleNotifier
	interval time.Duration

	// lookup resolves the vehicle's display name and its subscribers'
	// push tokens; DB-backed in production, stubbed in tests
	lookup func(vehicleID string) (tokens []string, name string)

	wasStale map[string]bool
	stop     chan struct{}
}

func NewStaleWatcher(registry *tracking.Registry, db *sqlx.DB, notifier StaleNotifier, interval time.Duration) *StaleWatcher {
	return &StaleWatcher{
		registry: registry,
		notifier: notifier,
		interval: interval,
		lookup:   dbLookup(db),
		wasStale: make(map[string]bool),
		stop:     make(chan struct{}),
	}
}

func dbLookup(db *sqlx.DB) func(string) ([]string, string) {
	return func(vehicleID string) ([]string, string) {
		tokens, err := database.SubscriberFCMTokens(db, vehicleID)
		if err != nil {
			log.Printf("❌ Failed to load subscriber tokens for %s: %v", vehicleID, err)
		}

		name := "Your bus"
		if err := db.Get(&name, "SELECT name FROM vehicles WHERE id = $1", vehicleID); err != nil {
			name = "Your bus"
		}
		return tokens, name
	}
}

// Run blocks, checking feeds on every tick. Start it in a goroutine.
func (w *StaleWatcher) Run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(time.Now())
		case <-w.stop:
			return
		}
	}
}

func (w *StaleWatcher) Stop() {
	close(w.stop)
}

// check fires a notification on each vehicle's false→true stale transition.
// A fresh fix resets the edge, so a feed that recovers and dies again
// notifies again.
func (w *StaleWatcher) check(now time.Time) {
	for _, vehicleID := range w.registry.TrackedVehicles() {
		snap, ok := w.registry.Snapshot(vehicleID, now)
		if !ok {
			continue
		}

		if snap.Stale && !w.wasStale[vehicleID] {
			log.Printf("⚠️ Vehicle %s feed went stale", vehicleID)
			if w.notifier != nil {
				tokens, name := w.lookup(vehicleID)
				if err := w.notifier.SendStaleFeedNotification(tokens, name); err != nil {
					log.Printf("❌ Failed to send stale-feed notification for %s: %v", vehicleID, err)
				}
			}
		}
		w.wasStale[vehicleID] = snap.Stale
	}
}
