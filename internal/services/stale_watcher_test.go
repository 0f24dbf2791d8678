package services

import (
	"testing"
	"time"

	"edutrack-backend/internal/tracking"
)

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) SendStaleFeedNotification(tokens []string, vehicleName string) error {
	n.calls = append(n.calls, vehicleName)
	return nil
}

func TestStaleWatcherNotifiesOncePerTransition(t *testing.T) {
	start := time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC)
	registry := tracking.NewRegistry(tracking.DefaultConfig())
	registry.Ingest("bus-1", tracking.RawFix{
		Lat: 10, Lng: 10, RecordedAt: start, TripActive: true,
	}, start)

	notifier := &recordingNotifier{}
	w := NewStaleWatcher(registry, nil, notifier, time.Second)
	w.lookup = func(vehicleID string) ([]string, string) {
		return []string{"tok-1"}, "Route 4 Morning"
	}

	// Fresh feed: nothing fires.
	w.check(start.Add(1 * time.Minute))
	if len(notifier.calls) != 0 {
		t.Fatalf("notified on a fresh feed: %v", notifier.calls)
	}

	// Past the threshold: exactly one notification, and repeated checks
	// while still stale stay quiet.
	w.check(start.Add(6 * time.Minute))
	w.check(start.Add(7 * time.Minute))
	if len(notifier.calls) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.calls))
	}
	if notifier.calls[0] != "Route 4 Morning" {
		t.Fatalf("unexpected vehicle name: %s", notifier.calls[0])
	}

	// A fresh fix re-arms the edge.
	tFresh := start.Add(8 * time.Minute)
	registry.Ingest("bus-1", tracking.RawFix{
		Lat: 10, Lng: 10, RecordedAt: tFresh, TripActive: true,
	}, tFresh)
	w.check(tFresh.Add(time.Second))
	if len(notifier.calls) != 1 {
		t.Fatalf("notified while feed was fresh again: %v", notifier.calls)
	}

	w.check(tFresh.Add(6 * time.Minute))
	if len(notifier.calls) != 2 {
		t.Fatalf("second stale transition not notified: %v", notifier.calls)
	}
}

func TestStaleWatcherIgnoresInactiveTrips(t *testing.T) {
	start := time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC)
	registry := tracking.NewRegistry(tracking.DefaultConfig())
	registry.Ingest("bus-1", tracking.RawFix{
		Lat: 10, Lng: 10, RecordedAt: start, TripActive: false,
	}, start)

	notifier := &recordingNotifier{}
	w := NewStaleWatcher(registry, nil, notifier, time.Second)
	w.lookup = func(string) ([]string, string) { return nil, "" }

	w.check(start.Add(time.Hour))
	if len(notifier.calls) != 0 {
		t.Fatalf("notified for an inactive trip: %v", notifier.calls)
	}
}
