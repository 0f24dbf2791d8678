package tracking

import (
	"math"
	"testing"
	"time"
)

func TestRegistryIsolatesVehicles(t *testing.T) {
	r := NewRegistry(DefaultConfig())

	r.Ingest("bus-1", fixAt(10, 10, 0, 0, t0), t0)
	r.Ingest("bus-2", fixAt(20, 20, 0, 90, t0), t0)

	s1, ok := r.Snapshot("bus-1", t0)
	if !ok || s1.Position.Lat != 10 {
		t.Fatalf("bus-1 snapshot wrong: %+v ok=%v", s1, ok)
	}
	s2, _ := r.Snapshot("bus-2", t0)
	if s2.Position.Lat != 20 {
		t.Fatalf("bus-2 snapshot bled state: %+v", s2)
	}
}

func TestRegistryRejectsMalformed(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	r.Ingest("bus-1", fixAt(10, 10, 0, 0, t0), t0)

	bad := fixAt(10, 10, 0, 0, t0.Add(4*time.Second))
	bad.Lat = math.Inf(1)
	if _, ok := r.Ingest("bus-1", bad, t0.Add(4*time.Second)); ok {
		t.Fatal("malformed fix accepted")
	}
}

func TestRegistryAdvanceCoversAllVehicles(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	r.Ingest("bus-1", fixAt(10, 10, 10, 0, t0), t0)
	r.Ingest("bus-2", fixAt(20, 20, 0, 0, t0), t0)

	snaps := r.Advance(t0.Add(2 * time.Second))
	if len(snaps) != 2 {
		t.Fatalf("advance returned %d snapshots, want 2", len(snaps))
	}
	if snaps["bus-1"].Position.Lat <= 10 {
		t.Fatalf("moving vehicle did not progress: %+v", snaps["bus-1"].Position)
	}
	if snaps["bus-2"].Position.Lat != 20 {
		t.Fatalf("stopped vehicle moved: %+v", snaps["bus-2"].Position)
	}
}

func TestRegistryRemoveDiscardsState(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	r.Ingest("bus-1", fixAt(10, 10, 0, 0, t0), t0)
	r.Remove("bus-1")

	if _, ok := r.Snapshot("bus-1", t0); ok {
		t.Fatal("snapshot available after remove")
	}

	// Re-tracking starts over: the next fix is a first fix, placed immediately.
	later := t0.Add(time.Second)
	s, ok := r.Ingest("bus-1", fixAt(11, 11, 0, 0, later), later)
	if !ok || s.Phase != PhaseSnapped || s.Position.Lat != 11 {
		t.Fatalf("re-tracked vehicle did not snap fresh: %+v", s)
	}
}
