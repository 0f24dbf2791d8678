package websocket

import (
	"testing"
	"time"

	"edutrack-backend/internal/tracking"
)

func newTestHub() *Hub {
	h := NewHub(tracking.NewRegistry(tracking.DefaultConfig()))
	go h.Run()
	return h
}

func newTestClient(h *Hub, userID, role string) *Client {
	return &Client{
		UserID:   userID,
		UserRole: role,
		hub:      h,
		send:     make(chan []byte, 256),
		vehicles: make(map[string]bool),
	}
}

func TestReconnectSurvivesStaleUnregister(t *testing.T) {
	h := newTestHub()

	old := newTestClient(h, "parent-1", "parent")
	h.register <- old

	// Same user reconnects before the old connection's pumps finish
	// shutting down; the register overwrites the slot.
	fresh := newTestClient(h, "parent-1", "parent")
	h.register <- fresh

	// The old connection's deferred unregister fires last. It must not
	// evict the fresh connection occupying the slot.
	h.unregister <- old

	h.subscribe <- &subscription{client: fresh, vehicleID: "veh-1", add: true}
	h.BroadcastVehicle("veh-1", map[string]string{"type": "test"})

	select {
	case <-fresh.send:
	case <-time.After(2 * time.Second):
		t.Fatal("fresh connection stopped receiving after stale unregister")
	}

	if n := h.ClientCount(); n != 1 {
		t.Fatalf("client count = %d, want 1", n)
	}

	// The stale unregister owns a replaced slot, so it must not close the
	// channel either.
	select {
	case _, ok := <-old.send:
		if !ok {
			t.Fatal("stale unregister closed the replaced connection's channel")
		}
	default:
	}
}

func TestUnregisterRemovesClient(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h, "parent-2", "parent")
	h.register <- c
	h.unregister <- c

	// Unregister runs in the hub loop; the follow-up register round-trips
	// through the same loop, so the map is settled once it returns.
	other := newTestClient(h, "parent-3", "parent")
	h.register <- other

	if n := h.ClientCount(); n != 1 {
		t.Fatalf("client count = %d, want 1", n)
	}

	if _, ok := <-c.send; ok {
		t.Fatal("send channel left open after unregister")
	}
}
