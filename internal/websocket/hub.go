package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"edutrack-backend/internal/tracking"
)

// broadcastTick is how often smoothed position frames are pushed to viewers.
// The estimators interpolate between fixes, so this is the effective frame
// rate of the marker on subscribers' maps.
const broadcastTick = time.Second

// Hub maintains active WebSocket connections and fans smoothed vehicle
// positions out to the viewers subscribed to each vehicle.
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Outbound messages targeted at one vehicle's subscribers
	broadcast chan *VehicleMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Subscribe/unsubscribe requests from viewer clients
	subscribe chan *subscription

	// Position estimators, one per vehicle with a live feed
	registry *tracking.Registry

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// VehicleMessage is a payload for everyone following a vehicle
type VehicleMessage struct {
	VehicleID string
	Data      interface{}
}

type subscription struct {
	client    *Client
	vehicleID string
	add       bool
}

// NewHub creates a new Hub instance
func NewHub(registry *tracking.Registry) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *VehicleMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan *subscription),
		registry:   registry,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	ticker := time.NewTicker(broadcastTick)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] Client connected: %s (%s), %d total", client.UserID, client.UserRole, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			// Only evict the slot if it is still this connection; a reconnect
			// may already have replaced it.
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("🔴 [WEBSOCKET] Client disconnected: %s (%s), %d remaining", client.UserID, client.UserRole, len(h.clients))
			}
			h.mu.Unlock()

		case sub := <-h.subscribe:
			h.mu.Lock()
			if sub.add {
				sub.client.vehicles[sub.vehicleID] = true
			} else {
				delete(sub.client.vehicles, sub.vehicleID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message.VehicleID, message.Data)

		case <-ticker.C:
			// Advance every estimator and push a frame per tracked vehicle.
			for vehicleID, snap := range h.registry.Advance(time.Now()) {
				if !snap.HasFix {
					continue
				}
				h.deliver(vehicleID, positionFrame(vehicleID, snap))
			}
		}
	}
}

// deliver sends data to every client following the vehicle. Admins follow
// every vehicle implicitly.
func (h *Hub) deliver(vehicleID string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserRole != "admin" && !client.vehicles[vehicleID] {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Client buffer full; it will be dropped by its own pump
			log.Printf("⚠️ Client buffer full, skipping: %s", client.UserID)
		}
	}
}

// BroadcastVehicle queues a message for everyone following a vehicle
func (h *Hub) BroadcastVehicle(vehicleID string, data interface{}) {
	h.broadcast <- &VehicleMessage{VehicleID: vehicleID, Data: data}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func positionFrame(vehicleID string, snap tracking.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"type":       "vehicle_position",
		"vehicle_id": vehicleID,
		"data":       snap,
	}
}
