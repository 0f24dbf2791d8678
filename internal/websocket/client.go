package websocket

import (
	"encoding/json"
	"log"
	"math"
	"time"

	"edutrack-backend/internal/database"
	"edutrack-backend/internal/tracking"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2048
)

// Client represents a WebSocket client connection: either a bus device
// pushing fixes (role "driver") or a viewer following buses ("parent",
// "admin").
type Client struct {
	UserID   string
	UserRole string
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte
	db       *sqlx.DB

	// For drivers: the vehicle they drive, resolved lazily from the DB
	vehicleID string

	// For viewers: the vehicles they follow. Owned by the hub loop.
	vehicles map[string]bool
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// fixPayload is the wire shape of a driver's location_update
type fixPayload struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	HeadingDeg *float64 `json:"heading_deg"`
	SpeedMps   *float64 `json:"speed_mps"`
	TripActive bool     `json:"trip_active"`
	RecordedAt int64    `json:"recorded_at"` // unix milliseconds
}

type subscribePayload struct {
	VehicleID string `json:"vehicle_id"`
}

// NewClient creates a new WebSocket client
func NewClient(userID, userRole string, conn *websocket.Conn, hub *Hub, db *sqlx.DB) *Client {
	return &Client{
		UserID:   userID,
		UserRole: userRole,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, 256),
		db:       db,
		vehicles: make(map[string]bool),
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.markAsDisconnected()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}

		switch msg.Type {
		case "ping":
			response := map[string]interface{}{
				"type":      "pong",
				"timestamp": time.Now().Format(time.RFC3339),
			}
			responseData, _ := json.Marshal(response)
			c.send <- responseData

		case "location_update":
			if c.UserRole != "driver" {
				log.Printf("⚠️ location_update from non-driver %s ignored", c.UserID)
				continue
			}
			c.handleLocationUpdate(msg.Data)

		case "subscribe":
			c.handleSubscribe(msg.Data, true)

		case "unsubscribe":
			c.handleSubscribe(msg.Data, false)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleLocationUpdate ingests a fix from a bus device: feed the estimator,
// UPSERT the current-location row, and push the fresh snapshot to followers.
func (c *Client) handleLocationUpdate(data json.RawMessage) {
	var p fixPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("❌ Invalid location_update from %s: %v", c.UserID, err)
		return
	}

	vehicleID, err := c.resolveVehicle()
	if err != nil {
		log.Printf("❌ No vehicle assigned to driver %s: %v", c.UserID, err)
		return
	}

	now := time.Now()
	recordedAt := now
	if p.RecordedAt > 0 {
		recordedAt = time.UnixMilli(p.RecordedAt)
	}

	fix := tracking.RawFix{
		Lat:        p.Latitude,
		Lng:        p.Longitude,
		RecordedAt: recordedAt,
		TripActive: p.TripActive,
	}
	if p.HeadingDeg != nil {
		fix.HeadingDeg = *p.HeadingDeg
	}
	if p.SpeedMps != nil {
		fix.SpeedMps = *p.SpeedMps
	}

	snap, ok := c.hub.registry.Ingest(vehicleID, fix, now)
	if !ok {
		// Malformed coordinates: drop the fix, keep the previous estimate
		log.Printf("⚠️ Dropped malformed fix from %s: lat=%v lng=%v", c.UserID, p.Latitude, p.Longitude)
		return
	}

	// Persist the raw coordinates; the smoothed ones are view state only
	if _, err := database.UpsertVehicleFix(c.db, vehicleID, p.Latitude, p.Longitude,
		sanitize(p.HeadingDeg), sanitize(p.SpeedMps), p.TripActive, recordedAt.Unix()); err != nil {
		log.Printf("❌ Error saving location to database: %v", err)
	}

	// Followers get the fresh snapshot right away, ahead of the next tick
	c.hub.BroadcastVehicle(vehicleID, positionFrame(vehicleID, snap))
}

func (c *Client) handleSubscribe(data json.RawMessage, add bool) {
	var p subscribePayload
	if err := json.Unmarshal(data, &p); err != nil || p.VehicleID == "" {
		log.Printf("❌ Invalid subscribe message from %s", c.UserID)
		return
	}
	c.hub.subscribe <- &subscription{client: c, vehicleID: p.VehicleID, add: add}
}

// resolveVehicle looks up (once) which vehicle this driver is assigned to
func (c *Client) resolveVehicle() (string, error) {
	if c.vehicleID != "" {
		return c.vehicleID, nil
	}
	var id string
	if err := c.db.Get(&id, "SELECT id FROM vehicles WHERE driver_id = $1", c.UserID); err != nil {
		return "", err
	}
	c.vehicleID = id
	return id, nil
}

// markAsDisconnected marks the vehicle's feed as disconnected in the
// database. The last position row is kept so viewers still see it.
func (c *Client) markAsDisconnected() {
	if c.UserRole != "driver" || c.vehicleID == "" {
		return
	}

	query := `
		UPDATE vehicle_current_location
		SET is_connected = FALSE,
		    updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
		WHERE vehicle_id = $1
	`
	if _, err := c.db.Exec(query, c.vehicleID); err != nil {
		log.Printf("❌ Error marking vehicle as disconnected: %v", err)
		return
	}

	log.Printf("🔴 Vehicle %s marked as disconnected (last position preserved)", c.vehicleID)
}

// sanitize nils out non-finite optional values before they reach the DB
func sanitize(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
