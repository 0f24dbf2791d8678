package handlers

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"

	"edutrack-backend/internal/database"
	"edutrack-backend/internal/services"
	"edutrack-backend/internal/tracking"
	"edutrack-backend/internal/websocket"
	"edutrack-backend/pkg/utils"

	"github.com/jmoiron/sqlx"
)

type LocationUpdateRequest struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	HeadingDeg *float64 `json:"heading_deg"`
	SpeedMps   *float64 `json:"speed_mps"`
	TripActive bool     `json:"trip_active"`
	RecordedAt int64    `json:"recorded_at"` // unix milliseconds, 0 = server time
}

// driverVehicle resolves which bus the authenticated driver is assigned to
func driverVehicle(db *sqlx.DB, r *http.Request) (string, bool) {
	claims, ok := middlewareUser(r)
	if !ok {
		return "", false
	}
	var vehicleID string
	if err := db.Get(&vehicleID, "SELECT id FROM vehicles WHERE driver_id = $1", claims.UserID); err != nil {
		return "", false
	}
	return vehicleID, true
}

// UpdateLocation is the REST fallback for devices without a WebSocket
// connection: same ingest path, one fix per request.
func UpdateLocation(db *sqlx.DB, hub *websocket.Hub, registry *tracking.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID, ok := driverVehicle(db, r)
		if !ok {
			utils.RespondError(w, http.StatusForbidden, "No vehicle assigned to this driver")
			return
		}

		var req LocationUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		now := time.Now()
		recordedAt := now
		if req.RecordedAt > 0 {
			recordedAt = time.UnixMilli(req.RecordedAt)
		}

		fix := tracking.RawFix{
			Lat:        req.Latitude,
			Lng:        req.Longitude,
			RecordedAt: recordedAt,
			TripActive: req.TripActive,
		}
		if req.HeadingDeg != nil {
			fix.HeadingDeg = *req.HeadingDeg
		}
		if req.SpeedMps != nil {
			fix.SpeedMps = *req.SpeedMps
		}

		snap, accepted := registry.Ingest(vehicleID, fix, now)
		if !accepted {
			// Malformed coordinates are dropped, never fatal
			utils.RespondError(w, http.StatusBadRequest, "Fix has non-finite coordinates")
			return
		}

		heading, speed := req.HeadingDeg, req.SpeedMps
		if heading != nil && (math.IsNaN(*heading) || math.IsInf(*heading, 0)) {
			heading = nil
		}
		if speed != nil && (math.IsNaN(*speed) || math.IsInf(*speed, 0)) {
			speed = nil
		}

		updatedAt, err := database.UpsertVehicleFix(db, vehicleID, req.Latitude, req.Longitude,
			heading, speed, req.TripActive, recordedAt.Unix())
		if err != nil {
			log.Printf("❌ Error saving location: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to save location")
			return
		}

		hub.BroadcastVehicle(vehicleID, map[string]interface{}{
			"type":       "vehicle_position",
			"vehicle_id": vehicleID,
			"data":       snap,
		})

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":         true,
			"updated_at": updatedAt,
			"snapshot":   snap,
		})
	}
}

// StartTrip flags the driver's bus as on an active trip and notifies
// subscribed parents.
func StartTrip(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID, ok := driverVehicle(db, r)
		if !ok {
			utils.RespondError(w, http.StatusForbidden, "No vehicle assigned to this driver")
			return
		}

		_, err := db.Exec(`
			UPDATE vehicle_current_location
			SET trip_active = TRUE, updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
			WHERE vehicle_id = $1
		`, vehicleID)
		if err != nil {
			log.Printf("❌ Failed to start trip for %s: %v", vehicleID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to start trip")
			return
		}

		log.Printf("🚌 Trip started: vehicle %s", vehicleID)
		hub.BroadcastVehicle(vehicleID, map[string]interface{}{
			"type":       "trip_started",
			"vehicle_id": vehicleID,
		})

		notifySubscribers(db, fcm, vehicleID, func(tokens []string, name string) error {
			return fcm.SendTripStartedNotification(tokens, name)
		})

		utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// EndTrip flags the trip as over and discards the vehicle's estimator: the
// next fix starts from a fresh, immediate placement.
func EndTrip(db *sqlx.DB, hub *websocket.Hub, registry *tracking.Registry, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID, ok := driverVehicle(db, r)
		if !ok {
			utils.RespondError(w, http.StatusForbidden, "No vehicle assigned to this driver")
			return
		}

		_, err := db.Exec(`
			UPDATE vehicle_current_location
			SET trip_active = FALSE, updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
			WHERE vehicle_id = $1
		`, vehicleID)
		if err != nil {
			log.Printf("❌ Failed to end trip for %s: %v", vehicleID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to end trip")
			return
		}

		registry.Remove(vehicleID)

		log.Printf("🏁 Trip ended: vehicle %s", vehicleID)
		hub.BroadcastVehicle(vehicleID, map[string]interface{}{
			"type":       "trip_ended",
			"vehicle_id": vehicleID,
		})

		notifySubscribers(db, fcm, vehicleID, func(tokens []string, name string) error {
			return fcm.SendTripEndedNotification(tokens, name)
		})

		utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// notifySubscribers pushes to everyone following the vehicle; push being
// unavailable never fails the request.
func notifySubscribers(db *sqlx.DB, fcm *services.FCMService, vehicleID string, send func([]string, string) error) {
	if fcm == nil {
		return
	}

	tokens, err := database.SubscriberFCMTokens(db, vehicleID)
	if err != nil {
		log.Printf("❌ Failed to load subscriber tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	var name string
	if err := db.Get(&name, "SELECT name FROM vehicles WHERE id = $1", vehicleID); err != nil {
		name = "Your bus"
	}

	if err := send(tokens, name); err != nil {
		log.Printf("❌ Failed to send push notification: %v", err)
	}
}
