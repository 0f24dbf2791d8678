package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"edutrack-backend/internal/models"
	"edutrack-backend/internal/tracking"
	"edutrack-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GetVehicles lists vehicles visible to the caller: admins see the whole
// fleet, drivers their own bus, parents the buses they follow.
func GetVehicles(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middlewareUser(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var vehicles []models.Vehicle
		var err error

		switch claims.Role {
		case "admin":
			err = db.Select(&vehicles, "SELECT * FROM vehicles ORDER BY name")
		case "driver":
			err = db.Select(&vehicles, "SELECT * FROM vehicles WHERE driver_id = $1", claims.UserID)
		default:
			err = db.Select(&vehicles, `
				SELECT v.* FROM vehicles v
				INNER JOIN vehicle_subscriptions vs ON vs.vehicle_id = v.id
				WHERE vs.user_id = $1
				ORDER BY v.name
			`, claims.UserID)
		}

		if err != nil {
			log.Printf("❌ Failed to fetch vehicles: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch vehicles")
			return
		}

		if vehicles == nil {
			vehicles = []models.Vehicle{}
		}
		utils.RespondJSON(w, http.StatusOK, vehicles)
	}
}

type CreateVehicleRequest struct {
	Name     string  `json:"name"`
	Plate    string  `json:"plate"`
	DriverID *string `json:"driver_id"`
}

// CreateVehicle registers a bus (admin only; routing enforces the role)
func CreateVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateVehicleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Name == "" || req.Plate == "" {
			utils.RespondError(w, http.StatusBadRequest, "name and plate are required")
			return
		}

		vehicle := models.Vehicle{
			ID:       uuid.New().String(),
			Name:     req.Name,
			Plate:    req.Plate,
			DriverID: req.DriverID,
		}

		_, err := db.Exec(`
			INSERT INTO vehicles (id, name, plate, driver_id)
			VALUES ($1, $2, $3, $4)
		`, vehicle.ID, vehicle.Name, vehicle.Plate, vehicle.DriverID)
		if err != nil {
			log.Printf("❌ Failed to insert vehicle: %v", err)
			utils.RespondError(w, http.StatusConflict, "Vehicle already exists or insert failed")
			return
		}

		log.Printf("✅ Vehicle created: %s (%s)", vehicle.Name, vehicle.Plate)
		utils.RespondJSON(w, http.StatusCreated, vehicle)
	}
}

// GetVehiclePosition returns the current smoothed snapshot for a vehicle.
// With no live feed it falls back to the persisted last-known row. Optional
// lat/lng query params add the viewer's great-circle distance to the bus;
// when the viewer's own position is unavailable the field is simply omitted.
func GetVehiclePosition(db *sqlx.DB, registry *tracking.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID := chi.URLParam(r, "id")

		resp := map[string]interface{}{"vehicle_id": vehicleID}

		snap, live := registry.Snapshot(vehicleID, time.Now())
		if live && snap.HasFix {
			resp["live"] = true
			resp["snapshot"] = snap
		} else {
			var fix models.VehicleFix
			err := db.Get(&fix, "SELECT * FROM vehicle_current_location WHERE vehicle_id = $1", vehicleID)
			if err != nil {
				utils.RespondError(w, http.StatusNotFound, "No known position for this vehicle")
				return
			}
			resp["live"] = false
			resp["last_known"] = fix
			snap = tracking.Snapshot{
				HasFix:   true,
				Position: tracking.Position{Lat: fix.Latitude, Lng: fix.Longitude},
			}
		}

		// Viewer's own location is optional; missing or malformed values
		// degrade to a response without the distance readout.
		latStr, lngStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lng")
		if latStr != "" && lngStr != "" {
			lat, errLat := strconv.ParseFloat(latStr, 64)
			lng, errLng := strconv.ParseFloat(lngStr, 64)
			if errLat == nil && errLng == nil {
				viewer := tracking.Position{Lat: lat, Lng: lng}
				resp["distance_m"] = tracking.GreatCircleMeters(viewer, snap.Position)
			}
		}

		utils.RespondJSON(w, http.StatusOK, resp)
	}
}

// Subscribe adds the caller as a follower of the vehicle
func Subscribe(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middlewareUser(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		vehicleID := chi.URLParam(r, "id")

		_, err := db.Exec(`
			INSERT INTO vehicle_subscriptions (user_id, vehicle_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, vehicle_id) DO NOTHING
		`, claims.UserID, vehicleID)
		if err != nil {
			log.Printf("❌ Failed to subscribe %s to %s: %v", claims.UserID, vehicleID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to subscribe")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// Unsubscribe removes the caller's follow
func Unsubscribe(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middlewareUser(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		vehicleID := chi.URLParam(r, "id")

		_, err := db.Exec(`
			DELETE FROM vehicle_subscriptions WHERE user_id = $1 AND vehicle_id = $2
		`, claims.UserID, vehicleID)
		if err != nil {
			log.Printf("❌ Failed to unsubscribe %s from %s: %v", claims.UserID, vehicleID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to unsubscribe")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
