package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("🔄 Connecting to Postgres...")
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('admin', 'driver', 'parent')),
			fcm_token TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create vehicles table
		`CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			plate TEXT NOT NULL UNIQUE,
			driver_id TEXT REFERENCES users(id),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Parents following a vehicle
		`CREATE TABLE IF NOT EXISTS vehicle_subscriptions (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			UNIQUE(user_id, vehicle_id)
		)`,

		// Single current-location row per vehicle, UPSERTed on every fix.
		// No location history is kept.
		`CREATE TABLE IF NOT EXISTS vehicle_current_location (
			vehicle_id TEXT PRIMARY KEY REFERENCES vehicles(id),
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			heading_deg DOUBLE PRECISION,
			speed_mps DOUBLE PRECISION,
			trip_active BOOLEAN NOT NULL DEFAULT FALSE,
			recorded_at BIGINT NOT NULL,
			is_connected BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_subscriptions_vehicle ON vehicle_subscriptions(vehicle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicles_driver ON vehicles(driver_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Printf("✅ Ran %d migrations", len(migrations))
	return nil
}

// UpsertVehicleFix writes the vehicle's current location, replacing whatever
// was there. Returns the server-side updated_at timestamp.
func UpsertVehicleFix(db *sqlx.DB, vehicleID string, lat, lng float64, heading, speed *float64, tripActive bool, recordedAt int64) (int64, error) {
	query := `
		INSERT INTO vehicle_current_location (
			vehicle_id, latitude, longitude, heading_deg, speed_mps, trip_active, recorded_at, is_connected, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, EXTRACT(EPOCH FROM NOW())::BIGINT)
		ON CONFLICT (vehicle_id)
		DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			heading_deg = EXCLUDED.heading_deg,
			speed_mps = EXCLUDED.speed_mps,
			trip_active = EXCLUDED.trip_active,
			recorded_at = EXCLUDED.recorded_at,
			is_connected = TRUE,
			updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
		RETURNING updated_at
	`

	var updatedAt int64
	err := db.QueryRow(query, vehicleID, lat, lng, heading, speed, tripActive, recordedAt).Scan(&updatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert vehicle location: %w", err)
	}
	return updatedAt, nil
}

// SubscriberFCMTokens returns the registered FCM tokens of everyone
// following the given vehicle.
func SubscriberFCMTokens(db *sqlx.DB, vehicleID string) ([]string, error) {
	var tokens []string
	query := `
		SELECT u.fcm_token
		FROM vehicle_subscriptions vs
		INNER JOIN users u ON u.id = vs.user_id
		WHERE vs.vehicle_id = $1 AND u.fcm_token IS NOT NULL
	`
	if err := db.Select(&tokens, query, vehicleID); err != nil {
		return nil, fmt.Errorf("failed to load subscriber tokens: %w", err)
	}
	return tokens, nil
}
