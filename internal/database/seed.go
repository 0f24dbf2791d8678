package database

import (
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// SeedUsers creates the default accounts on an empty database: one admin,
// two bus drivers and one parent.
func SeedUsers(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	users := []map[string]interface{}{
		{"email": "admin@edutrack.app", "password": "admin123", "name": "School Admin", "role": "admin"},
		{"email": "driver1@edutrack.app", "password": "driver123", "name": "Bus Driver One", "role": "driver"},
		{"email": "driver2@edutrack.app", "password": "driver123", "name": "Bus Driver Two", "role": "driver"},
		{"email": "parent@edutrack.app", "password": "parent123", "name": "Demo Parent", "role": "parent"},
	}

	for _, u := range users {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u["password"].(string)), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		_, err = db.Exec(`
			INSERT INTO users (id, email, password, name, role)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), u["email"], string(hashed), u["name"], u["role"])
		if err != nil {
			return err
		}
	}

	log.Printf("🌱 Seeded %d users", len(users))
	return nil
}

// SeedVehicles creates two demo buses assigned to the seeded drivers.
func SeedVehicles(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM vehicles"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Vehicles already seeded, skipping...")
		return nil
	}

	vehicles := []map[string]string{
		{"name": "Route 4 Morning", "plate": "SJ-BUS-104", "driver_email": "driver1@edutrack.app"},
		{"name": "Route 7 Morning", "plate": "SJ-BUS-107", "driver_email": "driver2@edutrack.app"},
	}

	for _, v := range vehicles {
		var driverID string
		if err := db.Get(&driverID, "SELECT id FROM users WHERE email = $1", v["driver_email"]); err != nil {
			return err
		}

		_, err := db.Exec(`
			INSERT INTO vehicles (id, name, plate, driver_id)
			VALUES ($1, $2, $3, $4)
		`, uuid.New().String(), v["name"], v["plate"], driverID)
		if err != nil {
			return err
		}
	}

	log.Printf("🌱 Seeded %d vehicles", len(vehicles))
	return nil
}
