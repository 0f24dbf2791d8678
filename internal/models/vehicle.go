package models

// Vehicle represents one school bus whose position can be tracked
type Vehicle struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"` // Display name, e.g. "Route 7 Morning"
	Plate     string  `json:"plate" db:"plate"`
	DriverID  *string `json:"driver_id,omitempty" db:"driver_id"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
	UpdatedAt int64   `json:"updated_at" db:"updated_at"`
}

// VehicleFix is a single GPS report from a bus device, as it crosses the wire
// and as the single current-location row stored per vehicle
type VehicleFix struct {
	VehicleID   string   `json:"vehicle_id" db:"vehicle_id"`
	Latitude    float64  `json:"latitude" db:"latitude"`
	Longitude   float64  `json:"longitude" db:"longitude"`
	HeadingDeg  *float64 `json:"heading_deg,omitempty" db:"heading_deg"` // Direction of travel (0-360 degrees)
	SpeedMps    *float64 `json:"speed_mps,omitempty" db:"speed_mps"`     // Speed in m/s
	TripActive  bool     `json:"trip_active" db:"trip_active"`
	RecordedAt  int64    `json:"recorded_at" db:"recorded_at"` // Device-side timestamp (unix seconds)
	IsConnected bool     `json:"is_connected" db:"is_connected"`
	UpdatedAt   int64    `json:"updated_at" db:"updated_at"` // Server-side timestamp
}

// VehicleSubscription links a parent account to a vehicle they follow
type VehicleSubscription struct {
	ID        int    `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	VehicleID string `json:"vehicle_id" db:"vehicle_id"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}
