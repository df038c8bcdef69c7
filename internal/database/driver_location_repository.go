package database

import (
	"github.com/cargolink/fulfillment-backend/internal/models"
)

// DriverLocationRepository reads the latest reported driver positions.
// Locations are written by the driver mobile request path; this service
// only streams them.
type DriverLocationRepository struct {
	db DB
}

// NewDriverLocationRepository creates a new DriverLocationRepository
func NewDriverLocationRepository(db DB) *DriverLocationRepository {
	return &DriverLocationRepository{db: db}
}

// GetLatest retrieves the most recent location for a driver.
func (r *DriverLocationRepository) GetLatest(driverID string) (*models.DriverLocation, error) {
	query := `
		SELECT driver_id, lat, lon, speed_kmh, heading_deg, updated_at
		FROM driver_locations
		WHERE driver_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var loc models.DriverLocation
	err := r.db.Get(&loc, query, driverID)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
