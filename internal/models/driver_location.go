package models

import "time"

// DriverLocation is the latest reported position of a driver, read-only
// for this service. The location stream watches updated_at as its
// watermark.
type DriverLocation struct {
	DriverID  string    `json:"driver_id" db:"driver_id"`
	Lat       float64   `json:"lat" db:"lat"`
	Lon       float64   `json:"lon" db:"lon"`
	SpeedKmh  *float64  `json:"speed_kmh,omitempty" db:"speed_kmh"`
	HeadingDeg *float64 `json:"heading_deg,omitempty" db:"heading_deg"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublishNotificationRequest publishes a payload onto a named topic.
type PublishNotificationRequest struct {
	Topic   string `json:"topic" binding:"required"`
	Payload string `json:"payload" binding:"required"`
}

// Validate validates the publish request
func (r *PublishNotificationRequest) Validate() error {
	if r.Topic == "" {
		return ErrInvalidInput("topic is required")
	}
	if r.Payload == "" {
		return ErrInvalidInput("payload is required")
	}
	return nil
}
