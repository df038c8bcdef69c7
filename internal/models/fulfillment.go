package models

import (
	"time"

	"github.com/cargolink/fulfillment-backend/pkg/geo"
)

// PlanObjective selects the optimization profile used to weight score terms.
type PlanObjective string

const (
	ObjectiveBalanced PlanObjective = "balanced"
	ObjectiveFastest  PlanObjective = "fastest"
	ObjectiveCheapest PlanObjective = "cheapest"
	ObjectiveRevenue  PlanObjective = "revenue"
)

// IsValid reports whether the objective is one of the supported profiles.
func (o PlanObjective) IsValid() bool {
	switch o {
	case ObjectiveBalanced, ObjectiveFastest, ObjectiveCheapest, ObjectiveRevenue:
		return true
	}
	return false
}

// PlanStatus represents the lifecycle state of a fulfillment plan.
type PlanStatus string

const (
	PlanStatusPlanning  PlanStatus = "planning"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusFailed    PlanStatus = "failed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// IsTerminal reports whether no further plan transitions are possible.
func (s PlanStatus) IsTerminal() bool {
	return s == PlanStatusCompleted || s == PlanStatusFailed || s == PlanStatusCancelled
}

// SegmentStatus represents the execution state of one plan segment.
type SegmentStatus string

const (
	SegmentStatusPlanned    SegmentStatus = "planned"
	SegmentStatusInProgress SegmentStatus = "in_progress"
	SegmentStatusCompleted  SegmentStatus = "completed"
	SegmentStatusFailed     SegmentStatus = "failed"
	SegmentStatusCancelled  SegmentStatus = "cancelled"
)

// IsValid reports whether the status is a known segment status.
func (s SegmentStatus) IsValid() bool {
	switch s {
	case SegmentStatusPlanned, SegmentStatusInProgress, SegmentStatusCompleted,
		SegmentStatusFailed, SegmentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further segment transitions are possible.
func (s SegmentStatus) IsTerminal() bool {
	return s == SegmentStatusCompleted || s == SegmentStatusFailed || s == SegmentStatusCancelled
}

// CanTransitionTo validates a segment status transition.
// Allowed: planned -> in_progress -> completed, and planned|in_progress ->
// failed|cancelled. Terminal statuses accept no further transitions.
func (s SegmentStatus) CanTransitionTo(next SegmentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case SegmentStatusInProgress:
		return s == SegmentStatusPlanned
	case SegmentStatusCompleted:
		return s == SegmentStatusInProgress
	case SegmentStatusFailed, SegmentStatusCancelled:
		return s == SegmentStatusPlanned || s == SegmentStatusInProgress
	}
	return false
}

// FulfillmentPlan is the persisted record of a shipment's selected
// multi-modal plan and its lifecycle.
type FulfillmentPlan struct {
	ID              string        `json:"id" db:"id"`
	ShipmentID      string        `json:"shipment_id" db:"shipment_id"`
	Objective       PlanObjective `json:"objective" db:"objective"`
	Status          PlanStatus    `json:"status" db:"status"`
	SelectedPlanKey *string       `json:"selected_plan_key,omitempty" db:"selected_plan_key"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// FulfillmentSegment is one persisted leg of a committed plan. SortOrder
// values are contiguous from 0 and define the itinerary order.
type FulfillmentSegment struct {
	ID        string        `json:"id" db:"id"`
	PlanID    string        `json:"plan_id" db:"plan_id"`
	SortOrder int           `json:"sort_order" db:"sort_order"`
	Mode      TransportMode `json:"mode" db:"mode"`
	Title     string        `json:"title" db:"title"`
	Status    SegmentStatus `json:"status" db:"status"`
	JobID     *string       `json:"job_id,omitempty" db:"job_id"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// PlanDetail is the plan + segments DTO used by the API and the
// plan_update stream event. Field names are a wire contract relied on by
// the dashboard; do not rename.
type PlanDetail struct {
	FulfillmentPlan
	Segments []FulfillmentSegment `json:"segments"`
}

// Watermark returns the maximum updated_at across the plan and its
// segments, used by streams to detect incremental changes.
func (d *PlanDetail) Watermark() time.Time {
	mark := d.UpdatedAt
	for _, seg := range d.Segments {
		if seg.UpdatedAt.After(mark) {
			mark = seg.UpdatedAt
		}
	}
	return mark
}

// PlanPreviewRequest asks for a ranked set of candidate itineraries
// without persisting anything.
type PlanPreviewRequest struct {
	Origin        geo.Point     `json:"origin"`
	Destination   geo.Point     `json:"destination"`
	CargoWeightKg float64       `json:"cargo_weight_kg"`
	Objective     PlanObjective `json:"objective"`
}

// Validate validates the preview request
func (r *PlanPreviewRequest) Validate() error {
	if err := r.Origin.Validate(); err != nil {
		return ErrInvalidInput("invalid origin: " + err.Error())
	}
	if err := r.Destination.Validate(); err != nil {
		return ErrInvalidInput("invalid destination: " + err.Error())
	}
	if r.CargoWeightKg <= 0 {
		return ErrInvalidInput("cargo_weight_kg must be positive")
	}
	if r.Objective == "" {
		return ErrInvalidInput("objective is required")
	}
	if !r.Objective.IsValid() {
		return ErrInvalidInput("objective must be one of balanced, fastest, cheapest, revenue")
	}
	return nil
}

// CreatePlanRequest creates a planning-state plan for a shipment.
type CreatePlanRequest struct {
	ShipmentID string        `json:"shipment_id" binding:"required"`
	Objective  PlanObjective `json:"objective" binding:"required"`
}

// Validate validates the create plan request
func (r *CreatePlanRequest) Validate() error {
	if r.ShipmentID == "" {
		return ErrInvalidInput("shipment_id is required")
	}
	if !r.Objective.IsValid() {
		return ErrInvalidInput("objective must be one of balanced, fastest, cheapest, revenue")
	}
	return nil
}

// CommitPlanRequest selects a generated candidate for a planning-state
// plan. Generation is deterministic, so the server regenerates candidates
// from the same parameters and matches the submitted key.
type CommitPlanRequest struct {
	PlanKey       string    `json:"plan_key" binding:"required"`
	Origin        geo.Point `json:"origin"`
	Destination   geo.Point `json:"destination"`
	CargoWeightKg float64   `json:"cargo_weight_kg"`
}

// Validate validates the commit request
func (r *CommitPlanRequest) Validate() error {
	if r.PlanKey == "" {
		return ErrInvalidInput("plan_key is required")
	}
	if err := r.Origin.Validate(); err != nil {
		return ErrInvalidInput("invalid origin: " + err.Error())
	}
	if err := r.Destination.Validate(); err != nil {
		return ErrInvalidInput("invalid destination: " + err.Error())
	}
	if r.CargoWeightKg <= 0 {
		return ErrInvalidInput("cargo_weight_kg must be positive")
	}
	return nil
}

// UpdateSegmentStatusRequest is how execution collaborators report a
// segment transition.
type UpdateSegmentStatusRequest struct {
	Status SegmentStatus `json:"status" binding:"required"`
	JobID  *string       `json:"job_id,omitempty"`
}

// Validate validates the segment status update request
func (r *UpdateSegmentStatusRequest) Validate() error {
	if r.Status == "" {
		return ErrInvalidInput("status is required")
	}
	if !r.Status.IsValid() {
		return ErrInvalidInput("status must be one of planned, in_progress, completed, failed, cancelled")
	}
	return nil
}
