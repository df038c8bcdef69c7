package database

import (
	"fmt"

	"github.com/cargolink/fulfillment-backend/internal/models"
)

// FulfillmentSegmentRepository handles database operations for the
// fulfillment_segments table.
type FulfillmentSegmentRepository struct {
	db DB
}

// NewFulfillmentSegmentRepository creates a new FulfillmentSegmentRepository
func NewFulfillmentSegmentRepository(db DB) *FulfillmentSegmentRepository {
	return &FulfillmentSegmentRepository{db: db}
}

// GetByID retrieves a segment by ID
func (r *FulfillmentSegmentRepository) GetByID(segmentID string) (*models.FulfillmentSegment, error) {
	query := `
		SELECT id, plan_id, sort_order, mode, title, status, job_id, created_at, updated_at
		FROM fulfillment_segments
		WHERE id = $1
	`

	var seg models.FulfillmentSegment
	err := r.db.Get(&seg, query, segmentID)
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

// GetByPlanID retrieves all segments of a plan ordered by sort_order.
func (r *FulfillmentSegmentRepository) GetByPlanID(planID string) ([]models.FulfillmentSegment, error) {
	query := `
		SELECT id, plan_id, sort_order, mode, title, status, job_id, created_at, updated_at
		FROM fulfillment_segments
		WHERE plan_id = $1
		ORDER BY sort_order
	`

	segments := []models.FulfillmentSegment{}
	err := r.db.Select(&segments, query, planID)
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// UpdateStatus records a segment status change and optionally links the
// executing job record.
func (r *FulfillmentSegmentRepository) UpdateStatus(segmentID string, status models.SegmentStatus, jobID *string) error {
	query := `
		UPDATE fulfillment_segments
		SET status = $2, job_id = COALESCE($3, job_id), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, segmentID, status, jobID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("segment %s not found", segmentID)
	}
	return nil
}
