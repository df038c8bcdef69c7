package database

import (
	"database/sql"
	"fmt"

	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/google/uuid"
)

// FulfillmentPlanRepository handles database operations for the
// fulfillment_plans table.
type FulfillmentPlanRepository struct {
	db DB
}

// NewFulfillmentPlanRepository creates a new FulfillmentPlanRepository
func NewFulfillmentPlanRepository(db DB) *FulfillmentPlanRepository {
	return &FulfillmentPlanRepository{db: db}
}

// Create inserts a new plan in the planning state.
func (r *FulfillmentPlanRepository) Create(plan *models.FulfillmentPlan) error {
	query := `
		INSERT INTO fulfillment_plans (id, shipment_id, objective, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.Status == "" {
		plan.Status = models.PlanStatusPlanning
	}

	return r.db.QueryRow(
		query,
		plan.ID, plan.ShipmentID, plan.Objective, plan.Status,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
}

// GetByID retrieves a plan by ID
func (r *FulfillmentPlanRepository) GetByID(planID string) (*models.FulfillmentPlan, error) {
	query := `
		SELECT id, shipment_id, objective, status, selected_plan_key, created_at, updated_at
		FROM fulfillment_plans
		WHERE id = $1
	`

	var plan models.FulfillmentPlan
	err := r.db.Get(&plan, query, planID)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// CommitWithSegments moves a planning-state plan to active, records the
// selected candidate key and materializes the itinerary segments, all in
// one transaction. The WHERE clause enforces that the key is set exactly
// once, at the planning -> active transition. Callers pass segments in
// itinerary order; sort_order is assigned contiguously from 0.
func (r *FulfillmentPlanRepository) CommitWithSegments(planID, planKey string, segments []*models.FulfillmentSegment) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	commitQuery := `
		UPDATE fulfillment_plans
		SET status = $2, selected_plan_key = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4 AND selected_plan_key IS NULL
	`

	result, err := tx.Exec(commitQuery, planID, models.PlanStatusActive, planKey, models.PlanStatusPlanning)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("plan %s is not in planning state or already committed", planID)
	}

	insertQuery := `
		INSERT INTO fulfillment_segments (id, plan_id, sort_order, mode, title, status, job_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	for i, seg := range segments {
		if seg.ID == "" {
			seg.ID = uuid.New().String()
		}
		seg.PlanID = planID
		seg.SortOrder = i
		if seg.Status == "" {
			seg.Status = models.SegmentStatusPlanned
		}

		err := tx.QueryRowx(
			insertQuery,
			seg.ID, seg.PlanID, seg.SortOrder, seg.Mode, seg.Title, seg.Status, seg.JobID,
		).Scan(&seg.CreatedAt, &seg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert segment %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// SetDerivedStatus records a terminal status produced by segment
// aggregation. Only active plans can move to a terminal state; terminal
// statuses are never overwritten.
func (r *FulfillmentPlanRepository) SetDerivedStatus(planID string, status models.PlanStatus) error {
	if !status.IsTerminal() {
		return fmt.Errorf("derived plan status must be terminal, got %s", status)
	}

	query := `
		UPDATE fulfillment_plans
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.Exec(query, planID, status, models.PlanStatusActive)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("plan %s is not active", planID)
	}
	return nil
}

// Exists reports whether a plan with the given ID exists.
func (r *FulfillmentPlanRepository) Exists(planID string) (bool, error) {
	query := `SELECT id FROM fulfillment_plans WHERE id = $1`

	var id string
	err := r.db.Get(&id, query, planID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
