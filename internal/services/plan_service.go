package services

import (
	"database/sql"
	"fmt"

	"github.com/cargolink/fulfillment-backend/internal/database"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrPlanNotFound is returned when a plan id does not exist.
var ErrPlanNotFound = fmt.Errorf("plan not found")

// ErrSegmentNotFound is returned when a segment id does not exist.
var ErrSegmentNotFound = fmt.Errorf("segment not found")

// PlanService owns the fulfillment plan lifecycle: creation, candidate
// commit, segment transitions and the plan status aggregation rule.
// Terminal plan states are derived from segments only, never set directly.
type PlanService struct {
	planRepo    *database.FulfillmentPlanRepository
	segmentRepo *database.FulfillmentSegmentRepository
	planner     *PlannerService
	logger      *logrus.Logger
}

// NewPlanService creates a new plan service
func NewPlanService(
	planRepo *database.FulfillmentPlanRepository,
	segmentRepo *database.FulfillmentSegmentRepository,
	planner *PlannerService,
	logger *logrus.Logger,
) *PlanService {
	return &PlanService{
		planRepo:    planRepo,
		segmentRepo: segmentRepo,
		planner:     planner,
		logger:      logger,
	}
}

// CreatePlan persists a new plan in the planning state.
func (s *PlanService) CreatePlan(req *models.CreatePlanRequest) (*models.FulfillmentPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan := &models.FulfillmentPlan{
		ShipmentID: req.ShipmentID,
		Objective:  req.Objective,
		Status:     models.PlanStatusPlanning,
	}
	if err := s.planRepo.Create(plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"plan_id":     plan.ID,
		"shipment_id": plan.ShipmentID,
		"objective":   plan.Objective,
	}).Info("Fulfillment plan created")

	return plan, nil
}

// CommitPlan selects a generated candidate for a planning-state plan,
// materializes its segments and moves the plan to active. Candidate
// generation is deterministic, so the candidate is regenerated from the
// submitted parameters and matched by key.
func (s *PlanService) CommitPlan(planID string, req *models.CommitPlanRequest) (*models.PlanDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.GetByID(planID)
	if err == sql.ErrNoRows {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if plan.Status != models.PlanStatusPlanning {
		return nil, models.ErrInvalidInput("plan is not in planning state")
	}

	candidate, err := s.planner.FindCandidate(&models.PlanPreviewRequest{
		Origin:        req.Origin,
		Destination:   req.Destination,
		CargoWeightKg: req.CargoWeightKg,
		Objective:     plan.Objective,
	}, req.PlanKey)
	if err != nil {
		return nil, err
	}

	segments := make([]*models.FulfillmentSegment, 0, len(candidate.Segments))
	for _, cs := range candidate.Segments {
		segments = append(segments, &models.FulfillmentSegment{
			Mode:   cs.Mode,
			Title:  cs.Title,
			Status: models.SegmentStatusPlanned,
		})
	}
	if err := s.planRepo.CommitWithSegments(planID, candidate.Key, segments); err != nil {
		return nil, fmt.Errorf("failed to commit plan selection: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"plan_id":  planID,
		"plan_key": candidate.Key,
		"segments": len(segments),
	}).Info("Fulfillment plan committed")

	return s.GetPlanDetail(planID)
}

// GetPlanDetail reads the plan and its segments ordered by sort_order.
// This is the read used on every stream poll tick.
func (s *PlanService) GetPlanDetail(planID string) (*models.PlanDetail, error) {
	plan, err := s.planRepo.GetByID(planID)
	if err == sql.ErrNoRows {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	segments, err := s.segmentRepo.GetByPlanID(planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}

	return &models.PlanDetail{
		FulfillmentPlan: *plan,
		Segments:        segments,
	}, nil
}

// UpdateSegmentStatus applies a segment transition reported by an
// execution collaborator, then re-runs plan status aggregation.
func (s *PlanService) UpdateSegmentStatus(segmentID string, req *models.UpdateSegmentStatusRequest) (*models.FulfillmentSegment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	segment, err := s.segmentRepo.GetByID(segmentID)
	if err == sql.ErrNoRows {
		return nil, ErrSegmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load segment: %w", err)
	}

	if !segment.Status.CanTransitionTo(req.Status) {
		return nil, models.ErrInvalidInput(fmt.Sprintf(
			"segment cannot transition from %s to %s", segment.Status, req.Status))
	}

	if err := s.segmentRepo.UpdateStatus(segmentID, req.Status, req.JobID); err != nil {
		return nil, fmt.Errorf("failed to update segment: %w", err)
	}

	if err := s.RecomputePlanStatus(segment.PlanID); err != nil {
		return nil, err
	}

	updated, err := s.segmentRepo.GetByID(segmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload segment: %w", err)
	}
	return updated, nil
}

// RecomputePlanStatus runs the aggregation rule for a plan and records a
// derived terminal status when one is reached.
func (s *PlanService) RecomputePlanStatus(planID string) error {
	plan, err := s.planRepo.GetByID(planID)
	if err != nil {
		return fmt.Errorf("failed to load plan for aggregation: %w", err)
	}
	if plan.Status != models.PlanStatusActive {
		return nil
	}

	segments, err := s.segmentRepo.GetByPlanID(planID)
	if err != nil {
		return fmt.Errorf("failed to load segments for aggregation: %w", err)
	}

	derived := DerivePlanStatus(segments)
	if !derived.IsTerminal() {
		return nil
	}

	if err := s.planRepo.SetDerivedStatus(planID, derived); err != nil {
		return fmt.Errorf("failed to set derived plan status: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"plan_id": planID,
		"status":  derived,
	}).Info("Plan reached terminal status")

	return nil
}

// DerivePlanStatus applies the aggregation rule to segments ordered by
// sort_order: all completed means the plan completed; all terminal with a
// non-completed kind means the first non-completed terminal kind wins;
// anything else leaves the plan active.
func DerivePlanStatus(segments []models.FulfillmentSegment) models.PlanStatus {
	if len(segments) == 0 {
		return models.PlanStatusActive
	}

	for _, seg := range segments {
		if !seg.Status.IsTerminal() {
			return models.PlanStatusActive
		}
	}

	for _, seg := range segments {
		switch seg.Status {
		case models.SegmentStatusFailed:
			return models.PlanStatusFailed
		case models.SegmentStatusCancelled:
			return models.PlanStatusCancelled
		}
	}
	return models.PlanStatusCompleted
}
