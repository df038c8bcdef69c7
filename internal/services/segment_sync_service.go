package services

import (
	"github.com/cargolink/fulfillment-backend/internal/database"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// SegmentSyncService folds execution collaborator job statuses into plan
// segment statuses. It only reads job records; the job lifecycle itself
// is owned by the dispatch side of the product.
type SegmentSyncService struct {
	executionRepo *database.ExecutionRepository
	segmentRepo   *database.FulfillmentSegmentRepository
	planService   *PlanService
	logger        *logrus.Logger
}

// NewSegmentSyncService creates a new segment sync service
func NewSegmentSyncService(
	executionRepo *database.ExecutionRepository,
	segmentRepo *database.FulfillmentSegmentRepository,
	planService *PlanService,
	logger *logrus.Logger,
) *SegmentSyncService {
	return &SegmentSyncService{
		executionRepo: executionRepo,
		segmentRepo:   segmentRepo,
		planService:   planService,
		logger:        logger,
	}
}

// SyncActivePlans reconciles segment statuses for every active plan.
// Returns the number of segments that changed.
func (s *SegmentSyncService) SyncActivePlans() (int, error) {
	planIDs, err := s.executionRepo.ListActivePlanIDs()
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, planID := range planIDs {
		n, err := s.syncPlan(planID)
		if err != nil {
			// One plan failing must not stall the rest of the sweep.
			s.logger.WithError(err).WithField("plan_id", planID).Error("Plan sync failed")
			continue
		}
		changed += n
	}
	return changed, nil
}

func (s *SegmentSyncService) syncPlan(planID string) (int, error) {
	segments, err := s.segmentRepo.GetByPlanID(planID)
	if err != nil {
		return 0, err
	}

	statuses, err := s.executionRepo.GetStatusesForPlan(planID)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, seg := range segments {
		if seg.JobID == nil {
			continue
		}
		job, ok := statuses[*seg.JobID]
		if !ok {
			continue
		}

		next, ok := SegmentStatusForJob(job.Status)
		if !ok {
			s.logger.WithFields(logrus.Fields{
				"job_id":     job.JobID,
				"job_status": job.Status,
			}).Warn("Unknown execution job status, skipping")
			continue
		}
		if next == seg.Status || !seg.Status.CanTransitionTo(next) {
			continue
		}

		if err := s.segmentRepo.UpdateStatus(seg.ID, next, nil); err != nil {
			return changed, err
		}
		changed++
	}

	if changed > 0 {
		if err := s.planService.RecomputePlanStatus(planID); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// SegmentStatusForJob maps an execution collaborator job status onto the
// segment state machine. The second return is false for statuses this
// subsystem does not understand.
func SegmentStatusForJob(jobStatus string) (models.SegmentStatus, bool) {
	switch jobStatus {
	case "assigned":
		return models.SegmentStatusPlanned, true
	case "picked_up", "in_transit":
		return models.SegmentStatusInProgress, true
	case "delivered":
		return models.SegmentStatusCompleted, true
	case "failed":
		return models.SegmentStatusFailed, true
	case "cancelled":
		return models.SegmentStatusCancelled, true
	}
	return "", false
}
