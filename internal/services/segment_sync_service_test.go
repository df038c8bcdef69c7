package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cargolink/fulfillment-backend/internal/database"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentStatusForJob(t *testing.T) {
	tests := []struct {
		jobStatus string
		expected  models.SegmentStatus
		known     bool
	}{
		{"assigned", models.SegmentStatusPlanned, true},
		{"picked_up", models.SegmentStatusInProgress, true},
		{"in_transit", models.SegmentStatusInProgress, true},
		{"delivered", models.SegmentStatusCompleted, true},
		{"failed", models.SegmentStatusFailed, true},
		{"cancelled", models.SegmentStatusCancelled, true},
		{"loitering", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.jobStatus, func(t *testing.T) {
			status, ok := SegmentStatusForJob(tt.jobStatus)
			assert.Equal(t, tt.known, ok)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func newTestSyncService(db database.DB) *SegmentSyncService {
	executionRepo := database.NewExecutionRepository(db)
	segmentRepo := database.NewFulfillmentSegmentRepository(db)
	return NewSegmentSyncService(executionRepo, segmentRepo, newTestPlanService(db), testLogger())
}

func TestSyncActivePlans_NoActivePlans(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	service := newTestSyncService(db)

	mock.ExpectQuery("SELECT id FROM fulfillment_plans").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	changed, err := service.SyncActivePlans()
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncActivePlans_AppliesJobTransition(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	service := newTestSyncService(db)

	now := time.Now()
	jobID := "job-1"

	mock.ExpectQuery("SELECT id FROM fulfillment_plans").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("plan-1"))

	// Segment linked to job-1 is still planned.
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "sort_order", "mode", "title", "status", "job_id", "created_at", "updated_at"}).
			AddRow("seg-1", "plan-1", 0, models.ModeGround, "Pickup", models.SegmentStatusPlanned, jobID, now, now))

	// The collaborator reports the job in transit.
	mock.ExpectQuery("SELECT j.job_id, j.status, j.updated_at").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "status", "updated_at"}).
			AddRow(jobID, "in_transit", now))

	mock.ExpectExec("UPDATE fulfillment_segments").
		WithArgs("seg-1", models.SegmentStatusInProgress, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Aggregation after the change: still one non-terminal segment.
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_plans").
		WithArgs("plan-1").
		WillReturnRows(planRow("plan-1", models.PlanStatusActive))
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "sort_order", "mode", "title", "status", "job_id", "created_at", "updated_at"}).
			AddRow("seg-1", "plan-1", 0, models.ModeGround, "Pickup", models.SegmentStatusInProgress, jobID, now, now))

	changed, err := service.SyncActivePlans()
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncActivePlans_SkipsUnknownJobStatus(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	service := newTestSyncService(db)

	now := time.Now()

	mock.ExpectQuery("SELECT id FROM fulfillment_plans").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("plan-1"))
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "sort_order", "mode", "title", "status", "job_id", "created_at", "updated_at"}).
			AddRow("seg-1", "plan-1", 0, models.ModeGround, "Pickup", models.SegmentStatusPlanned, "job-1", now, now))
	mock.ExpectQuery("SELECT j.job_id, j.status, j.updated_at").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "status", "updated_at"}).
			AddRow("job-1", "loitering", now))

	changed, err := service.SyncActivePlans()
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncActivePlans_SkipsUnlinkedSegments(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	service := newTestSyncService(db)

	now := time.Now()

	mock.ExpectQuery("SELECT id FROM fulfillment_plans").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("plan-1"))
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "sort_order", "mode", "title", "status", "job_id", "created_at", "updated_at"}).
			AddRow("seg-1", "plan-1", 0, models.ModeGround, "Pickup", models.SegmentStatusPlanned, nil, now, now))
	mock.ExpectQuery("SELECT j.job_id, j.status, j.updated_at").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "status", "updated_at"}))

	changed, err := service.SyncActivePlans()
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
