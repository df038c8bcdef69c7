package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentRepository_GetByPlanID(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()
	repo := NewFulfillmentSegmentRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "sort_order", "mode", "title", "status", "job_id", "created_at", "updated_at"}).
			AddRow("seg-1", "plan-1", 0, models.ModeGround, "Pickup", models.SegmentStatusCompleted, "job-1", now, now).
			AddRow("seg-2", "plan-1", 1, models.ModeRail, "Rail freight", models.SegmentStatusInProgress, nil, now, now))

	segments, err := repo.GetByPlanID("plan-1")
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, 0, segments[0].SortOrder)
	assert.Equal(t, 1, segments[1].SortOrder)
	require.NotNil(t, segments[0].JobID)
	assert.Equal(t, "job-1", *segments[0].JobID)
	assert.Nil(t, segments[1].JobID)
}

func TestSegmentRepository_GetByPlanID_Empty(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()
	repo := NewFulfillmentSegmentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "sort_order", "mode", "title", "status", "job_id", "created_at", "updated_at"}))

	segments, err := repo.GetByPlanID("plan-1")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSegmentRepository_UpdateStatus(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()
	repo := NewFulfillmentSegmentRepository(db)

	jobID := "job-1"
	mock.ExpectExec("UPDATE fulfillment_segments").
		WithArgs("seg-1", models.SegmentStatusInProgress, &jobID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus("seg-1", models.SegmentStatusInProgress, &jobID)
	assert.NoError(t, err)
}

func TestSegmentRepository_UpdateStatus_NotFound(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()
	repo := NewFulfillmentSegmentRepository(db)

	mock.ExpectExec("UPDATE fulfillment_segments").
		WithArgs("missing", models.SegmentStatusInProgress, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus("missing", models.SegmentStatusInProgress, nil)
	assert.Error(t, err)
}
