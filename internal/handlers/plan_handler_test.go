package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/cargolink/fulfillment-backend/internal/database"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/cargolink/fulfillment-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testPlannerConfig() config.PlannerConfig {
	return config.PlannerConfig{
		RouteFactorGround:     1.0,
		RouteFactorRail:       1.3,
		RouteFactorAir:        1.08,
		RoadSpeedMps:          16.7,
		RailSpeedMps:          19.4,
		AirCruiseMps:          230.0,
		GroundLoadingOverhead: 45 * time.Minute,
		RailTerminalOverhead:  180 * time.Minute,
		AirHandlingOverhead:   120 * time.Minute,
		GroundCostPerKm:       28,
		GroundCostPerKg:       4,
		RailCostPerKm:         12,
		RailCostPerKg:         2.5,
		AirBaseFee:            9000,
		AirCostPerKgKm:        0.011,
		ReliabilityGround:     0.97,
		ReliabilityRail:       0.94,
		ReliabilityAir:        0.90,
		CommitmentWindow:      2880 * time.Minute,
		NearestNodeCount:      2,
	}
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func setupTestDB(t *testing.T) (database.DB, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	wrapped := &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}
	return wrapped, mock, func() { mockDB.Close() }
}

func setupPlanHandler(db database.DB) *PlanHandler {
	cfg := testPlannerConfig()
	nodeIndex := services.NewNodeIndexService(services.DefaultTransferNodes())
	estimator := services.NewEstimatorService(cfg)
	planner := services.NewPlannerService(nodeIndex, estimator, cfg, testLogger())
	planRepo := database.NewFulfillmentPlanRepository(db)
	segmentRepo := database.NewFulfillmentSegmentRepository(db)
	planService := services.NewPlanService(planRepo, segmentRepo, planner, testLogger())
	return NewPlanHandler(planner, planService, testLogger())
}

func doJSONRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPreviewPlans_Success(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	router := setupTestRouter()
	router.POST("/plans/preview", handler.PreviewPlans)

	w := doJSONRequest(router, "POST", "/plans/preview", map[string]interface{}{
		"origin":          map[string]float64{"lat": 19.0760, "lon": 72.8777},
		"destination":     map[string]float64{"lat": 28.6139, "lon": 77.2090},
		"cargo_weight_kg": 500,
		"objective":       "fastest",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status     string                       `json:"status"`
		Candidates []models.CandidatePlanOption `json:"candidates"`
		Count      int                          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Candidates)
	assert.Equal(t, len(resp.Candidates), resp.Count)

	for i := 1; i < len(resp.Candidates); i++ {
		assert.LessOrEqual(t, resp.Candidates[i-1].Score, resp.Candidates[i].Score)
	}
}

func TestPreviewPlans_InvalidBody(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	router := setupTestRouter()
	router.POST("/plans/preview", handler.PreviewPlans)

	req := httptest.NewRequest("POST", "/plans/preview", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewPlans_ValidationFailure(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	router := setupTestRouter()
	router.POST("/plans/preview", handler.PreviewPlans)

	w := doJSONRequest(router, "POST", "/plans/preview", map[string]interface{}{
		"origin":          map[string]float64{"lat": 19.0760, "lon": 72.8777},
		"destination":     map[string]float64{"lat": 28.6139, "lon": 77.2090},
		"cargo_weight_kg": -5,
		"objective":       "fastest",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestCreatePlan_Success(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO fulfillment_plans").
		WithArgs(sqlmock.AnyArg(), "shp-1", models.ObjectiveBalanced, models.PlanStatusPlanning).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	router := setupTestRouter()
	router.POST("/plans", handler.CreatePlan)

	w := doJSONRequest(router, "POST", "/plans", map[string]interface{}{
		"shipment_id": "shp-1",
		"objective":   "balanced",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "planning")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPlan_NotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	mock.ExpectQuery("SELECT (.+) FROM fulfillment_plans").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	router := setupTestRouter()
	router.GET("/plans/:id", handler.GetPlan)

	w := doJSONRequest(router, "GET", "/plans/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Plan not found")
}

func TestGetPlan_Success(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_plans").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipment_id", "objective", "status", "selected_plan_key", "created_at", "updated_at"}).
			AddRow("plan-1", "shp-1", models.ObjectiveBalanced, models.PlanStatusActive, "ground-direct", now, now))
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "sort_order", "mode", "title", "status", "job_id", "created_at", "updated_at"}).
			AddRow("seg-1", "plan-1", 0, models.ModeGround, "Road freight", models.SegmentStatusInProgress, nil, now, now))

	router := setupTestRouter()
	router.GET("/plans/:id", handler.GetPlan)

	w := doJSONRequest(router, "GET", "/plans/plan-1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Plan models.PlanDetail `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "plan-1", resp.Plan.ID)
	require.Len(t, resp.Plan.Segments, 1)
	assert.Equal(t, 0, resp.Plan.Segments[0].SortOrder)
}

func TestUpdateSegmentStatus_NotFoundResponse(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	router := setupTestRouter()
	router.POST("/segments/:id/status", handler.UpdateSegmentStatus)

	w := doJSONRequest(router, "POST", "/segments/missing/status", map[string]interface{}{
		"status": "in_progress",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateSegmentStatus_InvalidTransitionResponse(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM fulfillment_segments").
		WithArgs("seg-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "sort_order", "mode", "title", "status", "job_id", "created_at", "updated_at"}).
			AddRow("seg-1", "plan-1", 0, models.ModeGround, "Pickup", models.SegmentStatusCompleted, nil, now, now))

	router := setupTestRouter()
	router.POST("/segments/:id/status", handler.UpdateSegmentStatus)

	w := doJSONRequest(router, "POST", "/segments/seg-1/status", map[string]interface{}{
		"status": "in_progress",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot transition")
}

func TestCommitPlan_NotFoundResponse(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	handler := setupPlanHandler(db)

	mock.ExpectQuery("SELECT (.+) FROM fulfillment_plans").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	router := setupTestRouter()
	router.POST("/plans/:id/commit", handler.CommitPlan)

	w := doJSONRequest(router, "POST", "/plans/missing/commit", map[string]interface{}{
		"plan_key":        "ground-direct",
		"origin":          map[string]float64{"lat": 19.0760, "lon": 72.8777},
		"destination":     map[string]float64{"lat": 28.6139, "lon": 77.2090},
		"cargo_weight_kg": 500,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
