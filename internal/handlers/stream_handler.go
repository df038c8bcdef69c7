package handlers

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/cargolink/fulfillment-backend/internal/database"
	"github.com/cargolink/fulfillment-backend/internal/services"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// sseSink writes distributor events onto an HTTP response as
// Server-Sent Events. Write errors propagate so the distributor can
// detect a gone client.
type sseSink struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

func newSSESink(c *gin.Context) (*sseSink, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return nil, false
	}
	return &sseSink{writer: c.Writer, flusher: flusher}, true
}

func (s *sseSink) Event(name string, payload interface{}) error {
	if err := sse.Encode(s.writer, sse.Event{Event: name, Data: payload}); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseSink) Comment(text string) error {
	if _, err := s.writer.Write([]byte(": " + text + "\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func writeSSEHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
}

// StreamHandler serves the live-tracking SSE endpoints. Each connection
// gets its own distributor loop; no state is shared between streams.
type StreamHandler struct {
	planService  *services.PlanService
	locationRepo *database.DriverLocationRepository
	streamCfg    config.StreamConfig
	logger       *logrus.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(
	planService *services.PlanService,
	locationRepo *database.DriverLocationRepository,
	streamCfg config.StreamConfig,
	logger *logrus.Logger,
) *StreamHandler {
	return &StreamHandler{
		planService:  planService,
		locationRepo: locationRepo,
		streamCfg:    streamCfg,
		logger:       logger,
	}
}

// PlanStream handles GET /api/v1/fulfillment/plans/:id/stream
// Existence is checked before the loop starts so unknown plans get a
// plain 404 instead of an opened-then-closed stream.
func (h *StreamHandler) PlanStream(c *gin.Context) {
	planID := c.Param("id")

	if _, err := h.planService.GetPlanDetail(planID); err != nil {
		if err == services.ErrPlanNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Plan not found",
			})
			return
		}
		h.logger.WithError(err).WithField("plan_id", planID).Error("Failed to open plan stream")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to open stream",
		})
		return
	}

	sink, ok := newSSESink(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Streaming unsupported",
		})
		return
	}
	writeSSEHeaders(c)

	read := func(ctx context.Context) (services.Snapshot, error) {
		detail, err := h.planService.GetPlanDetail(planID)
		if err != nil {
			return services.Snapshot{}, err
		}

		snapshot := services.Snapshot{
			Payload:   detail,
			Watermark: detail.Watermark(),
		}
		if detail.Status.IsTerminal() {
			snapshot.TerminalStatus = string(detail.Status)
		}
		return snapshot, nil
	}

	distributor := services.NewDistributor(read, "plan_update", "completed", h.streamCfg, h.logger)
	if err := distributor.Run(c.Request.Context(), sink); err != nil {
		h.logger.WithError(err).WithField("plan_id", planID).Warn("Plan stream ended with error")
	}
}

// DriverLocationStream handles GET /api/v1/drivers/:id/location/stream
// Locations have no terminal state; the stream runs until the client
// disconnects.
func (h *StreamHandler) DriverLocationStream(c *gin.Context) {
	driverID := c.Param("id")

	if _, err := h.locationRepo.GetLatest(driverID); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Driver location not found",
			})
			return
		}
		h.logger.WithError(err).WithField("driver_id", driverID).Error("Failed to open location stream")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to open stream",
		})
		return
	}

	sink, ok := newSSESink(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Streaming unsupported",
		})
		return
	}
	writeSSEHeaders(c)

	read := func(ctx context.Context) (services.Snapshot, error) {
		location, err := h.locationRepo.GetLatest(driverID)
		if err != nil {
			return services.Snapshot{}, err
		}
		return services.Snapshot{
			Payload:   location,
			Watermark: location.UpdatedAt,
		}, nil
	}

	distributor := services.NewDistributor(read, "location_update", "completed", h.streamCfg, h.logger)
	if err := distributor.Run(c.Request.Context(), sink); err != nil {
		h.logger.WithError(err).WithField("driver_id", driverID).Warn("Location stream ended with error")
	}
}
