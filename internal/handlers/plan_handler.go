package handlers

import (
	"net/http"

	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/cargolink/fulfillment-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PlanHandler handles HTTP requests for fulfillment planning
type PlanHandler struct {
	planner     *services.PlannerService
	planService *services.PlanService
	logger      *logrus.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planner *services.PlannerService, planService *services.PlanService, logger *logrus.Logger) *PlanHandler {
	return &PlanHandler{
		planner:     planner,
		planService: planService,
		logger:      logger,
	}
}

// PreviewPlans handles POST /api/v1/fulfillment/plans/preview
// Generates and ranks candidate itineraries without persisting anything.
func (h *PlanHandler) PreviewPlans(c *gin.Context) {
	var req models.PlanPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	options, err := h.planner.GenerateCandidates(&req)
	if err != nil {
		if _, ok := err.(*models.ValidationError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}

		h.logger.WithError(err).Error("Candidate generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to generate candidate plans",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"objective":  req.Objective,
		"candidates": options,
		"count":      len(options),
	})
}

// CreatePlan handles POST /api/v1/fulfillment/plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req models.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	plan, err := h.planService.CreatePlan(&req)
	if err != nil {
		if _, ok := err.(*models.ValidationError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}

		h.logger.WithError(err).Error("Failed to create fulfillment plan")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to create plan",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"plan":   plan,
	})
}

// CommitPlan handles POST /api/v1/fulfillment/plans/:id/commit
// Selects a generated candidate, materializes its segments and moves the
// plan to active.
func (h *PlanHandler) CommitPlan(c *gin.Context) {
	planID := c.Param("id")

	var req models.CommitPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	detail, err := h.planService.CommitPlan(planID, &req)
	if err != nil {
		switch {
		case err == services.ErrPlanNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Plan not found",
			})
		default:
			if _, ok := err.(*models.ValidationError); ok {
				c.JSON(http.StatusBadRequest, gin.H{
					"status":  "error",
					"message": err.Error(),
				})
				return
			}
			h.logger.WithError(err).WithField("plan_id", planID).Error("Failed to commit plan")
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to commit plan",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"plan":   detail,
	})
}

// GetPlan handles GET /api/v1/fulfillment/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID := c.Param("id")

	detail, err := h.planService.GetPlanDetail(planID)
	if err != nil {
		if err == services.ErrPlanNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Plan not found",
			})
			return
		}

		h.logger.WithError(err).WithField("plan_id", planID).Error("Failed to load plan")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to load plan",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"plan":   detail,
	})
}

// UpdateSegmentStatus handles POST /api/v1/fulfillment/segments/:id/status
// Execution collaborators report segment transitions here; the plan
// aggregation rule runs after every accepted transition.
func (h *PlanHandler) UpdateSegmentStatus(c *gin.Context) {
	segmentID := c.Param("id")

	var req models.UpdateSegmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	segment, err := h.planService.UpdateSegmentStatus(segmentID, &req)
	if err != nil {
		switch {
		case err == services.ErrSegmentNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Segment not found",
			})
		default:
			if _, ok := err.(*models.ValidationError); ok {
				c.JSON(http.StatusBadRequest, gin.H{
					"status":  "error",
					"message": err.Error(),
				})
				return
			}
			h.logger.WithError(err).WithField("segment_id", segmentID).Error("Failed to update segment status")
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to update segment status",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"segment": segment,
	})
}
