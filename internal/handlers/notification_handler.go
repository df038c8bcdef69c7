package handlers

import (
	"net/http"
	"time"

	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/cargolink/fulfillment-backend/pkg/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NotificationHandler publishes operational notifications onto topics and
// streams them to subscribed clients over SSE. Unlike the polling streams
// this is push-based: messages arrive on a broker subscription.
type NotificationHandler struct {
	broker    pubsub.Broker
	streamCfg config.StreamConfig
	logger    *logrus.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(broker pubsub.Broker, streamCfg config.StreamConfig, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		broker:    broker,
		streamCfg: streamCfg,
		logger:    logger,
	}
}

// Publish handles POST /api/v1/notifications
func (h *NotificationHandler) Publish(c *gin.Context) {
	var req models.PublishNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	if err := h.broker.Publish(c.Request.Context(), req.Topic, []byte(req.Payload)); err != nil {
		h.logger.WithError(err).WithField("topic", req.Topic).Error("Failed to publish notification")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to publish notification",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "success",
		"topic":  req.Topic,
	})
}

// Stream handles GET /api/v1/notifications/stream?topic=
func (h *NotificationHandler) Stream(c *gin.Context) {
	topic := c.Query("topic")
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "topic query parameter is required",
		})
		return
	}

	subscription, err := h.broker.Subscribe(c.Request.Context(), topic)
	if err != nil {
		h.logger.WithError(err).WithField("topic", topic).Error("Failed to subscribe to topic")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to subscribe",
		})
		return
	}
	defer subscription.Close()

	sink, ok := newSSESink(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Streaming unsupported",
		})
		return
	}
	writeSSEHeaders(c)

	if err := sink.Event("connected", map[string]string{"topic": topic}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.streamCfg.HeartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case message, open := <-subscription.Messages():
			if !open {
				return
			}
			if err := sink.Event("notification", string(message)); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := sink.Comment("heartbeat"); err != nil {
				return
			}
		}
	}
}
