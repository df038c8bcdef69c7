package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/cargolink/fulfillment-backend/internal/database"
	"github.com/cargolink/fulfillment-backend/internal/handlers"
	"github.com/cargolink/fulfillment-backend/internal/middleware"
	"github.com/cargolink/fulfillment-backend/internal/services"
	"github.com/cargolink/fulfillment-backend/pkg/jwt"
	"github.com/cargolink/fulfillment-backend/pkg/pubsub"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting CargoLink Fulfillment Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize repositories
	planRepo := database.NewFulfillmentPlanRepository(db)
	segmentRepo := database.NewFulfillmentSegmentRepository(db)
	executionRepo := database.NewExecutionRepository(db)
	locationRepo := database.NewDriverLocationRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	nodeIndex := services.NewNodeIndexService(services.DefaultTransferNodes())
	estimator := services.NewEstimatorService(cfg.Planner)
	planner := services.NewPlannerService(nodeIndex, estimator, cfg.Planner, logger)
	planService := services.NewPlanService(planRepo, segmentRepo, planner, logger)
	segmentSync := services.NewSegmentSyncService(executionRepo, segmentRepo, planService, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(segmentSync, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Cron service started - segment sync enabled")

	// Notification broker: Redis when configured, in-memory otherwise.
	// The in-memory broker only fans out within a single instance, which
	// is fine for development and single-node deployments.
	var broker pubsub.Broker
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatalf("Failed to ping Redis: %v", err)
		}
		broker = pubsub.NewRedisBroker(redisClient)
		logger.Info("Notification broker: Redis")
	} else {
		broker = pubsub.NewMemoryBroker()
		logger.Info("Notification broker: in-memory")
	}
	defer broker.Close()

	logger.Info("Services initialized")

	// Initialize handlers
	planHandler := handlers.NewPlanHandler(planner, planService, logger)
	streamHandler := handlers.NewStreamHandler(planService, locationRepo, cfg.Stream, logger)
	notificationHandler := handlers.NewNotificationHandler(broker, cfg.Stream, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Fulfillment planning routes (protected)
		fulfillment := v1.Group("/fulfillment")
		fulfillment.Use(middleware.AuthMiddleware(jwtService))
		{
			fulfillment.POST("/plans/preview", planHandler.PreviewPlans)
			fulfillment.POST("/plans", planHandler.CreatePlan)
			fulfillment.POST("/plans/:id/commit", planHandler.CommitPlan)
			fulfillment.GET("/plans/:id", planHandler.GetPlan)
			fulfillment.GET("/plans/:id/stream", streamHandler.PlanStream)
			fulfillment.POST("/segments/:id/status", planHandler.UpdateSegmentStatus)
		}

		// Driver tracking routes (protected)
		drivers := v1.Group("/drivers")
		drivers.Use(middleware.AuthMiddleware(jwtService))
		{
			drivers.GET("/:id/location/stream", streamHandler.DriverLocationStream)
		}

		// Notification routes (protected)
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthMiddleware(jwtService))
		{
			notifications.POST("", notificationHandler.Publish)
			notifications.GET("/stream", notificationHandler.Stream)
		}
	}

	// HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// Streaming endpoints hold connections open indefinitely; a
		// write timeout would sever them mid-stream.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
		}
		if userID, exists := c.Get("user_id"); exists {
			fields["user_id"] = userID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
