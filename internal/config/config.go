package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Planner  PlannerConfig
	Stream   StreamConfig
	Redis    RedisConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// PlannerConfig holds the deterministic constants behind leg estimation,
// candidate generation and reliability priors. Changing them changes
// rankings, so treat per-deployment tuning as a versioned decision.
type PlannerConfig struct {
	// Route inflation factors applied to the great-circle distance.
	// Ground defaults to 1.0; road-network tuning happens per deployment.
	RouteFactorGround float64
	RouteFactorRail   float64
	RouteFactorAir    float64

	// Average speeds in meters per second.
	RoadSpeedMps float64
	RailSpeedMps float64
	AirCruiseMps float64

	// Fixed per-leg overheads.
	GroundLoadingOverhead time.Duration
	RailTerminalOverhead  time.Duration
	AirHandlingOverhead   time.Duration

	// Cost model, in the base currency unit.
	GroundCostPerKm float64
	GroundCostPerKg float64
	RailCostPerKm   float64
	RailCostPerKg   float64
	AirBaseFee      float64
	AirCostPerKgKm  float64

	// Per-mode reliability priors, each in (0, 1].
	ReliabilityGround float64
	ReliabilityRail   float64
	ReliabilityAir    float64

	// Commitment window for the late-penalty term.
	CommitmentWindow time.Duration

	// Transfer nodes considered on each side of a via-node itinerary.
	NearestNodeCount int
}

// StreamConfig holds polling cadence for live status streams.
type StreamConfig struct {
	PollInterval       time.Duration
	ErrorRetryInterval time.Duration
	HeartbeatInterval  time.Duration
}

// RedisConfig holds the notification broker configuration. When Addr is
// empty the service falls back to the in-memory broker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Planner: plannerFromEnv(),
		Stream: StreamConfig{
			PollInterval:       time.Duration(getEnvAsInt("STREAM_POLL_INTERVAL_MS", 2000)) * time.Millisecond,
			ErrorRetryInterval: time.Duration(getEnvAsInt("STREAM_ERROR_RETRY_INTERVAL_MS", 10000)) * time.Millisecond,
			HeartbeatInterval:  time.Duration(getEnvAsInt("STREAM_HEARTBEAT_INTERVAL_MS", 15000)) * time.Millisecond,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadPlanner loads only the planner constants from the environment.
// Offline tooling that runs generation and scoring without a database
// uses this instead of Load, so DATABASE_URL and JWT_SECRET stay optional.
func LoadPlanner() (PlannerConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	planner := plannerFromEnv()
	if err := planner.Validate(); err != nil {
		return PlannerConfig{}, err
	}
	return planner, nil
}

func plannerFromEnv() PlannerConfig {
	return PlannerConfig{
		RouteFactorGround: getEnvAsFloat("PLANNER_ROUTE_FACTOR_GROUND", 1.0),
		RouteFactorRail:   getEnvAsFloat("PLANNER_ROUTE_FACTOR_RAIL", 1.3),
		RouteFactorAir:    getEnvAsFloat("PLANNER_ROUTE_FACTOR_AIR", 1.08),

		RoadSpeedMps: getEnvAsFloat("PLANNER_ROAD_SPEED_MPS", 16.7), // ~60 km/h
		RailSpeedMps: getEnvAsFloat("PLANNER_RAIL_SPEED_MPS", 19.4), // ~70 km/h
		AirCruiseMps: getEnvAsFloat("PLANNER_AIR_CRUISE_MPS", 230.0),

		GroundLoadingOverhead: time.Duration(getEnvAsInt("PLANNER_GROUND_LOADING_MINUTES", 45)) * time.Minute,
		RailTerminalOverhead:  time.Duration(getEnvAsInt("PLANNER_RAIL_TERMINAL_MINUTES", 180)) * time.Minute,
		AirHandlingOverhead:   time.Duration(getEnvAsInt("PLANNER_AIR_HANDLING_MINUTES", 120)) * time.Minute,

		GroundCostPerKm: getEnvAsFloat("PLANNER_GROUND_COST_PER_KM", 28.0),
		GroundCostPerKg: getEnvAsFloat("PLANNER_GROUND_COST_PER_KG", 4.0),
		RailCostPerKm:   getEnvAsFloat("PLANNER_RAIL_COST_PER_KM", 12.0),
		RailCostPerKg:   getEnvAsFloat("PLANNER_RAIL_COST_PER_KG", 2.5),
		AirBaseFee:      getEnvAsFloat("PLANNER_AIR_BASE_FEE", 9000.0),
		AirCostPerKgKm:  getEnvAsFloat("PLANNER_AIR_COST_PER_KG_KM", 0.011),

		ReliabilityGround: getEnvAsFloat("PLANNER_RELIABILITY_GROUND", 0.97),
		ReliabilityRail:   getEnvAsFloat("PLANNER_RELIABILITY_RAIL", 0.94),
		ReliabilityAir:    getEnvAsFloat("PLANNER_RELIABILITY_AIR", 0.90),

		CommitmentWindow: time.Duration(getEnvAsInt("PLANNER_COMMITMENT_WINDOW_MINUTES", 2880)) * time.Minute,

		NearestNodeCount: getEnvAsInt("PLANNER_NEAREST_NODE_COUNT", 2),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if err := c.Planner.Validate(); err != nil {
		return err
	}

	if c.Stream.PollInterval <= 0 || c.Stream.ErrorRetryInterval <= 0 || c.Stream.HeartbeatInterval <= 0 {
		return fmt.Errorf("stream intervals must be positive")
	}

	return nil
}

// Validate validates the planner constants
func (p PlannerConfig) Validate() error {
	if p.RouteFactorGround < 1.0 || p.RouteFactorRail < 1.0 || p.RouteFactorAir < 1.0 {
		return fmt.Errorf("route inflation factors must be >= 1.0")
	}
	if p.RoadSpeedMps <= 0 || p.RailSpeedMps <= 0 || p.AirCruiseMps <= 0 {
		return fmt.Errorf("mode speeds must be positive")
	}
	for _, r := range []float64{p.ReliabilityGround, p.ReliabilityRail, p.ReliabilityAir} {
		if r <= 0 || r > 1 {
			return fmt.Errorf("reliability priors must be in (0, 1]")
		}
	}
	if p.NearestNodeCount < 1 {
		return fmt.Errorf("PLANNER_NEAREST_NODE_COUNT must be at least 1")
	}
	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
