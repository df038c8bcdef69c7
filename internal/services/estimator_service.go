package services

import (
	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/cargolink/fulfillment-backend/pkg/geo"
)

// EstimatorService computes deterministic per-mode leg estimates. All
// methods are pure against the configured constants; identical inputs
// always produce identical estimates, which the commit flow relies on.
type EstimatorService struct {
	cfg config.PlannerConfig
}

// NewEstimatorService creates a new estimator from planner configuration.
func NewEstimatorService(cfg config.PlannerConfig) *EstimatorService {
	return &EstimatorService{cfg: cfg}
}

// EstimateLeg estimates one leg of the given mode between two points.
// Invalid coordinates and non-positive weight are rejected rather than
// clamped, so bad data cannot silently poison a ranking. Identical
// endpoints yield a near-zero, non-negative estimate.
func (s *EstimatorService) EstimateLeg(mode models.TransportMode, origin, destination geo.Point, cargoWeightKg float64) (models.LegEstimate, error) {
	if err := origin.Validate(); err != nil {
		return models.LegEstimate{}, models.ErrInvalidInput("invalid origin: " + err.Error())
	}
	if err := destination.Validate(); err != nil {
		return models.LegEstimate{}, models.ErrInvalidInput("invalid destination: " + err.Error())
	}
	if cargoWeightKg <= 0 {
		return models.LegEstimate{}, models.ErrInvalidInput("cargo weight must be positive")
	}

	base := geo.Haversine(origin, destination)

	switch mode {
	case models.ModeGround:
		return s.estimateGround(base, cargoWeightKg), nil
	case models.ModeRail:
		return s.estimateRail(base, cargoWeightKg), nil
	case models.ModeAir:
		return s.estimateAir(base, cargoWeightKg), nil
	}
	return models.LegEstimate{}, models.ErrInvalidInput("unsupported transport mode: " + string(mode))
}

func (s *EstimatorService) estimateGround(baseMeters, weightKg float64) models.LegEstimate {
	distance := baseMeters * s.cfg.RouteFactorGround
	duration := distance/s.cfg.RoadSpeedMps + s.cfg.GroundLoadingOverhead.Seconds()
	cost := s.cfg.GroundCostPerKm*(distance/1000) + s.cfg.GroundCostPerKg*weightKg

	return models.LegEstimate{
		DistanceMeters:  distance,
		DurationSeconds: duration,
		EstimatedCost:   cost,
	}
}

func (s *EstimatorService) estimateRail(baseMeters, weightKg float64) models.LegEstimate {
	// Rail routes deviate further from the geodesic than roads on average.
	distance := baseMeters * s.cfg.RouteFactorRail
	duration := distance/s.cfg.RailSpeedMps + s.cfg.RailTerminalOverhead.Seconds()
	cost := s.cfg.RailCostPerKm*(distance/1000) + s.cfg.RailCostPerKg*weightKg

	return models.LegEstimate{
		DistanceMeters:  distance,
		DurationSeconds: duration,
		EstimatedCost:   cost,
	}
}

func (s *EstimatorService) estimateAir(baseMeters, weightKg float64) models.LegEstimate {
	// Flight paths are near-geodesic.
	distance := baseMeters * s.cfg.RouteFactorAir
	duration := distance/s.cfg.AirCruiseMps + s.cfg.AirHandlingOverhead.Seconds()
	cost := s.cfg.AirBaseFee + s.cfg.AirCostPerKgKm*weightKg*(distance/1000)

	return models.LegEstimate{
		DistanceMeters:  distance,
		DurationSeconds: duration,
		EstimatedCost:   cost,
	}
}
