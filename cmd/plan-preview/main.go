// Command plan-preview runs candidate generation and scoring from the
// command line without a database, for tuning estimator parameters.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/cargolink/fulfillment-backend/internal/services"
	"github.com/cargolink/fulfillment-backend/pkg/geo"
	"github.com/sirupsen/logrus"
)

func main() {
	originLat := flag.Float64("origin-lat", 19.0760, "origin latitude")
	originLon := flag.Float64("origin-lon", 72.8777, "origin longitude")
	destLat := flag.Float64("dest-lat", 28.6139, "destination latitude")
	destLon := flag.Float64("dest-lon", 77.2090, "destination longitude")
	weight := flag.Float64("weight-kg", 500, "cargo weight in kg")
	objective := flag.String("objective", "balanced", "scoring objective: balanced, fastest, cheapest, revenue")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})
	logger.SetOutput(os.Stderr)

	plannerCfg, err := config.LoadPlanner()
	if err != nil {
		logger.Fatalf("Failed to load planner configuration: %v", err)
	}

	nodeIndex := services.NewNodeIndexService(services.DefaultTransferNodes())
	estimator := services.NewEstimatorService(plannerCfg)
	planner := services.NewPlannerService(nodeIndex, estimator, plannerCfg, logger)

	req := &models.PlanPreviewRequest{
		Origin:        geo.Point{Lat: *originLat, Lon: *originLon},
		Destination:   geo.Point{Lat: *destLat, Lon: *destLon},
		CargoWeightKg: *weight,
		Objective:     models.PlanObjective(*objective),
	}

	options, err := planner.GenerateCandidates(req)
	if err != nil {
		logger.Fatalf("Candidate generation failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(options); err != nil {
		logger.Fatalf("Failed to encode output: %v", err)
	}
}
