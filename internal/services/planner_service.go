package services

import (
	"fmt"

	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/cargolink/fulfillment-backend/internal/models"
	"github.com/cargolink/fulfillment-backend/pkg/geo"
	"github.com/sirupsen/logrus"
)

// PlannerService generates and ranks candidate multi-modal itineraries.
// Generation is deterministic for a given catalog and configuration: the
// same request always yields the same candidates with the same keys.
type PlannerService struct {
	index     *NodeIndexService
	estimator *EstimatorService
	cfg       config.PlannerConfig
	logger    *logrus.Logger
}

// NewPlannerService creates a new planner service
func NewPlannerService(index *NodeIndexService, estimator *EstimatorService, cfg config.PlannerConfig, logger *logrus.Logger) *PlannerService {
	return &PlannerService{
		index:     index,
		estimator: estimator,
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateCandidates produces the scored, best-first ranking of candidate
// plans for a shipment. Candidates whose leg estimation fails are dropped,
// never surfaced with a zero score.
func (s *PlannerService) GenerateCandidates(req *models.PlanPreviewRequest) ([]models.CandidatePlanOption, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	options := []models.CandidatePlanOption{}

	// Direct road itinerary. Ground is the only mode that can run
	// door-to-door; rail and air legs start and end at transfer nodes.
	if direct, err := s.directGroundOption(req); err != nil {
		s.logger.WithError(err).Warn("Dropping direct ground candidate")
	} else {
		options = append(options, *direct)
	}

	// Via-node itineraries for each non-ground mode.
	for _, mode := range []models.TransportMode{models.ModeRail, models.ModeAir} {
		viaOptions, err := s.viaNodeOptions(req, mode)
		if err != nil {
			return nil, err
		}
		options = append(options, viaOptions...)
	}

	for i := range options {
		options[i].Score = ComputePlanScore(options[i].Breakdown, req.Objective)
	}
	SortOptionsBestFirst(options)

	s.logger.WithFields(logrus.Fields{
		"objective":  req.Objective,
		"candidates": len(options),
	}).Info("Candidate generation completed")

	return options, nil
}

// FindCandidate regenerates candidates for the given parameters and
// returns the one matching the key. Used by the commit flow.
func (s *PlannerService) FindCandidate(req *models.PlanPreviewRequest, key string) (*models.CandidatePlanOption, error) {
	options, err := s.GenerateCandidates(req)
	if err != nil {
		return nil, err
	}
	for i := range options {
		if options[i].Key == key {
			return &options[i], nil
		}
	}
	return nil, models.ErrInvalidInput(fmt.Sprintf("plan key %q does not match any generated candidate", key))
}

func (s *PlannerService) directGroundOption(req *models.PlanPreviewRequest) (*models.CandidatePlanOption, error) {
	segment, err := s.groundSegment("Road freight door-to-door", req.Origin, req.Destination, req.CargoWeightKg)
	if err != nil {
		return nil, err
	}

	segments := []models.CandidateSegment{*segment}
	return &models.CandidatePlanOption{
		Key:       "ground-direct",
		Label:     "Direct road",
		Segments:  segments,
		Breakdown: s.aggregate(segments),
	}, nil
}

func (s *PlannerService) viaNodeOptions(req *models.PlanPreviewRequest, mode models.TransportMode) ([]models.CandidatePlanOption, error) {
	originNodes, err := s.index.NearestNodes(req.Origin, mode, s.cfg.NearestNodeCount)
	if err != nil {
		return nil, err
	}
	destNodes, err := s.index.NearestNodes(req.Destination, mode, s.cfg.NearestNodeCount)
	if err != nil {
		return nil, err
	}

	options := []models.CandidatePlanOption{}
	for _, on := range originNodes {
		for _, dn := range destNodes {
			if on.Node.Code == dn.Node.Code {
				continue
			}

			option, err := s.buildViaOption(req, mode, on.Node, dn.Node)
			if err != nil {
				// A leg estimate failure drops the candidate, not the run.
				s.logger.WithError(err).WithFields(logrus.Fields{
					"mode": mode,
					"from": on.Node.Code,
					"to":   dn.Node.Code,
				}).Warn("Dropping via-node candidate")
				continue
			}
			options = append(options, *option)
		}
	}
	return options, nil
}

func (s *PlannerService) buildViaOption(req *models.PlanPreviewRequest, mode models.TransportMode, from, to models.TransferNode) (*models.CandidatePlanOption, error) {
	pickup, err := s.groundSegment("Pickup to "+from.Name, req.Origin, from.Point, req.CargoWeightKg)
	if err != nil {
		return nil, err
	}

	line, err := s.lineHaulSegment(mode, from, to, req.CargoWeightKg)
	if err != nil {
		return nil, err
	}

	delivery, err := s.groundSegment("Delivery from "+to.Name, to.Point, req.Destination, req.CargoWeightKg)
	if err != nil {
		return nil, err
	}

	segments := []models.CandidateSegment{*pickup, *line, *delivery}
	if len(segments) == 0 {
		return nil, fmt.Errorf("candidate has no segments")
	}

	modeLabel := "Rail"
	if mode == models.ModeAir {
		modeLabel = "Air"
	}

	return &models.CandidatePlanOption{
		Key:       fmt.Sprintf("%s-%s-%s", mode, from.Code, to.Code),
		Label:     fmt.Sprintf("%s via %s to %s", modeLabel, from.Code, to.Code),
		Segments:  segments,
		Breakdown: s.aggregate(segments),
	}, nil
}

func (s *PlannerService) groundSegment(title string, origin, destination geo.Point, weightKg float64) (*models.CandidateSegment, error) {
	estimate, err := s.estimator.EstimateLeg(models.ModeGround, origin, destination, weightKg)
	if err != nil {
		return nil, err
	}
	return &models.CandidateSegment{
		Mode:  models.ModeGround,
		Title: title,
		Ground: &models.GroundLegPlan{
			Origin:      origin,
			Destination: destination,
			Estimate:    estimate,
		},
	}, nil
}

func (s *PlannerService) lineHaulSegment(mode models.TransportMode, from, to models.TransferNode, weightKg float64) (*models.CandidateSegment, error) {
	estimate, err := s.estimator.EstimateLeg(mode, from.Point, to.Point, weightKg)
	if err != nil {
		return nil, err
	}

	segment := &models.CandidateSegment{Mode: mode}
	switch mode {
	case models.ModeRail:
		segment.Title = fmt.Sprintf("Rail freight %s to %s", from.Code, to.Code)
		segment.Rail = &models.RailLegPlan{
			OriginStation:      from.Code,
			DestinationStation: to.Code,
			Origin:             from.Point,
			Destination:        to.Point,
			Estimate:           estimate,
		}
	case models.ModeAir:
		segment.Title = fmt.Sprintf("Air cargo %s to %s", from.Code, to.Code)
		segment.Air = &models.AirLegPlan{
			OriginAirport:      from.Code,
			DestinationAirport: to.Code,
			Origin:             from.Point,
			Destination:        to.Point,
			Estimate:           estimate,
		}
	default:
		return nil, fmt.Errorf("unsupported line-haul mode %s", mode)
	}
	return segment, nil
}

// aggregate folds per-leg estimates into the candidate's score breakdown.
func (s *PlannerService) aggregate(segments []models.CandidateSegment) models.ScoreBreakdown {
	var totalSeconds, totalCost float64
	reliability := 1.0

	for _, seg := range segments {
		est := seg.Estimate()
		totalSeconds += est.DurationSeconds
		totalCost += est.EstimatedCost
		reliability *= s.reliabilityFor(seg.Mode)
	}

	etaMinutes := totalSeconds / 60
	penalty := etaMinutes - s.cfg.CommitmentWindow.Minutes()
	if penalty < 0 {
		penalty = 0
	}

	return models.ScoreBreakdown{
		ETAMinutes:         etaMinutes,
		EstimatedCost:      totalCost,
		Reliability:        reliability,
		PenaltyLateMinutes: penalty,
	}
}

func (s *PlannerService) reliabilityFor(mode models.TransportMode) float64 {
	switch mode {
	case models.ModeRail:
		return s.cfg.ReliabilityRail
	case models.ModeAir:
		return s.cfg.ReliabilityAir
	default:
		return s.cfg.ReliabilityGround
	}
}
