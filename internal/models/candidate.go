package models

import "github.com/cargolink/fulfillment-backend/pkg/geo"

// LegEstimate is the deterministic estimate for one leg of an itinerary.
// All fields are non-negative; estimates are derived, never persisted.
type LegEstimate struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	EstimatedCost   float64 `json:"estimated_cost"`
}

// GroundLegPlan holds the planned parameters of a road leg.
type GroundLegPlan struct {
	Origin      geo.Point   `json:"origin"`
	Destination geo.Point   `json:"destination"`
	Estimate    LegEstimate `json:"estimate"`
}

// RailLegPlan holds the planned parameters of a rail leg between two stations.
type RailLegPlan struct {
	OriginStation      string      `json:"origin_station"`
	DestinationStation string      `json:"destination_station"`
	Origin             geo.Point   `json:"origin"`
	Destination        geo.Point   `json:"destination"`
	Estimate           LegEstimate `json:"estimate"`
}

// AirLegPlan holds the planned parameters of an air leg between two airports.
type AirLegPlan struct {
	OriginAirport      string      `json:"origin_airport"`
	DestinationAirport string      `json:"destination_airport"`
	Origin             geo.Point   `json:"origin"`
	Destination        geo.Point   `json:"destination"`
	Estimate           LegEstimate `json:"estimate"`
}

// CandidateSegment is one leg of a candidate itinerary. The planned
// parameters form a tagged union keyed by Mode: exactly one of Ground,
// Rail or Air is set, matching the mode.
type CandidateSegment struct {
	Mode   TransportMode  `json:"mode"`
	Title  string         `json:"title"`
	Ground *GroundLegPlan `json:"ground,omitempty"`
	Rail   *RailLegPlan   `json:"rail,omitempty"`
	Air    *AirLegPlan    `json:"air,omitempty"`
}

// Estimate returns the leg estimate for whichever plan variant is set.
func (s CandidateSegment) Estimate() LegEstimate {
	switch s.Mode {
	case ModeGround:
		if s.Ground != nil {
			return s.Ground.Estimate
		}
	case ModeRail:
		if s.Rail != nil {
			return s.Rail.Estimate
		}
	case ModeAir:
		if s.Air != nil {
			return s.Air.Estimate
		}
	}
	return LegEstimate{}
}

// ScoreBreakdown aggregates a candidate's per-leg estimates into the terms
// the scoring engine weighs.
type ScoreBreakdown struct {
	ETAMinutes         float64 `json:"eta_minutes"`
	EstimatedCost      float64 `json:"estimated_cost"`
	Reliability        float64 `json:"reliability"`
	PenaltyLateMinutes float64 `json:"penalty_late_minutes"`
}

// CandidatePlanOption is a scored itinerary option produced during
// generation. Options are ephemeral; only a committed option is persisted,
// as plan segments.
type CandidatePlanOption struct {
	Key       string             `json:"key"`
	Label     string             `json:"label"`
	Segments  []CandidateSegment `json:"segments"`
	Score     float64            `json:"score"`
	Breakdown ScoreBreakdown     `json:"breakdown"`
}
