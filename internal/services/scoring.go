package services

import (
	"sort"

	"github.com/cargolink/fulfillment-backend/internal/models"
)

// Normalization constants bringing the score terms onto comparable
// magnitudes: raw costs run in the thousands, ETAs in the hundreds of
// minutes, unreliability in [0,1]. These values are part of the ranking
// contract; changing them changes every historical ranking.
const (
	costScale          = 0.01
	unreliabilityScale = 400.0
	latePenaltyScale   = 1.5
)

// scoreWeights is one objective's weight vector over the four score
// terms. Each vector sums to 1.0.
type scoreWeights struct {
	time          float64
	cost          float64
	unreliability float64
	latePenalty   float64
}

func weightsFor(objective models.PlanObjective) scoreWeights {
	switch objective {
	case models.ObjectiveFastest:
		return scoreWeights{time: 0.60, cost: 0.10, unreliability: 0.15, latePenalty: 0.15}
	case models.ObjectiveCheapest:
		return scoreWeights{time: 0.10, cost: 0.65, unreliability: 0.15, latePenalty: 0.10}
	case models.ObjectiveRevenue:
		return scoreWeights{time: 0.15, cost: 0.50, unreliability: 0.20, latePenalty: 0.15}
	default: // balanced
		return scoreWeights{time: 0.35, cost: 0.30, unreliability: 0.20, latePenalty: 0.15}
	}
}

// ComputePlanScore reduces a score breakdown to a single number under the
// given objective. Lower is better.
func ComputePlanScore(b models.ScoreBreakdown, objective models.PlanObjective) float64 {
	unreliability := 1 - b.Reliability
	if unreliability < 0 {
		unreliability = 0
	}
	if unreliability > 1 {
		unreliability = 1
	}

	w := weightsFor(objective)
	return w.time*b.ETAMinutes +
		w.cost*b.EstimatedCost*costScale +
		w.unreliability*unreliability*unreliabilityScale +
		w.latePenalty*b.PenaltyLateMinutes*latePenaltyScale
}

// SortOptionsBestFirst orders candidates ascending by score. The sort is
// stable: equal-score candidates keep their generation order, so rankings
// are reproducible.
func SortOptionsBestFirst(options []models.CandidatePlanOption) {
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Score < options[j].Score
	})
}
