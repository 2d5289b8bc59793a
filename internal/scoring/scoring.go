// Package scoring combines component signals into bounded composite
// scores with reproducible formulas and audit rationales.
package scoring

import (
	"fmt"
	"strings"

	"github.com/daniel/expert-match/internal/graph"
	"github.com/daniel/expert-match/internal/types"
)

// Default weights for the doctor-match composite
const (
	vectorWeight     = 0.4
	graphWeight      = 0.4
	historicalWeight = 0.2
)

// MatchWeights configures the doctor-match composite. Weights should
// sum to 1.0.
type MatchWeights struct {
	Vector     float64 `json:"vector"`
	Graph      float64 `json:"graph"`
	Historical float64 `json:"historical"`
}

// DefaultMatchWeights returns the standard weighting.
func DefaultMatchWeights() MatchWeights {
	return MatchWeights{Vector: vectorWeight, Graph: graphWeight, Historical: historicalWeight}
}

// CompositeMatchScore combines the three doctor-match signals. The
// graph component is the maximum of the four sub-scores, so a single
// strong signal is not diluted by three weak ones. When the vector
// similarity is unknown its weight is redistributed proportionally
// over the remaining signals. When every signal is absent the result
// is 0 with an explicit no-evidence rationale. Zero graph sub-scores
// count as absence whether the graph is unreachable or simply holds no
// edges for the candidate; either way there is no relationship
// evidence to score.
func CompositeMatchScore(w MatchWeights, vector float64, vectorKnown bool, subScores graph.SubScores, historical float64, historicalKnown bool) types.ScoreResult {
	graphScore := subScores.Max()

	if !vectorKnown && graphScore == 0 && !historicalKnown {
		return types.ScoreResult{
			OverallScore: 0,
			Rationale:    "no evidence: no embedding, graph, or historical signal available",
		}
	}

	wv, wg, wh := w.Vector, w.Graph, w.Historical
	usedVector := vector
	if !vectorKnown {
		total := wv + wg + wh
		remaining := wg + wh
		if remaining > 0 {
			wg = wg / remaining * total
			wh = wh / remaining * total
		}
		wv = 0
		usedVector = 0
	}

	overall := 100 * clamp(wv*usedVector+wg*graphScore+wh*historical, 0, 1)

	var b strings.Builder
	if vectorKnown {
		fmt.Fprintf(&b, "vector %.3f×%.2f=%.3f; ", vector, wv, wv*vector)
	} else {
		b.WriteString("vector unknown (weight redistributed); ")
	}
	fmt.Fprintf(&b, "graph %.3f×%.2f=%.3f (max of direct=%.3f, condition=%.3f, specialization=%.3f, similar=%.3f); ",
		graphScore, wg, wg*graphScore,
		subScores.DirectRelationship, subScores.ConditionExpertise, subScores.SpecializationMatch, subScores.SimilarCases)
	fmt.Fprintf(&b, "historical %.3f×%.2f=%.3f; overall %.1f", historical, wh, wh*historical, overall)

	return types.ScoreResult{
		OverallScore:          overall,
		VectorSimilarity:      usedVector,
		GraphRelationship:     graphScore,
		HistoricalPerformance: historical,
		Rationale:             b.String(),
	}
}

// Default weights for the facility-route composite
const (
	complexityWeight = 0.3
	outcomesWeight   = 0.3
	capacityWeight   = 0.2
	geographicWeight = 0.2
)

// RouteWeights configures the facility-route composite.
type RouteWeights struct {
	Complexity float64 `json:"complexity"`
	Outcomes   float64 `json:"outcomes"`
	Capacity   float64 `json:"capacity"`
	Geographic float64 `json:"geographic"`
}

// DefaultRouteWeights returns the standard weighting.
func DefaultRouteWeights() RouteWeights {
	return RouteWeights{Complexity: complexityWeight, Outcomes: outcomesWeight, Capacity: capacityWeight, Geographic: geographicWeight}
}

// CompositeRouteScore combines the four facility-routing signals.
func CompositeRouteScore(w RouteWeights, complexity, outcomes, capacity, geographic float64) types.RouteScoreResult {
	overall := 100 * clamp(w.Complexity*complexity+w.Outcomes*outcomes+w.Capacity*capacity+w.Geographic*geographic, 0, 1)

	rationale := fmt.Sprintf(
		"complexity %.3f×%.2f=%.3f; outcomes %.3f×%.2f=%.3f; capacity %.3f×%.2f=%.3f; geographic %.3f×%.2f=%.3f; overall %.1f",
		complexity, w.Complexity, w.Complexity*complexity,
		outcomes, w.Outcomes, w.Outcomes*outcomes,
		capacity, w.Capacity, w.Capacity*capacity,
		geographic, w.Geographic, w.Geographic*geographic,
		overall,
	)

	return types.RouteScoreResult{
		OverallScore:       overall,
		ComplexityMatch:    complexity,
		HistoricalOutcomes: outcomes,
		Capacity:           capacity,
		Geographic:         geographic,
		Rationale:          rationale,
	}
}

// FacilityComplexityMatch compares the case's complexity proxy with
// the facility's capability depth: facilities equipped in proportion
// to the case's complexity score highest.
func FacilityComplexityMatch(c types.Case, f types.Facility) float64 {
	depth := float64(len(f.Capabilities)) / 10
	if depth > 1 {
		depth = 1
	}
	diff := ComplexityScore(c) - depth
	if diff < 0 {
		diff = -diff
	}
	return clamp(1-diff, 0, 1)
}

// CapacityScore derives the capacity signal from occupancy. A facility
// with zero or unknown capacity scores 0, never a division by zero.
func CapacityScore(capacity, currentOccupancy int) float64 {
	if capacity <= 0 {
		return 0
	}
	return clamp(1-float64(currentOccupancy)/float64(capacity), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
