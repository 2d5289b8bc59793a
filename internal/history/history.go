// Package history turns a candidate's past clinical outcomes into one
// bounded performance signal.
package history

import (
	"strings"

	"github.com/daniel/expert-match/internal/types"
)

const (
	ratingWeight  = 0.6
	successWeight = 0.4

	// defaultRating stands in for experiences recorded without a rating.
	defaultRating = 2.5

	// complicationPenalty is subtracted per recorded complication.
	complicationPenalty = 0.05

	// neutralScore is returned for an empty history: absence of history
	// is not evidence of poor performance.
	neutralScore = 0.5
)

// successOutcomes are the categorical outcomes counted as successes.
var successOutcomes = map[string]bool{
	"SUCCESS":  true,
	"IMPROVED": true,
	"STABLE":   true,
}

// Score aggregates clinical experiences into a [0,1] performance
// signal. Higher ratings and more successful outcomes increase the
// score; recorded complications reduce it.
func Score(experiences []types.ClinicalExperience) float64 {
	if len(experiences) == 0 {
		return neutralScore
	}

	var ratingSum float64
	var successes int
	var complications int
	for _, e := range experiences {
		if e.Rating != nil {
			ratingSum += float64(*e.Rating)
		} else {
			ratingSum += defaultRating
		}
		if successOutcomes[strings.ToUpper(strings.TrimSpace(e.Outcome))] {
			successes++
		}
		complications += len(e.Complications)
	}

	n := float64(len(experiences))
	avgRating := ratingSum / n
	normalizedRating := (avgRating - 1) / 4
	successRate := float64(successes) / n

	score := ratingWeight*normalizedRating + successWeight*successRate
	score -= complicationPenalty * float64(complications)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
