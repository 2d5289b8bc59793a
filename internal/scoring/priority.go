package scoring

import (
	"fmt"
	"strings"

	"github.com/daniel/expert-match/internal/types"
)

// Default weights for the priority composite
const (
	urgencyWeight      = 0.5
	complexityWeightP  = 0.3
	availabilityWeight = 0.2
)

// rareSpecialties drive the specialty-rarity part of the complexity
// proxy.
var rareSpecialties = map[string]bool{
	"neurosurgery":             true,
	"cardiothoracic surgery":   true,
	"transplant surgery":       true,
	"interventional radiology": true,
	"pediatric oncology":       true,
	"medical genetics":         true,
}

// UrgencyScore maps an urgency level onto [0,1].
func UrgencyScore(level types.UrgencyLevel) float64 {
	switch level {
	case types.UrgencyCritical:
		return 1.0
	case types.UrgencyHigh:
		return 0.75
	case types.UrgencyMedium:
		return 0.5
	case types.UrgencyLow:
		return 0.25
	default:
		return 0.5
	}
}

// ComplexityScore is a proxy built from the ICD-10 code count
// (saturating at five codes) and the rarity of the required specialty.
func ComplexityScore(c types.Case) float64 {
	codes := float64(len(c.ICD10Codes)) / 5
	if codes > 1 {
		codes = 1
	}

	specialty := strings.ToLower(strings.TrimSpace(c.RequiredSpecialty))
	var rarity float64
	switch {
	case specialty == "":
		rarity = 0
	case rareSpecialties[specialty]:
		rarity = 1.0
	default:
		rarity = 0.5
	}

	return clamp(0.7*codes+0.3*rarity, 0, 1)
}

// AvailabilityScore is the fraction of matched doctors currently
// available. No matched doctors scores 0.
func AvailabilityScore(doctors []types.Doctor) float64 {
	if len(doctors) == 0 {
		return 0
	}
	available := 0
	for _, d := range doctors {
		if d.AvailabilityStatus == types.AvailabilityAvailable {
			available++
		}
	}
	return float64(available) / float64(len(doctors))
}

// CompositePriorityScore combines urgency, complexity, and candidate
// availability into the queue priority for a case.
func CompositePriorityScore(c types.Case, matchedDoctors []types.Doctor) types.PriorityScore {
	urgency := UrgencyScore(c.UrgencyLevel)
	complexity := ComplexityScore(c)
	availability := AvailabilityScore(matchedDoctors)

	overall := 100 * clamp(urgencyWeight*urgency+complexityWeightP*complexity+availabilityWeight*availability, 0, 1)

	rationale := fmt.Sprintf(
		"urgency %.3f×%.2f=%.3f; complexity %.3f×%.2f=%.3f; availability %.3f×%.2f=%.3f; overall %.1f",
		urgency, urgencyWeight, urgencyWeight*urgency,
		complexity, complexityWeightP, complexityWeightP*complexity,
		availability, availabilityWeight, availabilityWeight*availability,
		overall,
	)

	return types.PriorityScore{
		OverallScore: overall,
		Urgency:      urgency,
		Complexity:   complexity,
		Availability: availability,
		Rationale:    rationale,
	}
}
