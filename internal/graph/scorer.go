package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daniel/expert-match/internal/types"
)

// SubScores holds the four relationship signals for one candidate,
// each in [0,1].
type SubScores struct {
	DirectRelationship  float64 `json:"direct_relationship"`
	ConditionExpertise  float64 `json:"condition_expertise"`
	SpecializationMatch float64 `json:"specialization_match"`
	SimilarCases        float64 `json:"similar_cases"`
}

// Max returns the strongest of the four signals.
func (s SubScores) Max() float64 {
	m := s.DirectRelationship
	if s.ConditionExpertise > m {
		m = s.ConditionExpertise
	}
	if s.SpecializationMatch > m {
		m = s.SpecializationMatch
	}
	if s.SimilarCases > m {
		m = s.SimilarCases
	}
	return m
}

// Scorer computes relationship sub-scores via read-only graph
// traversals. Every method degrades to 0.0 when the graph is missing
// or a query fails; graph absence never aborts a match.
type Scorer struct {
	runner Runner
	logger *slog.Logger
}

// NewScorer builds a scorer over the given runner.
func NewScorer(runner Runner, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{runner: runner, logger: logger}
}

// SubScores computes all four signals for a doctor against a case. If
// the graph does not exist, all four are 0.0 without issuing the
// traversal queries.
func (s *Scorer) SubScores(ctx context.Context, doctorID string, c types.Case) SubScores {
	exists, err := s.runner.GraphExists(ctx)
	if err != nil {
		s.logger.Warn("graph existence check failed, scoring graph signals as zero",
			"doctor_id", doctorID, "case_id", c.ID, "error", err)
		return SubScores{}
	}
	if !exists {
		s.logger.Debug("graph not created, scoring graph signals as zero",
			"doctor_id", doctorID, "case_id", c.ID)
		return SubScores{}
	}

	return SubScores{
		DirectRelationship:  s.DirectRelationship(ctx, doctorID, c.ID),
		ConditionExpertise:  s.ConditionExpertise(ctx, doctorID, c.ICD10Codes),
		SpecializationMatch: s.SpecializationMatch(ctx, doctorID, c.RequiredSpecialty),
		SimilarCases:        s.SimilarCases(ctx, doctorID, c.ICD10Codes),
	}
}

// DirectRelationship is 1.0 when the doctor has a TREATED or
// CONSULTED_ON edge to the case, else 0.0.
func (s *Scorer) DirectRelationship(ctx context.Context, doctorID, caseID string) float64 {
	q := fmt.Sprintf(
		`MATCH (d:Doctor {id: '%s'})-[:TREATED|CONSULTED_ON]->(c:MedicalCase {id: '%s'}) RETURN count(*)`,
		EscapeString(doctorID), EscapeString(caseID),
	)
	n, ok := s.count(ctx, "direct_relationship", q)
	if ok && n > 0 {
		return 1.0
	}
	return 0.0
}

// ConditionExpertise is the fraction of the case's ICD-10 codes the
// doctor has a TREATS_CONDITION edge for. An empty code list scores
// 0.0.
func (s *Scorer) ConditionExpertise(ctx context.Context, doctorID string, icd10Codes []string) float64 {
	if len(icd10Codes) == 0 {
		return 0.0
	}
	q := fmt.Sprintf(
		`MATCH (d:Doctor {id: '%s'})-[:TREATS_CONDITION]->(i:ICD10Code) WHERE i.code IN %s RETURN count(DISTINCT i.code)`,
		EscapeString(doctorID), quotedList(icd10Codes),
	)
	n, ok := s.count(ctx, "condition_expertise", q)
	if !ok {
		return 0.0
	}
	frac := n / float64(len(icd10Codes))
	if frac > 1.0 {
		frac = 1.0
	}
	return frac
}

// SpecializationMatch is 1.0 for a SPECIALIZES_IN edge to the named
// specialty, 0.5 for a specialty related to it, else 0.0. An empty
// specialty name scores 0.0.
func (s *Scorer) SpecializationMatch(ctx context.Context, doctorID, specialty string) float64 {
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return 0.0
	}
	lowered := EscapeString(strings.ToLower(specialty))

	exact := fmt.Sprintf(
		`MATCH (d:Doctor {id: '%s'})-[:SPECIALIZES_IN]->(sp:MedicalSpecialty) WHERE toLower(sp.name) = '%s' RETURN count(*)`,
		EscapeString(doctorID), lowered,
	)
	if n, ok := s.count(ctx, "specialization_match", exact); ok && n > 0 {
		return 1.0
	}

	related := fmt.Sprintf(
		`MATCH (d:Doctor {id: '%s'})-[:SPECIALIZES_IN]->(:MedicalSpecialty)-[:RELATED_TO]-(other:MedicalSpecialty) WHERE toLower(other.name) = '%s' RETURN count(*)`,
		EscapeString(doctorID), lowered,
	)
	if n, ok := s.count(ctx, "specialization_related", related); ok && n > 0 {
		return 0.5
	}
	return 0.0
}

// SimilarCases maps the count of distinct prior cases sharing at least
// one ICD-10 code onto a step scale capped at 1.0.
func (s *Scorer) SimilarCases(ctx context.Context, doctorID string, icd10Codes []string) float64 {
	if len(icd10Codes) == 0 {
		return 0.0
	}
	q := fmt.Sprintf(
		`MATCH (d:Doctor {id: '%s'})-[:TREATED]->(c:MedicalCase)-[:HAS_CONDITION]->(i:ICD10Code) WHERE i.code IN %s RETURN count(DISTINCT c.id)`,
		EscapeString(doctorID), quotedList(icd10Codes),
	)
	n, ok := s.count(ctx, "similar_cases", q)
	if !ok {
		return 0.0
	}
	switch {
	case n <= 0:
		return 0.0
	case n == 1:
		return 0.5
	case n <= 5:
		return 0.75
	default:
		return 1.0
	}
}

// count runs a single-value count query; ok is false on any failure.
func (s *Scorer) count(ctx context.Context, signal, query string) (float64, bool) {
	rows, err := s.runner.Run(ctx, query)
	if err != nil {
		s.logger.Warn("graph query failed, scoring signal as zero", "signal", signal, "error", err)
		return 0, false
	}
	if len(rows) == 0 {
		return 0, true
	}
	n, err := asFloat(rows[0])
	if err != nil {
		s.logger.Warn("graph query returned non-numeric result", "signal", signal, "error", err)
		return 0, false
	}
	return n, true
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("unexpected agtype value %T", v)
	}
}
