// Package matching orchestrates the end-to-end case-to-expert
// matching, routing, and prioritization calls.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/daniel/expert-match/internal/db"
	"github.com/daniel/expert-match/internal/embedding"
	"github.com/daniel/expert-match/internal/graph"
	"github.com/daniel/expert-match/internal/history"
	"github.com/daniel/expert-match/internal/scoring"
	"github.com/daniel/expert-match/internal/types"
)

// Sentinel errors for caller-visible validation failures. Everything
// else degrades to neutral or zero component scores.
var (
	ErrInvalidCaseID = errors.New("invalid case id")
	ErrCaseNotFound  = errors.New("case not found")
)

// Store is the persistence surface the orchestrator consumes. All
// batch methods take a list and return a map keyed by id.
type Store interface {
	GetCase(ctx context.Context, caseID string) (*types.Case, error)
	ListDoctors(ctx context.Context, filters db.DoctorFilters) ([]types.Doctor, error)
	ListFacilities(ctx context.Context, filters db.FacilityFilters) ([]types.Facility, error)
	FacilityRosters(ctx context.Context, facilityIDs []string) (map[string][]string, error)
	GetExperiencesByDoctorIDs(ctx context.Context, doctorIDs []string) (map[string][]types.ClinicalExperience, error)
	SaveCaseEmbedding(ctx context.Context, caseID string, vec []float32) error
	ReplaceMatchesForCase(ctx context.Context, caseID string, matches []types.DoctorMatch) error
}

// GraphScorer computes the relationship sub-scores for one candidate.
type GraphScorer interface {
	SubScores(ctx context.Context, doctorID string, c types.Case) graph.SubScores
}

// Options tunes the orchestrator. Zero values take defaults.
type Options struct {
	Workers      int
	MatchWeights scoring.MatchWeights
	RouteWeights scoring.RouteWeights
	Logger       *slog.Logger
}

// Orchestrator wires the scorers, the store, and the embedding
// backend into the exposed matching operations.
type Orchestrator struct {
	store        Store
	graphScorer  GraphScorer
	embedder     embedding.Embedder
	describer    embedding.Describer
	weights      scoring.MatchWeights
	routeWeights scoring.RouteWeights
	workers      int
	logger       *slog.Logger
}

// New builds an orchestrator. The embedder and describer may be nil;
// the vector signal is then unknown and its weight redistributed.
func New(store Store, graphScorer GraphScorer, embedder embedding.Embedder, describer embedding.Describer, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.MatchWeights == (scoring.MatchWeights{}) {
		opts.MatchWeights = scoring.DefaultMatchWeights()
	}
	if opts.RouteWeights == (scoring.RouteWeights{}) {
		opts.RouteWeights = scoring.DefaultRouteWeights()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		store:        store,
		graphScorer:  graphScorer,
		embedder:     embedder,
		describer:    describer,
		weights:      opts.MatchWeights,
		routeWeights: opts.RouteWeights,
		workers:      opts.Workers,
		logger:       opts.Logger,
	}
}

// loadCase validates and loads a case; unknown or malformed ids are
// the only caller-visible errors in the matching paths.
func (o *Orchestrator) loadCase(ctx context.Context, caseID string) (types.Case, error) {
	id := types.NormalizeCaseID(caseID)
	if id == "" {
		return types.Case{}, fmt.Errorf("%w: %q", ErrInvalidCaseID, caseID)
	}
	c, err := o.store.GetCase(ctx, id)
	if err != nil {
		return types.Case{}, fmt.Errorf("failed to load case %s: %w", id, err)
	}
	if c == nil {
		return types.Case{}, fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}
	return *c, nil
}

// caseVector resolves the case embedding: the stored vector first,
// otherwise one generated from the case text and cached on the case.
// ok is false when no vector could be obtained; the vector signal is
// then unknown, never zero.
func (o *Orchestrator) caseVector(ctx context.Context, c types.Case) ([]float32, bool) {
	if c.HasEmbedding() {
		return c.Embedding, true
	}
	if o.embedder == nil {
		return nil, false
	}

	text := embedding.TextForCase(ctx, c, o.describer, o.logger)
	vec, err := o.embedder.Embed(ctx, text)
	if err != nil {
		o.logger.Warn("case embedding failed, vector signal unknown", "case_id", c.ID, "error", err)
		return nil, false
	}

	if err := o.store.SaveCaseEmbedding(ctx, c.ID, vec); err != nil {
		o.logger.Warn("failed to cache case embedding", "case_id", c.ID, "error", err)
	}
	return vec, true
}

// MatchDoctors scores and ranks candidate doctors for a case. An
// empty result list is a valid outcome, not an error.
func (o *Orchestrator) MatchDoctors(ctx context.Context, caseID string, opts types.MatchOptions) ([]types.DoctorMatch, error) {
	c, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	opts = opts.Normalized()

	candidates, err := o.store.ListDoctors(ctx, db.DoctorFilters{Specialty: c.RequiredSpecialty})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate doctors: %w", err)
	}
	if len(candidates) == 0 {
		return []types.DoctorMatch{}, nil
	}

	caseVec, caseVecKnown := o.caseVector(ctx, c)

	doctorIDs := make([]string, len(candidates))
	for i, d := range candidates {
		doctorIDs[i] = d.ID
	}
	experiences, err := o.store.GetExperiencesByDoctorIDs(ctx, doctorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load clinical histories: %w", err)
	}

	scores := make([]types.ScoreResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, d := range candidates {
		g.Go(func() error {
			// Cancellation is checked before the graph traversal, the
			// only backend call in this task.
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = o.scoreDoctor(gctx, c, d, caseVec, caseVecKnown, experiences[d.ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("doctor scoring interrupted: %w", err)
	}

	matches := make([]types.DoctorMatch, 0, len(candidates))
	for i, d := range candidates {
		if !passesMatchFilters(d, scores[i], opts) {
			continue
		}
		matches = append(matches, types.DoctorMatch{Doctor: d, Score: scores[i], Rationale: scores[i].Rationale})
	}

	rankDoctorMatches(matches)
	if len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}

	if err := o.store.ReplaceMatchesForCase(ctx, c.ID, matches); err != nil {
		o.logger.Warn("failed to persist consultation matches", "case_id", c.ID, "error", err)
	}
	return matches, nil
}

func (o *Orchestrator) scoreDoctor(ctx context.Context, c types.Case, d types.Doctor, caseVec []float32, caseVecKnown bool, exps []types.ClinicalExperience) types.ScoreResult {
	var vector float64
	vectorKnown := false
	if caseVecKnown && d.HasEmbedding() {
		vector, vectorKnown = embedding.Similarity(caseVec, [][]float32{d.Embedding})
	}

	subScores := o.graphScorer.SubScores(ctx, d.ID, c)
	historical := history.Score(exps)

	return scoring.CompositeMatchScore(o.weights, vector, vectorKnown, subScores, historical, len(exps) > 0)
}

// ScoreDoctor computes the composite score for one case/doctor pair,
// used for explainability independent of ranking.
func (o *Orchestrator) ScoreDoctor(ctx context.Context, c types.Case, d types.Doctor) (types.ScoreResult, error) {
	experiences, err := o.store.GetExperiencesByDoctorIDs(ctx, []string{d.ID})
	if err != nil {
		return types.ScoreResult{}, fmt.Errorf("failed to load clinical history: %w", err)
	}
	caseVec, caseVecKnown := o.caseVector(ctx, c)
	return o.scoreDoctor(ctx, c, d, caseVec, caseVecKnown, experiences[d.ID]), nil
}

func passesMatchFilters(d types.Doctor, score types.ScoreResult, opts types.MatchOptions) bool {
	if opts.MinScore != nil && score.OverallScore < *opts.MinScore {
		return false
	}
	if opts.RequireTelehealth && !d.TelehealthEnabled {
		return false
	}
	if len(opts.PreferredSpecialties) > 0 {
		found := false
		for _, s := range opts.PreferredSpecialties {
			if d.HasSpecialty(s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(opts.PreferredFacilityIDs) > 0 && !d.AffiliatedWith(opts.PreferredFacilityIDs) {
		return false
	}
	return true
}

// rankDoctorMatches sorts descending by overall score with doctor-ID
// tie break and assigns dense 1-based ranks.
func rankDoctorMatches(matches []types.DoctorMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score.OverallScore != matches[j].Score.OverallScore {
			return matches[i].Score.OverallScore > matches[j].Score.OverallScore
		}
		return matches[i].Doctor.ID < matches[j].Doctor.ID
	})
	for i := range matches {
		matches[i].Rank = i + 1
	}
}

// MatchFacilities scores and ranks candidate facilities for a case.
func (o *Orchestrator) MatchFacilities(ctx context.Context, caseID string, opts types.RoutingOptions) ([]types.FacilityMatch, error) {
	c, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	opts = opts.Normalized()

	facilities, err := o.store.ListFacilities(ctx, db.FacilityFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate facilities: %w", err)
	}
	if len(facilities) == 0 {
		return []types.FacilityMatch{}, nil
	}

	facilityIDs := make([]string, len(facilities))
	for i, f := range facilities {
		facilityIDs[i] = f.ID
	}
	rosters, err := o.store.FacilityRosters(ctx, facilityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load facility rosters: %w", err)
	}

	var allDoctorIDs []string
	for _, roster := range rosters {
		allDoctorIDs = append(allDoctorIDs, roster...)
	}
	experiences := map[string][]types.ClinicalExperience{}
	if len(allDoctorIDs) > 0 {
		experiences, err = o.store.GetExperiencesByDoctorIDs(ctx, allDoctorIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load clinical histories: %w", err)
		}
	}

	matches := make([]types.FacilityMatch, 0, len(facilities))
	for _, f := range facilities {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("facility scoring interrupted: %w", err)
		}
		score := o.scoreFacility(c, f, rosterExperiences(rosters[f.ID], experiences), opts)
		if !passesRouteFilters(f, score, opts) {
			continue
		}
		matches = append(matches, types.FacilityMatch{Facility: f, Score: score, Rationale: score.Rationale})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score.OverallScore != matches[j].Score.OverallScore {
			return matches[i].Score.OverallScore > matches[j].Score.OverallScore
		}
		return matches[i].Facility.ID < matches[j].Facility.ID
	})
	for i := range matches {
		matches[i].Rank = i + 1
	}
	if len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}
	return matches, nil
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func rosterExperiences(roster []string, all map[string][]types.ClinicalExperience) []types.ClinicalExperience {
	var out []types.ClinicalExperience
	for _, doctorID := range roster {
		out = append(out, all[doctorID]...)
	}
	return out
}

func (o *Orchestrator) scoreFacility(c types.Case, f types.Facility, exps []types.ClinicalExperience, opts types.RoutingOptions) types.RouteScoreResult {
	complexity := scoring.FacilityComplexityMatch(c, f)
	outcomes := history.Score(exps)
	capacity := scoring.CapacityScore(f.Capacity, f.CurrentOccupancy)
	geographic := scoring.GeographicScore(opts.OriginLat, opts.OriginLon, f.LocationLat, f.LocationLon, opts.MaxDistanceKm)
	return scoring.CompositeRouteScore(o.routeWeights, complexity, outcomes, capacity, geographic)
}

// ScoreFacility computes the composite routing score for one
// case/facility pair.
func (o *Orchestrator) ScoreFacility(ctx context.Context, c types.Case, f types.Facility, opts types.RoutingOptions) (types.RouteScoreResult, error) {
	rosters, err := o.store.FacilityRosters(ctx, []string{f.ID})
	if err != nil {
		return types.RouteScoreResult{}, fmt.Errorf("failed to load facility roster: %w", err)
	}
	experiences := map[string][]types.ClinicalExperience{}
	if roster := rosters[f.ID]; len(roster) > 0 {
		experiences, err = o.store.GetExperiencesByDoctorIDs(ctx, roster)
		if err != nil {
			return types.RouteScoreResult{}, fmt.Errorf("failed to load clinical histories: %w", err)
		}
	}
	return o.scoreFacility(c, f, rosterExperiences(rosters[f.ID], experiences), opts), nil
}

func passesRouteFilters(f types.Facility, score types.RouteScoreResult, opts types.RoutingOptions) bool {
	if opts.MinScore != nil && score.OverallScore < *opts.MinScore {
		return false
	}
	if len(opts.PreferredFacilityTypes) > 0 {
		found := false
		for _, ft := range opts.PreferredFacilityTypes {
			if equalFoldTrim(f.FacilityType, ft) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(opts.RequiredCapabilities) > 0 && !f.HasCapabilities(opts.RequiredCapabilities) {
		return false
	}
	if opts.MaxDistanceKm != nil && opts.OriginLat != nil && opts.OriginLon != nil &&
		!(f.LocationLat == 0 && f.LocationLon == 0) {
		d := scoring.HaversineKm(*opts.OriginLat, *opts.OriginLon, f.LocationLat, f.LocationLon)
		if d > *opts.MaxDistanceKm {
			return false
		}
	}
	return true
}

// PrioritizeCase computes the consultation-queue priority for a case
// from its urgency, complexity, and the availability of its candidate
// doctor pool.
func (o *Orchestrator) PrioritizeCase(ctx context.Context, caseID string) (types.PriorityScore, error) {
	c, err := o.loadCase(ctx, caseID)
	if err != nil {
		return types.PriorityScore{}, err
	}
	candidates, err := o.store.ListDoctors(ctx, db.DoctorFilters{Specialty: c.RequiredSpecialty})
	if err != nil {
		return types.PriorityScore{}, fmt.Errorf("failed to list candidate doctors: %w", err)
	}
	return scoring.CompositePriorityScore(c, candidates), nil
}
