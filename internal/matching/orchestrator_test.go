package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel/expert-match/internal/db"
	"github.com/daniel/expert-match/internal/graph"
	"github.com/daniel/expert-match/internal/types"
)

type fakeStore struct {
	cases       map[string]types.Case
	doctors     []types.Doctor
	facilities  []types.Facility
	rosters     map[string][]string
	experiences map[string][]types.ClinicalExperience

	savedEmbeddings map[string][]float32
	persisted       map[string][]types.DoctorMatch
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cases:           map[string]types.Case{},
		rosters:         map[string][]string{},
		experiences:     map[string][]types.ClinicalExperience{},
		savedEmbeddings: map[string][]float32{},
		persisted:       map[string][]types.DoctorMatch{},
	}
}

func (s *fakeStore) GetCase(ctx context.Context, caseID string) (*types.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *fakeStore) ListDoctors(ctx context.Context, filters db.DoctorFilters) ([]types.Doctor, error) {
	return s.doctors, nil
}

func (s *fakeStore) ListFacilities(ctx context.Context, filters db.FacilityFilters) ([]types.Facility, error) {
	return s.facilities, nil
}

func (s *fakeStore) FacilityRosters(ctx context.Context, facilityIDs []string) (map[string][]string, error) {
	return s.rosters, nil
}

func (s *fakeStore) GetExperiencesByDoctorIDs(ctx context.Context, doctorIDs []string) (map[string][]types.ClinicalExperience, error) {
	return s.experiences, nil
}

func (s *fakeStore) SaveCaseEmbedding(ctx context.Context, caseID string, vec []float32) error {
	s.savedEmbeddings[caseID] = vec
	return nil
}

func (s *fakeStore) ReplaceMatchesForCase(ctx context.Context, caseID string, matches []types.DoctorMatch) error {
	s.persisted[caseID] = matches
	return nil
}

// fakeGraph returns fixed sub-scores per doctor ID.
type fakeGraph struct {
	scores map[string]graph.SubScores
}

func (f *fakeGraph) SubScores(ctx context.Context, doctorID string, c types.Case) graph.SubScores {
	return f.scores[doctorID]
}

type fakeEmbedder struct {
	vec []float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

const caseID = "65a1b2c3d4e5f60718293a4b"

func seedCase(s *fakeStore) {
	s.cases[caseID] = types.Case{
		ID:                caseID,
		ICD10Codes:        []string{"I21.9"},
		UrgencyLevel:      types.UrgencyHigh,
		RequiredSpecialty: "Cardiology",
		Embedding:         []float32{1, 0},
	}
}

func TestMatchDoctors_UnknownCase(t *testing.T) {
	o := New(newFakeStore(), &fakeGraph{}, nil, nil, Options{})

	_, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{})
	assert.ErrorIs(t, err, ErrCaseNotFound)

	_, err = o.MatchDoctors(context.Background(), "   ", types.MatchOptions{})
	assert.ErrorIs(t, err, ErrInvalidCaseID)
}

func TestMatchDoctors_EmptyCandidatePool(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	matches, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatchDoctors_RanksDescendingWithDenseRanks(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.doctors = []types.Doctor{
		{ID: "doc-a", Embedding: []float32{1, 0}},
		{ID: "doc-b", Embedding: []float32{1, 0}},
		{ID: "doc-c", Embedding: []float32{1, 0}},
	}
	g := &fakeGraph{scores: map[string]graph.SubScores{
		"doc-a": {ConditionExpertise: 0.5},
		"doc-b": {DirectRelationship: 1.0},
		"doc-c": {},
	}}
	o := New(s, g, nil, nil, Options{})

	matches, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "doc-b", matches[0].Doctor.ID)
	for i, m := range matches {
		assert.Equal(t, i+1, m.Rank, "ranks are dense and 1-based")
		if i > 0 {
			assert.LessOrEqual(t, m.Score.OverallScore, matches[i-1].Score.OverallScore)
		}
		assert.GreaterOrEqual(t, m.Score.OverallScore, 0.0)
		assert.LessOrEqual(t, m.Score.OverallScore, 100.0)
	}
}

func TestMatchDoctors_TieBreakByDoctorID(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.doctors = []types.Doctor{{ID: "doc-z"}, {ID: "doc-a"}, {ID: "doc-m"}}
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	matches, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "doc-a", matches[0].Doctor.ID)
	assert.Equal(t, "doc-m", matches[1].Doctor.ID)
	assert.Equal(t, "doc-z", matches[2].Doctor.ID)
}

func TestMatchDoctors_MinScoreFilter(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.doctors = []types.Doctor{
		{ID: "doc-strong", Embedding: []float32{1, 0}},
		{ID: "doc-weak"},
	}
	g := &fakeGraph{scores: map[string]graph.SubScores{
		"doc-strong": {DirectRelationship: 1.0},
	}}
	o := New(s, g, nil, nil, Options{})

	minScore := 50.0
	matches, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{MinScore: &minScore})
	require.NoError(t, err)

	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score.OverallScore, minScore)
	}
	require.Len(t, matches, 1)
	assert.Equal(t, "doc-strong", matches[0].Doctor.ID)
}

func TestMatchDoctors_TelehealthAndSpecialtyFilters(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.doctors = []types.Doctor{
		{ID: "doc-a", TelehealthEnabled: true, Specialties: []string{"Cardiology"}},
		{ID: "doc-b", TelehealthEnabled: false, Specialties: []string{"Cardiology"}},
		{ID: "doc-c", TelehealthEnabled: true, Specialties: []string{"Neurology"}},
	}
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	matches, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{
		RequireTelehealth:    true,
		PreferredSpecialties: []string{"cardiology"},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc-a", matches[0].Doctor.ID)
}

func TestMatchDoctors_TruncatesToMaxResults(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	for _, id := range []string{"doc-a", "doc-b", "doc-c", "doc-d"} {
		s.doctors = append(s.doctors, types.Doctor{ID: id})
	}
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	matches, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMatchDoctors_PersistsResults(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.doctors = []types.Doctor{{ID: "doc-a"}}
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	matches, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, matches, s.persisted[caseID])
}

func TestMatchDoctors_LazyEmbeddingIsCached(t *testing.T) {
	s := newFakeStore()
	c := types.Case{ID: caseID, ChiefComplaint: "Chest pain", RequiredSpecialty: "Cardiology"}
	s.cases[caseID] = c
	s.doctors = []types.Doctor{{ID: "doc-a", Embedding: []float32{1, 0}}}
	o := New(s, &fakeGraph{}, &fakeEmbedder{vec: []float32{1, 0}}, nil, Options{})

	_, err := o.MatchDoctors(context.Background(), caseID, types.MatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, s.savedEmbeddings[caseID])
}

func TestMatchDoctors_CancelledContext(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.doctors = []types.Doctor{{ID: "doc-a"}, {ID: "doc-b"}}
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.MatchDoctors(ctx, caseID, types.MatchOptions{})
	assert.Error(t, err)
}

func TestScoreDoctor_WorkedExample(t *testing.T) {
	s := newFakeStore()
	o := New(s, &fakeGraph{scores: map[string]graph.SubScores{
		"doc-a": {DirectRelationship: 1.0, SpecializationMatch: 1.0},
	}}, nil, nil, Options{})

	c := types.Case{ID: caseID, ICD10Codes: []string{"I21.9"}, RequiredSpecialty: "Cardiology"}
	d := types.Doctor{ID: "doc-a", Specialties: []string{"Cardiology"}}

	result, err := o.ScoreDoctor(context.Background(), c, d)
	require.NoError(t, err)

	// Vector unknown (no embeddings): weights 0.4/0.2 redistribute to
	// 2/3 and 1/3 over graph=1.0 and neutral history 0.5.
	assert.InDelta(t, 1.0, result.GraphRelationship, 1e-9)
	assert.InDelta(t, 100*(2.0/3.0*1.0+1.0/3.0*0.5), result.OverallScore, 0.01)

	again, err := o.ScoreDoctor(context.Background(), c, d)
	require.NoError(t, err)
	assert.Equal(t, result, again, "identical inputs yield identical scores")
}

func TestMatchFacilities_FiltersAndRanks(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.facilities = []types.Facility{
		{ID: "fac-a", Capabilities: []string{"ICU", "Cardiac Cath Lab"}, Capacity: 100, CurrentOccupancy: 20},
		{ID: "fac-b", Capabilities: []string{"ICU"}, Capacity: 100, CurrentOccupancy: 95},
		{ID: "fac-c", Capabilities: []string{"Imaging"}, Capacity: 0},
	}
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	matches, err := o.MatchFacilities(context.Background(), caseID, types.RoutingOptions{
		RequiredCapabilities: []string{"ICU"},
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "fac-a", matches[0].Facility.ID, "higher free capacity ranks first")
	assert.Equal(t, 1, matches[0].Rank)
	assert.Equal(t, 2, matches[1].Rank)
}

func TestMatchFacilities_UnknownCase(t *testing.T) {
	o := New(newFakeStore(), &fakeGraph{}, nil, nil, Options{})

	_, err := o.MatchFacilities(context.Background(), caseID, types.RoutingOptions{})
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestMatchFacilities_MaxDistanceFilter(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.facilities = []types.Facility{
		{ID: "fac-near", LocationLat: 40.73, LocationLon: -74.0, Capacity: 10},
		{ID: "fac-far", LocationLat: 34.05, LocationLon: -118.24, Capacity: 10},
	}
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	lat, lon, maxKm := 40.7128, -74.0060, 50.0
	matches, err := o.MatchFacilities(context.Background(), caseID, types.RoutingOptions{
		OriginLat: &lat, OriginLon: &lon, MaxDistanceKm: &maxKm,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "fac-near", matches[0].Facility.ID)
}

func TestPrioritizeCase(t *testing.T) {
	s := newFakeStore()
	seedCase(s)
	s.doctors = []types.Doctor{
		{ID: "doc-a", AvailabilityStatus: types.AvailabilityAvailable},
		{ID: "doc-b", AvailabilityStatus: types.AvailabilityBusy},
	}
	o := New(s, &fakeGraph{}, nil, nil, Options{})

	score, err := o.PrioritizeCase(context.Background(), caseID)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, score.Urgency, 1e-9)
	assert.InDelta(t, 0.5, score.Availability, 1e-9)
	assert.GreaterOrEqual(t, score.OverallScore, 0.0)
	assert.LessOrEqual(t, score.OverallScore, 100.0)
}

func TestPrioritizeCase_UnknownCase(t *testing.T) {
	o := New(newFakeStore(), &fakeGraph{}, nil, nil, Options{})

	_, err := o.PrioritizeCase(context.Background(), caseID)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}
