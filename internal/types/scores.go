package types

// ScoreResult is the composite doctor-match score. OverallScore is in
// [0,100]; each component is in [0,1]. Identical inputs always produce
// an identical ScoreResult, rationale included.
type ScoreResult struct {
	OverallScore          float64 `json:"overall_score"`
	VectorSimilarity      float64 `json:"vector_similarity"`
	GraphRelationship     float64 `json:"graph_relationship"`
	HistoricalPerformance float64 `json:"historical_performance"`
	Rationale             string  `json:"rationale"`
}

// RouteScoreResult is the composite facility-routing score, same
// bounds as ScoreResult.
type RouteScoreResult struct {
	OverallScore       float64 `json:"overall_score"`
	ComplexityMatch    float64 `json:"complexity_match"`
	HistoricalOutcomes float64 `json:"historical_outcomes"`
	Capacity           float64 `json:"capacity"`
	Geographic         float64 `json:"geographic"`
	Rationale          string  `json:"rationale"`
}

// PriorityScore is the consultation-queue priority for a case.
type PriorityScore struct {
	OverallScore float64 `json:"overall_score"`
	Urgency      float64 `json:"urgency"`
	Complexity   float64 `json:"complexity"`
	Availability float64 `json:"availability"`
	Rationale    string  `json:"rationale"`
}

// DoctorMatch is one ranked doctor result. Rank is a dense 1-based
// ordinal assigned after sorting descending by overall score, ties
// broken by doctor ID ascending.
type DoctorMatch struct {
	Doctor    Doctor      `json:"doctor"`
	Score     ScoreResult `json:"score"`
	Rank      int         `json:"rank"`
	Rationale string      `json:"rationale"`
}

// FacilityMatch is one ranked facility result.
type FacilityMatch struct {
	Facility  Facility         `json:"facility"`
	Score     RouteScoreResult `json:"score"`
	Rank      int              `json:"rank"`
	Rationale string           `json:"rationale"`
}
