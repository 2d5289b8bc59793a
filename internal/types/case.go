// Package types defines the shared domain types for the expert matching engine.
package types

import "strings"

// UrgencyLevel classifies how quickly a case needs attention.
type UrgencyLevel string

// Urgency levels, ordered from most to least urgent.
const (
	UrgencyCritical UrgencyLevel = "CRITICAL"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyLow      UrgencyLevel = "LOW"
)

// CaseType classifies the clinical setting of a case.
type CaseType string

// Case types.
const (
	CaseTypeInpatient  CaseType = "INPATIENT"
	CaseTypeOutpatient CaseType = "OUTPATIENT"
	CaseTypeEmergency  CaseType = "EMERGENCY"
	CaseTypeTelehealth CaseType = "TELEHEALTH"
)

// Case represents a medical case to be matched against candidate
// doctors and facilities. Case IDs are internal 24-character hex
// strings; identity never changes after creation.
type Case struct {
	ID                string       `json:"id"`
	PatientAge        int          `json:"patient_age"`
	ChiefComplaint    string       `json:"chief_complaint"`
	Symptoms          string       `json:"symptoms"`
	CurrentDiagnosis  string       `json:"current_diagnosis"`
	ICD10Codes        []string     `json:"icd10_codes"`
	UrgencyLevel      UrgencyLevel `json:"urgency_level"`
	RequiredSpecialty string       `json:"required_specialty"`
	CaseType          CaseType     `json:"case_type"`
	AdditionalNotes   string       `json:"additional_notes,omitempty"`
	AbstractText      string       `json:"abstract_text,omitempty"`

	// Embedding is the precomputed case embedding, if one has been
	// generated and stored. Nil means not yet computed.
	Embedding []float32 `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the case carries a stored embedding.
func (c *Case) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// NormalizeCaseID trims and lowercases a case identifier. Case IDs are
// 24-character hex strings and lookups are case-insensitive.
func NormalizeCaseID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ClinicalExperience links a doctor to a past case with its recorded
// outcome and metrics. Ratings are on a 1-5 scale; Rating is nil when
// no rating was recorded.
type ClinicalExperience struct {
	ID                  string   `json:"id"`
	DoctorID            string   `json:"doctor_id"`
	CaseID              string   `json:"case_id"`
	ProceduresPerformed []string `json:"procedures_performed,omitempty"`
	ComplexityLevel     string   `json:"complexity_level,omitempty"`
	Outcome             string   `json:"outcome,omitempty"`
	Complications       []string `json:"complications,omitempty"`
	TimeToResolution    int      `json:"time_to_resolution,omitempty"`
	Rating              *int     `json:"rating,omitempty"`
}
