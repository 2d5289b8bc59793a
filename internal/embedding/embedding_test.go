package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel/expert-match/internal/types"
)

func TestCaseText_AllFields(t *testing.T) {
	c := types.Case{
		ChiefComplaint:    "Chest pain",
		Symptoms:          "Shortness of breath, diaphoresis",
		CurrentDiagnosis:  "Suspected acute MI",
		ICD10Codes:        []string{"I21.9", "I50.9"},
		RequiredSpecialty: "Cardiology",
	}

	text := CaseText(c)
	assert.Equal(t, "Chief complaint: Chest pain. Symptoms: Shortness of breath, diaphoresis. Diagnosis: Suspected acute MI. ICD-10 codes: I21.9, I50.9. Required specialty: Cardiology", text)

	// Deterministic: identical inputs yield identical text.
	assert.Equal(t, text, CaseText(c))
}

func TestCaseText_NeverEmpty(t *testing.T) {
	c := types.Case{ID: "65a1b2c3d4e5f60718293a4b"}
	assert.NotEmpty(t, CaseText(c))
}

func TestSimilarity_AverageOverPresentVectors(t *testing.T) {
	caseVec := []float32{1, 0}

	score, ok := Similarity(caseVec, [][]float32{
		{1, 0},  // identical: cosine 1 -> 1.0
		{-1, 0}, // opposite: cosine -1 -> 0.0
	})
	require.True(t, ok)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestSimilarity_SkipsMissingVectors(t *testing.T) {
	caseVec := []float32{1, 0}

	score, ok := Similarity(caseVec, [][]float32{
		nil,
		{1, 0},
		{0.5}, // dimension mismatch excluded too
	})
	require.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestSimilarity_UnknownWhenNoCandidateVectors(t *testing.T) {
	_, ok := Similarity([]float32{1, 0}, [][]float32{nil, nil})
	assert.False(t, ok)

	_, ok = Similarity(nil, [][]float32{{1, 0}})
	assert.False(t, ok)
}

func TestParseAbstract_Valid(t *testing.T) {
	abstract, err := ParseAbstract(`{"abstract": "Acute MI in a 62-year-old."}`)
	require.NoError(t, err)
	assert.Equal(t, "Acute MI in a 62-year-old.", abstract)
}

func TestParseAbstract_Invalid(t *testing.T) {
	_, err := ParseAbstract(`{"summary": "wrong key"}`)
	assert.Error(t, err)

	_, err = ParseAbstract(`{"abstract": ""}`)
	assert.Error(t, err)

	_, err = ParseAbstract(`not json at all`)
	assert.Error(t, err)
}

type fakeDescriber struct {
	text string
	err  error
}

func (f *fakeDescriber) Describe(ctx context.Context, c types.Case) (string, error) {
	return f.text, f.err
}

func TestTextForCase_PrefersStoredAbstract(t *testing.T) {
	c := types.Case{AbstractText: "Stored abstract", ChiefComplaint: "Chest pain"}

	text := TextForCase(context.Background(), c, &fakeDescriber{text: "generated"}, nil)
	assert.Equal(t, "Stored abstract", text)
}

func TestTextForCase_UsesDescriber(t *testing.T) {
	c := types.Case{ChiefComplaint: "Chest pain"}

	text := TextForCase(context.Background(), c, &fakeDescriber{text: "Generated abstract"}, nil)
	assert.Equal(t, "Generated abstract", text)
}

func TestTextForCase_FallsBackOnDescriberFailure(t *testing.T) {
	c := types.Case{ChiefComplaint: "Chest pain"}

	text := TextForCase(context.Background(), c, &fakeDescriber{err: errors.New("llm down")}, nil)
	assert.Equal(t, CaseText(c), text)

	text = TextForCase(context.Background(), c, nil, nil)
	assert.Equal(t, CaseText(c), text)
}
