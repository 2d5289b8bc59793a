package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daniel/expert-match/internal/types"
)

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))

	ctx = WithCorrelationID(ctx, "abc-123")
	assert.Equal(t, "abc-123", CorrelationID(ctx))
}

func TestNewCorrelationID_Unique(t *testing.T) {
	assert.NotEqual(t, NewCorrelationID(), NewCorrelationID())
}

func TestPrinter_PrintDoctorMatches(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDoctorMatches("65a1b2c3d4e5f60718293a4b", []types.DoctorMatch{
		{Doctor: types.Doctor{ID: "doc-1", Name: "Dr. Chen"}, Rank: 1, Score: types.ScoreResult{OverallScore: 80}},
	})

	out := buf.String()
	assert.Contains(t, out, "Dr. Chen")
	assert.Contains(t, out, "80.0")
}

func TestPrinter_PrintDoctorMatches_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDoctorMatches("65a1b2c3d4e5f60718293a4b", nil)

	assert.Contains(t, buf.String(), "No candidates passed the filters.")
}

func TestPrinter_PrintPriority(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintPriority("65a1b2c3d4e5f60718293a4b", types.PriorityScore{
		OverallScore: 75, Urgency: 0.75, Complexity: 0.5, Availability: 1.0,
	})

	out := buf.String()
	assert.Contains(t, out, "75.0")
	assert.Contains(t, out, "Urgency")
}
