package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCaseID_TrimAndLower(t *testing.T) {
	assert.Equal(t, "65a1b2c3d4e5f60718293a4b", NormalizeCaseID("  65A1B2C3D4E5F60718293A4B "))
	assert.Equal(t, "", NormalizeCaseID("   "))
}

func TestCase_HasEmbedding(t *testing.T) {
	c := Case{}
	assert.False(t, c.HasEmbedding())

	c.Embedding = []float32{0.1, 0.2}
	assert.True(t, c.HasEmbedding())
}

func TestDoctor_HasSpecialty_CaseInsensitive(t *testing.T) {
	d := Doctor{Specialties: []string{"Cardiology", "Internal Medicine"}}

	assert.True(t, d.HasSpecialty("cardiology"))
	assert.True(t, d.HasSpecialty("INTERNAL MEDICINE"))
	assert.False(t, d.HasSpecialty("Neurology"))
}

func TestDoctor_AffiliatedWith(t *testing.T) {
	d := Doctor{FacilityIDs: []string{"fac-1", "fac-2"}}

	assert.True(t, d.AffiliatedWith([]string{"fac-2", "fac-9"}))
	assert.False(t, d.AffiliatedWith([]string{"fac-9"}))
	assert.False(t, d.AffiliatedWith(nil))
}

func TestFacility_HasCapabilities(t *testing.T) {
	f := Facility{Capabilities: []string{"ICU", "Cardiac Cath Lab"}}

	assert.True(t, f.HasCapabilities(nil))
	assert.True(t, f.HasCapabilities([]string{"icu"}))
	assert.True(t, f.HasCapabilities([]string{"ICU", "cardiac cath lab"}))
	assert.False(t, f.HasCapabilities([]string{"ICU", "MRI"}))
}

func TestMatchOptions_Normalized_DefaultsMaxResults(t *testing.T) {
	assert.Equal(t, DefaultMaxDoctorResults, MatchOptions{}.Normalized().MaxResults)
	assert.Equal(t, DefaultMaxDoctorResults, MatchOptions{MaxResults: -3}.Normalized().MaxResults)
	assert.Equal(t, 25, MatchOptions{MaxResults: 25}.Normalized().MaxResults)
}

func TestRoutingOptions_Normalized_DefaultsMaxResults(t *testing.T) {
	assert.Equal(t, DefaultMaxFacilityResults, RoutingOptions{}.Normalized().MaxResults)
	assert.Equal(t, 3, RoutingOptions{MaxResults: 3}.Normalized().MaxResults)
}
