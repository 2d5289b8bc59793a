package types

import "strings"

// AvailabilityStatus values used on doctors.
const (
	AvailabilityAvailable   = "AVAILABLE"
	AvailabilityBusy        = "BUSY"
	AvailabilityUnavailable = "UNAVAILABLE"
)

// Doctor represents a candidate specialist. Doctor IDs are external
// system identifiers (UUIDs, 19-digit numeric strings, or other
// formats up to 74 characters). Snapshots are read-only during a
// scoring pass.
type Doctor struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email,omitempty"`
	Specialties        []string `json:"specialties"`
	Certifications     []string `json:"certifications,omitempty"`
	FacilityIDs        []string `json:"facility_ids,omitempty"`
	TelehealthEnabled  bool     `json:"telehealth_enabled"`
	AvailabilityStatus string   `json:"availability_status,omitempty"`

	// Embedding is the precomputed profile embedding, if present.
	Embedding []float32 `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the doctor carries a stored embedding.
func (d *Doctor) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// HasSpecialty reports whether the doctor lists the given specialty
// (case-insensitive).
func (d *Doctor) HasSpecialty(specialty string) bool {
	for _, s := range d.Specialties {
		if strings.EqualFold(s, specialty) {
			return true
		}
	}
	return false
}

// AffiliatedWith reports whether the doctor is affiliated with any of
// the given facility IDs.
func (d *Doctor) AffiliatedWith(facilityIDs []string) bool {
	for _, want := range facilityIDs {
		for _, have := range d.FacilityIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Facility represents a candidate care facility. Facility IDs use the
// same external formats as doctor IDs.
type Facility struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	FacilityType     string   `json:"facility_type,omitempty"`
	Capabilities     []string `json:"capabilities,omitempty"`
	Capacity         int      `json:"capacity,omitempty"`
	CurrentOccupancy int      `json:"current_occupancy,omitempty"`
	LocationLat      float64  `json:"location_lat,omitempty"`
	LocationLon      float64  `json:"location_lon,omitempty"`
}

// HasCapabilities reports whether the facility provides every one of
// the required capabilities (case-insensitive).
func (f *Facility) HasCapabilities(required []string) bool {
	for _, want := range required {
		found := false
		for _, have := range f.Capabilities {
			if strings.EqualFold(have, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
