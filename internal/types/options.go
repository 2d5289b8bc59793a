package types

// Default result limits applied when the caller does not set a
// positive MaxResults.
const (
	DefaultMaxDoctorResults   = 10
	DefaultMaxFacilityResults = 5
)

// MatchOptions constrains a doctor-matching request. A non-positive
// MaxResults silently substitutes DefaultMaxDoctorResults; it is not
// an error. MinScore is a threshold on the overall score ([0,100]);
// nil means no threshold.
type MatchOptions struct {
	MaxResults           int      `json:"max_results"`
	MinScore             *float64 `json:"min_score,omitempty"`
	PreferredSpecialties []string `json:"preferred_specialties,omitempty"`
	RequireTelehealth    bool     `json:"require_telehealth"`
	PreferredFacilityIDs []string `json:"preferred_facility_ids,omitempty"`
}

// Normalized returns a copy with defaults substituted for unset fields.
func (o MatchOptions) Normalized() MatchOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxDoctorResults
	}
	return o
}

// RoutingOptions constrains a facility-routing request. A non-positive
// MaxResults silently substitutes DefaultMaxFacilityResults.
// OriginLat/OriginLon give the patient location for the geographic
// signal; nil means location unknown.
type RoutingOptions struct {
	MaxResults             int      `json:"max_results"`
	MinScore               *float64 `json:"min_score,omitempty"`
	PreferredFacilityTypes []string `json:"preferred_facility_types,omitempty"`
	RequiredCapabilities   []string `json:"required_capabilities,omitempty"`
	MaxDistanceKm          *float64 `json:"max_distance_km,omitempty"`
	OriginLat              *float64 `json:"origin_lat,omitempty"`
	OriginLon              *float64 `json:"origin_lon,omitempty"`
}

// Normalized returns a copy with defaults substituted for unset fields.
func (o RoutingOptions) Normalized() RoutingOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxFacilityResults
	}
	return o
}
