package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/daniel/expert-match/internal/observability"
	"github.com/daniel/expert-match/internal/types"
)

// asyncJobTimeout bounds background matching started by the async
// endpoint.
const asyncJobTimeout = 5 * time.Minute

// matchRequest is the payload for doctor matching. All fields are
// optional; a missing or empty body uses the defaults.
type matchRequest struct {
	MaxResults           int      `json:"max_results" validate:"gte=0,lte=100"`
	MinScore             *float64 `json:"min_score" validate:"omitempty,gte=0,lte=100"`
	PreferredSpecialties []string `json:"preferred_specialties" validate:"max=20"`
	RequireTelehealth    bool     `json:"require_telehealth"`
	PreferredFacilityIDs []string `json:"preferred_facility_ids" validate:"max=20"`
}

func (r matchRequest) options() types.MatchOptions {
	return types.MatchOptions{
		MaxResults:           r.MaxResults,
		MinScore:             r.MinScore,
		PreferredSpecialties: r.PreferredSpecialties,
		RequireTelehealth:    r.RequireTelehealth,
		PreferredFacilityIDs: r.PreferredFacilityIDs,
	}
}

// routeRequest is the payload for facility routing.
type routeRequest struct {
	MaxResults             int      `json:"max_results" validate:"gte=0,lte=100"`
	MinScore               *float64 `json:"min_score" validate:"omitempty,gte=0,lte=100"`
	PreferredFacilityTypes []string `json:"preferred_facility_types" validate:"max=20"`
	RequiredCapabilities   []string `json:"required_capabilities" validate:"max=20"`
	MaxDistanceKm          *float64 `json:"max_distance_km" validate:"omitempty,gt=0"`
	OriginLat              *float64 `json:"origin_lat" validate:"omitempty,gte=-90,lte=90"`
	OriginLon              *float64 `json:"origin_lon" validate:"omitempty,gte=-180,lte=180"`
}

func (r routeRequest) options() types.RoutingOptions {
	return types.RoutingOptions{
		MaxResults:             r.MaxResults,
		MinScore:               r.MinScore,
		PreferredFacilityTypes: r.PreferredFacilityTypes,
		RequiredCapabilities:   r.RequiredCapabilities,
		MaxDistanceKm:          r.MaxDistanceKm,
		OriginLat:              r.OriginLat,
		OriginLon:              r.OriginLon,
	}
}

// decodeBody parses an optional JSON body into dst and validates it.
func (s *Server) decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &ErrValidation{Field: "body", Message: "failed to read request body"}
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return &ErrValidation{Field: "body", Message: "invalid JSON"}
		}
	}
	if err := s.validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return &ErrValidation{Field: invalid[0].Field(), Message: invalid[0].Tag()}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caseID := r.PathValue("id")
	matches, err := s.matcher.MatchDoctors(r.Context(), caseID, req.options())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"case_id": types.NormalizeCaseID(caseID),
		"matches": matches,
	})
}

func (s *Server) handleMatchAsync(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caseID := r.PathValue("id")
	jobID := s.registry.Create("match")

	// The job outlives the request; carry only the correlation id over.
	ctx := observability.WithCorrelationID(context.Background(), observability.CorrelationID(r.Context()))
	go func() {
		ctx, cancel := context.WithTimeout(ctx, asyncJobTimeout)
		defer cancel()

		matches, err := s.matcher.MatchDoctors(ctx, caseID, req.options())
		if err != nil {
			observability.Logger(ctx, s.logger).Warn("async match failed", "job_id", jobID, "error", err)
			s.registry.Fail(jobID, err.Error())
			return
		}
		s.registry.Complete(jobID, matches)
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]any{"job_id": jobID})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caseID := r.PathValue("id")
	matches, err := s.matcher.MatchFacilities(r.Context(), caseID, req.options())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"case_id": types.NormalizeCaseID(caseID),
		"matches": matches,
	})
}

func (s *Server) handlePriority(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("id")
	score, err := s.matcher.PrioritizeCase(r.Context(), caseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"case_id":  types.NormalizeCaseID(caseID),
		"priority": score,
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.registry.Status(r.PathValue("id"))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]any{"error": "job not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		observability.Logger(r.Context(), s.logger).Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}
