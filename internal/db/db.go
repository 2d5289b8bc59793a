// Package db provides PostgreSQL access for cases, candidates, and
// clinical history.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daniel/expert-match/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Pool exposes the underlying pool for collaborators that issue their
// own SQL (the graph store).
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

const caseColumns = `id, patient_age, chief_complaint, symptoms, current_diagnosis,
	icd10_codes, urgency_level, required_specialty, case_type,
	COALESCE(additional_notes, ''), COALESCE(abstract_text, ''), embedding::text`

func scanCase(row pgx.Row) (types.Case, error) {
	var c types.Case
	var embedding *string
	err := row.Scan(&c.ID, &c.PatientAge, &c.ChiefComplaint, &c.Symptoms, &c.CurrentDiagnosis,
		&c.ICD10Codes, &c.UrgencyLevel, &c.RequiredSpecialty, &c.CaseType,
		&c.AdditionalNotes, &c.AbstractText, &embedding)
	if err != nil {
		return types.Case{}, err
	}
	if embedding != nil {
		vec, err := ParseVector(*embedding)
		if err != nil {
			return types.Case{}, fmt.Errorf("failed to parse case %s embedding: %w", c.ID, err)
		}
		c.Embedding = vec
	}
	return c, nil
}

// GetCase retrieves one case by its normalized ID, or nil when absent
func (db *DB) GetCase(ctx context.Context, caseID string) (*types.Case, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM medical_cases WHERE id = $1`,
		types.NormalizeCaseID(caseID),
	)
	c, err := scanCase(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

// GetCasesByIDs retrieves cases in one batch, keyed by ID. Unknown IDs
// are simply absent from the map.
func (db *DB) GetCasesByIDs(ctx context.Context, caseIDs []string) (map[string]types.Case, error) {
	normalized := make([]string, 0, len(caseIDs))
	for _, id := range caseIDs {
		normalized = append(normalized, types.NormalizeCaseID(id))
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+caseColumns+` FROM medical_cases WHERE id = ANY($1)`,
		normalized,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get cases: %w", err)
	}
	defer rows.Close()

	out := make(map[string]types.Case, len(caseIDs))
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// SaveCaseEmbedding stores a computed embedding on the case record
func (db *DB) SaveCaseEmbedding(ctx context.Context, caseID string, vec []float32) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE medical_cases SET embedding = $1::vector, updated_at = NOW() WHERE id = $2`,
		EncodeVector(vec), types.NormalizeCaseID(caseID),
	)
	if err != nil {
		return fmt.Errorf("failed to save case embedding: %w", err)
	}
	return nil
}

const doctorColumns = `id, name, COALESCE(email, ''), specialties, certifications,
	facility_ids, telehealth_enabled, COALESCE(availability_status, ''), embedding::text`

func scanDoctor(row pgx.Row) (types.Doctor, error) {
	var d types.Doctor
	var embedding *string
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Specialties, &d.Certifications,
		&d.FacilityIDs, &d.TelehealthEnabled, &d.AvailabilityStatus, &embedding)
	if err != nil {
		return types.Doctor{}, err
	}
	if embedding != nil {
		vec, err := ParseVector(*embedding)
		if err != nil {
			return types.Doctor{}, fmt.Errorf("failed to parse doctor %s embedding: %w", d.ID, err)
		}
		d.Embedding = vec
	}
	return d, nil
}

// GetDoctorsByIDs retrieves doctors in one batch, keyed by ID
func (db *DB) GetDoctorsByIDs(ctx context.Context, doctorIDs []string) (map[string]types.Doctor, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE id = ANY($1)`,
		doctorIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]types.Doctor, len(doctorIDs))
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		out[d.ID] = d
	}
	return out, rows.Err()
}

// DoctorFilters holds optional filters for listing candidate doctors
type DoctorFilters struct {
	Specialty      string
	TelehealthOnly bool
	FacilityIDs    []string
	Limit          int
}

// ListDoctors retrieves a bounded candidate set in one query
func (db *DB) ListDoctors(ctx context.Context, filters DoctorFilters) ([]types.Doctor, error) {
	if filters.Limit <= 0 {
		filters.Limit = 200
	}

	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Specialty != "" {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM unnest(specialties) s WHERE s ILIKE $%d)", argNum)
		args = append(args, filters.Specialty)
		argNum++
	}
	if filters.TelehealthOnly {
		query += " AND telehealth_enabled"
	}
	if len(filters.FacilityIDs) > 0 {
		query += fmt.Sprintf(" AND facility_ids && $%d", argNum)
		args = append(args, filters.FacilityIDs)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []types.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// FacilityFilters holds optional filters for listing candidate facilities
type FacilityFilters struct {
	FacilityType string
	Limit        int
}

// ListFacilities retrieves a bounded facility candidate set
func (db *DB) ListFacilities(ctx context.Context, filters FacilityFilters) ([]types.Facility, error) {
	if filters.Limit <= 0 {
		filters.Limit = 100
	}

	query := `SELECT id, name, COALESCE(facility_type, ''), capabilities,
		COALESCE(capacity, 0), COALESCE(current_occupancy, 0),
		COALESCE(location_lat, 0), COALESCE(location_lon, 0)
		FROM facilities WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.FacilityType != "" {
		query += fmt.Sprintf(" AND facility_type ILIKE $%d", argNum)
		args = append(args, filters.FacilityType)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []types.Facility
	for rows.Next() {
		var f types.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.FacilityType, &f.Capabilities,
			&f.Capacity, &f.CurrentOccupancy, &f.LocationLat, &f.LocationLon); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// FacilityDoctorIDs retrieves the IDs of doctors affiliated with a
// facility, capped at 500 to bound the roster scan.
func (db *DB) FacilityDoctorIDs(ctx context.Context, facilityID string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id FROM doctors WHERE $1 = ANY(facility_ids) ORDER BY id LIMIT 500`,
		facilityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list facility doctors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan doctor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FacilityRosters retrieves the doctor rosters for a whole facility
// set in one query, keyed by facility ID.
func (db *DB) FacilityRosters(ctx context.Context, facilityIDs []string) (map[string][]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT d.id, f.facility_id
		 FROM doctors d, unnest(d.facility_ids) AS f(facility_id)
		 WHERE f.facility_id = ANY($1)
		 ORDER BY d.id`,
		facilityIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list facility rosters: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string, len(facilityIDs))
	for rows.Next() {
		var doctorID, facilityID string
		if err := rows.Scan(&doctorID, &facilityID); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		out[facilityID] = append(out[facilityID], doctorID)
	}
	return out, rows.Err()
}

// GetExperiencesByDoctorIDs retrieves clinical experience histories for
// a whole candidate set in one batch, keyed by doctor ID.
func (db *DB) GetExperiencesByDoctorIDs(ctx context.Context, doctorIDs []string) (map[string][]types.ClinicalExperience, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, doctor_id, case_id, procedures_performed, COALESCE(complexity_level, ''),
		 COALESCE(outcome, ''), complications, COALESCE(time_to_resolution, 0), rating
		 FROM clinical_experiences WHERE doctor_id = ANY($1)`,
		doctorIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get experiences: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]types.ClinicalExperience, len(doctorIDs))
	for rows.Next() {
		var e types.ClinicalExperience
		if err := rows.Scan(&e.ID, &e.DoctorID, &e.CaseID, &e.ProceduresPerformed, &e.ComplexityLevel,
			&e.Outcome, &e.Complications, &e.TimeToResolution, &e.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		out[e.DoctorID] = append(out[e.DoctorID], e)
	}
	return out, rows.Err()
}

// ReplaceMatchesForCase replaces the persisted consultation matches for
// a case with the latest ranked results.
func (db *DB) ReplaceMatchesForCase(ctx context.Context, caseID string, matches []types.DoctorMatch) error {
	caseID = types.NormalizeCaseID(caseID)

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM consultation_matches WHERE case_id = $1`, caseID,
	); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}

	batch := &pgx.Batch{}
	for _, m := range matches {
		batch.Queue(
			`INSERT INTO consultation_matches (case_id, doctor_id, overall_score, rank, rationale)
			 VALUES ($1, $2, $3, $4, $5)`,
			caseID, m.Doctor.ID, m.Score.OverallScore, m.Rank, m.Rationale,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert matches: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit matches: %w", err)
	}
	return nil
}
