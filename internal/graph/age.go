// Package graph computes relationship sub-scores from a property graph
// stored in Apache AGE on PostgreSQL.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runner executes read-only Cypher queries. Run returns one parsed
// agtype value per row; queries used here return a single column.
type Runner interface {
	Run(ctx context.Context, query string) ([]any, error)
	GraphExists(ctx context.Context) (bool, error)
}

// AGEStore runs Cypher through the AGE extension on a shared pgx pool.
type AGEStore struct {
	pool  *pgxpool.Pool
	graph string
}

// NewAGEStore wraps the pool for the named graph.
func NewAGEStore(pool *pgxpool.Pool, graphName string) *AGEStore {
	return &AGEStore{pool: pool, graph: graphName}
}

// GraphExists reports whether the configured graph has been created.
func (s *AGEStore) GraphExists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ag_catalog.ag_graph WHERE name = $1)`,
		s.graph,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check graph existence: %w", err)
	}
	return exists, nil
}

// EnsureGraph creates the graph if it does not exist. Idempotent.
func (s *AGEStore) EnsureGraph(ctx context.Context) error {
	exists, err := s.GraphExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `SELECT ag_catalog.create_graph($1)`, s.graph); err != nil {
		return fmt.Errorf("failed to create graph %s: %w", s.graph, err)
	}
	return nil
}

// Run executes a Cypher query and returns one parsed value per row.
// The query text is embedded in a dollar-quoted literal; callers must
// build it with EscapeString for any user-derived value.
func (s *AGEStore) Run(ctx context.Context, query string) ([]any, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LOAD 'age'; SET search_path = ag_catalog, "$user", public;`); err != nil {
		return nil, fmt.Errorf("failed to load age extension: %w", err)
	}

	sql := fmt.Sprintf(
		`SELECT * FROM ag_catalog.cypher('%s'::name, $cypher$%s$cypher$) AS (result ag_catalog.agtype)`,
		s.graph, query,
	)
	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to run cypher query: %w", err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan agtype: %w", err)
		}
		v, err := parseAgtype(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// parseAgtype decodes an agtype text value. Vertices and edges carry a
// ::vertex / ::edge suffix on top of otherwise valid JSON.
func parseAgtype(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	for _, suffix := range []string{"::vertex", "::edge", "::path", "::numeric"} {
		raw = strings.TrimSuffix(raw, suffix)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("failed to parse agtype %q: %w", raw, err)
	}
	return v, nil
}

// EscapeString makes a value safe to embed in a single-quoted Cypher
// string literal inside the dollar-quoted query body. The $cypher$ tag
// is stripped until no occurrence remains, so removals cannot
// reassemble it.
func EscapeString(s string) string {
	for strings.Contains(s, "$cypher$") {
		s = strings.ReplaceAll(s, "$cypher$", "")
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// quotedList renders a Cypher list literal of escaped strings.
func quotedList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(EscapeString(it))
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}
