// Package cases implements the read-only case status lookup backed by SQLite.
//
// Lookups never fail on unknown identifiers: an id with no row comes back
// with StatusUnknown so the pipeline can render a normal spoken response.
package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	parleyotel "github.com/dativo-io/parley/internal/otel"
)

var tracer = parleyotel.Tracer("github.com/dativo-io/parley/internal/cases")

// StatusUnknown is reported for identifiers with no stored case.
const StatusUnknown = "unknown"

const schema = `
CREATE TABLE IF NOT EXISTS cases (
    case_number TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    opened_date TEXT NOT NULL DEFAULT '',
    last_updated TEXT NOT NULL DEFAULT ''
);
`

// Status is one case's current state.
type Status struct {
	CaseNumber  string `json:"case_number"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	OpenedDate  string `json:"opened_date"`
	LastUpdated string `json:"last_updated"`
}

// Store is a SQLite-backed case status store.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the case database at path and applies the
// schema. Pass ":memory:" for an ephemeral store in tests.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening case database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying case schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the status for caseNumber. Unknown identifiers return a
// StatusUnknown record, not an error; errors are reserved for the database
// itself misbehaving.
func (s *Store) Lookup(ctx context.Context, caseNumber string) (*Status, error) {
	ctx, span := tracer.Start(ctx, "cases.lookup",
		trace.WithAttributes(attribute.String("case.number", caseNumber)))
	defer span.End()

	row := s.db.QueryRowContext(ctx,
		`SELECT case_number, status, reason, opened_date, last_updated FROM cases WHERE case_number = ?`,
		caseNumber)

	var st Status
	err := row.Scan(&st.CaseNumber, &st.Status, &st.Reason, &st.OpenedDate, &st.LastUpdated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &Status{
			CaseNumber: caseNumber,
			Status:     StatusUnknown,
			Reason:     "Case not found in system",
		}, nil
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("querying case %s: %w", caseNumber, err)
	}
	return &st, nil
}

// Upsert inserts or replaces one case record.
func (s *Store) Upsert(ctx context.Context, st *Status) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cases (case_number, status, reason, opened_date, last_updated) VALUES (?, ?, ?, ?, ?)`,
		st.CaseNumber, st.Status, st.Reason, st.OpenedDate, st.LastUpdated)
	if err != nil {
		return fmt.Errorf("upserting case %s: %w", st.CaseNumber, err)
	}
	return nil
}

// SeedDemo loads the demo dataset when the store is empty. It is a no-op on
// a populated database so restarts do not clobber operator edits.
func (s *Store) SeedDemo(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases`).Scan(&n); err != nil {
		return fmt.Errorf("counting cases: %w", err)
	}
	if n > 0 {
		return nil
	}
	demo := []Status{
		{CaseNumber: "12345", Status: "open", Reason: "Awaiting customer response", OpenedDate: "2024-01-15", LastUpdated: "2024-01-20"},
		{CaseNumber: "VIP-001", Status: "in_progress", Reason: "Technical review in progress", OpenedDate: "2024-01-10", LastUpdated: "2024-01-22"},
	}
	for i := range demo {
		if err := s.Upsert(ctx, &demo[i]); err != nil {
			return err
		}
	}
	return nil
}
