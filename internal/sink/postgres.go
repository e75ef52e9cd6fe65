package sink

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/lib/pq"
)

// PostgresSink inserts one row per record into a jsonb table.
type PostgresSink struct {
	db    *sql.DB
	table string
}

// NewPostgres returns a sink writing to table.
func NewPostgres(db *sql.DB, table string) *PostgresSink {
	return &PostgresSink{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureTable creates the destination table when missing.
func (s *PostgresSink) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id         UUID NOT NULL,
		reference_name TEXT NOT NULL,
		row_number     INTEGER NOT NULL,
		object_name    TEXT,
		payload        JSONB NOT NULL,
		extracted_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (run_id, row_number)
	)`, s.table))
	if err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

// Write inserts the whole batch in one transaction.
func (s *PostgresSink) Write(ctx context.Context, b Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (run_id, reference_name, row_number, object_name, payload, extracted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`, s.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range b.Rows {
		var buf bytes.Buffer
		if err := encodeRow(&buf, b.Schema, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		var objectName sql.NullString
		if name, ok := row[schema.DiscriminatorField].(string); ok && b.Schema.Discriminated {
			objectName = sql.NullString{String: name, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, b.RunID, b.ReferenceName, i, objectName, buf.String(), b.StartedAt); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
