package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// StatementRepository implements domain.StatementSink over a PostgreSQL table.
type StatementRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStatementRepository(db *sql.DB, logger *slog.Logger) *StatementRepository {
	return &StatementRepository{db: db, logger: logger.With("component", "statement_repository")}
}

// statementRow is the column form of a statement.
type statementRow struct {
	id       string
	verbID   string
	objectID string
	at       time.Time
	payload  []byte
}

func toRow(s domain.Statement) (statementRow, error) {
	if s.ID == "" {
		return statementRow{}, fmt.Errorf("statement for %s has no id", s.Object.ID)
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return statementRow{}, fmt.Errorf("failed to marshal statement %s: %w", s.ID, err)
	}
	ts, err := time.Parse(time.RFC3339, s.Timestamp)
	if err != nil {
		return statementRow{}, fmt.Errorf("statement %s has bad timestamp %q: %w", s.ID, s.Timestamp, err)
	}
	return statementRow{id: s.ID, verbID: s.Verb.ID, objectID: s.Object.ID, at: ts, payload: payload}, nil
}

// WriteStatements copies the batch into a temp table and upserts it by
// statement id, so redelivered events overwrite rather than duplicate.
func (r *StatementRepository) WriteStatements(ctx context.Context, statements []domain.Statement) error {
	if len(statements) == 0 {
		return nil
	}
	rows := make([]statementRow, 0, len(statements))
	for _, s := range statements {
		row, err := toRow(s)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // no-op after Commit

	const tempTable = "xapi_statements_import"
	if _, err := txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTable+` (LIKE xapi_statements INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return err
	}

	stmt, err := txn.PrepareContext(ctx, pq.CopyIn(tempTable, "statement_id", "verb_id", "object_id", "timestamp", "payload"))
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.id, row.verbID, row.objectID, row.at, string(row.payload)); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	// Flush the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	_, err = txn.ExecContext(ctx, `
		INSERT INTO xapi_statements (statement_id, verb_id, object_id, timestamp, payload)
		SELECT statement_id, verb_id, object_id, timestamp, payload FROM `+tempTable+`
		ON CONFLICT (statement_id) DO UPDATE SET
			verb_id = EXCLUDED.verb_id,
			object_id = EXCLUDED.object_id,
			timestamp = EXCLUDED.timestamp,
			payload = EXCLUDED.payload`)
	if err != nil {
		return err
	}

	if err := txn.Commit(); err != nil {
		return err
	}
	r.logger.Debug("wrote statements", "count", len(rows))
	return nil
}
