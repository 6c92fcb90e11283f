package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/lib/pq"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

var tableName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// RecordRepository reads LMS rows straight from the LMS PostgreSQL database.
type RecordRepository struct {
	db     *sql.DB
	prefix string
	logger *slog.Logger
}

// NewRecordRepository creates a repository over tables named prefix+table,
// e.g. mdl_course for prefix "mdl_".
func NewRecordRepository(db *sql.DB, prefix string, logger *slog.Logger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		prefix: prefix,
		logger: logger.With("component", "record_repository"),
	}
}

// ReadRecordByID selects the row with the given id, returning every column.
func (r *RecordRepository) ReadRecordByID(ctx context.Context, table string, id int64) (domain.Record, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	query := `SELECT * FROM ` + pq.QuoteIdentifier(r.prefix+table) + ` WHERE id = $1`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", table, err)
		}
		return nil, fmt.Errorf("%s %d: %w", table, id, domain.ErrNotFound)
	}

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan %s %d: %w", table, id, err)
	}

	rec := make(domain.Record, len(cols))
	for i, col := range cols {
		rec[col] = normalizeValue(values[i])
	}
	r.logger.Debug("read record", "table", table, "id", id)
	return rec, nil
}

// normalizeValue converts driver values to the types domain.Record expects.
// lib/pq returns text and numeric columns as []byte.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Unix()
	default:
		return x
	}
}
