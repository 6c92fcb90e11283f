// Package memory holds an in-process RecordRepository, used by tests and by the
// translate CLI when it runs against a fixture file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// RecordRepository implements domain.RecordRepository over maps.
type RecordRepository struct {
	mu     sync.RWMutex
	tables map[string]map[int64]domain.Record
	errs   map[string]error
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		tables: make(map[string]map[int64]domain.Record),
		errs:   make(map[string]error),
	}
}

// LoadFixtures reads a JSON object mapping table names to arrays of rows.
// Every row needs an "id".
func LoadFixtures(r io.Reader) (*RecordRepository, error) {
	var fixtures map[string][]domain.Record
	if err := json.NewDecoder(r).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	repo := NewRecordRepository()
	for table, rows := range fixtures {
		for i, row := range rows {
			if !row.Has("id") {
				return nil, fmt.Errorf("fixture %s[%d] has no id", table, i)
			}
			repo.Put(table, row)
		}
	}
	return repo, nil
}

// Put stores a row under its "id" column, replacing any previous row.
func (r *RecordRepository) Put(table string, rec domain.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, ok := r.tables[table]
	if !ok {
		rows = make(map[int64]domain.Record)
		r.tables[table] = rows
	}
	rows[rec.Int("id")] = maps.Clone(rec)
}

func (r *RecordRepository) Delete(table string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables[table], id)
}

// SetError makes every read of table fail with err. A nil err clears it.
func (r *RecordRepository) SetError(table string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.errs, table)
		return
	}
	r.errs[table] = err
}

// ReadRecordByID returns a copy of the stored row.
func (r *RecordRepository) ReadRecordByID(_ context.Context, table string, id int64) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.errs[table]; err != nil {
		return nil, err
	}
	rec, ok := r.tables[table][id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", table, id, domain.ErrNotFound)
	}
	return maps.Clone(rec), nil
}
