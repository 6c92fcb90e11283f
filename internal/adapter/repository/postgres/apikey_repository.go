package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/V4T54L/xapi-bridge/internal/adapter/metrics"
)

type cacheEntry struct {
	isValid   bool
	expiresAt time.Time
}

// keyLookup reports whether an API key is active in the source of truth.
type keyLookup func(ctx context.Context, key string) (bool, error)

// APIKeyRepository validates ingest API keys against PostgreSQL, caching
// answers for cacheTTL.
type APIKeyRepository struct {
	lookup   keyLookup
	logger   *slog.Logger
	clock    clockwork.Clock
	cacheTTL time.Duration
	metrics  *metrics.IngestMetrics

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewAPIKeyRepository creates the repository. m may be nil.
func NewAPIKeyRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration, m *metrics.IngestMetrics) *APIKeyRepository {
	return newAPIKeyRepository(dbKeyLookup(db), logger, clockwork.NewRealClock(), cacheTTL, m)
}

func newAPIKeyRepository(lookup keyLookup, logger *slog.Logger, clock clockwork.Clock, cacheTTL time.Duration, m *metrics.IngestMetrics) *APIKeyRepository {
	return &APIKeyRepository{
		lookup:   lookup,
		logger:   logger.With("component", "apikey_repository"),
		clock:    clock,
		cacheTTL: cacheTTL,
		metrics:  m,
		cache:    make(map[string]cacheEntry),
	}
}

func dbKeyLookup(db *sql.DB) keyLookup {
	return func(ctx context.Context, key string) (bool, error) {
		var ok bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM api_keys WHERE key = $1 AND is_active AND (expires_at IS NULL OR expires_at > NOW()))`,
			key).Scan(&ok)
		return ok, err
	}
}

// IsValid answers from the cache when fresh, otherwise from the database.
func (r *APIKeyRepository) IsValid(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	entry, found := r.cache[key]
	r.mu.RUnlock()

	if found && r.clock.Now().Before(entry.expiresAt) {
		if r.metrics != nil {
			r.metrics.APIKeyCacheHits.Inc()
		}
		return entry.isValid, nil
	}
	if r.metrics != nil {
		r.metrics.APIKeyCacheMisses.Inc()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another request may have refreshed the entry while we waited.
	entry, found = r.cache[key]
	if found && r.clock.Now().Before(entry.expiresAt) {
		return entry.isValid, nil
	}

	isValid, err := r.lookup(ctx, key)
	if err != nil {
		// Errors are not cached so the next request retries.
		r.logger.Error("failed to validate API key", "error", err)
		return false, err
	}
	r.cache[key] = cacheEntry{isValid: isValid, expiresAt: r.clock.Now().Add(r.cacheTTL)}
	return isValid, nil
}
