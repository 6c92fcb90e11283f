package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/V4T54L/xapi-bridge/internal/adapter/api/handler"
	"github.com/V4T54L/xapi-bridge/internal/adapter/metrics"
	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/domain/mocks"
	"github.com/V4T54L/xapi-bridge/internal/pkg/config"
	"github.com/V4T54L/xapi-bridge/internal/usecase"
)

type nopIngester struct{}

func (nopIngester) Ingest(context.Context, *domain.Event) error { return nil }

func TestRouter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	keys := &mocks.MockAPIKeyRepository{Valid: map[string]bool{"k": true}}
	router := NewRouter(&config.Config{MaxEventSize: 1024}, logger, keys, nopIngester{},
		metrics.NewIngestMetrics(prometheus.NewRegistry()), handler.NewRateBroker(ctx, logger))

	body := `{"eventname":"\\core\\event\\user_loggedin","timecreated":1}`

	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "k")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusAccepted, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminRouter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	supported := func() []domain.RuleKey { return nil }
	h := handler.NewAdminHandler(usecase.NewQueueAdminUseCase(&mocks.MockQueueAdmin{}), supported, logger)
	router := NewAdminRouter(h)

	for _, path := range []string{"/health", "/metrics", "/admin/events", "/admin/groups", "/admin/groups/translators/pending/messages", "/admin/dead-letters"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}
