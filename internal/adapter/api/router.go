package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/xapi-bridge/internal/adapter/api/handler"
	"github.com/V4T54L/xapi-bridge/internal/adapter/api/middleware"
	"github.com/V4T54L/xapi-bridge/internal/adapter/metrics"
	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/pkg/config"
)

// NewRouter creates the HTTP router of the ingest service.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	apiKeyRepo domain.APIKeyRepository,
	ingester handler.EventIngester,
	m *metrics.IngestMetrics,
	rate *handler.RateBroker,
) http.Handler {
	mux := http.NewServeMux()

	ingestHandler := handler.NewIngestHandler(ingester, logger, cfg.MaxEventSize, m, rate)
	auth := middleware.Auth(apiKeyRepo, logger)

	mux.Handle("POST /ingest", auth(ingestHandler))
	mux.Handle("GET /events/rate", auth(rate))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return middleware.Logging(logger)(mux)
}
