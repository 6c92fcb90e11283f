package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/V4T54L/xapi-bridge/internal/domain/mocks"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := &mocks.MockAPIKeyRepository{Valid: map[string]bool{"secret": true}}

	tests := []struct {
		name   string
		header string
		value  string
		err    error
		want   int
	}{
		{name: "missing key", want: http.StatusUnauthorized},
		{name: "x-api-key", header: APIKeyHeader, value: "secret", want: http.StatusNoContent},
		{name: "bearer", header: "Authorization", value: "Bearer secret", want: http.StatusNoContent},
		{name: "basic is ignored", header: "Authorization", value: "Basic secret", want: http.StatusUnauthorized},
		{name: "invalid key", header: APIKeyHeader, value: "nope", want: http.StatusUnauthorized},
		{name: "repository error", header: APIKeyHeader, value: "secret", err: errors.New("db down"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.Err = tt.err
			req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rr := httptest.NewRecorder()
			Auth(repo, logger)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	Logging(logger)(ok).ServeHTTP(rr, req)

	assert.Equal(t, "req-1", rr.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "status=204")

	rr = httptest.NewRecorder()
	Logging(logger)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}
