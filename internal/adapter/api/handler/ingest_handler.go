package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/V4T54L/xapi-bridge/internal/adapter/metrics"
	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/usecase"
)

// EventIngester buffers a single event.
type EventIngester interface {
	Ingest(ctx context.Context, event *domain.Event) error
}

// IngestHandler accepts LMS log events as a JSON object or as NDJSON.
type IngestHandler struct {
	useCase      EventIngester
	logger       *slog.Logger
	maxEventSize int64
	metrics      *metrics.IngestMetrics
	rate         *RateBroker
}

// NewIngestHandler creates a new IngestHandler. rate may be nil.
func NewIngestHandler(uc EventIngester, logger *slog.Logger, maxEventSize int64, m *metrics.IngestMetrics, rate *RateBroker) *IngestHandler {
	return &IngestHandler{
		useCase:      uc,
		logger:       logger,
		maxEventSize: maxEventSize,
		metrics:      m,
		rate:         rate,
	}
}

// ServeHTTP handles POST /ingest. A batch is decoded in full before any event
// is buffered, so a bad line rejects the whole request.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var decode func(io.Reader) ([]domain.Event, error)
	switch mediaType {
	case "application/json":
		decode = decodeSingle
	case "application/x-ndjson":
		decode = h.decodeNDJSON
	default:
		h.metrics.EventsTotal.WithLabelValues("error_media_type").Inc()
		http.Error(w, "Unsupported Media Type: "+mediaType, http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxEventSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.metrics.EventsTotal.WithLabelValues("error_size").Inc()
			http.Error(w, "http: request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	h.metrics.BytesTotal.Add(float64(len(body)))

	events, err := decode(bytes.NewReader(body))
	if err != nil {
		h.metrics.EventsTotal.WithLabelValues("error_parse").Inc()
		h.logger.Warn("failed to decode ingest request", "error", err)
		http.Error(w, "Bad Request: failed to decode "+mediaType, http.StatusBadRequest)
		return
	}

	accepted := 0
	for i := range events {
		if err := h.useCase.Ingest(r.Context(), &events[i]); err != nil {
			h.report(accepted)
			if errors.Is(err, usecase.ErrInvalidEvent) {
				h.metrics.EventsTotal.WithLabelValues("error_parse").Inc()
				http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
				return
			}
			h.metrics.EventsTotal.WithLabelValues("error_buffer").Inc()
			h.logger.Error("failed to ingest event", "error", err, "accepted", accepted)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		accepted++
	}
	h.report(accepted)
	w.WriteHeader(http.StatusAccepted)
}

func (h *IngestHandler) report(accepted int) {
	if accepted == 0 {
		return
	}
	h.metrics.EventsTotal.WithLabelValues("accepted").Add(float64(accepted))
	if h.rate != nil {
		h.rate.Report(accepted)
	}
}

func decodeSingle(body io.Reader) ([]domain.Event, error) {
	var event domain.Event
	dec := json.NewDecoder(body)
	if err := dec.Decode(&event); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after event")
	}
	return []domain.Event{event}, nil
}

func (h *IngestHandler) decodeNDJSON(body io.Reader) ([]domain.Event, error) {
	var events []domain.Event
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), int(h.maxEventSize))
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var event domain.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			h.logger.Warn("failed to unmarshal ndjson line", "line", line, "error", err)
			return nil, err
		}
		events = append(events, event)
	}
	return events, scanner.Err()
}
