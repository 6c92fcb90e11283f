package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/usecase"
)

// AdminHandler serves buffer and dead-letter maintenance endpoints.
type AdminHandler struct {
	uc        *usecase.QueueAdminUseCase
	supported func() []domain.RuleKey
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler. supported lists the events the
// translator has rules for.
func NewAdminHandler(uc *usecase.QueueAdminUseCase, supported func() []domain.RuleKey, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{uc: uc, supported: supported, logger: logger}
}

// HealthCheck is a simple health check endpoint.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetGroupInfo lists the translator consumer groups.
// GET /admin/groups
func (h *AdminHandler) GetGroupInfo(w http.ResponseWriter, r *http.Request) {
	groups, err := h.uc.GetGroupInfo(r.Context())
	if err != nil {
		h.internalError(w, "failed to get group info", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, groups)
}

// GetPendingSummary summarises unacknowledged events of a group.
// GET /admin/groups/{groupName}/pending
func (h *AdminHandler) GetPendingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.uc.GetPendingSummary(r.Context(), r.PathValue("groupName"))
	if err != nil {
		h.internalError(w, "failed to get pending summary", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}

// GetPendingMessages lists unacknowledged events of a group.
// GET /admin/groups/{groupName}/pending/messages?consumer={name}&start={id}&count={n}
func (h *AdminHandler) GetPendingMessages(w http.ResponseWriter, r *http.Request) {
	count, ok := parseCount(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	messages, err := h.uc.GetPendingMessages(r.Context(), r.PathValue("groupName"), q.Get("consumer"), q.Get("start"), count)
	if err != nil {
		h.internalError(w, "failed to get pending messages", err)
		return
	}
	if messages == nil {
		messages = []domain.PendingMessageDetail{}
	}
	h.respondWithJSON(w, http.StatusOK, messages)
}

// ClaimMessages hands pending events to another consumer.
// POST /admin/groups/{groupName}/claim {"consumer": "...", "min_idle_time": "30s", "message_ids": [...]}
func (h *AdminHandler) ClaimMessages(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Consumer    string   `json:"consumer"`
		MinIdleTime string   `json:"min_idle_time"`
		MessageIDs  []string `json:"message_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var minIdle time.Duration
	if payload.MinIdleTime != "" {
		var err error
		if minIdle, err = time.ParseDuration(payload.MinIdleTime); err != nil {
			http.Error(w, "invalid min_idle_time format", http.StatusBadRequest)
			return
		}
	}

	claimed, err := h.uc.ClaimMessages(r.Context(), r.PathValue("groupName"), payload.Consumer, minIdle, payload.MessageIDs)
	if err != nil {
		if errors.Is(err, usecase.ErrNoIDs) || errors.Is(err, usecase.ErrNoConsumer) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.internalError(w, "failed to claim messages", err)
		return
	}
	ids := make([]string, len(claimed))
	for i, e := range claimed {
		ids[i] = e.StreamMessageID
	}
	h.respondWithJSON(w, http.StatusOK, map[string]any{"claimed": ids})
}

// ListDeadLetters pages through dead letters.
// GET /admin/dead-letters?start={id}&count={n}
func (h *AdminHandler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	count, ok := parseCount(w, r)
	if !ok {
		return
	}

	letters, err := h.uc.ListDeadLetters(r.Context(), r.URL.Query().Get("start"), count)
	if err != nil {
		h.internalError(w, "failed to list dead letters", err)
		return
	}
	if letters == nil {
		letters = []domain.DeadLetter{}
	}
	h.respondWithJSON(w, http.StatusOK, letters)
}

// RequeueDeadLetters moves dead letters back onto the event stream.
// POST /admin/dead-letters/requeue {"ids": [...]}
func (h *AdminHandler) RequeueDeadLetters(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.uc.RequeueDeadLetters(r.Context(), payload.IDs...)
	if err != nil {
		if errors.Is(err, usecase.ErrNoIDs) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.internalError(w, "failed to requeue dead letters", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]int64{"requeued": n})
}

// TrimDeadLetters caps the dead-letter stream.
// POST /admin/dead-letters/trim {"maxlen": n}
func (h *AdminHandler) TrimDeadLetters(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MaxLen *int64 `json:"maxlen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.MaxLen == nil || *payload.MaxLen < 0 {
		http.Error(w, "maxlen must be a non-negative integer", http.StatusBadRequest)
		return
	}

	trimmed, err := h.uc.TrimDeadLetters(r.Context(), *payload.MaxLen)
	if err != nil {
		h.internalError(w, "failed to trim dead letters", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]int64{"trimmed": trimmed})
}

// ListSupportedEvents lists the events the translator has rules for.
// GET /admin/events
func (h *AdminHandler) ListSupportedEvents(w http.ResponseWriter, r *http.Request) {
	keys := h.supported()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	h.respondWithJSON(w, http.StatusOK, names)
}

func parseCount(w http.ResponseWriter, r *http.Request) (int64, bool) {
	s := r.URL.Query().Get("count")
	if s == "" {
		return 0, true
	}
	count, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		http.Error(w, "invalid count parameter", http.StatusBadRequest)
		return 0, false
	}
	return count, true
}

func (h *AdminHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *AdminHandler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal JSON response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
