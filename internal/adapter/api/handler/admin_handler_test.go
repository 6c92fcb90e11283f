package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/domain/mocks"
	"github.com/V4T54L/xapi-bridge/internal/usecase"
)

func newAdminHandler(repo *mocks.MockQueueAdmin) *AdminHandler {
	supported := func() []domain.RuleKey {
		return []domain.RuleKey{{Component: "core", Name: "course_viewed"}, {Component: "mod_choice", Name: "answer_created"}}
	}
	return NewAdminHandler(usecase.NewQueueAdminUseCase(repo), supported, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(h http.HandlerFunc, pattern, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestAdminHandler_ListDeadLetters(t *testing.T) {
	repo := &mocks.MockQueueAdmin{DeadLetters: []domain.DeadLetter{
		{ID: "1-0", Reason: "unsupported event", FailedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "1-1", Reason: "malformed event payload"},
	}}
	h := newAdminHandler(repo)

	rr := serve(h.ListDeadLetters, "GET /admin/dead-letters", http.MethodGet, "/admin/dead-letters?count=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var letters []domain.DeadLetter
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &letters))
	require.Len(t, letters, 1)
	assert.Equal(t, "1-0", letters[0].ID)

	rr = serve(h.ListDeadLetters, "GET /admin/dead-letters", http.MethodGet, "/admin/dead-letters?count=x", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(newAdminHandler(&mocks.MockQueueAdmin{}).ListDeadLetters, "GET /admin/dead-letters", http.MethodGet, "/admin/dead-letters", "")
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestAdminHandler_Requeue(t *testing.T) {
	repo := &mocks.MockQueueAdmin{}
	h := newAdminHandler(repo)

	rr := serve(h.RequeueDeadLetters, "POST /admin/dead-letters/requeue", http.MethodPost, "/admin/dead-letters/requeue", `{"ids":["1-0"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"requeued":1}`, rr.Body.String())
	assert.Equal(t, []string{"1-0"}, repo.Requeued)

	rr = serve(h.RequeueDeadLetters, "POST /admin/dead-letters/requeue", http.MethodPost, "/admin/dead-letters/requeue", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	repo.Err = errors.New("redis down")
	rr = serve(h.RequeueDeadLetters, "POST /admin/dead-letters/requeue", http.MethodPost, "/admin/dead-letters/requeue", `{"ids":["1-0"]}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAdminHandler_Trim(t *testing.T) {
	repo := &mocks.MockQueueAdmin{}
	h := newAdminHandler(repo)

	rr := serve(h.TrimDeadLetters, "POST /admin/dead-letters/trim", http.MethodPost, "/admin/dead-letters/trim", `{"maxlen":0}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(h.TrimDeadLetters, "POST /admin/dead-letters/trim", http.MethodPost, "/admin/dead-letters/trim", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminHandler_PendingAndGroups(t *testing.T) {
	repo := &mocks.MockQueueAdmin{
		Groups:  []domain.ConsumerGroupInfo{{Name: "translators", Consumers: 2, Pending: 3}},
		Pending: &domain.PendingMessageSummary{Total: 3},
	}
	h := newAdminHandler(repo)

	rr := serve(h.GetGroupInfo, "GET /admin/groups", http.MethodGet, "/admin/groups", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"translators"`)

	rr = serve(h.GetPendingSummary, "GET /admin/groups/{groupName}/pending", http.MethodGet, "/admin/groups/translators/pending", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":3}`, rr.Body.String())
}

func TestAdminHandler_ListSupportedEvents(t *testing.T) {
	h := newAdminHandler(&mocks.MockQueueAdmin{})
	rr := serve(h.ListSupportedEvents, "GET /admin/events", http.MethodGet, "/admin/events", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["core.course_viewed","mod_choice.answer_created"]`, rr.Body.String())
}

func TestAdminHandler_PendingMessages(t *testing.T) {
	repo := &mocks.MockQueueAdmin{PendingList: []domain.PendingMessageDetail{{ID: "1-0", Consumer: "worker-a", RetryCount: 3}}}
	h := newAdminHandler(repo)
	pattern := "GET /admin/groups/{groupName}/pending/messages"

	rr := serve(h.GetPendingMessages, pattern, http.MethodGet, "/admin/groups/translators/pending/messages?consumer=worker-a", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got []domain.PendingMessageDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "1-0", got[0].ID)

	rr = serve(h.GetPendingMessages, pattern, http.MethodGet, "/admin/groups/translators/pending/messages?count=x", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminHandler_Claim(t *testing.T) {
	repo := &mocks.MockQueueAdmin{Claimable: []domain.Event{{ID: 7, StreamMessageID: "1-0"}}}
	h := newAdminHandler(repo)
	pattern := "POST /admin/groups/{groupName}/claim"

	rr := serve(h.ClaimMessages, pattern, http.MethodPost, "/admin/groups/translators/claim",
		`{"consumer":"worker-b","min_idle_time":"30s","message_ids":["1-0"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"claimed":["1-0"]}`, rr.Body.String())
	assert.Equal(t, []string{"1-0"}, repo.Claimed)

	rr = serve(h.ClaimMessages, pattern, http.MethodPost, "/admin/groups/translators/claim", `{"consumer":"worker-b","min_idle_time":"soon","message_ids":["1-0"]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h.ClaimMessages, pattern, http.MethodPost, "/admin/groups/translators/claim", `{"message_ids":["1-0"]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	repo.Err = errors.New("redis down")
	rr = serve(h.ClaimMessages, pattern, http.MethodPost, "/admin/groups/translators/claim", `{"consumer":"worker-b","message_ids":["1-0"]}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
