package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/V4T54L/xapi-bridge/internal/adapter/api/handler"
)

// NewAdminRouter creates the translator's admin and metrics router.
func NewAdminRouter(h *handler.AdminHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /admin/events", h.ListSupportedEvents)
	mux.HandleFunc("GET /admin/groups", h.GetGroupInfo)
	mux.HandleFunc("GET /admin/groups/{groupName}/pending", h.GetPendingSummary)
	mux.HandleFunc("GET /admin/groups/{groupName}/pending/messages", h.GetPendingMessages)
	mux.HandleFunc("POST /admin/groups/{groupName}/claim", h.ClaimMessages)

	mux.HandleFunc("GET /admin/dead-letters", h.ListDeadLetters)
	mux.HandleFunc("POST /admin/dead-letters/requeue", h.RequeueDeadLetters)
	mux.HandleFunc("POST /admin/dead-letters/trim", h.TrimDeadLetters)

	return mux
}
