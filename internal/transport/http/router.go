package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vatcheck/internal/verification/progress"
	"vatcheck/pkg/platform/httputil"
)

// StatusSource exposes the progress of the current run.
type StatusSource interface {
	Snapshot() progress.Snapshot
}

// Handler is the thin HTTP layer of the CLI's observability server.
type Handler struct {
	gatherer prometheus.Gatherer
	status   StatusSource
}

func NewHandler(gatherer prometheus.Gatherer, status StatusSource) *Handler {
	return &Handler{gatherer: gatherer, status: status}
}

// Register mounts the observability endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	r.Get("/status", h.handleStatus)
}

// NewRouter wires all endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if h.status == nil {
		httputil.WriteJSON(w, http.StatusOK, progress.Snapshot{})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.status.Snapshot())
}
