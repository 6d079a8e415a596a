// Package httpapi is a thin JSON HTTP facade over the query, aggregation,
// and feedback layers, grounded in the teacher's internal/adapter/driving/http
// handler (SPEC_FULL.md §2's supplemental local API surface). It owns no
// business logic: every handler parses its request, calls one
// query/aggregate/feedback entry point, and serializes the result.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/outfitter-dev/firewatch/internal/feedback"
	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/query"
	"github.com/outfitter-dev/firewatch/internal/store"
)

// Store is the subset of store.Store the HTTP facade reads directly, for
// the aggregation views query.Engine doesn't itself expose.
type Store interface {
	QueryEntries(ctx context.Context, filter store.Filter, limit, offset int) ([]model.Entry, error)
	GetAckedIDs(ctx context.Context, repo string) (map[string]bool, error)
	GetRepos(ctx context.Context) ([]model.RepoWatch, error)
}

var _ Store = store.Store(nil)

// Handler is the HTTP driving adapter over firewatch's local cache.
type Handler struct {
	store    Store
	query    *query.Engine
	feedback *feedback.Bridge
	viewer   string
	logger   *slog.Logger
}

// NewHandler builds a Handler. feedbackBridge may be nil, in which case the
// /feedback endpoints respond 503 — a firewatch instance running purely in
// read-only/offline mode has no gateway client to dispatch through.
func NewHandler(st Store, queryEngine *query.Engine, feedbackBridge *feedback.Bridge, viewer string, logger *slog.Logger) *Handler {
	return &Handler{store: st, query: queryEngine, feedback: feedbackBridge, viewer: viewer, logger: logger}
}

// NewServeMux registers every route and wraps the mux with logging and
// recovery middleware, in that order (recovery innermost, same as the
// teacher's NewServeMux).
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/entries", h.ListEntries)
	mux.HandleFunc("GET /api/v1/worklist", h.Worklist)
	mux.HandleFunc("GET /api/v1/summary", h.ActionableSummary)
	mux.HandleFunc("GET /api/v1/lookout", h.Lookout)
	mux.HandleFunc("GET /api/v1/repos", h.ListRepos)
	mux.HandleFunc("POST /api/v1/feedback/{action}", h.Feedback)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListRepos returns every watched repository.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := h.store.GetRepos(r.Context())
	if err != nil {
		h.logger.Error("failed to list repos", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	resp := make([]RepoResponse, 0, len(repos))
	for _, rw := range repos {
		resp = append(resp, RepoResponse{Repo: rw.Repo, AddedAt: rw.AddedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}
