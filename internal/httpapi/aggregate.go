package httpapi

import (
	"net/http"

	"github.com/outfitter-dev/firewatch/internal/aggregate"
	"github.com/outfitter-dev/firewatch/internal/query"
	"github.com/outfitter-dev/firewatch/internal/store"
)

// Worklist returns the repo's PRs ranked by actionability, per
// aggregate.BuildWorklist.
func (h *Handler) Worklist(w http.ResponseWriter, r *http.Request) {
	repo := r.URL.Query().Get("repo")

	entries, _, err := h.query.Query(r.Context(), query.Options{Filter: store.Filter{Repo: repo}})
	if err != nil {
		h.logger.Error("failed to query entries for worklist", "repo", repo, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	acked, err := h.store.GetAckedIDs(r.Context(), repo)
	if err != nil {
		h.logger.Error("failed to load acked ids", "repo", repo, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	rows := aggregate.BuildWorklist(entries, aggregate.AckSet(acked))
	writeJSON(w, http.StatusOK, rows)
}

// ActionableSummary returns the viewer's bucketed actionable items, per
// aggregate.BuildActionableSummary.
func (h *Handler) ActionableSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	repo := q.Get("repo")
	viewer := q.Get("viewer")
	if viewer == "" {
		viewer = h.viewer
	}
	perspective := aggregate.Perspective(q.Get("perspective"))
	if perspective == "" {
		perspective = aggregate.PerspectiveAuthor
	}

	entries, _, err := h.query.Query(r.Context(), query.Options{Filter: store.Filter{Repo: repo}})
	if err != nil {
		h.logger.Error("failed to query entries for summary", "repo", repo, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	summary := aggregate.BuildActionableSummary(entries, viewer, perspective)
	writeJSON(w, http.StatusOK, summary)
}

// Lookout returns everything that's happened since the last lookout
// checkpoint, advancing it. ?reset=true ignores the stored checkpoint and
// starts a fresh window.
func (h *Handler) Lookout(w http.ResponseWriter, r *http.Request) {
	reset := r.URL.Query().Get("reset") == "true"

	lookoutStore, ok := h.store.(aggregate.LookoutStore)
	if !ok {
		writeError(w, http.StatusNotImplemented, "lookout is unavailable on this store")
		return
	}

	result, err := aggregate.BuildLookout(r.Context(), lookoutStore, reset)
	if err != nil {
		h.logger.Error("failed to build lookout", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
