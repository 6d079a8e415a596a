package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/outfitter-dev/firewatch/internal/identity"
	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/query"
	"github.com/outfitter-dev/firewatch/internal/store"
)

// ListEntries runs a filtered query and returns each entry with its short
// id attached, matching the CLI's own display form (model.Display).
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.Filter{
		Repo:        q.Get("repo"),
		Label:       q.Get("label"),
		Author:      q.Get("author"),
		ExcludeBots: q.Get("exclude_bots") == "true",
		Orphaned:    q.Get("orphaned") == "true",
	}
	if pr := q.Get("pr"); pr != "" {
		if n, err := strconv.Atoi(pr); err == nil {
			filter.PR = []int{n}
		}
	}
	if since := q.Get("since"); since != "" {
		t, err := query.ParseSince(since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since: "+err.Error())
			return
		}
		filter.Since = t
	}

	opts := query.Options{Filter: filter}
	if authors := q.Get("include_authors"); authors != "" {
		opts.IncludeAuthors = strings.Split(authors, ",")
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	entries, total, err := h.query.Query(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to query entries", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cache := identity.BuildFrom(entries,
		func(e model.Entry) string { return e.ID },
		func(e model.Entry) string { return e.Repo },
		func(e model.Entry) int { return e.PR },
	)
	resp := make([]model.Display, 0, len(entries))
	for _, e := range entries {
		short, _ := cache.ShortIDFor(e.Repo, e.ID)
		resp = append(resp, model.Display{Entry: e, ShortID: short})
	}

	writeJSON(w, http.StatusOK, EntriesResponse{Entries: resp, Total: total})
}

// EntriesResponse is ListEntries' response body.
type EntriesResponse struct {
	Entries []model.Display `json:"entries"`
	Total   int              `json:"total"`
}
