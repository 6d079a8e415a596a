// Package aggregate rolls up entries into the worklist, actionable
// summary, and lookout views spec.md §4.7 describes — it never talks to
// the store or gateway directly except for BuildLookout's timestamp carry
// row, so BuildWorklist/BuildActionableSummary are pure functions over
// already-queried entries.
package aggregate

import (
	"sort"
	"time"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// AckLookup reports whether a comment id has a local ack.
type AckLookup interface {
	IsAcked(id string) bool
}

// AckSet is a plain map-backed AckLookup, built from store.GetAckedIDs.
type AckSet map[string]bool

// IsAcked implements AckLookup.
func (s AckSet) IsAcked(id string) bool { return s[id] }

// WorklistRow is one (repo, pr) group's rollup, per spec.md §4.7.
type WorklistRow struct {
	Repo                string
	PR                  int
	Title               string
	Author              string
	State               model.PRState
	Branch              string
	Labels              []string
	ChangesRequested    int
	UnaddressedFeedback int
	LastActivityAt      time.Time
}

// BuildWorklist groups entries by (repo, pr) and emits one row per group,
// sorted changes_requested DESC, unaddressed DESC, last_activity_at DESC
// (spec.md §4.7).
func BuildWorklist(entries []model.Entry, acks AckLookup) []WorklistRow {
	type key struct {
		repo string
		pr   int
	}
	groups := make(map[key]*WorklistRow)
	order := make([]key, 0)

	for _, e := range entries {
		k := key{e.Repo, e.PR}
		row, ok := groups[k]
		if !ok {
			row = &WorklistRow{
				Repo: e.Repo, PR: e.PR, Title: e.PRTitle, Author: e.PRAuthor,
				State: e.PRState, Branch: e.PRBranch, Labels: e.PRLabels,
			}
			groups[k] = row
			order = append(order, k)
		}

		if e.CreatedAt.After(row.LastActivityAt) {
			row.LastActivityAt = e.CreatedAt
		}

		if e.Type == model.EntryReview && e.State == string(model.ReviewChangesRequested) {
			row.ChangesRequested++
		}

		if isUnaddressedFeedback(e, acks) {
			row.UnaddressedFeedback++
		}
	}

	rows := make([]WorklistRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, *groups[k])
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ChangesRequested != rows[j].ChangesRequested {
			return rows[i].ChangesRequested > rows[j].ChangesRequested
		}
		if rows[i].UnaddressedFeedback != rows[j].UnaddressedFeedback {
			return rows[i].UnaddressedFeedback > rows[j].UnaddressedFeedback
		}
		return rows[i].LastActivityAt.After(rows[j].LastActivityAt)
	})
	return rows
}

// isUnaddressedFeedback reports whether e counts toward a PR's unaddressed
// feedback: an unresolved review comment, or an issue comment, not yet
// locally acked.
func isUnaddressedFeedback(e model.Entry, acks AckLookup) bool {
	if acks != nil && acks.IsAcked(e.ID) {
		return false
	}
	if e.IsReviewComment() {
		return e.IsUnresolved()
	}
	return e.IsIssueComment()
}
