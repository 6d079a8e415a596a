package aggregate

import (
	"sort"
	"time"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// Perspective selects which side of a PR conversation a summary is built
// for: the PR's author (feedback they need to address) or a reviewer
// (PRs awaiting their attention), per spec.md §4.7.
type Perspective string

// Perspective values.
const (
	PerspectiveAuthor   Perspective = "author"
	PerspectiveReviewer Perspective = "reviewer"
)

// Bucket names an actionable-summary group.
type Bucket string

// Bucket values, per spec.md §4.7.
const (
	BucketUnaddressed      Bucket = "unaddressed"
	BucketChangesRequested Bucket = "changes_requested"
	BucketAwaitingReview   Bucket = "awaiting_review"
	BucketStale            Bucket = "stale"
)

// staleWindow is the inactivity threshold a PR must cross to land in the
// stale bucket — the same 7-day default BuildLookout falls back to when no
// window has been recorded yet.
const staleWindow = 7 * 24 * time.Hour

// SummaryItem is one PR's entry in a Summary bucket.
type SummaryItem struct {
	Repo           string
	PR             int
	Title          string
	Author         string
	LastActivityAt time.Time
}

// Summary is BuildActionableSummary's bucketed result, each bucket sorted
// last_activity_at DESC.
type Summary struct {
	Unaddressed      []SummaryItem
	ChangesRequested []SummaryItem
	AwaitingReview   []SummaryItem
	Stale            []SummaryItem
}

type prAccumulator struct {
	repo, title, author string
	pr                  int
	state               model.PRState
	isDraft             bool
	lastActivity        time.Time
	hasUnaddressed      bool
	latestReviewState   string
	latestReviewAt      time.Time
	viewerReviewed      bool
}

// BuildActionableSummary buckets entries from viewer's perspective
// (spec.md §4.7): as author, surfaces unaddressed feedback and changes
// requested on their own PRs; as reviewer, surfaces PRs by others still
// awaiting their review. Both perspectives share the stale bucket, scoped
// to the PRs each perspective already cares about.
func BuildActionableSummary(entries []model.Entry, viewer string, perspective Perspective) Summary {
	type key struct {
		repo string
		pr   int
	}
	groups := make(map[key]*prAccumulator)
	order := make([]key, 0)

	for _, e := range entries {
		k := key{e.Repo, e.PR}
		acc, ok := groups[k]
		if !ok {
			acc = &prAccumulator{repo: e.Repo, pr: e.PR, title: e.PRTitle, author: e.PRAuthor, state: e.PRState}
			groups[k] = acc
			order = append(order, k)
		}
		if e.CreatedAt.After(acc.lastActivity) {
			acc.lastActivity = e.CreatedAt
		}

		switch {
		case e.IsReviewComment() && e.IsUnresolved():
			acc.hasUnaddressed = true
		case e.IsIssueComment() && !sameLogin(e.Author, viewer):
			acc.hasUnaddressed = true
		case e.Type == model.EntryReview:
			if e.CreatedAt.After(acc.latestReviewAt) {
				acc.latestReviewState = e.State
				acc.latestReviewAt = e.CreatedAt
			}
			if sameLogin(e.Author, viewer) {
				acc.viewerReviewed = true
			}
		}
	}

	var summary Summary
	for _, k := range order {
		acc := groups[k]
		item := SummaryItem{Repo: acc.repo, PR: acc.pr, Title: acc.title, Author: acc.author, LastActivityAt: acc.lastActivity}
		isOpen := acc.state == model.PRStateOpen || acc.state == model.PRStateDraft

		switch perspective {
		case PerspectiveAuthor:
			if !sameLogin(acc.author, viewer) {
				continue
			}
			if acc.hasUnaddressed {
				summary.Unaddressed = append(summary.Unaddressed, item)
			}
			if acc.latestReviewState == string(model.ReviewChangesRequested) {
				summary.ChangesRequested = append(summary.ChangesRequested, item)
			}
			if isOpen && isStale(acc.lastActivity) {
				summary.Stale = append(summary.Stale, item)
			}

		case PerspectiveReviewer:
			if sameLogin(acc.author, viewer) {
				continue
			}
			if isOpen && !acc.viewerReviewed {
				summary.AwaitingReview = append(summary.AwaitingReview, item)
			}
			if isOpen && acc.viewerReviewed && isStale(acc.lastActivity) {
				summary.Stale = append(summary.Stale, item)
			}
		}
	}

	sortByLastActivityDesc(summary.Unaddressed)
	sortByLastActivityDesc(summary.ChangesRequested)
	sortByLastActivityDesc(summary.AwaitingReview)
	sortByLastActivityDesc(summary.Stale)
	return summary
}

func isStale(lastActivity time.Time) bool {
	return time.Since(lastActivity) >= staleWindow
}

func sameLogin(a, b string) bool {
	return a != "" && b != "" && a == b
}

func sortByLastActivityDesc(items []SummaryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastActivityAt.After(items[j].LastActivityAt)
	})
}
