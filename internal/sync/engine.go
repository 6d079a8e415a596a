// Package sync pulls PR activity through ghgateway, flattens it into
// model.Entry rows, runs enrichers, and advances per-repo cursors
// (SPEC_FULL.md §4.4). It depends only on the Store and ActivityFetcher
// ports, never the concrete ghgateway.Client or SQLStore, mirroring the
// teacher's driven-port boundary in internal/application.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/outfitter-dev/firewatch/internal/ghgateway"
	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/store"
)

// ActivityFetcher is the subset of ghgateway.Client the engine needs,
// narrowed to a port so tests can fake a page sequence without standing up
// an httptest.Server.
type ActivityFetcher interface {
	FetchPRActivity(ctx context.Context, owner, name string, opts ghgateway.ActivityOptions) (*ghgateway.PRActivityPage, error)
}

// Store is the subset of store.Store the engine writes through.
type Store interface {
	UpsertPR(ctx context.Context, pr model.PullRequest) error
	InsertEntries(ctx context.Context, entries []model.Entry) (int, error)
	GetSyncMeta(ctx context.Context, repo string, scope model.Scope) (*model.SyncMeta, error)
	SetSyncMeta(ctx context.Context, meta model.SyncMeta) error
}

var _ Store = store.Store(nil)

// Enricher mutates one entry in light of the PR it belongs to. Enrichers
// are total: a failure is logged and swallowed, the entry is inserted
// without that enrichment block rather than dropped (SPEC_FULL.md §4.4).
type Enricher func(ctx context.Context, entry model.Entry, pr model.PullRequest) model.Entry

// Opts parameterizes one Sync call.
type Opts struct {
	// Full forces a from-scratch page walk, ignoring any stored cursor.
	Full bool
	// Since, if non-zero, lets the engine stop paging once an entire page
	// of PRs sorted by updated_at DESC is older than Since.
	Since time.Time
}

// Result summarizes one Sync call.
type Result struct {
	RunID         string
	PRsProcessed  int
	EntriesAdded  int
	Cursor        string
	StoppedEarly  bool
}

// Engine runs incremental sync for one (repo, scope) pair at a time.
type Engine struct {
	Fetcher   ActivityFetcher
	Store     Store
	Enrichers []Enricher
}

// New builds an Engine with the given enrichers applied in order.
func New(fetcher ActivityFetcher, st Store, enrichers ...Enricher) *Engine {
	return &Engine{Fetcher: fetcher, Store: st, Enrichers: enrichers}
}

var scopeStates = map[model.Scope][]string{
	model.ScopeOpen:   {"OPEN"},
	model.ScopeClosed: {"CLOSED", "MERGED"},
}

// Sync pages PR activity for repo in the given scope, flattens each PR into
// entries, enriches them, and inserts them — advancing the stored cursor
// only after each page's entries have committed (spec.md §4.2 invariant b).
// A transport error aborts the run; everything already committed stays
// committed, and the next call resumes from the last advanced cursor.
func (e *Engine) Sync(ctx context.Context, repo string, scope model.Scope, opts Opts) (Result, error) {
	runID := uuid.NewString()
	owner, name, err := splitRepo(repo)
	if err != nil {
		return Result{RunID: runID}, err
	}

	after := ""
	basePRCount := 0
	priorMeta, err := e.Store.GetSyncMeta(ctx, repo, scope)
	if err != nil {
		return Result{RunID: runID}, fmt.Errorf("load sync meta: %w", err)
	}
	if priorMeta != nil {
		basePRCount = priorMeta.PRCount
		if !opts.Full {
			after = priorMeta.Cursor
		}
	}

	result := Result{RunID: runID, Cursor: after}
	capturedAt := time.Now().UTC()

	for {
		page, err := e.Fetcher.FetchPRActivity(ctx, owner, name, ghgateway.ActivityOptions{
			First: 50, After: after, States: scopeStates[scope],
		})
		if err != nil {
			slog.Error("sync: fetch page failed", "run_id", runID, "repo", repo, "scope", scope, "error", err)
			return result, err
		}

		pageAdded := 0
		for _, node := range page.PRs {
			pr := mapPullRequest(repo, node)
			if err := e.Store.UpsertPR(ctx, pr); err != nil {
				return result, fmt.Errorf("upsert pr %s#%d: %w", repo, node.Number, err)
			}

			entries := prToEntries(repo, node, pr, capturedAt)
			entries = e.runEnrichers(ctx, entries, pr)

			n, err := e.Store.InsertEntries(ctx, entries)
			if err != nil {
				return result, fmt.Errorf("insert entries for %s#%d: %w", repo, node.Number, err)
			}
			pageAdded += n
			result.PRsProcessed++
		}
		result.EntriesAdded += pageAdded

		stopEarly := !opts.Since.IsZero() && pageIsOlderThan(page.PRs, opts.Since)
		if stopEarly {
			result.StoppedEarly = true
		}

		meta := model.SyncMeta{
			Repo: repo, Scope: scope, LastSync: capturedAt,
			Cursor: page.PageInfo.EndCursor, PRCount: basePRCount + result.PRsProcessed,
		}
		if err := e.Store.SetSyncMeta(ctx, meta); err != nil {
			return result, fmt.Errorf("advance sync meta: %w", err)
		}
		result.Cursor = page.PageInfo.EndCursor

		if !page.PageInfo.HasNextPage || stopEarly {
			break
		}
		after = page.PageInfo.EndCursor
	}

	slog.Debug("sync: run complete", "run_id", runID, "repo", repo, "scope", scope,
		"prs_processed", result.PRsProcessed, "entries_added", result.EntriesAdded)
	return result, nil
}

func (e *Engine) runEnrichers(ctx context.Context, entries []model.Entry, pr model.PullRequest) []model.Entry {
	for i, entry := range entries {
		for _, enrich := range e.Enrichers {
			entries[i] = enrich(ctx, entry, pr)
			entry = entries[i]
		}
	}
	return entries
}

// pageIsOlderThan reports whether every PR in prs was last updated before
// since — the page is sorted UPDATED_AT DESC, so only the last element is
// checked, whatever the page's length.
func pageIsOlderThan(prs []ghgateway.PRNode, since time.Time) bool {
	if len(prs) == 0 {
		return false
	}
	last := prs[len(prs)-1]
	return last.UpdatedAt.Before(since)
}

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q, expected owner/name", repo)
	}
	return parts[0], parts[1], nil
}
