package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/outfitter-dev/firewatch/internal/ghgateway"
	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/store"
)

// CommitFilesResolver returns the file paths a commit touched. ok is false
// when the resolver cannot determine the file list (e.g. a transport
// error) — the staleness check treats that conservatively, per
// SPEC_FULL.md §4.5's Open Question decision, by counting the commit as
// touching every unresolved file rather than silently skipping it.
type CommitFilesResolver func(ctx context.Context, sha string) ([]string, bool)

// NewGatewayCommitFilesResolver wraps ghgateway.Client.GetCommitFiles as a
// CommitFilesResolver, reporting ok=false on any transport error instead
// of propagating it.
func NewGatewayCommitFilesResolver(client *ghgateway.Client, owner, name string) CommitFilesResolver {
	return func(ctx context.Context, sha string) ([]string, bool) {
		files, ok, err := client.GetCommitFiles(ctx, owner, name, sha)
		if err != nil || !ok {
			return nil, false
		}
		return files, true
	}
}

// StalenessStore is the subset of store.Store the staleness check uses.
type StalenessStore interface {
	QueryEntries(ctx context.Context, filter store.Filter, limit, offset int) ([]model.Entry, error)
	UpdateEntry(ctx context.Context, entry model.Entry) error
}

var _ StalenessStore = store.Store(nil)

// CheckResult summarizes one CheckStaleness call.
type CheckResult struct {
	EntriesChecked  int
	EntriesModified int
	// Degraded is true when at least one commit's touched-files list could
	// not be resolved, so some file_activity_after blocks were written
	// using the conservative "assume touched" fallback.
	Degraded bool
}

// CheckStaleness finds review-comment entries in repo whose file has been
// touched by a later commit on the same PR, and writes that back as each
// entry's FileActivity block (spec.md §4.5). It never mutates an entry's
// core identity fields — only FileActivity.
func CheckStaleness(ctx context.Context, st StalenessStore, repo string, resolve CommitFilesResolver) (CheckResult, error) {
	entries, err := st.QueryEntries(ctx, store.Filter{Repo: repo, ExactRepo: true}, 0, 0)
	if err != nil {
		return CheckResult{}, fmt.Errorf("load entries for %s: %w", repo, err)
	}

	commitsByPR := make(map[int][]model.Entry)
	for _, e := range entries {
		if e.Type == model.EntryCommit {
			commitsByPR[e.PR] = append(commitsByPR[e.PR], e)
		}
	}
	for pr, commits := range commitsByPR {
		sort.Slice(commits, func(i, j int) bool { return commits[i].CreatedAt.Before(commits[j].CreatedAt) })
		commitsByPR[pr] = commits
	}

	var result CheckResult
	for _, entry := range entries {
		if !entry.IsReviewComment() || entry.File == "" {
			continue
		}
		result.EntriesChecked++

		touching := 0
		degraded := false
		var latestCommit model.Entry
		haveLatest := false

		for _, commit := range commitsByPR[entry.PR] {
			if !commit.CreatedAt.After(entry.CreatedAt) {
				continue
			}
			files, ok := resolve(ctx, commit.ID)
			matched := !ok
			if ok {
				matched = containsFile(files, entry.File)
			} else {
				degraded = true
			}
			if !matched {
				continue
			}
			touching++
			if !haveLatest || commit.CreatedAt.After(latestCommit.CreatedAt) {
				latestCommit = commit
				haveLatest = true
			}
		}

		if touching == 0 {
			continue
		}

		activity := &model.FileActivityAfter{
			Modified:            true,
			CommitsTouchingFile: touching,
			Degraded:            degraded,
		}
		if haveLatest {
			activity.LatestCommit = latestCommit.ID
			at := latestCommit.CreatedAt
			activity.LatestCommitAt = &at
		}

		entry.FileActivity = activity
		if err := st.UpdateEntry(ctx, entry); err != nil {
			return result, fmt.Errorf("update entry %s: %w", entry.ID, err)
		}
		result.EntriesModified++
		if degraded {
			result.Degraded = true
		}
	}

	return result, nil
}
