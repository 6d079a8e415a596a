package query

import (
	"context"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// CommitFilesResolver mirrors internal/sync.CommitFilesResolver's shape
// (returns ok=false when the touched-file list can't be determined). Kept
// as a distinct type so this package has no import dependency on
// internal/sync — both packages apply the same conservative "unknown
// counts as touched" rule independently, per DESIGN.md's Open Question
// decision.
type CommitFilesResolver func(ctx context.Context, sha string) ([]string, bool)

// suppressCommitImpliedReads drops entries from candidates whenever a
// commit on the same PR, timestamped after the entry, touches the entry's
// file — `all` supplies the commit entries to search (the orphaned
// candidate set alone wouldn't include them). A resolver miss (ok==false)
// is treated as a touch, matching the staleness check's conservative
// fallback (spec.md §4.5, §9).
func suppressCommitImpliedReads(ctx context.Context, candidates, all []model.Entry, resolve CommitFilesResolver) []model.Entry {
	if resolve == nil {
		return candidates
	}

	commitsByPR := make(map[int][]model.Entry)
	for _, e := range all {
		if e.Type == model.EntryCommit {
			commitsByPR[e.PR] = append(commitsByPR[e.PR], e)
		}
	}

	out := candidates[:0:0]
	for _, e := range candidates {
		if !commitImpliesRead(ctx, e, commitsByPR[e.PR], resolve) {
			out = append(out, e)
		}
	}
	return out
}

func commitImpliesRead(ctx context.Context, e model.Entry, commits []model.Entry, resolve CommitFilesResolver) bool {
	if e.File == "" {
		return false
	}
	for _, commit := range commits {
		if !commit.CreatedAt.After(e.CreatedAt) {
			continue
		}
		files, ok := resolve(ctx, commit.ID)
		if !ok {
			return true
		}
		if containsString(files, e.File) {
			return true
		}
	}
	return false
}

func containsString(items []string, target string) bool {
	for _, s := range items {
		if s == target {
			return true
		}
	}
	return false
}
