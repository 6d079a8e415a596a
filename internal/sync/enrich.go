package sync

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/stackprovider"
)

// NewStackEnricher attaches Graphite stack context to every entry on a PR
// whose branch sits in a known stack (SPEC_FULL.md §4.4, §4.8). A provider
// that reports unavailable, or a branch with no stack, leaves the entry
// untouched rather than failing the sync.
func NewStackEnricher(provider stackprovider.Provider) Enricher {
	return func(ctx context.Context, entry model.Entry, pr model.PullRequest) model.Entry {
		if provider == nil || !provider.IsAvailable(ctx) {
			return entry
		}

		pos, err := provider.GetStackForBranch(ctx, pr.Branch)
		if err != nil || pos == nil {
			if err != nil {
				slog.Debug("sync: stack lookup failed", "repo", entry.Repo, "pr", entry.PR, "branch", pr.Branch, "error", err)
			}
			return entry
		}

		g := &model.Graphite{
			StackID:       pos.Stack.ID,
			StackPosition: pos.Index + 1,
			StackSize:     len(pos.Stack.Branches),
		}
		if pos.Index > 0 {
			if parentPR := pos.Stack.PRNumbers[pos.Index-1]; parentPR != 0 {
				g.ParentPR = &parentPR
			}
		}
		entry.Graphite = g
		return entry
	}
}

// NewFileProvenanceEnricher attributes a review comment's file to the
// nearest ancestor commit that introduced it, by shelling `git diff
// --name-only` between a stack's branches in repoDir (SPEC_FULL.md §4.4).
// An empty repoDir, a non-review-comment entry, or any git failure leaves
// the entry untouched — this enricher never fails a sync.
func NewFileProvenanceEnricher(repoDir string, provider stackprovider.Provider) Enricher {
	return func(ctx context.Context, entry model.Entry, pr model.PullRequest) model.Entry {
		if repoDir == "" || provider == nil || !entry.IsReviewComment() || entry.File == "" {
			return entry
		}

		pos, err := provider.GetStackForBranch(ctx, pr.Branch)
		if err != nil || pos == nil || pos.Index == 0 {
			return entry
		}

		parentBranch := pos.Stack.Branches[pos.Index-1]
		touched, err := diffNameOnly(ctx, repoDir, parentBranch, pr.Branch)
		if err != nil {
			slog.Debug("sync: file provenance diff failed", "repo", entry.Repo, "pr", entry.PR, "error", err)
			return entry
		}

		if !containsFile(touched, entry.File) {
			return entry
		}

		parentPR := 0
		if pos.Stack.PRNumbers[pos.Index-1] != 0 {
			parentPR = pos.Stack.PRNumbers[pos.Index-1]
		}
		entry.FileProvenance = &model.FileProvenance{
			OriginPR:      parentPR,
			OriginBranch:  parentBranch,
			StackPosition: pos.Index,
		}
		return entry
	}
}

func diffNameOnly(ctx context.Context, repoDir, from, to string) ([]string, error) {
	out, err := exec.CommandContext(ctx, "git", "-C", repoDir, "diff", "--name-only", from+".."+to).Output()
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

func containsFile(files []string, target string) bool {
	for _, f := range files {
		if f == target {
			return true
		}
	}
	return false
}
