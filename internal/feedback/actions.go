package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/outfitter-dev/firewatch/internal/ferrors"
	"github.com/outfitter-dev/firewatch/internal/model"
)

// dispatchOne applies action to a single resolved target, classifying it
// as a review comment, issue comment, or bare PR as needed (spec.md
// §4.9's "classify target" step).
func (b *Bridge) dispatchOne(ctx context.Context, repo string, t target, action Action, opts ActionOpts) Outcome {
	owner, name, err := splitRepo(repo)
	out := Outcome{ShortID: t.shortID, GHID: t.ghID, PR: t.pr}
	if err != nil {
		out.Error = err.Error()
		return out
	}

	switch action {
	case ActionAck:
		return b.ack(ctx, repo, t, out)
	case ActionReply:
		return b.reply(ctx, owner, name, t, opts, out)
	case ActionClose, ActionResolve:
		return b.resolveThreads(ctx, owner, name, t, opts, out)
	case ActionApprove:
		return b.review(ctx, owner, name, t, "APPROVE", opts, out)
	case ActionReject:
		return b.review(ctx, owner, name, t, "REQUEST_CHANGES", opts, out)
	case ActionEdit:
		return b.edit(ctx, owner, name, t, opts, out)
	default:
		out.Error = fmt.Sprintf("unsupported action %q", action)
		return out
	}
}

// ack idempotently records a local acknowledgement, then best-effort adds a
// 👍 reaction on GitHub. GitHub's "already reacted" conflict counts as
// success, per spec.md §4.9.
func (b *Bridge) ack(ctx context.Context, repo string, t target, out Outcome) Outcome {
	if t.ghID == "" {
		out.Error = "ack requires a comment id, not a PR number"
		return out
	}

	already, err := b.Store.IsAcked(ctx, repo, t.ghID)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.AlreadyAcked = already

	if !already {
		ack := model.Ack{Repo: repo, CommentID: t.ghID, PR: t.pr, AckedAt: time.Now().UTC(), AckedBy: b.Viewer}
		if err := b.Store.AddAck(ctx, ack); err != nil {
			out.Error = err.Error()
			return out
		}
	}

	if b.Gateway != nil {
		if err := b.Gateway.AddReaction(ctx, t.ghID, "THUMBS_UP"); err == nil || ferrors.KindOf(err) == ferrors.Conflict {
			out.ReactionAdded = true
		}
	}

	out.OK = true
	return out
}

// reply posts a reply to a review-comment thread, or an issue comment on
// the PR itself when the target isn't a review comment.
func (b *Bridge) reply(ctx context.Context, owner, name string, t target, opts ActionOpts, out Outcome) Outcome {
	if strings.TrimSpace(opts.Body) == "" {
		out.Error = "reply requires a body"
		return out
	}

	if t.entry != nil && t.entry.IsReviewComment() {
		threadID := t.entry.ThreadID
		if threadID == "" {
			out.Error = "review comment has no associated thread id"
			return out
		}
		if err := b.Gateway.AddReviewThreadReply(ctx, threadID, opts.Body); err != nil {
			out.Error = err.Error()
			return out
		}
		if opts.Resolve {
			if err := b.Gateway.ResolveReviewThread(ctx, threadID); err != nil && ferrors.KindOf(err) != ferrors.Conflict {
				out.Error = err.Error()
				return out
			}
			out.Resolved = true
		}
		out.OK = true
		return out
	}

	pr := t.pr
	if pr == 0 {
		out.Error = "reply requires a PR number or a comment within a PR"
		return out
	}
	prNodeID, err := b.Gateway.FetchPullRequestID(ctx, owner, name, pr)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if err := b.Gateway.AddIssueComment(ctx, prNodeID, opts.Body); err != nil {
		out.Error = err.Error()
		return out
	}
	out.OK = true
	return out
}

// resolveThreads resolves a single review comment's thread, or — when the
// target is a bare PR and the caller passed All or Confirm — every
// unresolved thread on that PR.
func (b *Bridge) resolveThreads(ctx context.Context, owner, name string, t target, opts ActionOpts, out Outcome) Outcome {
	if t.entry != nil && t.entry.IsReviewComment() {
		threadID := t.entry.ThreadID
		if threadID == "" {
			out.Error = "comment has no associated thread"
			return out
		}
		if err := b.Gateway.ResolveReviewThread(ctx, threadID); err != nil && ferrors.KindOf(err) != ferrors.Conflict {
			out.Error = err.Error()
			return out
		}
		out.OK = true
		return out
	}

	if !opts.All && !opts.Confirm {
		out.Error = "resolving every thread on a PR requires --all or --confirm"
		return out
	}
	pr := t.pr
	if pr == 0 {
		out.Error = "close/resolve requires a comment id or PR number"
		return out
	}
	threads, err := b.Gateway.FetchReviewThreadMap(ctx, owner, name, pr)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	for _, threadID := range threads {
		if err := b.Gateway.ResolveReviewThread(ctx, threadID); err != nil && ferrors.KindOf(err) != ferrors.Conflict {
			out.Error = err.Error()
			return out
		}
	}
	out.OK = true
	return out
}

// review submits a top-level PR review (approve or request-changes).
func (b *Bridge) review(ctx context.Context, owner, name string, t target, event string, opts ActionOpts, out Outcome) Outcome {
	pr := t.pr
	if pr == 0 && t.entry != nil {
		pr = t.entry.PR
	}
	if pr == 0 {
		out.Error = "approve/reject requires a PR number or a comment within a PR"
		return out
	}
	if event == "REQUEST_CHANGES" && opts.Body == "" {
		out.Error = "reject requires a body"
		return out
	}
	prNodeID, err := b.Gateway.FetchPullRequestID(ctx, owner, name, pr)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if err := b.Gateway.SubmitReview(ctx, prNodeID, event, opts.Body); err != nil {
		out.Error = err.Error()
		return out
	}
	out.OK = true
	return out
}

// edit orchestrates every independent PR-level sub-edit spec.md §4.9.4
// names — title/body/base, milestone set/clear, draft↔ready toggle, and
// add/remove of labels/reviewers/assignees — as its own mutation, applying
// every sub-edit the caller requested and collecting one error per
// sub-edit that fails rather than aborting on the first.
func (b *Bridge) edit(ctx context.Context, owner, name string, t target, opts ActionOpts, out Outcome) Outcome {
	pr := t.pr
	if pr == 0 && t.entry != nil {
		pr = t.entry.PR
	}
	if pr == 0 {
		out.Error = "edit requires a PR number or a comment within a PR"
		return out
	}
	prNodeID, err := b.Gateway.FetchPullRequestID(ctx, owner, name, pr)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	var errs []string
	apply := func(field string, fn func() error) {
		if err := fn(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", field, err))
		}
	}

	if opts.Title != nil {
		apply("title", func() error { return b.Gateway.SetTitle(ctx, prNodeID, *opts.Title) })
	}
	if opts.EditBody != nil {
		apply("body", func() error { return b.Gateway.SetBody(ctx, prNodeID, *opts.EditBody) })
	}
	if opts.Base != nil {
		apply("base", func() error { return b.Gateway.SetBase(ctx, prNodeID, *opts.Base) })
	}
	if opts.MilestoneSet {
		apply("milestone", func() error { return b.Gateway.SetMilestone(ctx, prNodeID, opts.MilestoneID) })
	}
	if opts.Draft != nil {
		apply("draft", func() error { return b.Gateway.SetDraftStatus(ctx, prNodeID, *opts.Draft) })
	}
	if len(opts.Labels) > 0 {
		apply("labels", func() error { return b.Gateway.AddLabels(ctx, prNodeID, opts.Labels) })
	}
	if len(opts.RemoveLabels) > 0 {
		apply("remove-labels", func() error { return b.Gateway.RemoveLabels(ctx, prNodeID, opts.RemoveLabels) })
	}
	if len(opts.AddReviewers) > 0 {
		apply("reviewers", func() error { return b.Gateway.AddReviewers(ctx, prNodeID, opts.AddReviewers) })
	}
	if len(opts.RemoveReviewers) > 0 {
		apply("remove-reviewers", func() error { return b.Gateway.RemoveReviewers(ctx, prNodeID, opts.RemoveReviewers) })
	}
	if len(opts.AddAssignees) > 0 {
		apply("assignees", func() error { return b.Gateway.AddAssignees(ctx, prNodeID, opts.AddAssignees) })
	}
	if len(opts.RemoveAssignees) > 0 {
		apply("remove-assignees", func() error { return b.Gateway.RemoveAssignees(ctx, prNodeID, opts.RemoveAssignees) })
	}

	if len(errs) > 0 {
		out.Error = strings.Join(errs, "; ")
		return out
	}
	out.OK = true
	return out
}
