package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/outfitter-dev/firewatch/internal/ghgateway"
	"github.com/outfitter-dev/firewatch/internal/model"
)

// mapPullRequest generalizes the teacher's mapPullRequest/mapReview-family
// functions in internal/application: instead of writing each GraphQL node
// shape into a distinct typed row, every shape flattens into model.Entry,
// denormalizing the PR's metadata onto each one (spec.md §3).
func mapPullRequest(repo string, node ghgateway.PRNode) model.PullRequest {
	return model.PullRequest{
		Repo:    repo,
		Number:  node.Number,
		State:   mapPRState(node),
		IsDraft: node.IsDraft,
		Title:   node.Title,
		Author:  node.Author,
		Branch:  node.HeadRefName,
		Labels:  node.Labels,
	}
}

func mapPRState(node ghgateway.PRNode) model.PRState {
	if node.IsDraft {
		return model.PRStateDraft
	}
	switch strings.ToUpper(node.State) {
	case "MERGED":
		return model.PRStateMerged
	case "CLOSED":
		return model.PRStateClosed
	default:
		return model.PRStateOpen
	}
}

var reviewStateMap = map[string]model.ReviewState{
	"APPROVED":          model.ReviewApproved,
	"CHANGES_REQUESTED": model.ReviewChangesRequested,
	"COMMENTED":         model.ReviewCommented,
	"PENDING":           model.ReviewPending,
	"DISMISSED":         model.ReviewDismissed,
}

// prToEntries flattens one PR node's reviews, issue comments, review
// threads, commits, and CI rollup into denormalized Entry rows. It is pure:
// all timestamp/author/state decisions are made here so Enrichers never
// need to look back at the raw GraphQL shape.
func prToEntries(repo string, node ghgateway.PRNode, pr model.PullRequest, capturedAt time.Time) []model.Entry {
	var out []model.Entry
	base := baseEntry(repo, node, pr, capturedAt)

	for _, r := range node.Reviews {
		e := base
		e.ID = r.ID
		e.Type = model.EntryReview
		e.Author = r.Author
		e.Body = r.Body
		e.State = string(reviewStateOf(r.State))
		e.CreatedAt = r.SubmittedAt
		out = append(out, e)
	}

	for _, c := range node.IssueComments {
		e := base
		e.ID = c.ID
		e.Type = model.EntryComment
		e.Subtype = model.SubtypeIssueComment
		e.Author = c.Author
		e.Body = c.Body
		e.URL = c.URL
		e.CreatedAt = c.CreatedAt
		if !c.UpdatedAt.IsZero() && !c.UpdatedAt.Equal(c.CreatedAt) {
			u := c.UpdatedAt
			e.UpdatedAt = &u
		}
		out = append(out, e)
	}

	for _, t := range node.ReviewThreads {
		resolved := t.IsResolved
		for _, tc := range t.Comments {
			e := base
			e.ID = tc.ID
			e.Type = model.EntryComment
			e.Subtype = model.SubtypeReviewComment
			e.Author = tc.Author
			e.Body = tc.Body
			e.URL = tc.URL
			e.File = t.Path
			e.Line = t.Line
			e.ThreadID = t.ThreadID
			e.ThreadResolved = &resolved
			e.CreatedAt = tc.CreatedAt
			if !tc.UpdatedAt.IsZero() && !tc.UpdatedAt.Equal(tc.CreatedAt) {
				u := tc.UpdatedAt
				e.UpdatedAt = &u
			}
			out = append(out, e)
		}
	}

	for _, c := range node.Commits {
		e := base
		e.ID = c.SHA
		e.Type = model.EntryCommit
		e.CreatedAt = c.CommittedDate
		out = append(out, e)
	}

	for _, check := range node.CheckContexts {
		e := base
		e.ID = fmt.Sprintf("%s#%d:check:%s", repo, node.Number, check.Name)
		e.Type = model.EntryCI
		e.State = strings.ToLower(check.Conclusion)
		e.URL = check.DetailsURL
		e.CreatedAt = node.UpdatedAt
		e.CI = &model.CheckInfo{Name: check.Name, Conclusion: check.Conclusion, DetailsURL: check.DetailsURL}
		out = append(out, e)
	}

	return out
}

func baseEntry(repo string, node ghgateway.PRNode, pr model.PullRequest, capturedAt time.Time) model.Entry {
	return model.Entry{
		Repo:       repo,
		PR:         node.Number,
		CapturedAt: capturedAt,
		PRTitle:    pr.Title,
		PRState:    pr.State,
		PRAuthor:   pr.Author,
		PRBranch:   pr.Branch,
		PRLabels:   pr.Labels,
	}
}

func reviewStateOf(raw string) model.ReviewState {
	if s, ok := reviewStateMap[strings.ToUpper(raw)]; ok {
		return s
	}
	return model.ReviewState(strings.ToLower(raw))
}
