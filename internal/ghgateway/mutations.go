package ghgateway

import "context"

const addIssueCommentMutation = `
mutation($subjectId: ID!, $body: String!) {
  addComment(input: {subjectId: $subjectId, body: $body}) {
    commentEdge { node { id } }
  }
}`

// AddIssueComment posts a top-level (non-diff) comment on a pull request,
// addressed by the PR's GraphQL node id.
func (c *Client) AddIssueComment(ctx context.Context, prNodeID, body string) error {
	return c.do(ctx, addIssueCommentMutation, map[string]any{"subjectId": prNodeID, "body": body}, nil)
}

const addReviewThreadReplyMutation = `
mutation($threadId: ID!, $body: String!) {
  addPullRequestReviewThreadReply(input: {pullRequestReviewThreadId: $threadId, body: $body}) {
    comment { id }
  }
}`

// AddReviewThreadReply replies within an existing review thread, addressed
// by the thread's node id (see FetchReviewThreadMap).
func (c *Client) AddReviewThreadReply(ctx context.Context, threadID, body string) error {
	return c.do(ctx, addReviewThreadReplyMutation, map[string]any{"threadId": threadID, "body": body}, nil)
}

const resolveReviewThreadMutation = `
mutation($threadId: ID!) {
  resolveReviewThread(input: {threadId: $threadId}) {
    thread { isResolved }
  }
}`

// ResolveReviewThread marks a review thread resolved. GitHub's own
// "already resolved" error surfaces as ferrors.Conflict, which callers
// treat as a no-op success (see SPEC_FULL.md §4.9's idempotent dispatch
// requirement).
func (c *Client) ResolveReviewThread(ctx context.Context, threadID string) error {
	return c.do(ctx, resolveReviewThreadMutation, map[string]any{"threadId": threadID}, nil)
}

const addReactionMutation = `
mutation($subjectId: ID!, $content: ReactionContent!) {
  addReaction(input: {subjectId: $subjectId, content: $content}) {
    reaction { content }
  }
}`

// AddReaction adds an emoji reaction (e.g. THUMBS_UP) to a comment, used
// to acknowledge feedback without leaving a reply.
func (c *Client) AddReaction(ctx context.Context, subjectID, content string) error {
	return c.do(ctx, addReactionMutation, map[string]any{"subjectId": subjectID, "content": content}, nil)
}

const submitReviewMutation = `
mutation($prId: ID!, $event: PullRequestReviewEvent!, $body: String) {
  addPullRequestReview(input: {pullRequestId: $prId, event: $event, body: $body}) {
    pullRequestReview { id }
  }
}`

// SubmitReview submits a top-level review (APPROVE, REQUEST_CHANGES, or
// COMMENT) on a pull request, addressed by the PR's node id. Inline
// comments are not part of this mutation; use AddReviewThreadReply for
// replies to existing threads.
func (c *Client) SubmitReview(ctx context.Context, prNodeID, event, body string) error {
	vars := map[string]any{"prId": prNodeID, "event": event}
	if body != "" {
		vars["body"] = body
	}
	return c.do(ctx, submitReviewMutation, vars, nil)
}

const markReadyForReviewMutation = `
mutation($id: ID!) {
  markPullRequestReadyForReview(input: {pullRequestId: $id}) {
    pullRequest { isDraft }
  }
}`

const convertToDraftMutation = `
mutation($id: ID!) {
  convertPullRequestToDraft(input: {pullRequestId: $id}) {
    pullRequest { isDraft }
  }
}`

// SetDraftStatus converts a pull request to or from draft status,
// addressed by its node id.
func (c *Client) SetDraftStatus(ctx context.Context, prNodeID string, draft bool) error {
	mutation := markReadyForReviewMutation
	if draft {
		mutation = convertToDraftMutation
	}
	return c.do(ctx, mutation, map[string]any{"id": prNodeID}, nil)
}

const addLabelMutation = `
mutation($id: ID!, $labelIds: [ID!]!) {
  addLabelsToLabelable(input: {labelableId: $id, labelIds: $labelIds}) {
    labelable { ... on PullRequest { id } }
  }
}`

// AddLabels attaches existing labels (by their GraphQL label node ids) to
// a pull request.
func (c *Client) AddLabels(ctx context.Context, prNodeID string, labelIDs []string) error {
	return c.do(ctx, addLabelMutation, map[string]any{"id": prNodeID, "labelIds": labelIDs}, nil)
}

const removeLabelMutation = `
mutation($id: ID!, $labelIds: [ID!]!) {
  removeLabelsFromLabelable(input: {labelableId: $id, labelIds: $labelIds}) {
    labelable { ... on PullRequest { id } }
  }
}`

// RemoveLabels detaches labels (by their GraphQL label node ids) from a
// pull request.
func (c *Client) RemoveLabels(ctx context.Context, prNodeID string, labelIDs []string) error {
	return c.do(ctx, removeLabelMutation, map[string]any{"id": prNodeID, "labelIds": labelIDs}, nil)
}

const updateTitleMutation = `
mutation($id: ID!, $title: String!) {
  updatePullRequest(input: {pullRequestId: $id, title: $title}) {
    pullRequest { id }
  }
}`

// SetTitle updates a pull request's title, addressed by its node id.
func (c *Client) SetTitle(ctx context.Context, prNodeID, title string) error {
	return c.do(ctx, updateTitleMutation, map[string]any{"id": prNodeID, "title": title}, nil)
}

const updateBodyMutation = `
mutation($id: ID!, $body: String!) {
  updatePullRequest(input: {pullRequestId: $id, body: $body}) {
    pullRequest { id }
  }
}`

// SetBody updates a pull request's description, addressed by its node id.
func (c *Client) SetBody(ctx context.Context, prNodeID, body string) error {
	return c.do(ctx, updateBodyMutation, map[string]any{"id": prNodeID, "body": body}, nil)
}

const updateBaseMutation = `
mutation($id: ID!, $base: String!) {
  updatePullRequest(input: {pullRequestId: $id, baseRefName: $base}) {
    pullRequest { id }
  }
}`

// SetBase retargets a pull request's base branch, addressed by its node id.
func (c *Client) SetBase(ctx context.Context, prNodeID, base string) error {
	return c.do(ctx, updateBaseMutation, map[string]any{"id": prNodeID, "base": base}, nil)
}

const setMilestoneMutation = `
mutation($id: ID!, $milestoneId: ID) {
  updatePullRequest(input: {pullRequestId: $id, milestoneId: $milestoneId}) {
    pullRequest { id }
  }
}`

// SetMilestone assigns a pull request's milestone by node id, or clears it
// when milestoneID is nil (spec.md §4.9.4's "milestone set/clear").
func (c *Client) SetMilestone(ctx context.Context, prNodeID string, milestoneID *string) error {
	var id any
	if milestoneID != nil {
		id = *milestoneID
	}
	return c.do(ctx, setMilestoneMutation, map[string]any{"id": prNodeID, "milestoneId": id}, nil)
}

const requestReviewersMutation = `
mutation($id: ID!, $userIds: [ID!]!) {
  requestReviews(input: {pullRequestId: $id, userIds: $userIds, union: true}) {
    pullRequest { id }
  }
}`

// AddReviewers requests review from the given users (by node id), added to
// any reviewers already requested.
func (c *Client) AddReviewers(ctx context.Context, prNodeID string, reviewerIDs []string) error {
	return c.do(ctx, requestReviewersMutation, map[string]any{"id": prNodeID, "userIds": reviewerIDs}, nil)
}

const removeRequestedReviewersMutation = `
mutation($id: ID!, $userIds: [ID!]!) {
  removeRequestedReviewers(input: {pullRequestId: $id, userIds: $userIds}) {
    pullRequest { id }
  }
}`

// RemoveReviewers withdraws a review request from the given users (by node
// id).
func (c *Client) RemoveReviewers(ctx context.Context, prNodeID string, reviewerIDs []string) error {
	return c.do(ctx, removeRequestedReviewersMutation, map[string]any{"id": prNodeID, "userIds": reviewerIDs}, nil)
}

const addAssigneesMutation = `
mutation($id: ID!, $assigneeIds: [ID!]!) {
  addAssigneesToAssignable(input: {assignableId: $id, assigneeIds: $assigneeIds}) {
    assignable { ... on PullRequest { id } }
  }
}`

// AddAssignees assigns the given users (by node id) to a pull request.
func (c *Client) AddAssignees(ctx context.Context, prNodeID string, assigneeIDs []string) error {
	return c.do(ctx, addAssigneesMutation, map[string]any{"id": prNodeID, "assigneeIds": assigneeIDs}, nil)
}

const removeAssigneesMutation = `
mutation($id: ID!, $assigneeIds: [ID!]!) {
  removeAssigneesFromAssignable(input: {assignableId: $id, assigneeIds: $assigneeIds}) {
    assignable { ... on PullRequest { id } }
  }
}`

// RemoveAssignees unassigns the given users (by node id) from a pull
// request.
func (c *Client) RemoveAssignees(ctx context.Context, prNodeID string, assigneeIDs []string) error {
	return c.do(ctx, removeAssigneesMutation, map[string]any{"id": prNodeID, "assigneeIds": assigneeIDs}, nil)
}
