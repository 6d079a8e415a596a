// Package model holds the data types shared across firewatch's sync, store,
// query, aggregation, and feedback layers.
package model

import "time"

// EntryType classifies an Entry's origin.
type EntryType string

// EntryType values.
const (
	EntryComment EntryType = "comment"
	EntryReview  EntryType = "review"
	EntryCommit  EntryType = "commit"
	EntryCI      EntryType = "ci"
	EntryEvent   EntryType = "event"
)

// Subtype values for EntryComment.
const (
	SubtypeIssueComment  = "issue_comment"
	SubtypeReviewComment = "review_comment"
)

// ReviewState mirrors the review states GitHub can report on a review Entry.
type ReviewState string

// ReviewState values.
const (
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	ReviewCommented        ReviewState = "commented"
	ReviewPending          ReviewState = "pending"
	ReviewDismissed        ReviewState = "dismissed"
)

// PRState is the PR's state at the moment an Entry was captured.
type PRState string

// PRState values.
const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
	PRStateDraft  PRState = "draft"
)

// Scope partitions sync into the open-set vs closed-set of PRs.
type Scope string

// Scope values.
const (
	ScopeOpen   Scope = "open"
	ScopeClosed Scope = "closed"
)

// Graphite is the stack-enrichment block attached to an Entry by the stack
// enricher (SPEC_FULL.md §4.4).
type Graphite struct {
	StackID       string `json:"stack_id"`
	StackPosition int    `json:"stack_position"`
	StackSize     int    `json:"stack_size"`
	ParentPR      *int   `json:"parent_pr,omitempty"`
}

// FileProvenance attributes a review comment's file to the stack PR that
// introduced it.
type FileProvenance struct {
	OriginPR      int    `json:"origin_pr"`
	OriginBranch  string `json:"origin_branch"`
	OriginCommit  string `json:"origin_commit"`
	StackPosition int    `json:"stack_position"`
}

// FileActivityAfter records whether later commits touched a review comment's
// file, written by the staleness check (SPEC_FULL.md §4.5).
type FileActivityAfter struct {
	Modified             bool       `json:"modified"`
	CommitsTouchingFile  int        `json:"commits_touching_file"`
	LatestCommit         string     `json:"latest_commit,omitempty"`
	LatestCommitAt       *time.Time `json:"latest_commit_at,omitempty"`
	Degraded             bool       `json:"degraded,omitempty"` // resolver returned unknown for at least one commit
}

// CheckInfo carries a CI check's result when Type == EntryCI.
type CheckInfo struct {
	Name       string `json:"name"`
	Conclusion string `json:"conclusion"`
	IsRequired bool   `json:"is_required,omitempty"`
	DetailsURL string `json:"details_url,omitempty"`
}

// Entry is one immutable event in a PR's life (spec.md §3). It is a tagged
// record with optional enrichment blocks, not a loose map — the wire form
// remains JSON but the in-process type stays strongly typed throughout.
type Entry struct {
	ID        string    `json:"gh_id"`
	Repo      string    `json:"repo"`
	PR        int       `json:"pr"`
	Type      EntryType `json:"type"`
	Subtype   string    `json:"subtype,omitempty"`
	Author    string    `json:"author"`
	Body      string    `json:"body,omitempty"`
	State     string    `json:"state,omitempty"`
	File      string    `json:"file,omitempty"`
	Line      int       `json:"line,omitempty"`
	ThreadID  string    `json:"thread_id,omitempty"`

	// ThreadResolved is a *bool because the absence of a thread entirely
	// (nil) must be distinguishable from an unresolved thread (false).
	ThreadResolved *bool `json:"thread_resolved,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	CapturedAt time.Time  `json:"captured_at"`
	URL        string     `json:"url,omitempty"`

	// Denormalized PR context, copied onto every entry at sync time.
	PRTitle  string   `json:"pr_title"`
	PRState  PRState  `json:"pr_state"`
	PRAuthor string   `json:"pr_author"`
	PRBranch string   `json:"pr_branch"`
	PRLabels []string `json:"pr_labels,omitempty"`

	// Optional enrichment blocks.
	Graphite       *Graphite          `json:"graphite,omitempty"`
	FileProvenance *FileProvenance    `json:"file_provenance,omitempty"`
	FileActivity   *FileActivityAfter `json:"file_activity_after,omitempty"`
	CI             *CheckInfo         `json:"ci,omitempty"`
}

// Display is the user-facing wire form: Entry plus a synthesized short id
// (spec.md §6). It is built at the serialization boundary, never stored.
type Display struct {
	Entry
	ShortID string `json:"id"`
}

// IsReviewComment reports whether e is a review-comment entry.
func (e Entry) IsReviewComment() bool {
	return e.Type == EntryComment && e.Subtype == SubtypeReviewComment
}

// IsIssueComment reports whether e is an issue-comment entry.
func (e Entry) IsIssueComment() bool {
	return e.Type == EntryComment && e.Subtype == SubtypeIssueComment
}

// IsUnresolved reports whether e is a review comment whose thread is not
// resolved (nil counts as unresolved, per spec.md §4.6's orphaned rule).
func (e Entry) IsUnresolved() bool {
	return e.IsReviewComment() && (e.ThreadResolved == nil || !*e.ThreadResolved)
}
