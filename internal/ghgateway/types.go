package ghgateway

import "time"

// PageInfo mirrors GitHub's GraphQL pagination cursor shape.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// ReviewNode is one review on a PR.
type ReviewNode struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	State       string    `json:"state"`
	Body        string    `json:"body"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// CommentNode is one issue-level (non-diff) comment.
type CommentNode struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewThreadCommentNode is one comment within a review thread.
type ReviewThreadCommentNode struct {
	DatabaseID int64     `json:"databaseId"`
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	Body       string    `json:"body"`
	Path       string    `json:"path"`
	Line       int       `json:"line"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ReviewThreadNode is one review thread (a file/line-anchored comment
// chain) with its resolution state.
type ReviewThreadNode struct {
	ThreadID   string                    `json:"id"`
	IsResolved bool                      `json:"isResolved"`
	Path       string                    `json:"path"`
	Line       int                       `json:"line"`
	Comments   []ReviewThreadCommentNode `json:"comments"`
	PageInfo   PageInfo                  `json:"pageInfo"`
}

// CommitNode is one commit on the PR's branch.
type CommitNode struct {
	SHA           string    `json:"sha"`
	CommittedDate time.Time `json:"committedDate"`
}

// CheckContext is one CI check's result.
type CheckContext struct {
	Name       string `json:"name"`
	Conclusion string `json:"conclusion"`
	IsRequired bool   `json:"isRequired"`
	DetailsURL string `json:"detailsUrl"`
}

// PRNode is one pull request with enough nested activity to flatten into
// entries in a single pass (spec.md §4.3's "single-pass ingestion"
// requirement). FetchPRActivity merges additional pages of reviews, issue
// comments and review threads onto this struct when their pageInfo
// indicates more pages exist; Commits holds only the first page.
type PRNode struct {
	Number        int                `json:"number"`
	Title         string             `json:"title"`
	Author        string             `json:"author"`
	State         string             `json:"state"` // OPEN, CLOSED, MERGED
	IsDraft       bool               `json:"isDraft"`
	URL           string             `json:"url"`
	HeadRefName   string             `json:"headRefName"`
	HeadRefOid    string             `json:"headRefOid"`
	Labels        []string           `json:"labels"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	Reviews       []ReviewNode       `json:"reviews"`
	IssueComments []CommentNode      `json:"issueComments"`
	ReviewThreads []ReviewThreadNode `json:"reviewThreads"`
	Commits       []CommitNode       `json:"commits"`
	CheckContexts []CheckContext     `json:"checkContexts"`

	reviewsPageInfo       PageInfo
	commentsPageInfo      PageInfo
	threadsPageInfo       PageInfo
	commitsPageInfo       PageInfo
}

// PRActivityPage is one page of FetchPRActivity's results.
type PRActivityPage struct {
	PRs      []PRNode
	PageInfo PageInfo
}

// ActivityOptions parameterizes FetchPRActivity.
type ActivityOptions struct {
	First  int
	After  string
	States []string // OPEN | CLOSED | MERGED
}
