package ghgateway

import (
	"context"
	"fmt"
	"time"

	"github.com/outfitter-dev/firewatch/internal/ferrors"
)

// parseRFC3339 parses GitHub's GraphQL timestamps, which are always
// RFC3339. A malformed or empty timestamp yields the zero time rather than
// failing the whole query — staleness/sort logic treats a zero time as
// "unknown", not "now".
func parseRFC3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

const prActivityQuery = `
query($owner: String!, $name: String!, $states: [PullRequestState!], $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequests(states: $states, first: $first, after: $after, orderBy: {field: UPDATED_AT, direction: DESC}) {
      pageInfo { hasNextPage endCursor }
      nodes {
        number
        title
        url
        isDraft
        state
        headRefName
        headRefOid
        updatedAt
        author { login }
        labels(first: 20) { nodes { name } }
        reviews(first: 50) {
          pageInfo { hasNextPage endCursor }
          nodes { id state body submittedAt author { login } }
        }
        comments(first: 50) {
          pageInfo { hasNextPage endCursor }
          nodes { id body url createdAt updatedAt author { login } }
        }
        reviewThreads(first: 50) {
          pageInfo { hasNextPage endCursor }
          nodes {
            id
            isResolved
            path
            line
            comments(first: 10) {
              nodes { databaseId id body url createdAt updatedAt author { login } }
            }
          }
        }
        commits(first: 50) {
          pageInfo { hasNextPage endCursor }
          nodes { commit { oid committedDate } }
        }
        latestCommit: commits(last: 1) {
          nodes {
            commit {
              statusCheckRollup {
                contexts(first: 50) {
                  nodes {
                    ... on CheckRun {
                      name
                      conclusion
                      detailsUrl
                    }
                    ... on StatusContext {
                      context
                      state
                      targetUrl
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

type loginWire struct {
	Login string `json:"login"`
}

type labelsWire struct {
	Nodes []struct {
		Name string `json:"name"`
	} `json:"nodes"`
}

type reviewWire struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	Body        string     `json:"body"`
	SubmittedAt string     `json:"submittedAt"`
	Author      *loginWire `json:"author"`
}

type commentWire struct {
	ID        string     `json:"id"`
	Body      string     `json:"body"`
	URL       string     `json:"url"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
	Author    *loginWire `json:"author"`
}

type threadCommentWire struct {
	DatabaseID int64      `json:"databaseId"`
	ID         string     `json:"id"`
	Body       string     `json:"body"`
	URL        string     `json:"url"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
	Author     *loginWire `json:"author"`
}

type reviewThreadWire struct {
	ID         string `json:"id"`
	IsResolved bool   `json:"isResolved"`
	Path       string `json:"path"`
	Line       int    `json:"line"`
	Comments   struct {
		Nodes []threadCommentWire `json:"nodes"`
	} `json:"comments"`
}

type commitWire struct {
	Commit struct {
		OID           string `json:"oid"`
		CommittedDate string `json:"committedDate"`
	} `json:"commit"`
}

// checkContextWire covers both CheckRun and StatusContext shapes; GraphQL
// fills in whichever fields apply to the concrete type and leaves the rest
// zero-valued.
type checkContextWire struct {
	Name       string `json:"name"`
	Conclusion string `json:"conclusion"`
	DetailsURL string `json:"detailsUrl"`
	Context    string `json:"context"`
	State      string `json:"state"`
	TargetURL  string `json:"targetUrl"`
}

func (w checkContextWire) toNode() CheckContext {
	name := w.Name
	conclusion := w.Conclusion
	url := w.DetailsURL
	if name == "" {
		name = w.Context
	}
	if conclusion == "" {
		conclusion = w.State
	}
	if url == "" {
		url = w.TargetURL
	}
	return CheckContext{Name: name, Conclusion: conclusion, DetailsURL: url}
}

type prWire struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	IsDraft     bool       `json:"isDraft"`
	State       string     `json:"state"`
	HeadRefName string     `json:"headRefName"`
	HeadRefOid  string     `json:"headRefOid"`
	UpdatedAt   string     `json:"updatedAt"`
	Author      *loginWire `json:"author"`
	Labels      labelsWire `json:"labels"`
	Reviews     struct {
		PageInfo PageInfo     `json:"pageInfo"`
		Nodes    []reviewWire `json:"nodes"`
	} `json:"reviews"`
	Comments struct {
		PageInfo PageInfo      `json:"pageInfo"`
		Nodes    []commentWire `json:"nodes"`
	} `json:"comments"`
	ReviewThreads struct {
		PageInfo PageInfo           `json:"pageInfo"`
		Nodes    []reviewThreadWire `json:"nodes"`
	} `json:"reviewThreads"`
	Commits struct {
		PageInfo PageInfo     `json:"pageInfo"`
		Nodes    []commitWire `json:"nodes"`
	} `json:"commits"`
	LatestCommit struct {
		Nodes []struct {
			Commit struct {
				StatusCheckRollup struct {
					Contexts struct {
						Nodes []checkContextWire `json:"nodes"`
					} `json:"contexts"`
				} `json:"statusCheckRollup"`
			} `json:"commit"`
		} `json:"nodes"`
	} `json:"latestCommit"`
}

type prActivityResponse struct {
	Repository struct {
		PullRequests struct {
			PageInfo PageInfo `json:"pageInfo"`
			Nodes    []prWire `json:"nodes"`
		} `json:"pullRequests"`
	} `json:"repository"`
}

func loginOf(l *loginWire) string {
	if l == nil {
		return ""
	}
	return l.Login
}

func (w prWire) toNode() PRNode {
	n := PRNode{
		Number:      w.Number,
		Title:       w.Title,
		Author:      loginOf(w.Author),
		State:       w.State,
		IsDraft:     w.IsDraft,
		URL:         w.URL,
		HeadRefName: w.HeadRefName,
		HeadRefOid:  w.HeadRefOid,
		UpdatedAt:   parseRFC3339(w.UpdatedAt),

		reviewsPageInfo:  w.Reviews.PageInfo,
		commentsPageInfo: w.Comments.PageInfo,
		threadsPageInfo:  w.ReviewThreads.PageInfo,
		commitsPageInfo:  w.Commits.PageInfo,
	}

	for _, l := range w.Labels.Nodes {
		n.Labels = append(n.Labels, l.Name)
	}
	for _, r := range w.Reviews.Nodes {
		n.Reviews = append(n.Reviews, ReviewNode{
			ID: r.ID, Author: loginOf(r.Author), State: r.State, Body: r.Body,
			SubmittedAt: parseRFC3339(r.SubmittedAt),
		})
	}
	for _, c := range w.Comments.Nodes {
		n.IssueComments = append(n.IssueComments, CommentNode{
			ID: c.ID, Author: loginOf(c.Author), Body: c.Body, URL: c.URL,
			CreatedAt: parseRFC3339(c.CreatedAt), UpdatedAt: parseRFC3339(c.UpdatedAt),
		})
	}
	for _, t := range w.ReviewThreads.Nodes {
		thread := ReviewThreadNode{ThreadID: t.ID, IsResolved: t.IsResolved, Path: t.Path, Line: t.Line}
		for _, tc := range t.Comments.Nodes {
			thread.Comments = append(thread.Comments, ReviewThreadCommentNode{
				DatabaseID: tc.DatabaseID, ID: tc.ID, Author: loginOf(tc.Author), Body: tc.Body, URL: tc.URL,
				CreatedAt: parseRFC3339(tc.CreatedAt), UpdatedAt: parseRFC3339(tc.UpdatedAt),
			})
		}
		n.ReviewThreads = append(n.ReviewThreads, thread)
	}
	for _, c := range w.Commits.Nodes {
		n.Commits = append(n.Commits, CommitNode{SHA: c.Commit.OID, CommittedDate: parseRFC3339(c.Commit.CommittedDate)})
	}
	if len(w.LatestCommit.Nodes) > 0 {
		for _, cc := range w.LatestCommit.Nodes[0].Commit.StatusCheckRollup.Contexts.Nodes {
			n.CheckContexts = append(n.CheckContexts, cc.toNode())
		}
	}

	return n
}

// FetchPRActivity pages PR activity for (owner, name) in the given states,
// merging follow-up pages for the reviews, issue comments and review threads
// connections when they report hasNextPage. The commits connection is not
// followed: a PR node carries only its first page of commits.
func (c *Client) FetchPRActivity(ctx context.Context, owner, name string, opts ActivityOptions) (*PRActivityPage, error) {
	first := opts.First
	if first <= 0 || first > 50 {
		first = 50
	}

	vars := map[string]any{
		"owner":  owner,
		"name":   name,
		"states": opts.States,
		"first":  first,
	}
	if opts.After != "" {
		vars["after"] = opts.After
	}

	var resp prActivityResponse
	if err := c.do(ctx, prActivityQuery, vars, &resp); err != nil {
		return nil, err
	}

	page := &PRActivityPage{PageInfo: resp.Repository.PullRequests.PageInfo}
	for _, w := range resp.Repository.PullRequests.Nodes {
		node := w.toNode()
		if err := c.fillRemainingPages(ctx, owner, name, &node); err != nil {
			return nil, err
		}
		page.PRs = append(page.PRs, node)
	}

	return page, nil
}

// fillRemainingPages follows up on any child connection that didn't fit in
// the first page, appending subsequent pages onto node in place.
func (c *Client) fillRemainingPages(ctx context.Context, owner, name string, node *PRNode) error {
	for node.threadsPageInfo.HasNextPage {
		more, pageInfo, err := c.fetchMoreReviewThreads(ctx, owner, name, node.Number, node.threadsPageInfo.EndCursor)
		if err != nil {
			return err
		}
		node.ReviewThreads = append(node.ReviewThreads, more...)
		node.threadsPageInfo = pageInfo
	}

	for node.reviewsPageInfo.HasNextPage {
		more, pageInfo, err := c.fetchMoreReviews(ctx, owner, name, node.Number, node.reviewsPageInfo.EndCursor)
		if err != nil {
			return err
		}
		node.Reviews = append(node.Reviews, more...)
		node.reviewsPageInfo = pageInfo
	}

	for node.commentsPageInfo.HasNextPage {
		more, pageInfo, err := c.fetchMoreComments(ctx, owner, name, node.Number, node.commentsPageInfo.EndCursor)
		if err != nil {
			return err
		}
		node.IssueComments = append(node.IssueComments, more...)
		node.commentsPageInfo = pageInfo
	}

	return nil
}

const reviewsPageQuery = `
query($owner: String!, $name: String!, $pr: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequest(number: $pr) {
      reviews(first: 50, after: $after) {
        pageInfo { hasNextPage endCursor }
        nodes { id state body submittedAt author { login } }
      }
    }
  }
}`

func (c *Client) fetchMoreReviews(ctx context.Context, owner, name string, pr int, after string) ([]ReviewNode, PageInfo, error) {
	var resp struct {
		Repository struct {
			PullRequest struct {
				Reviews struct {
					PageInfo PageInfo     `json:"pageInfo"`
					Nodes    []reviewWire `json:"nodes"`
				} `json:"reviews"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}
	if err := c.do(ctx, reviewsPageQuery, map[string]any{"owner": owner, "name": name, "pr": pr, "after": after}, &resp); err != nil {
		return nil, PageInfo{}, err
	}

	var out []ReviewNode
	for _, r := range resp.Repository.PullRequest.Reviews.Nodes {
		out = append(out, ReviewNode{
			ID: r.ID, Author: loginOf(r.Author), State: r.State, Body: r.Body,
			SubmittedAt: parseRFC3339(r.SubmittedAt),
		})
	}
	return out, resp.Repository.PullRequest.Reviews.PageInfo, nil
}

const commentsPageQuery = `
query($owner: String!, $name: String!, $pr: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequest(number: $pr) {
      comments(first: 50, after: $after) {
        pageInfo { hasNextPage endCursor }
        nodes { id body url createdAt updatedAt author { login } }
      }
    }
  }
}`

func (c *Client) fetchMoreComments(ctx context.Context, owner, name string, pr int, after string) ([]CommentNode, PageInfo, error) {
	var resp struct {
		Repository struct {
			PullRequest struct {
				Comments struct {
					PageInfo PageInfo      `json:"pageInfo"`
					Nodes    []commentWire `json:"nodes"`
				} `json:"comments"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}
	if err := c.do(ctx, commentsPageQuery, map[string]any{"owner": owner, "name": name, "pr": pr, "after": after}, &resp); err != nil {
		return nil, PageInfo{}, err
	}

	var out []CommentNode
	for _, cm := range resp.Repository.PullRequest.Comments.Nodes {
		out = append(out, CommentNode{
			ID: cm.ID, Author: loginOf(cm.Author), Body: cm.Body, URL: cm.URL,
			CreatedAt: parseRFC3339(cm.CreatedAt), UpdatedAt: parseRFC3339(cm.UpdatedAt),
		})
	}
	return out, resp.Repository.PullRequest.Comments.PageInfo, nil
}

const reviewThreadsPageQuery = `
query($owner: String!, $name: String!, $pr: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequest(number: $pr) {
      reviewThreads(first: 50, after: $after) {
        pageInfo { hasNextPage endCursor }
        nodes {
          id isResolved path line
          comments(first: 10) { nodes { databaseId id body url createdAt updatedAt author { login } } }
        }
      }
    }
  }
}`

func (c *Client) fetchMoreReviewThreads(ctx context.Context, owner, name string, pr int, after string) ([]ReviewThreadNode, PageInfo, error) {
	var resp struct {
		Repository struct {
			PullRequest struct {
				ReviewThreads struct {
					PageInfo PageInfo           `json:"pageInfo"`
					Nodes    []reviewThreadWire `json:"nodes"`
				} `json:"reviewThreads"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}

	err := c.do(ctx, reviewThreadsPageQuery, map[string]any{
		"owner": owner, "name": name, "pr": pr, "after": after,
	}, &resp)
	if err != nil {
		return nil, PageInfo{}, err
	}

	var out []ReviewThreadNode
	for _, t := range resp.Repository.PullRequest.ReviewThreads.Nodes {
		thread := ReviewThreadNode{ThreadID: t.ID, IsResolved: t.IsResolved, Path: t.Path, Line: t.Line}
		for _, tc := range t.Comments.Nodes {
			thread.Comments = append(thread.Comments, ReviewThreadCommentNode{
				DatabaseID: tc.DatabaseID, ID: tc.ID, Author: loginOf(tc.Author), Body: tc.Body, URL: tc.URL,
				CreatedAt: parseRFC3339(tc.CreatedAt), UpdatedAt: parseRFC3339(tc.UpdatedAt),
			})
		}
		out = append(out, thread)
	}

	return out, resp.Repository.PullRequest.ReviewThreads.PageInfo, nil
}

const pullRequestIDQuery = `
query($owner: String!, $name: String!, $pr: Int!) {
  repository(owner: $owner, name: $name) {
    pullRequest(number: $pr) { id }
  }
}`

// FetchPullRequestID returns the PR's GraphQL node id.
func (c *Client) FetchPullRequestID(ctx context.Context, owner, name string, pr int) (string, error) {
	var resp struct {
		Repository struct {
			PullRequest struct {
				ID string `json:"id"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}
	if err := c.do(ctx, pullRequestIDQuery, map[string]any{"owner": owner, "name": name, "pr": pr}, &resp); err != nil {
		return "", err
	}
	if resp.Repository.PullRequest.ID == "" {
		return "", ferrors.New(ferrors.NotFound, fmt.Sprintf("pull request %s/%s#%d not found", owner, name, pr))
	}
	return resp.Repository.PullRequest.ID, nil
}

const reviewThreadMapQuery = `
query($owner: String!, $name: String!, $pr: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequest(number: $pr) {
      reviewThreads(first: 100, after: $after) {
        pageInfo { hasNextPage endCursor }
        nodes {
          id
          comments(first: 1) { nodes { databaseId } }
        }
      }
    }
  }
}`

// FetchReviewThreadMap returns a map of review-comment database id to its
// containing thread's node id, for all threads on the PR.
func (c *Client) FetchReviewThreadMap(ctx context.Context, owner, name string, pr int) (map[int64]string, error) {
	out := make(map[int64]string)
	after := ""
	for {
		var resp struct {
			Repository struct {
				PullRequest struct {
					ReviewThreads struct {
						PageInfo PageInfo `json:"pageInfo"`
						Nodes    []struct {
							ID       string `json:"id"`
							Comments struct {
								Nodes []struct {
									DatabaseID int64 `json:"databaseId"`
								} `json:"nodes"`
							} `json:"comments"`
						} `json:"nodes"`
					} `json:"reviewThreads"`
				} `json:"pullRequest"`
			} `json:"repository"`
		}

		vars := map[string]any{"owner": owner, "name": name, "pr": pr}
		if after != "" {
			vars["after"] = after
		}
		if err := c.do(ctx, reviewThreadMapQuery, vars, &resp); err != nil {
			return nil, err
		}

		threads := resp.Repository.PullRequest.ReviewThreads
		for _, t := range threads.Nodes {
			for _, cm := range t.Comments.Nodes {
				if cm.DatabaseID != 0 {
					out[cm.DatabaseID] = t.ID
				}
			}
		}

		if !threads.PageInfo.HasNextPage {
			break
		}
		after = threads.PageInfo.EndCursor
	}
	return out, nil
}

const viewerLoginQuery = `query { viewer { login } }`

// FetchViewerLogin returns the authenticated user's login, for
// doctor/status reporting.
func (c *Client) FetchViewerLogin(ctx context.Context) (string, error) {
	var resp struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	}
	if err := c.do(ctx, viewerLoginQuery, nil, &resp); err != nil {
		return "", err
	}
	return resp.Viewer.Login, nil
}

// GetCommitFiles is meant to return the list of file paths a commit
// touched, for the staleness check's per-file comparison (spec.md §4.5).
// GitHub's GraphQL schema has no diff-bearing field for an arbitrary
// commit — Commit exposes its root tree, not the set of paths it changed
// relative to its parent, and the only place that data exists is the REST
// commits API's files[] list, which this gateway (GraphQL-only, per
// spec.md §4.3) does not call. Rather than report a root-tree listing that
// would silently never match a nested path like src/foo.go, this always
// reports ok=false ("unknown"), deferring to the staleness check's
// documented conservative fallback of counting every later commit
// (SPEC_FULL.md §4.5's Open Question decision).
func (c *Client) GetCommitFiles(_ context.Context, _, _, _ string) (files []string, ok bool, err error) {
	return nil, false, nil
}
