package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/ghgateway"
	"github.com/outfitter-dev/firewatch/internal/model"
)

type fakeFetcher struct {
	pages  []*ghgateway.PRActivityPage
	calls  int
	err    error
	errAt  int
	afters []string
}

func (f *fakeFetcher) FetchPRActivity(_ context.Context, _, _ string, opts ghgateway.ActivityOptions) (*ghgateway.PRActivityPage, error) {
	defer func() { f.calls++ }()
	f.afters = append(f.afters, opts.After)
	if f.err != nil && f.calls == f.errAt {
		return nil, f.err
	}
	if f.calls >= len(f.pages) {
		return &ghgateway.PRActivityPage{}, nil
	}
	return f.pages[f.calls], nil
}

type fakeStore struct {
	prs     map[string]model.PullRequest
	entries []model.Entry
	meta    map[string]model.SyncMeta
}

func newFakeStore() *fakeStore {
	return &fakeStore{prs: map[string]model.PullRequest{}, meta: map[string]model.SyncMeta{}}
}

func (s *fakeStore) UpsertPR(_ context.Context, pr model.PullRequest) error {
	s.prs[key(pr.Repo, pr.Number)] = pr
	return nil
}

func (s *fakeStore) InsertEntries(_ context.Context, entries []model.Entry) (int, error) {
	s.entries = append(s.entries, entries...)
	return len(entries), nil
}

func (s *fakeStore) GetSyncMeta(_ context.Context, repo string, scope model.Scope) (*model.SyncMeta, error) {
	m, ok := s.meta[repo+"\x00"+string(scope)]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *fakeStore) SetSyncMeta(_ context.Context, meta model.SyncMeta) error {
	s.meta[meta.Repo+"\x00"+string(meta.Scope)] = meta
	return nil
}

func key(repo string, n int) string { return fmt.Sprintf("%s#%d", repo, n) }

func reviewNode(number int, branch string, reviews ...ghgateway.ReviewNode) ghgateway.PRNode {
	return ghgateway.PRNode{
		Number: number, Title: "title", Author: "alice", State: "OPEN",
		HeadRefName: branch, UpdatedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Reviews: reviews,
	}
}

func TestEngine_Sync_SinglePage(t *testing.T) {
	fetcher := &fakeFetcher{pages: []*ghgateway.PRActivityPage{
		{
			PRs: []ghgateway.PRNode{
				reviewNode(101, "feature-a", ghgateway.ReviewNode{
					ID: "rev1", Author: "bob", State: "APPROVED",
					SubmittedAt: time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC),
				}),
			},
			PageInfo: ghgateway.PageInfo{HasNextPage: false, EndCursor: "cursor-1"},
		},
	}}
	st := newFakeStore()
	engine := New(fetcher, st)

	result, err := engine.Sync(context.Background(), "acme/widgets", model.ScopeOpen, Opts{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.PRsProcessed)
	assert.Equal(t, 1, result.EntriesAdded)
	assert.Equal(t, "cursor-1", result.Cursor)
	assert.False(t, result.StoppedEarly)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, st.entries, 1)
	e := st.entries[0]
	assert.Equal(t, "rev1", e.ID)
	assert.Equal(t, model.EntryReview, e.Type)
	assert.Equal(t, "approved", e.State)
	assert.Equal(t, "acme/widgets", e.Repo)
	assert.Equal(t, 101, e.PR)
	assert.Equal(t, model.PRStateOpen, e.PRState)

	meta, err := st.GetSyncMeta(context.Background(), "acme/widgets", model.ScopeOpen)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "cursor-1", meta.Cursor)
}

func TestEngine_Sync_ResumesFromStoredCursor(t *testing.T) {
	fetcher := &fakeFetcher{pages: []*ghgateway.PRActivityPage{
		{PRs: nil, PageInfo: ghgateway.PageInfo{HasNextPage: false, EndCursor: "cursor-2"}},
	}}
	st := newFakeStore()
	st.meta["acme/widgets\x00open"] = model.SyncMeta{Repo: "acme/widgets", Scope: model.ScopeOpen, Cursor: "cursor-1"}
	engine := New(fetcher, st)

	_, err := engine.Sync(context.Background(), "acme/widgets", model.ScopeOpen, Opts{})
	require.NoError(t, err)
	assert.Equal(t, []string{"cursor-1"}, fetcher.afters)
}

func TestEngine_Sync_StopsEarlyOnSince(t *testing.T) {
	old := reviewNode(1, "b1")
	old.UpdatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	fetcher := &fakeFetcher{pages: []*ghgateway.PRActivityPage{
		{PRs: []ghgateway.PRNode{old}, PageInfo: ghgateway.PageInfo{HasNextPage: true, EndCursor: "cursor-1"}},
		{PRs: []ghgateway.PRNode{reviewNode(2, "b2")}, PageInfo: ghgateway.PageInfo{HasNextPage: false, EndCursor: "cursor-2"}},
	}}
	st := newFakeStore()
	engine := New(fetcher, st)

	result, err := engine.Sync(context.Background(), "acme/widgets", model.ScopeOpen, Opts{Since: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.True(t, result.StoppedEarly)
	assert.Equal(t, 1, fetcher.calls)
}

func TestEngine_Sync_AbortsOnFetchErrorWithoutLosingPriorProgress(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: []*ghgateway.PRActivityPage{
			{PRs: []ghgateway.PRNode{reviewNode(1, "b1")}, PageInfo: ghgateway.PageInfo{HasNextPage: true, EndCursor: "cursor-1"}},
		},
		err:   errors.New("boom"),
		errAt: 1,
	}
	st := newFakeStore()
	engine := New(fetcher, st)

	result, err := engine.Sync(context.Background(), "acme/widgets", model.ScopeOpen, Opts{})
	require.Error(t, err)
	assert.Equal(t, 1, result.PRsProcessed)

	meta, err := st.GetSyncMeta(context.Background(), "acme/widgets", model.ScopeOpen)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "cursor-1", meta.Cursor)
}

func TestPRToEntries_FlattensAllKinds(t *testing.T) {
	resolved := true
	node := ghgateway.PRNode{
		Number: 42, Title: "add widget", Author: "alice", State: "OPEN", HeadRefName: "feature-a",
		Labels:    []string{"enhancement"},
		UpdatedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Reviews: []ghgateway.ReviewNode{
			{ID: "rev1", Author: "bob", State: "CHANGES_REQUESTED", SubmittedAt: time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)},
		},
		IssueComments: []ghgateway.CommentNode{
			{ID: "ic1", Author: "carol", Body: "lgtm", CreatedAt: time.Date(2026, 1, 9, 1, 0, 0, 0, time.UTC)},
		},
		ReviewThreads: []ghgateway.ReviewThreadNode{
			{
				ThreadID: "thread1", IsResolved: resolved, Path: "main.go", Line: 10,
				Comments: []ghgateway.ReviewThreadCommentNode{
					{ID: "rc1", Author: "dave", Body: "nit", CreatedAt: time.Date(2026, 1, 9, 2, 0, 0, 0, time.UTC)},
				},
			},
		},
		Commits: []ghgateway.CommitNode{
			{SHA: "abc123", CommittedDate: time.Date(2026, 1, 9, 3, 0, 0, 0, time.UTC)},
		},
		CheckContexts: []ghgateway.CheckContext{
			{Name: "ci/build", Conclusion: "SUCCESS", DetailsURL: "https://ci.example/1"},
		},
	}

	pr := mapPullRequest("acme/widgets", node)
	entries := prToEntries("acme/widgets", node, pr, time.Date(2026, 1, 10, 5, 0, 0, 0, time.UTC))

	require.Len(t, entries, 5)

	byID := make(map[string]model.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		assert.Equal(t, "acme/widgets", e.Repo)
		assert.Equal(t, 42, e.PR)
		assert.Equal(t, "add widget", e.PRTitle)
	}

	review := byID["rev1"]
	assert.Equal(t, model.EntryReview, review.Type)
	assert.Equal(t, "changes_requested", review.State)

	issueComment := byID["ic1"]
	assert.True(t, issueComment.IsIssueComment())

	reviewComment := byID["rc1"]
	assert.True(t, reviewComment.IsReviewComment())
	assert.Equal(t, "main.go", reviewComment.File)
	require.NotNil(t, reviewComment.ThreadResolved)
	assert.True(t, *reviewComment.ThreadResolved)

	commit := byID["abc123"]
	assert.Equal(t, model.EntryCommit, commit.Type)

	ci := byID["acme/widgets#42:check:ci/build"]
	assert.Equal(t, model.EntryCI, ci.Type)
	require.NotNil(t, ci.CI)
	assert.Equal(t, "SUCCESS", ci.CI.Conclusion)
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := splitRepo("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", name)

	_, _, err = splitRepo("not-a-repo")
	assert.Error(t, err)
}
