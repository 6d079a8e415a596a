package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/store"
)

type fakeStalenessStore struct {
	entries []model.Entry
	updated map[string]model.Entry
}

func (s *fakeStalenessStore) QueryEntries(_ context.Context, _ store.Filter, _, _ int) ([]model.Entry, error) {
	return s.entries, nil
}

func (s *fakeStalenessStore) UpdateEntry(_ context.Context, entry model.Entry) error {
	if s.updated == nil {
		s.updated = make(map[string]model.Entry)
	}
	s.updated[entry.ID] = entry
	return nil
}

func resolverFor(filesBySHA map[string][]string) CommitFilesResolver {
	return func(_ context.Context, sha string) ([]string, bool) {
		files, ok := filesBySHA[sha]
		return files, ok
	}
}

func TestCheckStaleness_MarksModifiedWhenLaterCommitTouchesFile(t *testing.T) {
	commentTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	resolved := false

	st := &fakeStalenessStore{entries: []model.Entry{
		{
			ID: "rc1", Repo: "acme/widgets", PR: 10, Type: model.EntryComment, Subtype: model.SubtypeReviewComment,
			File: "main.go", ThreadResolved: &resolved, CreatedAt: commentTime,
		},
		{ID: "sha1", Repo: "acme/widgets", PR: 10, Type: model.EntryCommit, CreatedAt: commentTime.Add(time.Hour)},
		{ID: "sha2", Repo: "acme/widgets", PR: 10, Type: model.EntryCommit, CreatedAt: commentTime.Add(2 * time.Hour)},
	}}

	resolve := resolverFor(map[string][]string{
		"sha1": {"other.go"},
		"sha2": {"main.go"},
	})

	result, err := CheckStaleness(context.Background(), st, "acme/widgets", resolve)
	require.NoError(t, err)

	assert.Equal(t, 1, result.EntriesChecked)
	assert.Equal(t, 1, result.EntriesModified)
	assert.False(t, result.Degraded)

	updated := st.updated["rc1"]
	require.NotNil(t, updated.FileActivity)
	assert.True(t, updated.FileActivity.Modified)
	assert.Equal(t, 1, updated.FileActivity.CommitsTouchingFile)
	assert.Equal(t, "sha2", updated.FileActivity.LatestCommit)
}

func TestCheckStaleness_DegradesConservativelyWhenResolverUnknown(t *testing.T) {
	commentTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	resolved := false

	st := &fakeStalenessStore{entries: []model.Entry{
		{
			ID: "rc1", Repo: "acme/widgets", PR: 10, Type: model.EntryComment, Subtype: model.SubtypeReviewComment,
			File: "main.go", ThreadResolved: &resolved, CreatedAt: commentTime,
		},
		{ID: "sha1", Repo: "acme/widgets", PR: 10, Type: model.EntryCommit, CreatedAt: commentTime.Add(time.Hour)},
	}}

	resolve := resolverFor(map[string][]string{}) // resolver always returns ok=false

	result, err := CheckStaleness(context.Background(), st, "acme/widgets", resolve)
	require.NoError(t, err)

	assert.Equal(t, 1, result.EntriesModified)
	assert.True(t, result.Degraded)
	assert.True(t, st.updated["rc1"].FileActivity.Degraded)
}

func TestCheckStaleness_SkipsCommitsBeforeComment(t *testing.T) {
	commentTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	resolved := false

	st := &fakeStalenessStore{entries: []model.Entry{
		{
			ID: "rc1", Repo: "acme/widgets", PR: 10, Type: model.EntryComment, Subtype: model.SubtypeReviewComment,
			File: "main.go", ThreadResolved: &resolved, CreatedAt: commentTime,
		},
		{ID: "sha0", Repo: "acme/widgets", PR: 10, Type: model.EntryCommit, CreatedAt: commentTime.Add(-time.Hour)},
	}}

	resolve := resolverFor(map[string][]string{"sha0": {"main.go"}})

	result, err := CheckStaleness(context.Background(), st, "acme/widgets", resolve)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EntriesModified)
}
