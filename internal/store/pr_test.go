package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/model"
)

func TestUpsertPR_ConflictUpdatesInPlace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	pr := model.PullRequest{Repo: "acme/widgets", Number: 42, State: model.PRStateOpen, Title: "Add widgets", Author: "alice"}
	require.NoError(t, s.UpsertPR(ctx, pr))

	pr.State = model.PRStateMerged
	pr.Title = "Add widgets (merged)"
	require.NoError(t, s.UpsertPR(ctx, pr))

	meta := model.SyncMeta{Repo: "acme/widgets", Scope: model.ScopeOpen, LastSync: time.Now()}
	require.NoError(t, s.SetSyncMeta(ctx, meta))

	repos, err := s.GetRepos(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "acme/widgets", repos[0].Repo)
}
