package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/model"
)

func TestSyncMeta_GetMissingReturnsNil(t *testing.T) {
	s := setupTestStore(t)
	got, err := s.GetSyncMeta(context.Background(), "acme/widgets", model.ScopeOpen)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSyncMeta_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	meta := model.SyncMeta{
		Repo:     "acme/widgets",
		Scope:    model.ScopeOpen,
		LastSync: time.Now().Truncate(time.Second),
		Cursor:   "cursor-1",
		PRCount:  5,
	}
	require.NoError(t, s.SetSyncMeta(ctx, meta))

	got, err := s.GetSyncMeta(ctx, "acme/widgets", model.ScopeOpen)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cursor-1", got.Cursor)
	assert.Equal(t, 5, got.PRCount)

	// Advancing the cursor overwrites in place, keyed on (repo, scope).
	meta.Cursor = "cursor-2"
	meta.PRCount = 8
	require.NoError(t, s.SetSyncMeta(ctx, meta))

	got, err = s.GetSyncMeta(ctx, "acme/widgets", model.ScopeOpen)
	require.NoError(t, err)
	assert.Equal(t, "cursor-2", got.Cursor)
	assert.Equal(t, 8, got.PRCount)

	all, err := s.GetAllSyncMeta(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSyncMeta_IndependentPerScope(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetSyncMeta(ctx, model.SyncMeta{Repo: "acme/widgets", Scope: model.ScopeOpen, LastSync: time.Now(), Cursor: "open-cursor"}))
	require.NoError(t, s.SetSyncMeta(ctx, model.SyncMeta{Repo: "acme/widgets", Scope: model.ScopeClosed, LastSync: time.Now(), Cursor: "closed-cursor"}))

	open, err := s.GetSyncMeta(ctx, "acme/widgets", model.ScopeOpen)
	require.NoError(t, err)
	closed, err := s.GetSyncMeta(ctx, "acme/widgets", model.ScopeClosed)
	require.NoError(t, err)

	assert.Equal(t, "open-cursor", open.Cursor)
	assert.Equal(t, "closed-cursor", closed.Cursor)
}
