package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/store"
)

type fakeLookoutStore struct {
	meta    map[string]model.SyncMeta
	entries []model.Entry
}

func newFakeLookoutStore() *fakeLookoutStore {
	return &fakeLookoutStore{meta: map[string]model.SyncMeta{}}
}

func (s *fakeLookoutStore) GetSyncMeta(_ context.Context, repo string, scope model.Scope) (*model.SyncMeta, error) {
	m, ok := s.meta[repo+"\x00"+string(scope)]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *fakeLookoutStore) SetSyncMeta(_ context.Context, meta model.SyncMeta) error {
	s.meta[meta.Repo+"\x00"+string(meta.Scope)] = meta
	return nil
}

func (s *fakeLookoutStore) QueryEntries(_ context.Context, filter store.Filter, _, _ int) ([]model.Entry, error) {
	var out []model.Entry
	for _, e := range s.entries {
		if !filter.Since.IsZero() && e.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func TestBuildLookout_DefaultsTo7DayWindowOnFirstRun(t *testing.T) {
	now := time.Now().UTC()
	st := newFakeLookoutStore()
	st.entries = []model.Entry{
		{ID: "recent", CreatedAt: now.Add(-time.Hour)},
		{ID: "ancient", CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}

	lookout, err := BuildLookout(context.Background(), st, false)
	require.NoError(t, err)
	require.Len(t, lookout.Entries, 1)
	assert.Equal(t, "recent", lookout.Entries[0].ID)

	meta, err := st.GetSyncMeta(context.Background(), "", lookoutScope)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.WithinDuration(t, now, meta.LastSync, 5*time.Second)
}

func TestBuildLookout_UsesStoredCheckpointUnlessReset(t *testing.T) {
	checkpoint := time.Now().UTC().Add(-time.Hour)
	st := newFakeLookoutStore()
	st.meta["\x00lookout"] = model.SyncMeta{Repo: "", Scope: lookoutScope, LastSync: checkpoint}
	st.entries = []model.Entry{{ID: "just-after-checkpoint", CreatedAt: checkpoint.Add(time.Minute)}}

	lookout, err := BuildLookout(context.Background(), st, false)
	require.NoError(t, err)
	assert.Equal(t, checkpoint, lookout.Since)
	require.Len(t, lookout.Entries, 1)
}

func TestBuildLookout_ResetIgnoresStoredCheckpoint(t *testing.T) {
	checkpoint := time.Now().UTC().Add(-time.Hour)
	st := newFakeLookoutStore()
	st.meta["\x00lookout"] = model.SyncMeta{Repo: "", Scope: lookoutScope, LastSync: checkpoint}

	lookout, err := BuildLookout(context.Background(), st, true)
	require.NoError(t, err)
	assert.True(t, lookout.Since.Before(checkpoint))
}
