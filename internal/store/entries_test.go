package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outfitter-dev/firewatch/internal/model"
)

func sampleEntry(id string, createdAt time.Time) model.Entry {
	return model.Entry{
		ID:         id,
		Repo:       "acme/widgets",
		PR:         42,
		Type:       model.EntryComment,
		Subtype:    model.SubtypeIssueComment,
		Author:     "alice",
		Body:       "looks good",
		CreatedAt:  createdAt,
		CapturedAt: createdAt,
		PRTitle:    "Add widget support",
		PRState:    model.PRStateOpen,
		PRAuthor:   "bob",
		PRBranch:   "feature/widgets",
	}
}

func TestInsertEntries_IdempotentOnRepoAndID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	e := sampleEntry("IC_1", time.Now())

	n, err := s.InsertEntries(ctx, []model.Entry{e})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Re-inserting the same (repo, id) is a no-op, not an error.
	n, err = s.InsertEntries(ctx, []model.Entry{e})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := s.CountEntries(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertEntries_CanceledBatchInsertsNothing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	good := sampleEntry("IC_good", time.Now())
	// An entry with an empty gh_id still inserts fine under this schema, so
	// force a failure instead via a duplicate repo+id pair *within* the
	// same batch colliding on the unique index after the first is applied;
	// both rows still commit or neither does because ON CONFLICT absorbs
	// the second, not an error — so assert the real invariant: a batch
	// that errors out (context canceled before the transaction starts)
	// leaves zero rows.
	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	_, err := s.InsertEntries(cancelCtx, []model.Entry{good})
	require.Error(t, err)

	count, err := s.CountEntries(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestQueryEntries_SortedByCreatedAtDescIDAsc(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e1 := sampleEntry("IC_1", base)
	e2 := sampleEntry("IC_2", base.Add(time.Hour))
	e3 := sampleEntry("IC_3", base.Add(time.Hour)) // same timestamp as e2

	_, err := s.InsertEntries(ctx, []model.Entry{e1, e2, e3})
	require.NoError(t, err)

	got, err := s.QueryEntries(ctx, Filter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "IC_2", got[0].ID)
	assert.Equal(t, "IC_3", got[1].ID)
	assert.Equal(t, "IC_1", got[2].ID)
}

func TestQueryEntries_FilterByRepoAndType(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	now := time.Now()
	comment := sampleEntry("IC_1", now)
	review := sampleEntry("PRR_1", now)
	review.Type = model.EntryReview
	review.State = string(model.ReviewApproved)

	other := sampleEntry("IC_2", now)
	other.Repo = "acme/other"

	_, err := s.InsertEntries(ctx, []model.Entry{comment, review, other})
	require.NoError(t, err)

	got, err := s.QueryEntries(ctx, Filter{Repo: "acme/widgets", ExactRepo: true, Type: []model.EntryType{model.EntryReview}}, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PRR_1", got[0].ID)
}

func TestUpdateEntry_WritesFileActivityBackInPlace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	e := sampleEntry("RC_1", time.Now())
	e.File = "main.go"
	_, err := s.InsertEntries(ctx, []model.Entry{e})
	require.NoError(t, err)

	e.FileActivity = &model.FileActivityAfter{Modified: true, CommitsTouchingFile: 2}
	require.NoError(t, s.UpdateEntry(ctx, e))

	got, err := s.QueryEntries(ctx, Filter{ID: "RC_1"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].FileActivity)
	assert.True(t, got[0].FileActivity.Modified)
	assert.Equal(t, 2, got[0].FileActivity.CommitsTouchingFile)
}

func TestInsertEntries_RoundTripsEnrichmentBlocks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	e := sampleEntry("RC_2", time.Now())
	e.Graphite = &model.Graphite{StackID: "feature/widgets", StackPosition: 2, StackSize: 3}
	_, err := s.InsertEntries(ctx, []model.Entry{e})
	require.NoError(t, err)

	got, err := s.QueryEntries(ctx, Filter{ID: "RC_2"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Graphite)
	assert.Equal(t, "feature/widgets", got[0].Graphite.StackID)
	assert.Equal(t, 2, got[0].Graphite.StackPosition)
}
