package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/outfitter-dev/firewatch/internal/model"
)

func TestBuildActionableSummary_AuthorPerspective(t *testing.T) {
	now := time.Now().UTC()
	resolved := false

	entries := []model.Entry{
		{ID: "rc1", Repo: "acme/widgets", PR: 1, PRTitle: "my pr", PRAuthor: "alice", PRState: model.PRStateOpen,
			Type: model.EntryComment, Subtype: model.SubtypeReviewComment, ThreadResolved: &resolved, CreatedAt: now.Add(-time.Hour)},
		{ID: "rev1", Repo: "acme/widgets", PR: 2, PRTitle: "other pr", PRAuthor: "alice", PRState: model.PRStateOpen,
			Type: model.EntryReview, Author: "bob", State: string(model.ReviewChangesRequested), CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "rev2", Repo: "acme/widgets", PR: 3, PRTitle: "not mine", PRAuthor: "carol", PRState: model.PRStateOpen,
			Type: model.EntryReview, Author: "bob", State: string(model.ReviewApproved), CreatedAt: now},
	}

	summary := BuildActionableSummary(entries, "alice", PerspectiveAuthor)
	assert.Len(t, summary.Unaddressed, 1)
	assert.Equal(t, 1, summary.Unaddressed[0].PR)
	assert.Len(t, summary.ChangesRequested, 1)
	assert.Equal(t, 2, summary.ChangesRequested[0].PR)
	assert.Empty(t, summary.AwaitingReview)
}

func TestBuildActionableSummary_ReviewerPerspective(t *testing.T) {
	now := time.Now().UTC()

	entries := []model.Entry{
		{ID: "pr1-open", Repo: "acme/widgets", PR: 1, PRTitle: "needs review", PRAuthor: "bob", PRState: model.PRStateOpen,
			Type: model.EntryComment, Subtype: model.SubtypeIssueComment, Author: "bob", CreatedAt: now},
		{ID: "rev-mine", Repo: "acme/widgets", PR: 2, PRTitle: "already reviewed", PRAuthor: "carol", PRState: model.PRStateOpen,
			Type: model.EntryReview, Author: "alice", State: string(model.ReviewApproved), CreatedAt: now.Add(-10 * 24 * time.Hour)},
	}

	summary := BuildActionableSummary(entries, "alice", PerspectiveReviewer)
	assert.Len(t, summary.AwaitingReview, 1)
	assert.Equal(t, 1, summary.AwaitingReview[0].PR)
	assert.Len(t, summary.Stale, 1)
	assert.Equal(t, 2, summary.Stale[0].PR)
}
