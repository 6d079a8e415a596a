package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// UpsertPR inserts or replaces a pull request's metadata row, keyed on
// (repo, number), mirroring the teacher's PRRepo.Upsert idiom.
func (s *SQLStore) UpsertPR(ctx context.Context, pr model.PullRequest) error {
	const query = `
		INSERT INTO pull_requests (repo, number, state, is_draft, title, author, branch, labels)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, number) DO UPDATE SET
			state    = excluded.state,
			is_draft = excluded.is_draft,
			title    = excluded.title,
			author   = excluded.author,
			branch   = excluded.branch,
			labels   = excluded.labels
	`

	labels := pr.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}

	_, err = s.db.Writer.ExecContext(ctx, query,
		pr.Repo, pr.Number, string(pr.State), boolToInt(pr.IsDraft), pr.Title, pr.Author, pr.Branch, string(labelsJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert pull request %s#%d: %w", pr.Repo, pr.Number, err)
	}
	return nil
}

// GetRepos returns the set of repos with at least one sync_meta row,
// ordered by name; a repo with stored PRs but no sync_meta row is not listed. There is no dedicated repos table — firewatch
// derives the watch list from sync_meta, the same way the teacher derives
// its repo list from what's actually been synced.
func (s *SQLStore) GetRepos(ctx context.Context) ([]model.RepoWatch, error) {
	const query = `
		SELECT repo, MIN(last_sync) FROM sync_meta GROUP BY repo ORDER BY repo
	`
	rows, err := s.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query repos: %w", err)
	}
	defer rows.Close()

	var repos []model.RepoWatch
	for rows.Next() {
		var repo, addedAt string
		if err := rows.Scan(&repo, &addedAt); err != nil {
			return nil, fmt.Errorf("scan repo: %w", err)
		}
		t, err := parseTime(addedAt)
		if err != nil {
			return nil, fmt.Errorf("parse added_at: %w", err)
		}
		repos = append(repos, model.RepoWatch{Repo: repo, AddedAt: t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repos: %w", err)
	}
	return repos, nil
}
