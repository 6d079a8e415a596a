package store

import (
	"context"
	"fmt"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// AddFreeze records a soft tombstone hiding entries created after frozen_at
// for (repo, pr, kind, target_id).
func (s *SQLStore) AddFreeze(ctx context.Context, freeze model.Freeze) error {
	const query = `
		INSERT INTO freezes (repo, pr, kind, target_id, frozen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repo, pr, kind, target_id) DO UPDATE SET
			frozen_at = excluded.frozen_at
	`
	_, err := s.db.Writer.ExecContext(ctx, query,
		freeze.Repo, freeze.PR, string(freeze.Kind), freeze.TargetID, freeze.FrozenAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("add freeze %s#%d/%s/%s: %w", freeze.Repo, freeze.PR, freeze.Kind, freeze.TargetID, err)
	}
	return nil
}

// RemoveFreeze deletes a freeze row. Removing a non-existent freeze is not
// an error.
func (s *SQLStore) RemoveFreeze(ctx context.Context, repo string, pr int, kind model.FreezeKind, targetID string) error {
	const query = `DELETE FROM freezes WHERE repo = ? AND pr = ? AND kind = ? AND target_id = ?`
	if _, err := s.db.Writer.ExecContext(ctx, query, repo, pr, string(kind), targetID); err != nil {
		return fmt.Errorf("remove freeze %s#%d/%s/%s: %w", repo, pr, kind, targetID, err)
	}
	return nil
}

// ListFreezes returns every freeze for repo (or every freeze in the store
// when repo is empty), used by the query engine's freeze-cutoff
// suppression.
func (s *SQLStore) ListFreezes(ctx context.Context, repo string) ([]model.Freeze, error) {
	query := `SELECT repo, pr, kind, target_id, frozen_at FROM freezes`
	var args []any
	if repo != "" {
		query += ` WHERE repo = ?`
		args = append(args, repo)
	}

	rows, err := s.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list freezes for %q: %w", repo, err)
	}
	defer rows.Close()

	var out []model.Freeze
	for rows.Next() {
		var f model.Freeze
		var kind, frozenAt string
		if err := rows.Scan(&f.Repo, &f.PR, &kind, &f.TargetID, &frozenAt); err != nil {
			return nil, fmt.Errorf("scan freeze: %w", err)
		}
		f.Kind = model.FreezeKind(kind)
		t, err := parseTime(frozenAt)
		if err != nil {
			return nil, fmt.Errorf("parse frozen_at: %w", err)
		}
		f.FrozenAt = t
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate freezes: %w", err)
	}
	return out, nil
}
