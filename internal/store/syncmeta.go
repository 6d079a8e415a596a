package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// GetAllSyncMeta returns every sync cursor row, used by aggregation's
// lookout window and by status/doctor-style reporting.
func (s *SQLStore) GetAllSyncMeta(ctx context.Context) ([]model.SyncMeta, error) {
	const query = `SELECT repo, scope, last_sync, cursor, pr_count FROM sync_meta ORDER BY repo, scope`
	rows, err := s.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sync_meta: %w", err)
	}
	defer rows.Close()

	var out []model.SyncMeta
	for rows.Next() {
		m, err := scanSyncMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync_meta: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync_meta: %w", err)
	}
	return out, nil
}

// GetSyncMeta returns the cursor row for (repo, scope), or nil if sync has
// never run for that pair.
func (s *SQLStore) GetSyncMeta(ctx context.Context, repo string, scope model.Scope) (*model.SyncMeta, error) {
	const query = `SELECT repo, scope, last_sync, cursor, pr_count FROM sync_meta WHERE repo = ? AND scope = ?`
	m, err := scanSyncMeta(s.db.Reader.QueryRowContext(ctx, query, repo, string(scope)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync_meta %s/%s: %w", repo, scope, err)
	}
	return m, nil
}

// SetSyncMeta upserts the cursor row for (repo, scope). Callers (the sync
// engine) must only call this after the entries transaction that produced
// the cursor has committed (spec.md §4.2 invariant b).
func (s *SQLStore) SetSyncMeta(ctx context.Context, meta model.SyncMeta) error {
	const query = `
		INSERT INTO sync_meta (repo, scope, last_sync, cursor, pr_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repo, scope) DO UPDATE SET
			last_sync = excluded.last_sync,
			cursor    = excluded.cursor,
			pr_count  = excluded.pr_count
	`
	_, err := s.db.Writer.ExecContext(ctx, query,
		meta.Repo, string(meta.Scope), meta.LastSync.UTC().Format(timeFormat), meta.Cursor, meta.PRCount,
	)
	if err != nil {
		return fmt.Errorf("set sync_meta %s/%s: %w", meta.Repo, meta.Scope, err)
	}
	return nil
}

func scanSyncMeta(s scanner) (*model.SyncMeta, error) {
	var m model.SyncMeta
	var scope, lastSync string
	if err := s.Scan(&m.Repo, &scope, &lastSync, &m.Cursor, &m.PRCount); err != nil {
		return nil, err
	}
	m.Scope = model.Scope(scope)
	t, err := parseTime(lastSync)
	if err != nil {
		return nil, fmt.Errorf("parse last_sync: %w", err)
	}
	m.LastSync = t
	return &m, nil
}
