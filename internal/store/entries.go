package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/outfitter-dev/firewatch/internal/model"
)

const entryColumns = `
	repo, gh_id, pr, type, subtype, author, body, state, file, line,
	thread_id, thread_resolved, created_at, updated_at, captured_at, url,
	pr_title, pr_state, pr_author, pr_branch, pr_labels,
	graphite, file_provenance, file_activity_after, ci
`

// InsertEntries runs inside a single transaction (the teacher's
// ReplaceCheckRunsForPR idiom): partial failure leaves zero rows inserted
// (spec.md §4.2 invariant a). Idempotent on (repo, gh_id) via
// ON CONFLICT DO NOTHING, so a re-fetched page after a crash is absorbed
// without error.
func (s *SQLStore) InsertEntries(ctx context.Context, entries []model.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op.

	query := fmt.Sprintf(`
		INSERT INTO entries (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, gh_id) DO NOTHING
	`, entryColumns)

	inserted := 0
	for _, e := range entries {
		args, err := entryArgs(e)
		if err != nil {
			return 0, fmt.Errorf("marshal entry %s: %w", e.ID, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected for entry %s: %w", e.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit entries: %w", err)
	}

	return inserted, nil
}

// UpdateEntry rewrites one existing entry row by (repo, gh_id), used by the
// staleness check to write file_activity_after back in place.
func (s *SQLStore) UpdateEntry(ctx context.Context, entry model.Entry) error {
	args, err := entryArgs(entry)
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", entry.ID, err)
	}
	// entryArgs orders (repo, gh_id, ...) first; the UPDATE needs the WHERE
	// values appended, not leading, so re-slice.
	setArgs := args[2:]
	whereArgs := []any{args[0], args[1]}

	const query = `
		UPDATE entries SET
			pr = ?, type = ?, subtype = ?, author = ?, body = ?, state = ?, file = ?, line = ?,
			thread_id = ?, thread_resolved = ?, created_at = ?, updated_at = ?, captured_at = ?, url = ?,
			pr_title = ?, pr_state = ?, pr_author = ?, pr_branch = ?, pr_labels = ?,
			graphite = ?, file_provenance = ?, file_activity_after = ?, ci = ?
		WHERE repo = ? AND gh_id = ?
	`
	_, err = s.db.Writer.ExecContext(ctx, query, append(setArgs, whereArgs...)...)
	if err != nil {
		return fmt.Errorf("update entry %s: %w", entry.ID, err)
	}
	return nil
}

// QueryEntries applies the SQL-pushable subset of filter and returns
// entries sorted by created_at DESC, id ASC for stability (spec.md §4.2).
func (s *SQLStore) QueryEntries(ctx context.Context, filter Filter, limit, offset int) ([]model.Entry, error) {
	where, args := buildWhere(filter)
	query := "SELECT " + strings.TrimSpace(entryColumns) + " FROM entries" + where + " ORDER BY created_at DESC, gh_id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}

	rows, err := s.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// CountEntries applies the same SQL-pushable filter as QueryEntries and
// returns the matching row count.
func (s *SQLStore) CountEntries(ctx context.Context, filter Filter) (int, error) {
	where, args := buildWhere(filter)
	query := "SELECT COUNT(*) FROM entries" + where

	var count int
	if err := s.db.Reader.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// buildWhere translates the SQL-pushable fields of Filter into a WHERE
// clause (spec.md §4.2); BotPatterns, Orphaned, and freeze-cutoff
// suppression are left for internal/query to apply client-side.
func buildWhere(f Filter) (string, []any) {
	var clauses []string
	var args []any

	if f.Repo != "" {
		if f.ExactRepo {
			clauses = append(clauses, "repo = ?")
			args = append(args, f.Repo)
		} else {
			clauses = append(clauses, "repo LIKE ?")
			args = append(args, "%"+f.Repo+"%")
		}
	}
	if len(f.PR) > 0 {
		clauses = append(clauses, "pr IN ("+placeholders(len(f.PR))+")")
		for _, n := range f.PR {
			args = append(args, n)
		}
	}
	if len(f.Type) > 0 {
		clauses = append(clauses, "type IN ("+placeholders(len(f.Type))+")")
		for _, t := range f.Type {
			args = append(args, string(t))
		}
	}
	if len(f.States) > 0 {
		clauses = append(clauses, "pr_state IN ("+placeholders(len(f.States))+")")
		for _, st := range f.States {
			args = append(args, string(st))
		}
	}
	if f.Label != "" {
		clauses = append(clauses, "pr_labels LIKE ?")
		args = append(args, "%"+f.Label+"%")
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(timeFormat))
	}
	if !f.Before.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, f.Before.UTC().Format(timeFormat))
	}
	if f.Author != "" {
		clauses = append(clauses, "author = ?")
		args = append(args, f.Author)
	}
	if f.ID != "" {
		clauses = append(clauses, "gh_id = ?")
		args = append(args, f.ID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const timeFormat = time.RFC3339Nano

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func entryArgs(e model.Entry) ([]any, error) {
	labels := e.PRLabels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, err
	}

	graphiteJSON, err := jsonPtr(e.Graphite)
	if err != nil {
		return nil, err
	}
	provJSON, err := jsonPtr(e.FileProvenance)
	if err != nil {
		return nil, err
	}
	activityJSON, err := jsonPtr(e.FileActivity)
	if err != nil {
		return nil, err
	}
	ciJSON, err := jsonPtr(e.CI)
	if err != nil {
		return nil, err
	}

	var threadResolved any
	if e.ThreadResolved != nil {
		threadResolved = boolToInt(*e.ThreadResolved)
	}

	var updatedAt any
	if e.UpdatedAt != nil {
		updatedAt = e.UpdatedAt.UTC().Format(timeFormat)
	}

	return []any{
		e.Repo, e.ID, e.PR, string(e.Type), e.Subtype, e.Author, e.Body, e.State, e.File, e.Line,
		e.ThreadID, threadResolved, e.CreatedAt.UTC().Format(timeFormat), updatedAt, e.CapturedAt.UTC().Format(timeFormat), e.URL,
		e.PRTitle, string(e.PRState), e.PRAuthor, e.PRBranch, string(labelsJSON),
		graphiteJSON, provJSON, activityJSON, ciJSON,
	}, nil
}

func jsonPtr[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanEntry(s scanner) (*model.Entry, error) {
	var e model.Entry
	var entryType, labelsJSON string
	var threadResolved sql.NullInt64
	var createdAt, capturedAt string
	var updatedAt sql.NullString
	var graphiteJSON, provJSON, activityJSON, ciJSON sql.NullString

	err := s.Scan(
		&e.Repo, &e.ID, &e.PR, &entryType, &e.Subtype, &e.Author, &e.Body, &e.State, &e.File, &e.Line,
		&e.ThreadID, &threadResolved, &createdAt, &updatedAt, &capturedAt, &e.URL,
		&e.PRTitle, &e.PRState, &e.PRAuthor, &e.PRBranch, &labelsJSON,
		&graphiteJSON, &provJSON, &activityJSON, &ciJSON,
	)
	if err != nil {
		return nil, err
	}

	e.Type = model.EntryType(entryType)

	if threadResolved.Valid {
		b := threadResolved.Int64 != 0
		e.ThreadResolved = &b
	}

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if e.CapturedAt, err = parseTime(capturedAt); err != nil {
		return nil, fmt.Errorf("parse captured_at: %w", err)
	}
	if updatedAt.Valid && updatedAt.String != "" {
		t, err := parseTime(updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		e.UpdatedAt = &t
	}

	if err := json.Unmarshal([]byte(labelsJSON), &e.PRLabels); err != nil {
		return nil, fmt.Errorf("unmarshal pr_labels: %w", err)
	}

	if graphiteJSON.Valid {
		e.Graphite = &model.Graphite{}
		if err := json.Unmarshal([]byte(graphiteJSON.String), e.Graphite); err != nil {
			return nil, fmt.Errorf("unmarshal graphite: %w", err)
		}
	}
	if provJSON.Valid {
		e.FileProvenance = &model.FileProvenance{}
		if err := json.Unmarshal([]byte(provJSON.String), e.FileProvenance); err != nil {
			return nil, fmt.Errorf("unmarshal file_provenance: %w", err)
		}
	}
	if activityJSON.Valid {
		e.FileActivity = &model.FileActivityAfter{}
		if err := json.Unmarshal([]byte(activityJSON.String), e.FileActivity); err != nil {
			return nil, fmt.Errorf("unmarshal file_activity_after: %w", err)
		}
	}
	if ciJSON.Valid {
		e.CI = &model.CheckInfo{}
		if err := json.Unmarshal([]byte(ciJSON.String), e.CI); err != nil {
			return nil, fmt.Errorf("unmarshal ci: %w", err)
		}
	}

	return &e, nil
}
