package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// AddAck records a local acknowledgement of a comment, keyed on
// (repo, comment_id).
func (s *SQLStore) AddAck(ctx context.Context, ack model.Ack) error {
	const query = `
		INSERT INTO acks (repo, comment_id, pr, acked_at, acked_by, reaction_added)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, comment_id) DO UPDATE SET
			pr             = excluded.pr,
			acked_at       = excluded.acked_at,
			acked_by       = excluded.acked_by,
			reaction_added = excluded.reaction_added
	`
	_, err := s.db.Writer.ExecContext(ctx, query,
		ack.Repo, ack.CommentID, ack.PR, ack.AckedAt.UTC().Format(timeFormat), ack.AckedBy, boolToInt(ack.ReactionAdded),
	)
	if err != nil {
		return fmt.Errorf("add ack %s/%s: %w", ack.Repo, ack.CommentID, err)
	}
	return nil
}

// AddAcks writes a batch of acks in one transaction, used by the feedback
// bridge's batch dispatch.
func (s *SQLStore) AddAcks(ctx context.Context, acks []model.Ack) error {
	if len(acks) == 0 {
		return nil
	}
	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op.

	const query = `
		INSERT INTO acks (repo, comment_id, pr, acked_at, acked_by, reaction_added)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, comment_id) DO UPDATE SET
			pr             = excluded.pr,
			acked_at       = excluded.acked_at,
			acked_by       = excluded.acked_by,
			reaction_added = excluded.reaction_added
	`
	for _, ack := range acks {
		if _, err := tx.ExecContext(ctx, query,
			ack.Repo, ack.CommentID, ack.PR, ack.AckedAt.UTC().Format(timeFormat), ack.AckedBy, boolToInt(ack.ReactionAdded),
		); err != nil {
			return fmt.Errorf("add ack %s/%s: %w", ack.Repo, ack.CommentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit acks: %w", err)
	}
	return nil
}

// RemoveAck deletes an ack by (repo, comment_id). Removing a non-existent
// ack is not an error.
func (s *SQLStore) RemoveAck(ctx context.Context, repo, commentID string) error {
	const query = `DELETE FROM acks WHERE repo = ? AND comment_id = ?`
	if _, err := s.db.Writer.ExecContext(ctx, query, repo, commentID); err != nil {
		return fmt.Errorf("remove ack %s/%s: %w", repo, commentID, err)
	}
	return nil
}

// IsAcked reports whether (repo, comment_id) has an ack row.
func (s *SQLStore) IsAcked(ctx context.Context, repo, commentID string) (bool, error) {
	const query = `SELECT 1 FROM acks WHERE repo = ? AND comment_id = ?`
	var one int
	err := s.db.Reader.QueryRowContext(ctx, query, repo, commentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check ack %s/%s: %w", repo, commentID, err)
	}
	return true, nil
}

// ReadAcks returns every ack row for repo, ordered by acked_at descending.
func (s *SQLStore) ReadAcks(ctx context.Context, repo string) ([]model.Ack, error) {
	const query = `SELECT repo, comment_id, pr, acked_at, acked_by, reaction_added FROM acks WHERE repo = ? ORDER BY acked_at DESC`
	rows, err := s.db.Reader.QueryContext(ctx, query, repo)
	if err != nil {
		return nil, fmt.Errorf("read acks for %s: %w", repo, err)
	}
	defer rows.Close()

	var out []model.Ack
	for rows.Next() {
		var a model.Ack
		var ackedAt string
		var reactionAdded int
		if err := rows.Scan(&a.Repo, &a.CommentID, &a.PR, &ackedAt, &a.AckedBy, &reactionAdded); err != nil {
			return nil, fmt.Errorf("scan ack: %w", err)
		}
		t, err := parseTime(ackedAt)
		if err != nil {
			return nil, fmt.Errorf("parse acked_at: %w", err)
		}
		a.AckedAt = t
		a.ReactionAdded = reactionAdded != 0
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate acks: %w", err)
	}
	return out, nil
}

// GetAckedIDs returns the set of comment ids acked in repo, for fast
// membership checks by the query engine's orphaned/unaddressed filters.
func (s *SQLStore) GetAckedIDs(ctx context.Context, repo string) (map[string]bool, error) {
	const query = `SELECT comment_id FROM acks WHERE repo = ?`
	rows, err := s.db.Reader.QueryContext(ctx, query, repo)
	if err != nil {
		return nil, fmt.Errorf("query acked ids for %s: %w", repo, err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan acked id: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate acked ids: %w", err)
	}
	return out, nil
}
