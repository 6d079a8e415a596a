package store

import (
	"context"
	"time"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// Filter maps spec.md §4.2's filter shape exactly. SQL-pushable fields are
// applied in buildWhere; BotPatterns/Orphaned/freeze-cutoff suppression are
// left to the query engine layer (SPEC_FULL.md §4.2) since they require
// client-side evaluation.
type Filter struct {
	Repo      string // prefix/substring match unless ExactRepo
	ExactRepo bool
	PR        []int
	Type      []model.EntryType
	States    []model.PRState
	Label     string // partial match against pr_labels
	Since     time.Time
	Before    time.Time
	Author    string

	ExcludeAuthors []string
	ExcludeBots    bool
	BotPatterns    []string // client-side, evaluated by internal/query

	Orphaned      bool // client-side, evaluated by internal/query
	IncludeFrozen bool

	ID string // exact gh_id match
}

// Store is the port every higher layer (sync, query, aggregate, feedback)
// depends on instead of the concrete SQLite implementation — kept as an
// interface the way the teacher keeps driven.PRStore/driven.ReviewStore as
// interfaces even with a single implementation.
type Store interface {
	UpsertPR(ctx context.Context, pr model.PullRequest) error
	InsertEntries(ctx context.Context, entries []model.Entry) (int, error)
	UpdateEntry(ctx context.Context, entry model.Entry) error
	QueryEntries(ctx context.Context, filter Filter, limit, offset int) ([]model.Entry, error)
	CountEntries(ctx context.Context, filter Filter) (int, error)
	GetRepos(ctx context.Context) ([]model.RepoWatch, error)
	GetAllSyncMeta(ctx context.Context) ([]model.SyncMeta, error)
	GetSyncMeta(ctx context.Context, repo string, scope model.Scope) (*model.SyncMeta, error)
	SetSyncMeta(ctx context.Context, meta model.SyncMeta) error

	AddAck(ctx context.Context, ack model.Ack) error
	AddAcks(ctx context.Context, acks []model.Ack) error
	RemoveAck(ctx context.Context, repo, commentID string) error
	IsAcked(ctx context.Context, repo, commentID string) (bool, error)
	ReadAcks(ctx context.Context, repo string) ([]model.Ack, error)
	GetAckedIDs(ctx context.Context, repo string) (map[string]bool, error)

	AddFreeze(ctx context.Context, freeze model.Freeze) error
	RemoveFreeze(ctx context.Context, repo string, pr int, kind model.FreezeKind, targetID string) error
	ListFreezes(ctx context.Context, repo string) ([]model.Freeze, error)

	Close() error
}

// Compile-time interface satisfaction check.
var _ Store = (*SQLStore)(nil)

// SQLStore is the SQLite-backed implementation of Store.
type SQLStore struct {
	db *DB
}

// Open opens (or creates) the SQLite store at dbPath.
func Open(dbPath string) (*SQLStore, error) {
	db, err := NewDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying DB. Idempotent.
func (s *SQLStore) Close() error { return s.db.Close() }

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// parseTime tries the datetime formats SQLite may hand back, mirroring the
// teacher's multi-format parseTime helper.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	var lastErr error
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
