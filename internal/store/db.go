// Package store implements firewatch's embedded SQL event cache
// (SPEC_FULL.md §4.2): pull request metadata, the denormalized entries
// table, sync cursors, acks, and freezes, behind the Store port interface.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"
)

// DB provides dual reader/writer database connections with WAL mode
// enabled. The writer connection is limited to a single connection to
// avoid "database is locked" errors; the reader pool allows up to 4
// concurrent readers.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
	once   sync.Once
}

// NewDB opens (creating if absent) a dual-connection SQLite database at
// dbPath with WAL mode, busy timeout, synchronous NORMAL, and foreign keys
// enabled, and runs pending migrations.
func NewDB(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.Ping(); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dbPath}

	if err := RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Close closes both reader and writer connections. It is safe to call more
// than once; only the first call does anything (spec.md §4.2 invariant:
// re-entrant close is a no-op).
func (db *DB) Close() error {
	var firstErr error
	db.once.Do(func() {
		if err := db.Reader.Close(); err != nil {
			firstErr = fmt.Errorf("close reader: %w", err)
		}
		if err := db.Writer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close writer: %w", err)
		}
	})
	return firstErr
}

// Clear removes the database file at path. It must be called only after
// the DB that owned it has been closed; there is deliberately no *DB.Clear
// method, so calling this while a handle is still open is a file-removal
// race the caller owns, not a method this type exposes.
func Clear(path string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s%s: %w", path, suffix, err)
		}
	}
	return nil
}

// RegisterShutdown arms SIGINT/SIGTERM handling that closes db cleanly on
// interrupt. It returns a context that is canceled on signal and a stop
// function the caller should defer; the caller's main loop should select on
// ctx.Done() and call db.Close() (or rely on the goroutine below) before
// exiting.
func RegisterShutdown(db *DB) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		db.Close()
	}()
	return ctx, stop
}
