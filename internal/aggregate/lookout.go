package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/store"
)

// defaultLookoutWindow is the window used the first time BuildLookout runs
// for a store, or whenever the caller asks to reset it (spec.md §4.7).
const defaultLookoutWindow = 7 * 24 * time.Hour

// lookoutScope is the synthetic (repo="", scope="lookout") SyncMeta row
// BuildLookout reuses as its timestamp carrier, avoiding a dedicated table
// for one scalar.
const lookoutScope model.Scope = "lookout"

// LookoutStore is the subset of store.Store BuildLookout depends on.
type LookoutStore interface {
	GetSyncMeta(ctx context.Context, repo string, scope model.Scope) (*model.SyncMeta, error)
	SetSyncMeta(ctx context.Context, meta model.SyncMeta) error
	QueryEntries(ctx context.Context, filter store.Filter, limit, offset int) ([]model.Entry, error)
}

var _ LookoutStore = store.Store(nil)

// Lookout is the result of one BuildLookout call: everything that happened
// since the last time it ran.
type Lookout struct {
	Since   time.Time
	Until   time.Time
	Entries []model.Entry
}

// BuildLookout returns every entry created since the last lookout
// checkpoint (defaulting to a 7-day window on first run or when reset is
// true), then advances the checkpoint to now — but only after the entry
// set has been read, so a failure before that point leaves the checkpoint
// untouched and the next call repeats the same window (spec.md §4.7).
func BuildLookout(ctx context.Context, st LookoutStore, reset bool) (Lookout, error) {
	until := time.Now().UTC()
	since := until.Add(-defaultLookoutWindow)

	if !reset {
		meta, err := st.GetSyncMeta(ctx, "", lookoutScope)
		if err != nil {
			return Lookout{}, fmt.Errorf("load lookout checkpoint: %w", err)
		}
		if meta != nil && !meta.LastSync.IsZero() {
			since = meta.LastSync
		}
	}

	entries, err := st.QueryEntries(ctx, store.Filter{Since: since}, 0, 0)
	if err != nil {
		return Lookout{}, fmt.Errorf("query entries since lookout checkpoint: %w", err)
	}

	lookout := Lookout{Since: since, Until: until, Entries: entries}

	meta := model.SyncMeta{Repo: "", Scope: lookoutScope, LastSync: until}
	if err := st.SetSyncMeta(ctx, meta); err != nil {
		return lookout, fmt.Errorf("advance lookout checkpoint: %w", err)
	}
	return lookout, nil
}
