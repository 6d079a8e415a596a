package query

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/store"
)

// Store is the subset of store.Store the query engine reads from.
type Store interface {
	QueryEntries(ctx context.Context, filter store.Filter, limit, offset int) ([]model.Entry, error)
	ListFreezes(ctx context.Context, repo string) ([]model.Freeze, error)
}

var _ Store = store.Store(nil)

// Options parameterizes one Query call. Filter's SQL-pushable fields are
// applied at the store layer; the remaining fields here are evaluated
// client-side after the store returns its candidate set (spec.md §4.6).
type Options struct {
	Filter store.Filter

	// IncludeAuthors, when non-empty, keeps only entries whose Author is a
	// case-insensitive match against one of these logins.
	IncludeAuthors []string

	// CommitImpliesRead and ResolveCommitFiles together implement the
	// commit_implies_read x orphaned interaction (DESIGN.md's Open
	// Question decision); ResolveCommitFiles may be nil when the feature
	// is off.
	CommitImpliesRead  bool
	ResolveCommitFiles CommitFilesResolver

	Limit  int
	Offset int
}

// Engine runs read queries against a Store, applying the client-side
// refinements store.Filter leaves undone.
type Engine struct {
	Store Store
}

// New builds an Engine over st.
func New(st Store) *Engine {
	return &Engine{Store: st}
}

// Query implements spec.md §4.6: push SQL-pushable filters, apply
// client-side refinements in order (author include-list, exclude-list, bot
// match, freeze-cutoff suppression, orphaned detection), sort
// created_at DESC, id ASC, then offset/limit. It returns the filtered
// entries for the requested page and the total count before pagination.
func (e *Engine) Query(ctx context.Context, opts Options) ([]model.Entry, int, error) {
	all, err := e.Store.QueryEntries(ctx, opts.Filter, 0, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("query entries: %w", err)
	}

	entries := all
	entries = filterIncludeAuthors(entries, opts.IncludeAuthors)
	entries = filterExcludeAuthors(entries, opts.Filter.ExcludeAuthors)

	if opts.Filter.ExcludeBots {
		patterns := compileBotPatterns(opts.Filter.BotPatterns)
		entries = filterExcludeBots(entries, patterns)
	}

	if !opts.Filter.IncludeFrozen {
		freezes, err := e.Store.ListFreezes(ctx, opts.Filter.Repo)
		if err != nil {
			return nil, 0, fmt.Errorf("list freezes: %w", err)
		}
		entries = filterFrozen(entries, freezes)
	}

	if opts.Filter.Orphaned {
		entries = filterOrphaned(entries)
		if opts.CommitImpliesRead {
			entries = suppressCommitImpliedReads(ctx, entries, all, opts.ResolveCommitFiles)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})

	total := len(entries)
	return paginate(entries, opts.Limit, opts.Offset), total, nil
}

func filterIncludeAuthors(entries []model.Entry, authors []string) []model.Entry {
	if len(authors) == 0 {
		return entries
	}
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		set[strings.ToLower(a)] = true
	}
	out := entries[:0:0]
	for _, e := range entries {
		if set[strings.ToLower(e.Author)] {
			out = append(out, e)
		}
	}
	return out
}

func filterExcludeAuthors(entries []model.Entry, authors []string) []model.Entry {
	if len(authors) == 0 {
		return entries
	}
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		set[strings.ToLower(a)] = true
	}
	out := entries[:0:0]
	for _, e := range entries {
		if !set[strings.ToLower(e.Author)] {
			out = append(out, e)
		}
	}
	return out
}

func filterExcludeBots(entries []model.Entry, patterns []*regexp.Regexp) []model.Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if !matchesAnyBotPattern(e.Author, patterns) {
			out = append(out, e)
		}
	}
	return out
}

func filterFrozen(entries []model.Entry, freezes []model.Freeze) []model.Entry {
	if len(freezes) == 0 {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if !isFrozen(e, freezes) {
			out = append(out, e)
		}
	}
	return out
}

func isFrozen(e model.Entry, freezes []model.Freeze) bool {
	for _, f := range freezes {
		if f.Repo != e.Repo || f.PR != e.PR || !e.CreatedAt.After(f.FrozenAt) {
			continue
		}
		switch f.Kind {
		case model.FreezePR:
			return true
		case model.FreezeThread:
			if f.TargetID != "" && f.TargetID == e.ThreadID {
				return true
			}
		}
	}
	return false
}

// filterOrphaned keeps review comments whose thread is unresolved on a PR
// that has since closed or merged — feedback nobody will ever act on
// (spec.md §4.6).
func filterOrphaned(entries []model.Entry) []model.Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if !e.IsUnresolved() {
			continue
		}
		if e.PRState == model.PRStateClosed || e.PRState == model.PRStateMerged {
			out = append(out, e)
		}
	}
	return out
}

func paginate(entries []model.Entry, limit, offset int) []model.Entry {
	if offset > 0 {
		if offset >= len(entries) {
			return nil
		}
		entries = entries[offset:]
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
