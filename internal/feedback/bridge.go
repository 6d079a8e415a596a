// Package feedback implements the feedback-action bridge (spec.md §4.9,
// SPEC_FULL.md §4.9): resolving user-supplied ids (PR numbers, short ids,
// or raw GitHub node ids) against the local cache, then dispatching the
// requested action through ghgateway's mutations.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/outfitter-dev/firewatch/internal/ghgateway"
	"github.com/outfitter-dev/firewatch/internal/identity"
	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/store"
)

// Action names one feedback-bridge operation.
type Action string

// Action values, per SPEC_FULL.md §4.9.
const (
	ActionAck     Action = "ack"
	ActionReply   Action = "reply"
	ActionClose   Action = "close"
	ActionResolve Action = "resolve"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionEdit    Action = "edit"
)

// ActionOpts carries every optional input a dispatched action might need;
// which fields apply depends on Action.
type ActionOpts struct {
	Body        string
	All         bool
	Confirm     bool
	Resolve     bool // reply: also resolve the thread after replying (spec.md §8 scenario 4)
	Since       time.Time
	Before      time.Time
	Parallelism int
	Draft       *bool
	Labels      []string

	// Edit-only sub-fields (spec.md §4.9.4): each is applied as its own
	// independent mutation, and a failure in one does not block the rest.
	Title           *string
	EditBody        *string
	Base            *string
	MilestoneSet    bool
	MilestoneID     *string // nil with MilestoneSet true clears the milestone
	RemoveLabels    []string
	AddReviewers    []string
	RemoveReviewers []string
	AddAssignees    []string
	RemoveAssignees []string
}

// Outcome is one target's dispatch result.
type Outcome struct {
	OK            bool
	ShortID       string
	GHID          string
	PR            int
	ReactionAdded bool
	AlreadyAcked  bool
	Resolved      bool
	Error         string
}

// defaultParallelism bounds concurrent mutation calls when the caller
// doesn't set ActionOpts.Parallelism.
const defaultParallelism = 4

// Store is the subset of store.Store the feedback bridge depends on.
type Store interface {
	QueryEntries(ctx context.Context, filter store.Filter, limit, offset int) ([]model.Entry, error)
	AddAck(ctx context.Context, ack model.Ack) error
	IsAcked(ctx context.Context, repo, commentID string) (bool, error)
}

var _ Store = store.Store(nil)

// GatewayClient is the subset of ghgateway.Client the feedback bridge
// depends on.
type GatewayClient interface {
	AddIssueComment(ctx context.Context, prNodeID, body string) error
	AddReviewThreadReply(ctx context.Context, threadID, body string) error
	ResolveReviewThread(ctx context.Context, threadID string) error
	AddReaction(ctx context.Context, subjectID, content string) error
	SubmitReview(ctx context.Context, prNodeID, event, body string) error
	SetDraftStatus(ctx context.Context, prNodeID string, draft bool) error
	AddLabels(ctx context.Context, prNodeID string, labelIDs []string) error
	RemoveLabels(ctx context.Context, prNodeID string, labelIDs []string) error
	SetTitle(ctx context.Context, prNodeID, title string) error
	SetBody(ctx context.Context, prNodeID, body string) error
	SetBase(ctx context.Context, prNodeID, base string) error
	SetMilestone(ctx context.Context, prNodeID string, milestoneID *string) error
	AddReviewers(ctx context.Context, prNodeID string, reviewerIDs []string) error
	RemoveReviewers(ctx context.Context, prNodeID string, reviewerIDs []string) error
	AddAssignees(ctx context.Context, prNodeID string, assigneeIDs []string) error
	RemoveAssignees(ctx context.Context, prNodeID string, assigneeIDs []string) error
	FetchReviewThreadMap(ctx context.Context, owner, name string, pr int) (map[int64]string, error)
	FetchPullRequestID(ctx context.Context, owner, name string, pr int) (string, error)
}

var _ GatewayClient = (*ghgateway.Client)(nil)

// Bridge dispatches feedback actions against Store and Gateway. Viewer
// names the local user, recorded on every Ack.
type Bridge struct {
	Store   Store
	Gateway GatewayClient
	Viewer  string
}

// New returns a Bridge.
func New(st Store, gw GatewayClient, viewer string) *Bridge {
	return &Bridge{Store: st, Gateway: gw, Viewer: viewer}
}

// target is one id resolved to its GitHub identity and, where the store
// has it, its source Entry.
type target struct {
	ghID    string
	pr      int
	shortID string
	entry   *model.Entry
}

// Dispatch resolves ids against repo's local cache, then applies action to
// each distinct resolved target, per SPEC_FULL.md §4.9's four-step
// algorithm: resolve, classify, dispatch, batch.
func (b *Bridge) Dispatch(ctx context.Context, repo string, ids []string, action Action, opts ActionOpts) ([]Outcome, error) {
	if _, _, err := splitRepo(repo); err != nil {
		return nil, err
	}

	targets, bad := b.resolve(ctx, repo, ids)
	targets = dedupTargets(targets)
	targets = filterByWindow(targets, opts.Since, opts.Before)

	limit := opts.Parallelism
	if limit <= 0 {
		limit = defaultParallelism
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	outcomes := make([]Outcome, len(targets))
	var mapMu sync.Mutex
	threadLocks := make(map[string]*sync.Mutex)
	lockFor := func(threadID string) *sync.Mutex {
		if threadID == "" {
			return new(sync.Mutex)
		}
		mapMu.Lock()
		defer mapMu.Unlock()
		l, ok := threadLocks[threadID]
		if !ok {
			l = new(sync.Mutex)
			threadLocks[threadID] = l
		}
		return l
	}

	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			threadID := ""
			if t.entry != nil {
				threadID = t.entry.ThreadID
			}
			l := lockFor(threadID)
			l.Lock()
			defer l.Unlock()
			outcomes[i] = b.dispatchOne(gctx, repo, t, action, opts)
			return nil
		})
	}
	_ = g.Wait()

	return append(bad, outcomes...), nil
}

// resolve classifies each id (PR number, short id, or full node id) and
// looks up its backing entry. A short-id cache miss triggers one cache
// rebuild-and-retry, covering an entry synced after the bridge started.
func (b *Bridge) resolve(ctx context.Context, repo string, ids []string) ([]target, []Outcome) {
	cache, entries, err := b.loadCache(ctx, repo)
	if err != nil {
		bad := make([]Outcome, len(ids))
		for i := range ids {
			bad[i] = Outcome{Error: fmt.Sprintf("load cache: %v", err)}
		}
		return nil, bad
	}

	var targets []target
	var bad []Outcome
	rebuilt := false

	for _, id := range ids {
		c := identity.ClassifyID(id)
		switch c.Kind {
		case identity.KindPRNumber:
			targets = append(targets, target{pr: c.PRNumber})

		case identity.KindShortID:
			res, ok := cache.Resolve(id)
			if !ok && !rebuilt {
				cache, entries, err = b.loadCache(ctx, repo)
				rebuilt = true
				if err == nil {
					res, ok = cache.Resolve(id)
				}
			}
			if !ok {
				bad = append(bad, Outcome{ShortID: id, Error: fmt.Sprintf("unknown id %q", id)})
				continue
			}
			targets = append(targets, target{ghID: res.FullID, pr: res.PR, shortID: id, entry: findEntry(entries, res.FullID)})

		case identity.KindFullID:
			e := findEntry(entries, c.FullID)
			pr := 0
			if e != nil {
				pr = e.PR
			}
			short, _ := cache.ShortIDFor(repo, c.FullID)
			targets = append(targets, target{ghID: c.FullID, pr: pr, shortID: short, entry: e})

		default:
			bad = append(bad, Outcome{Error: fmt.Sprintf("unrecognized id %q", id)})
		}
	}
	return targets, bad
}

func (b *Bridge) loadCache(ctx context.Context, repo string) (*identity.Cache, []model.Entry, error) {
	entries, err := b.Store.QueryEntries(ctx, store.Filter{Repo: repo, ExactRepo: true, IncludeFrozen: true}, 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("query entries for %s: %w", repo, err)
	}
	cache := identity.BuildFrom(entries,
		func(e model.Entry) string { return e.ID },
		func(e model.Entry) string { return e.Repo },
		func(e model.Entry) int { return e.PR },
	)
	return cache, entries, nil
}

func findEntry(entries []model.Entry, ghID string) *model.Entry {
	for i := range entries {
		if entries[i].ID == ghID {
			return &entries[i]
		}
	}
	return nil
}

func dedupTargets(targets []target) []target {
	seen := make(map[string]bool, len(targets))
	out := make([]target, 0, len(targets))
	for _, t := range targets {
		key := t.ghID
		if key == "" {
			key = fmt.Sprintf("pr:%d", t.pr)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func filterByWindow(targets []target, since, before time.Time) []target {
	if since.IsZero() && before.IsZero() {
		return targets
	}
	out := make([]target, 0, len(targets))
	for _, t := range targets {
		if t.entry == nil {
			out = append(out, t) // PR-level targets aren't time-scoped
			continue
		}
		if !since.IsZero() && t.entry.CreatedAt.Before(since) {
			continue
		}
		if !before.IsZero() && t.entry.CreatedAt.After(before) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q, expected owner/name", repo)
	}
	return parts[0], parts[1], nil
}
