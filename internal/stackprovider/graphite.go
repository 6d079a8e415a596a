package stackprovider

import (
	"context"
	"encoding/json"
	"os/exec"
	"sync"
	"time"
)

const subprocessTimeout = 5 * time.Second

// gtStateEntry is one branch's record from `gt state`'s JSON map.
type gtStateEntry struct {
	Trunk   bool `json:"trunk"`
	Parents []struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"parents"`
}

type prListEntry struct {
	Number      int    `json:"number"`
	HeadRefName string `json:"headRefName"`
}

// GraphiteProvider implements Provider by shelling to `gt state` and
// `gh pr list`, matching spec.md §4.8's subprocess contracts exactly.
// Results are cached in-process for the life of the invocation; ClearCache
// resets that cache for tests.
type GraphiteProvider struct {
	mu       sync.Mutex
	cached   []Stack
	hasCache bool
}

var _ Provider = (*GraphiteProvider)(nil)

// NewGraphiteProvider builds a GraphiteProvider with an empty cache.
func NewGraphiteProvider() *GraphiteProvider {
	return &GraphiteProvider{}
}

// ClearCache discards any cached stack set, forcing the next call to
// re-invoke the subprocesses.
func (p *GraphiteProvider) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
	p.hasCache = false
}

// IsAvailable reports whether `gt state` runs successfully within the
// subprocess timeout. Any failure — missing binary, non-zero exit, timeout
// — is treated as "not available", never as a fatal error (spec.md §6).
func (p *GraphiteProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.gtState(ctx)
	return err == nil
}

// GetStacks returns every stack (one per trunk-rooted leaf branch) found by
// the most recent `gt state` invocation, using the in-process cache when
// already populated.
func (p *GraphiteProvider) GetStacks(ctx context.Context) ([]Stack, error) {
	p.mu.Lock()
	if p.hasCache {
		defer p.mu.Unlock()
		return p.cached, nil
	}
	p.mu.Unlock()

	stacks, err := p.buildStacks(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cached = stacks
	p.hasCache = true
	p.mu.Unlock()

	return stacks, nil
}

// GetStackForBranch locates branch within its stack, or returns nil if the
// branch is not part of any known stack.
func (p *GraphiteProvider) GetStackForBranch(ctx context.Context, branch string) (*BranchPosition, error) {
	stacks, err := p.GetStacks(ctx)
	if err != nil {
		return nil, err
	}

	for _, s := range stacks {
		for i, b := range s.Branches {
			if b == branch {
				return &BranchPosition{Stack: s, Index: i, Branch: branch}, nil
			}
		}
	}
	return nil, nil
}

// GetStackPRs returns the PR numbers in branch's stack, filtered by
// direction relative to branch's own position.
func (p *GraphiteProvider) GetStackPRs(ctx context.Context, branch string, direction Direction) (*StackPRs, error) {
	pos, err := p.GetStackForBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, nil
	}

	result := &StackPRs{Stack: pos.Stack, Direction: direction}
	if pos.Index < len(pos.Stack.PRNumbers) {
		result.CurrentPR = pos.Stack.PRNumbers[pos.Index]
	}

	for i, pr := range pos.Stack.PRNumbers {
		if pr == 0 {
			continue
		}
		switch direction {
		case DirectionUp:
			if i >= pos.Index {
				result.PRs = append(result.PRs, pr)
			}
		case DirectionDown:
			if i <= pos.Index {
				result.PRs = append(result.PRs, pr)
			}
		default:
			result.PRs = append(result.PRs, pr)
		}
	}

	return result, nil
}

// buildStacks does the actual work: parse `gt state`'s branch map, invert
// parent edges to find children, locate leaves (non-trunk branches with no
// children), walk each leaf's parent chain up to (excluding) trunk, reverse
// into base-to-tip order, then attach PR numbers from `gh pr list` keyed by
// head branch name — spec.md §4.8 exactly.
func (p *GraphiteProvider) buildStacks(ctx context.Context) ([]Stack, error) {
	state, err := p.gtState(ctx)
	if err != nil {
		return nil, err
	}
	prByBranch := p.openPRsByBranch(ctx)
	return stacksFromState(state, prByBranch), nil
}

// stacksFromState is the pure transformation at the heart of buildStacks,
// split out so it can be unit-tested without shelling to `gt state`/
// `gh pr list`.
func stacksFromState(state map[string]gtStateEntry, prByBranch map[string]int) []Stack {
	trunk := ""
	for branch, entry := range state {
		if entry.Trunk {
			trunk = branch
			break
		}
	}
	if trunk == "" {
		return nil
	}

	children := make(map[string][]string)
	for branch, entry := range state {
		for _, parent := range entry.Parents {
			children[parent.Ref] = append(children[parent.Ref], branch)
		}
	}

	var leaves []string
	for branch := range state {
		if branch == trunk {
			continue
		}
		if len(children[branch]) == 0 {
			leaves = append(leaves, branch)
		}
	}

	var stacks []Stack
	for _, leaf := range leaves {
		chain := []string{leaf}
		cur := leaf
		for {
			entry, ok := state[cur]
			if !ok || len(entry.Parents) == 0 {
				break
			}
			parent := entry.Parents[0].Ref
			if parent == trunk {
				break
			}
			chain = append(chain, parent)
			cur = parent
		}

		branches := make([]string, len(chain))
		for i, b := range chain {
			branches[len(chain)-1-i] = b
		}

		prs := make([]int, len(branches))
		for i, b := range branches {
			prs[i] = prByBranch[b]
		}

		stacks = append(stacks, Stack{ID: leaf, Name: leaf, Branches: branches, PRNumbers: prs})
	}

	return stacks
}

// gtState invokes `gt state` and parses its branch -> {trunk, parents} map.
func (p *GraphiteProvider) gtState(ctx context.Context) (map[string]gtStateEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gt", "state").Output()
	if err != nil {
		return nil, err
	}

	var state map[string]gtStateEntry
	if err := json.Unmarshal(out, &state); err != nil {
		return nil, err
	}
	return state, nil
}

// openPRsByBranch invokes `gh pr list` and returns a head-branch-name to
// PR-number map. Failure here is non-fatal: PR numbers are simply omitted
// from the stack (spec.md §6, "absence or non-zero exit... is not fatal").
func (p *GraphiteProvider) openPRsByBranch(ctx context.Context) map[string]int {
	ctx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "pr", "list",
		"--state", "open", "--json", "number,headRefName", "--limit", "200").Output()
	if err != nil {
		return map[string]int{}
	}

	var entries []prListEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		return map[string]int{}
	}

	result := make(map[string]int, len(entries))
	for _, e := range entries {
		result[e.HeadRefName] = e.Number
	}
	return result
}
