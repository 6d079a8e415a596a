// Package stackprovider attaches cross-PR stack context (spec.md §4.8) by
// shelling to the Graphite CLI. It is a capability interface so a repo
// without Graphite degrades to IsAvailable()==false instead of failing.
package stackprovider

import "context"

// Stack is one Graphite stack: an ordered chain of branches from the base
// (position 1) to the tip, each paired with its PR number when known.
type Stack struct {
	ID         string   // the tip (leaf) branch name
	Name       string   // same as ID today; kept distinct for future aliasing
	Branches   []string // base-to-tip order
	PRNumbers  []int    // parallel to Branches; 0 where no open PR exists
	BestEffort bool      // true when derived from the gt log fallback parser
}

// BranchPosition is the result of locating a branch within its stack.
type BranchPosition struct {
	Stack Stack
	Index int // 0-based position of Branch within Stack.Branches
	Branch string
}

// Direction filters GetStackPRs relative to a branch's position.
type Direction string

const (
	DirectionUp   Direction = "up"   // toward the tip
	DirectionDown Direction = "down" // toward the base
	DirectionAll  Direction = "all"
)

// StackPRs is the result of GetStackPRs.
type StackPRs struct {
	PRs        []int
	CurrentPR  int
	Stack      Stack
	Direction  Direction
}

// Provider is the capability interface spec.md §4.8 requires. A Provider
// implementation must be safe for concurrent use.
type Provider interface {
	IsAvailable(ctx context.Context) bool
	GetStacks(ctx context.Context) ([]Stack, error)
	GetStackForBranch(ctx context.Context, branch string) (*BranchPosition, error)
	GetStackPRs(ctx context.Context, branch string, direction Direction) (*StackPRs, error)
	ClearCache()
}
