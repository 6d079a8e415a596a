package model

import "time"

// PullRequest is the mutable PR metadata summary row (spec.md §3).
type PullRequest struct {
	Repo    string
	Number  int
	State   PRState
	IsDraft bool
	Title   string
	Author  string
	Branch  string
	Labels  []string
}

// SyncMeta tracks the incremental-sync cursor for a (repo, scope) pair.
type SyncMeta struct {
	Repo     string
	Scope    Scope
	LastSync time.Time
	Cursor   string // empty means "no cursor yet"
	PRCount  int
}

// Ack is a local acknowledgement of a comment, optionally mirrored as a
// GitHub reaction.
type Ack struct {
	Repo           string
	CommentID      string
	PR             int
	AckedAt        time.Time
	AckedBy        string
	ReactionAdded  bool
}

// FreezeKind is the target kind a Freeze applies to.
type FreezeKind string

// FreezeKind values.
const (
	FreezePR     FreezeKind = "pr"
	FreezeThread FreezeKind = "thread"
)

// Freeze is a soft tombstone hiding entries created after a cutoff for a
// given PR or thread.
type Freeze struct {
	Repo     string
	PR       int
	Kind     FreezeKind
	TargetID string
	FrozenAt time.Time
}

// RepoWatch is a repository firewatch has been configured to track.
type RepoWatch struct {
	Repo    string
	AddedAt time.Time
}
