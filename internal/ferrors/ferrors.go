// Package ferrors defines the classified error kinds that cross the
// gateway/store boundary, per spec.md §7. Callers propagate these untouched;
// only the outermost boundary (not part of this module) adds user-facing
// hints.
package ferrors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an Error for callers that need to branch on failure mode
// (e.g. the sync engine deciding whether to wait out a rate limit).
type Kind string

// Kind values, per spec.md §7.
const (
	ConfigError     Kind = "config_error"
	AuthError       Kind = "auth_error"
	RepoDetectError Kind = "repo_detect_error"
	ValidationError Kind = "validation_error"
	NotFound        Kind = "not_found"
	Conflict        Kind = "conflict"
	GraphQLError    Kind = "graphql_error"
	RateLimited     Kind = "rate_limited"
	Transport       Kind = "transport"
	StoreError      Kind = "store_error"
	Fatal           Kind = "fatal"
)

// Error is the tagged result-or-error value gateway and store methods
// return instead of raising ad hoc errors for expected control flow.
type Error struct {
	Kind    Kind
	Msg     string
	Hint    string    // one-line remediation, e.g. "Run `gh auth login`"
	ResetAt time.Time // populated when Kind == RateLimited
	GQL     []string  // raw GraphQL error messages, when Kind == GraphQLError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped error so errors.Is/errors.As keep working
// across this boundary.
func (e *Error) Unwrap() error { return e.Err }

// New builds a classified Error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds a classified Error around an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithHint attaches a remediation hint and returns e for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// RateLimitedAt builds a RateLimited error carrying the reset time.
func RateLimitedAt(resetAt time.Time) *Error {
	return &Error{Kind: RateLimited, Msg: "rate limited", ResetAt: resetAt}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
