// Package identity implements firewatch's deterministic short-ID hashing,
// classification, and in-process resolution cache (spec.md §4.1). It has no
// dependencies on the store or gateway packages.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// shortIDHexLen is the number of hex characters in a short id (20 bits).
const shortIDHexLen = 5

// GenerateShortID derives a deterministic 5-hex-char id from (fullID, repo).
// The hash depends on both fields so the same comment id across forks (or
// across repos generally) produces distinct short ids, per spec.md §4.1.
func GenerateShortID(fullID, repo string) string {
	sum := sha256.Sum256([]byte(repo + "\x00" + fullID))
	return hex.EncodeToString(sum[:])[:shortIDHexLen]
}

// FormatDisplayID renders a short id for display: "[@xxxxx]", lowercased.
func FormatDisplayID(short string) string {
	return fmt.Sprintf("[@%s]", strings.ToLower(short))
}

// Kind classifies a user-supplied identifier string.
type Kind string

// Kind values, per spec.md §4.1.
const (
	KindPRNumber Kind = "pr_number"
	KindShortID  Kind = "short_id"
	KindFullID   Kind = "full_id"
	KindUnknown  Kind = "unknown"
)

// Classification is the result of ClassifyID.
type Classification struct {
	Kind     Kind
	PRNumber int    // set when Kind == KindPRNumber
	ShortID  string // normalized (lowercase, no brackets/@), set when Kind == KindShortID
	FullID   string // set when Kind == KindFullID
}

var (
	shortIDPattern = regexp.MustCompile(`^@?\[?([a-fA-F0-9]{4,5})\]?$`)
	fullIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_]{8,}$`)
	decimalPattern = regexp.MustCompile(`^[0-9]+$`)
)

// ClassifyID decides whether s names a PR number, a short id, a full GitHub
// node id, or is unrecognized, per spec.md §4.1's grammar.
func ClassifyID(s string) Classification {
	s = strings.TrimSpace(s)

	if decimalPattern.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err == nil {
			return Classification{Kind: KindPRNumber, PRNumber: n}
		}
	}

	if m := shortIDPattern.FindStringSubmatch(s); m != nil {
		return Classification{Kind: KindShortID, ShortID: strings.ToLower(m[1])}
	}

	// full_id: long alphanumeric-with-underscore, but must not collide with
	// the short_id grammar above (already excluded since that's anchored).
	if fullIDPattern.MatchString(s) && !decimalPattern.MatchString(s) {
		return Classification{Kind: KindFullID, FullID: s}
	}

	return Classification{Kind: KindUnknown}
}

// normalizeShortID strips "@"/"[...]" and lowercases, matching the
// normalization ClassifyID performs, for direct use by Cache.Resolve.
func normalizeShortID(input string) (string, bool) {
	c := ClassifyID(input)
	if c.Kind != KindShortID {
		return "", false
	}
	return c.ShortID, true
}

// Registered is one entry in the short-ID cache.
type Registered struct {
	FullID string
	Repo   string
	PR     int
}

// Cache is the in-process bi-map between short ids and (full id, repo, pr).
// It is rebuilt from query results, never persisted (spec.md §3).
type Cache struct {
	byShort map[string]Registered
	byFull  map[string]string // "repo\x00fullID" -> short id, for reverse lookup
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		byShort: make(map[string]Registered),
		byFull:  make(map[string]string),
	}
}

// Register adds one (fullID, repo, pr) mapping, first-registered-wins on
// collision. It returns the short id used (which may differ from a fresh
// hash only in that a collision was detected and the original stays put).
func (c *Cache) Register(fullID, repo string, pr int) string {
	short := GenerateShortID(fullID, repo)
	if existing, ok := c.byShort[short]; ok {
		if existing.FullID != fullID || existing.Repo != repo {
			slog.Debug("short id collision; keeping first-registered mapping",
				"short_id", short, "existing_full_id", existing.FullID, "new_full_id", fullID, "repo", repo)
		}
		return short
	}
	c.byShort[short] = Registered{FullID: fullID, Repo: repo, PR: pr}
	c.byFull[repo+"\x00"+fullID] = short
	return short
}

// BuildFrom populates a cache from a slice of entries in insertion order,
// using the given accessors to pull (fullID, repo, pr) out of each element
// — generic over the accessor shape rather than a fixed interface so this
// package keeps no dependency on internal/model.
func BuildFrom[T any](entries []T, id, repo func(T) string, pr func(T) int) *Cache {
	c := NewCache()
	for _, e := range entries {
		c.Register(id(e), repo(e), pr(e))
	}
	return c
}

// ResolveResult is what Cache.Resolve returns on a hit.
type ResolveResult struct {
	FullID string
	Repo   string
	PR     int
}

// Resolve normalizes input (@, brackets, case) and looks it up. ok is false
// on a miss (the caller should rebuild the cache from the store and retry
// once, per spec.md §4.9).
func (c *Cache) Resolve(input string) (ResolveResult, bool) {
	short, ok := normalizeShortID(input)
	if !ok {
		return ResolveResult{}, false
	}
	reg, ok := c.byShort[short]
	if !ok {
		return ResolveResult{}, false
	}
	return ResolveResult{FullID: reg.FullID, Repo: reg.Repo, PR: reg.PR}, true
}

// ShortIDFor returns the short id already registered for (repo, fullID), if
// any.
func (c *Cache) ShortIDFor(repo, fullID string) (string, bool) {
	short, ok := c.byFull[repo+"\x00"+fullID]
	return short, ok
}

// Len returns the number of distinct short ids registered.
func (c *Cache) Len() int { return len(c.byShort) }
