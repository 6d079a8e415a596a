package identity

import (
	"os"
	"path/filepath"
)

// Paths resolves firewatch's on-disk layout following the XDG base
// directory convention (spec.md §6), with no external dependencies.
type Paths struct {
	home string
	env  func(string) string
}

// NewPaths builds a Paths resolver reading from the real process
// environment.
func NewPaths() Paths {
	return Paths{home: os.Getenv("HOME"), env: os.Getenv}
}

func (p Paths) lookup(key, fallback string) string {
	if v := p.env(key); v != "" {
		return v
	}
	return fallback
}

// CacheDir returns the base cache directory (XDG_CACHE_HOME or ~/.cache),
// joined with "firewatch".
func (p Paths) CacheDir() string {
	base := p.lookup("XDG_CACHE_HOME", filepath.Join(p.home, ".cache"))
	return filepath.Join(base, "firewatch")
}

// ConfigDir returns the base config directory (XDG_CONFIG_HOME or
// ~/.config), joined with "firewatch".
func (p Paths) ConfigDir() string {
	base := p.lookup("XDG_CONFIG_HOME", filepath.Join(p.home, ".config"))
	return filepath.Join(base, "firewatch")
}

// DataDir returns the base data directory (XDG_DATA_HOME or
// ~/.local/share), joined with "firewatch".
func (p Paths) DataDir() string {
	base := p.lookup("XDG_DATA_HOME", filepath.Join(p.home, ".local", "share"))
	return filepath.Join(base, "firewatch")
}

// DBPath returns the path to the primary SQLite database file.
func (p Paths) DBPath() string {
	return filepath.Join(p.CacheDir(), "firewatch.db")
}

// LegacyJSONLDir returns the path to the legacy per-repo JSONL cache
// directory (read-only fallback, spec.md §6).
func (p Paths) LegacyJSONLDir() string {
	return filepath.Join(p.CacheDir(), "repos")
}

// LegacyMetaPath returns the path to the legacy cursor file.
func (p Paths) LegacyMetaPath() string {
	return filepath.Join(p.CacheDir(), "meta.jsonl")
}

// UserConfigPath returns the path to the user-level config file.
func (p Paths) UserConfigPath() string {
	return filepath.Join(p.ConfigDir(), "config.toml")
}
