// Package config loads firewatch's layered configuration: defaults, user
// TOML, project TOML (discovered by walking up from the working directory),
// then environment variable overrides (SPEC_FULL.md §4.10).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the merged, validated configuration every firewatch component
// reads from. Fields map 1:1 onto spec.md §4.10's recognized keys table.
type Config struct {
	Repos       []string
	GitHubToken string

	User struct {
		GitHubUsername string
	}

	Sync struct {
		AutoSync       bool
		StaleThreshold time.Duration
	}

	Filters struct {
		ExcludeBots    bool
		ExcludeAuthors []string
		BotPatterns    []string
	}

	Output struct {
		DefaultFormat string // jsonl | json | human
	}

	Feedback struct {
		CommitImpliesRead bool
	}
}

// Default returns the configuration's baseline values, applied before any
// layer is merged in.
func Default() Config {
	var c Config
	c.Sync.AutoSync = true
	c.Sync.StaleThreshold = 5 * time.Minute
	c.Output.DefaultFormat = "human"
	return c
}

// tomlDoc is the intermediate shape both TOML layers decode into before
// being merged field-by-field onto Config — only fields actually present
// in the file override the accumulator, so a user config with just
// `github_token` doesn't blow away project-level `repos`.
type tomlDoc struct {
	Repos       []string `toml:"repos"`
	GitHubToken string   `toml:"github_token"`

	User struct {
		GitHubUsername string `toml:"github_username"`
	} `toml:"user"`

	Sync struct {
		AutoSync       *bool  `toml:"auto_sync"`
		StaleThreshold string `toml:"stale_threshold"`
	} `toml:"sync"`

	Filters struct {
		ExcludeBots    *bool    `toml:"exclude_bots"`
		ExcludeAuthors []string `toml:"exclude_authors"`
		BotPatterns    []string `toml:"bot_patterns"`
	} `toml:"filters"`

	Output struct {
		DefaultFormat string `toml:"default_format"`
	} `toml:"output"`

	Feedback struct {
		CommitImpliesRead *bool `toml:"commit_implies_read"`
	} `toml:"feedback"`
}

// Load builds the effective Config: defaults, then userConfigPath (if it
// exists), then the nearest project config found walking up from cwd to
// the first directory containing either .firewatch.toml or .git, then
// environment variables. Either path argument may be empty to skip that
// layer.
func Load(userConfigPath, cwd string) (Config, error) {
	cfg := Default()

	if userConfigPath != "" {
		if err := mergeTOMLFile(&cfg, userConfigPath); err != nil {
			return Config{}, fmt.Errorf("load user config: %w", err)
		}
	}

	if cwd != "" {
		projectPath, err := findProjectConfig(cwd)
		if err != nil {
			return Config{}, fmt.Errorf("discover project config: %w", err)
		}
		if projectPath != "" {
			if err := mergeTOMLFile(&cfg, projectPath); err != nil {
				return Config{}, fmt.Errorf("load project config: %w", err)
			}
		}
	}

	if err := mergeEnv(&cfg, os.Environ()); err != nil {
		return Config{}, fmt.Errorf("load environment overrides: %w", err)
	}

	return cfg, nil
}

// findProjectConfig walks up from dir looking for the first directory
// containing .firewatch.toml or .git. It returns the path to
// .firewatch.toml if that's what stopped the walk, or "" if a .git
// directory was found first with no project config alongside it, or if
// neither is found before reaching the filesystem root.
func findProjectConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, ".firewatch.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func mergeTOMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var doc tomlDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return mergeDoc(cfg, doc, path)
}

func mergeDoc(cfg *Config, doc tomlDoc, source string) error {
	if len(doc.Repos) > 0 {
		cfg.Repos = doc.Repos
	}
	if doc.GitHubToken != "" {
		cfg.GitHubToken = doc.GitHubToken
	}
	if doc.User.GitHubUsername != "" {
		cfg.User.GitHubUsername = doc.User.GitHubUsername
	}
	if doc.Sync.AutoSync != nil {
		cfg.Sync.AutoSync = *doc.Sync.AutoSync
	}
	if doc.Sync.StaleThreshold != "" {
		d, err := time.ParseDuration(doc.Sync.StaleThreshold)
		if err != nil {
			return fmt.Errorf("%s: invalid sync.stale_threshold %q: %w", source, doc.Sync.StaleThreshold, err)
		}
		cfg.Sync.StaleThreshold = d
	}
	if doc.Filters.ExcludeBots != nil {
		cfg.Filters.ExcludeBots = *doc.Filters.ExcludeBots
	}
	if len(doc.Filters.ExcludeAuthors) > 0 {
		cfg.Filters.ExcludeAuthors = doc.Filters.ExcludeAuthors
	}
	if len(doc.Filters.BotPatterns) > 0 {
		cfg.Filters.BotPatterns = doc.Filters.BotPatterns
	}
	if doc.Output.DefaultFormat != "" {
		cfg.Output.DefaultFormat = doc.Output.DefaultFormat
	}
	if doc.Feedback.CommitImpliesRead != nil {
		cfg.Feedback.CommitImpliesRead = *doc.Feedback.CommitImpliesRead
	}
	return nil
}

// envPrefix is the prefix every recognized environment override carries.
const envPrefix = "FIREWATCH_"

// mergeEnv applies FIREWATCH_<SECTION>_<KEY> overrides (dotted-to-underscore
// mapping, comma-separated lists, 1|true / 0|false booleans) on top of cfg,
// the final and highest-precedence layer (spec.md §4.10).
func mergeEnv(cfg *Config, environ []string) error {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], envPrefix) {
			continue
		}
		env[parts[0]] = parts[1]
	}

	if v, ok := env["FIREWATCH_GITHUB_TOKEN"]; ok && v != "" {
		cfg.GitHubToken = v
	}
	if v, ok := env["FIREWATCH_REPOS"]; ok {
		cfg.Repos = splitCSV(v)
	}
	if v, ok := env["FIREWATCH_USER_GITHUB_USERNAME"]; ok {
		cfg.User.GitHubUsername = v
	}
	if v, ok := env["FIREWATCH_SYNC_AUTO_SYNC"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("FIREWATCH_SYNC_AUTO_SYNC: %w", err)
		}
		cfg.Sync.AutoSync = b
	}
	if v, ok := env["FIREWATCH_SYNC_STALE_THRESHOLD"]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FIREWATCH_SYNC_STALE_THRESHOLD: invalid duration %q: %w", v, err)
		}
		cfg.Sync.StaleThreshold = d
	}
	if v, ok := env["FIREWATCH_FILTERS_EXCLUDE_BOTS"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("FIREWATCH_FILTERS_EXCLUDE_BOTS: %w", err)
		}
		cfg.Filters.ExcludeBots = b
	}
	if v, ok := env["FIREWATCH_FILTERS_EXCLUDE_AUTHORS"]; ok {
		cfg.Filters.ExcludeAuthors = splitCSV(v)
	}
	if v, ok := env["FIREWATCH_FILTERS_BOT_PATTERNS"]; ok {
		cfg.Filters.BotPatterns = splitCSV(v)
	}
	if v, ok := env["FIREWATCH_OUTPUT_DEFAULT_FORMAT"]; ok && v != "" {
		cfg.Output.DefaultFormat = v
	}
	if v, ok := env["FIREWATCH_FEEDBACK_COMMIT_IMPLIES_READ"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("FIREWATCH_FEEDBACK_COMMIT_IMPLIES_READ: %w", err)
		}
		cfg.Feedback.CommitImpliesRead = b
	}

	return nil
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) (bool, error) {
	switch v {
	case "1", "true", "TRUE", "True":
		return true, nil
	case "0", "false", "FALSE", "False":
		return false, nil
	}
	return false, fmt.Errorf("expected 1|true or 0|false, got %q", v)
}

// ValidatePositiveInt is a small shared validator for additional numeric
// overrides (e.g. CLI flags layered above this package) needing the same
// "must be a positive integer" rule the teacher applied to its
// poll-interval-like settings.
func ValidatePositiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("expected integer, got %q", v)
	}
	if n <= 0 {
		return 0, fmt.Errorf("expected positive integer, got %d", n)
	}
	return n, nil
}
