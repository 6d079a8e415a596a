package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/firewatch/internal/config"
	"github.com/outfitter-dev/firewatch/internal/feedback"
	"github.com/outfitter-dev/firewatch/internal/ghgateway"
	"github.com/outfitter-dev/firewatch/internal/identity"
	"github.com/outfitter-dev/firewatch/internal/query"
	"github.com/outfitter-dev/firewatch/internal/stackprovider"
	"github.com/outfitter-dev/firewatch/internal/store"
	"github.com/outfitter-dev/firewatch/internal/sync"
)

// app bundles the layers a subcommand needs, wired once per invocation from
// layered config plus the on-disk cache — the CLI equivalent of
// cmd/reviewhub's numbered-step run(), minus the long-running server parts
// that only `serve` needs.
type app struct {
	cfg   config.Config
	paths identity.Paths
	store *store.SQLStore
	query *query.Engine
}

// bootstrap loads config and opens the SQLite cache (creating its
// directory on first run). Every read-only subcommand (entries, worklist,
// summary, lookout) only needs this; sync/feedback/serve additionally call
// githubClient to obtain a ghgateway.Client.
func bootstrap(cmd *cobra.Command) (*app, error) {
	paths := identity.NewPaths()

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = paths.UserConfigPath()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := config.Load(configPath, cwd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(paths.CacheDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	st, err := store.Open(paths.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	return &app{cfg: cfg, paths: paths, store: st, query: query.New(st)}, nil
}

// Close releases the cache's database connections.
func (a *app) Close() error {
	return a.store.Close()
}

// githubClient resolves a GitHub token (configured value, `gh auth token`,
// or FIREWATCH_GITHUB_TOKEN) and wraps it in a ghgateway.Client.
func (a *app) githubClient(ctx context.Context) (*ghgateway.Client, error) {
	token, err := ghgateway.DetectAuth(ctx, a.cfg.GitHubToken)
	if err != nil {
		return nil, err
	}
	return ghgateway.NewClient(token), nil
}

// syncEngine wires a sync.Engine over gh for the given repo's working
// directory, enriching entries with stack position when Graphite state is
// available and attaching file-level provenance when repoDir is non-empty.
func (a *app) syncEngine(gh *ghgateway.Client, repoDir string) *sync.Engine {
	provider := stackprovider.NewGraphiteProvider()
	var enrichers []sync.Enricher
	enrichers = append(enrichers, sync.NewStackEnricher(provider))
	if repoDir != "" {
		enrichers = append(enrichers, sync.NewFileProvenanceEnricher(repoDir, provider))
	}
	return sync.New(gh, a.store, enrichers...)
}

// feedbackBridge wires a feedback.Bridge over gh for the configured
// viewer identity.
func (a *app) feedbackBridge(gh *ghgateway.Client) *feedback.Bridge {
	return feedback.New(a.store, gh, a.cfg.User.GitHubUsername)
}
