package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/sync"
)

func newSyncCmd() *cobra.Command {
	var full bool
	var repoDir string
	var scopeFlag string

	cmd := &cobra.Command{
		Use:   "sync [repo ...]",
		Short: "Pull PR activity for watched (or given) repos into the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			gh, err := a.githubClient(ctx)
			if err != nil {
				return err
			}

			repos := args
			if len(repos) == 0 {
				repos = a.cfg.Repos
			}
			if len(repos) == 0 {
				return fmt.Errorf("no repos given and none configured; pass a repo or set `repos` in config")
			}

			var scopes []model.Scope
			switch scopeFlag {
			case "open":
				scopes = []model.Scope{model.ScopeOpen}
			case "closed":
				scopes = []model.Scope{model.ScopeClosed}
			case "all":
				scopes = []model.Scope{model.ScopeOpen, model.ScopeClosed}
			default:
				return fmt.Errorf("invalid --scope %q, expected open|closed|all", scopeFlag)
			}

			engine := a.syncEngine(gh, repoDir)
			format := resolveFormat(cmd, a.cfg.Output.DefaultFormat)

			var results []sync.Result
			for _, repo := range repos {
				for _, scope := range scopes {
					result, err := engine.Sync(ctx, repo, scope, sync.Opts{Full: full})
					if err != nil {
						return fmt.Errorf("sync %s (%s): %w", repo, scope, err)
					}
					results = append(results, result)
				}
			}

			return writeRows(cmd.OutOrStdout(), format, results, func(r sync.Result) string {
				return fmt.Sprintf("run %s: %d PRs, %d entries added", r.RunID, r.PRsProcessed, r.EntriesAdded)
			})
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "ignore the stored cursor and page from scratch")
	cmd.Flags().StringVar(&repoDir, "repo-dir", "", "local clone to diff for file-provenance enrichment (optional)")
	cmd.Flags().StringVar(&scopeFlag, "scope", "open", "which PR scope to sync: open|closed|all")

	return cmd
}
