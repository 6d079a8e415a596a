package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/firewatch/internal/aggregate"
	"github.com/outfitter-dev/firewatch/internal/query"
	"github.com/outfitter-dev/firewatch/internal/store"
)

func newSummaryCmd() *cobra.Command {
	var repo, viewer, perspective string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Bucket PR activity into unaddressed / changes-requested / awaiting-review / stale",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			who := viewer
			if who == "" {
				who = a.cfg.User.GitHubUsername
			}
			if who == "" {
				return fmt.Errorf("no viewer login given; pass --viewer or set user.github_username in config")
			}

			var p aggregate.Perspective
			switch perspective {
			case "author":
				p = aggregate.PerspectiveAuthor
			case "reviewer":
				p = aggregate.PerspectiveReviewer
			default:
				return fmt.Errorf("invalid --perspective %q, expected author|reviewer", perspective)
			}

			entries, _, err := a.query.Query(cmd.Context(), query.Options{Filter: store.Filter{Repo: repo}})
			if err != nil {
				return err
			}

			summary := aggregate.BuildActionableSummary(entries, who, p)

			format := resolveFormat(cmd, a.cfg.Output.DefaultFormat)
			return writeOne(cmd.OutOrStdout(), format, summary, func() string {
				return fmt.Sprintf(
					"unaddressed:%d changes_requested:%d awaiting_review:%d stale:%d",
					len(summary.Unaddressed), len(summary.ChangesRequested), len(summary.AwaitingReview), len(summary.Stale),
				)
			})
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "filter to a single repo (owner/name)")
	cmd.Flags().StringVar(&viewer, "viewer", "", "login to build the summary for (defaults to user.github_username)")
	cmd.Flags().StringVar(&perspective, "perspective", "author", "author|reviewer")

	return cmd
}
