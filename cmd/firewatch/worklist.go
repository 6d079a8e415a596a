package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/firewatch/internal/aggregate"
	"github.com/outfitter-dev/firewatch/internal/query"
	"github.com/outfitter-dev/firewatch/internal/store"
)

func newWorklistCmd() *cobra.Command {
	var repo string

	cmd := &cobra.Command{
		Use:   "worklist",
		Short: "Group cached activity by PR, ranked by what needs attention",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			entries, _, err := a.query.Query(ctx, query.Options{Filter: store.Filter{Repo: repo}})
			if err != nil {
				return err
			}

			acks, err := a.store.GetAckedIDs(ctx, repo)
			if err != nil {
				return fmt.Errorf("load acks: %w", err)
			}

			rows := aggregate.BuildWorklist(entries, aggregate.AckSet(acks))

			format := resolveFormat(cmd, a.cfg.Output.DefaultFormat)
			return writeRows(cmd.OutOrStdout(), format, rows, func(r aggregate.WorklistRow) string {
				return fmt.Sprintf("%s#%-5d %-8s changes:%-2d unaddressed:%-2d %-20s %s",
					r.Repo, r.PR, r.State, r.ChangesRequested, r.UnaddressedFeedback, r.Author, strings.TrimSpace(r.Title))
			})
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "filter to a single repo (owner/name)")
	return cmd
}
