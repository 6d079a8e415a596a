package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/firewatch/internal/identity"
	"github.com/outfitter-dev/firewatch/internal/model"
	"github.com/outfitter-dev/firewatch/internal/query"
	"github.com/outfitter-dev/firewatch/internal/store"
)

func newEntriesCmd() *cobra.Command {
	var repo, author, label, since string
	var pr int
	var excludeBots, orphaned bool
	var includeAuthors []string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List cached PR activity entries, filtered and paginated",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			filter := store.Filter{
				Repo:        repo,
				Author:      author,
				Label:       label,
				ExcludeBots: excludeBots || a.cfg.Filters.ExcludeBots,
				BotPatterns: a.cfg.Filters.BotPatterns,
				Orphaned:    orphaned,
			}
			if pr != 0 {
				filter.PR = []int{pr}
			}
			if since != "" {
				t, err := query.ParseSince(since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				filter.Since = t
			}

			opts := query.Options{
				Filter:         filter,
				IncludeAuthors: includeAuthors,
				Limit:          limit,
				Offset:         offset,
			}
			if len(includeAuthors) == 0 && len(a.cfg.Filters.ExcludeAuthors) > 0 {
				opts.Filter.ExcludeAuthors = a.cfg.Filters.ExcludeAuthors
			}

			entries, total, err := a.query.Query(cmd.Context(), opts)
			if err != nil {
				return err
			}

			cache := identity.BuildFrom(entries,
				func(e model.Entry) string { return e.ID },
				func(e model.Entry) string { return e.Repo },
				func(e model.Entry) int { return e.PR },
			)
			display := make([]model.Display, 0, len(entries))
			for _, e := range entries {
				short, _ := cache.ShortIDFor(e.Repo, e.ID)
				display = append(display, model.Display{Entry: e, ShortID: short})
			}

			format := resolveFormat(cmd, a.cfg.Output.DefaultFormat)
			if err := writeRows(cmd.OutOrStdout(), format, display, func(d model.Display) string {
				return fmt.Sprintf("%s  %s#%d  %-12s %-20s %s", d.ShortID, d.Repo, d.PR, d.Type, d.Author, strings.ReplaceAll(firstLine(d.Body), "\n", " "))
			}); err != nil {
				return err
			}
			if format == "human" {
				fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d total)\n", len(display), total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "filter to a single repo (owner/name, substring match)")
	cmd.Flags().StringVar(&author, "author", "", "filter to entries authored by this login")
	cmd.Flags().StringVar(&label, "label", "", "filter to PRs carrying this label")
	cmd.Flags().StringVar(&since, "since", "", "only entries created since this relative time (e.g. 2d, 3h)")
	cmd.Flags().IntVar(&pr, "pr", 0, "filter to a single PR number")
	cmd.Flags().BoolVar(&excludeBots, "exclude-bots", false, "drop entries whose author matches a configured bot pattern")
	cmd.Flags().BoolVar(&orphaned, "orphaned", false, "only unresolved review comments on closed/merged PRs")
	cmd.Flags().StringSliceVar(&includeAuthors, "include-authors", nil, "keep only entries from these logins")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")

	return cmd
}

func firstLine(body string) string {
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	if len(body) > 80 {
		body = body[:80] + "..."
	}
	return body
}
