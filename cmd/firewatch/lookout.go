package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/firewatch/internal/aggregate"
)

func newLookoutCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "lookout",
		Short: "Show everything that happened since the last lookout check, then advance the checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			lo, err := aggregate.BuildLookout(cmd.Context(), a.store, reset)
			if err != nil {
				return err
			}

			format := resolveFormat(cmd, a.cfg.Output.DefaultFormat)
			return writeOne(cmd.OutOrStdout(), format, lo, func() string {
				return fmt.Sprintf("%d entries since %s", len(lo.Entries), lo.Since.Format("2006-01-02 15:04"))
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "ignore the stored checkpoint and use the default 7-day window")
	return cmd
}
