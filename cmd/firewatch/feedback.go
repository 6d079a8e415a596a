package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outfitter-dev/firewatch/internal/feedback"
	"github.com/outfitter-dev/firewatch/internal/query"
)

func newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Act on review feedback: ack, reply, close/resolve threads, approve/reject, edit",
	}

	cmd.AddCommand(
		newFeedbackActionCmd(feedback.ActionAck, "ack <repo> <id ...>", "Acknowledge comments locally and react with 👍"),
		newFeedbackActionCmd(feedback.ActionReply, "reply <repo> <id ...>", "Reply to a review thread or issue comment (requires --body, --resolve also resolves the thread)"),
		newFeedbackActionCmd(feedback.ActionResolve, "resolve <repo> <id ...>", "Resolve review threads"),
		newFeedbackActionCmd(feedback.ActionApprove, "approve <repo> <id ...>", "Approve a pull request"),
		newFeedbackActionCmd(feedback.ActionReject, "reject <repo> <id ...>", "Request changes on a pull request (requires --body)"),
		newFeedbackActionCmd(feedback.ActionEdit, "edit <repo> <id ...>", "Edit title/body/base, milestone, draft status, labels, reviewers, and assignees"),
	)

	return cmd
}

func newFeedbackActionCmd(action feedback.Action, use, short string) *cobra.Command {
	var body string
	var all, confirm, resolve bool
	var since string
	var labels, removeLabels []string
	var reviewers, removeReviewers []string
	var assignees, removeAssignees []string
	var draftSet bool
	var draft bool
	var title, editBody, base string
	var milestoneSet, milestoneClear bool
	var milestoneID string
	var parallelism int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
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

			repo := args[0]
			ids := args[1:]
			if (all || confirm) && len(ids) == 0 {
				return fmt.Errorf("--all/--confirm require at least one PR id to resolve threads on")
			}

			opts := feedback.ActionOpts{
				Body: body, All: all, Confirm: confirm, Resolve: resolve,
				Labels: labels, RemoveLabels: removeLabels,
				AddReviewers: reviewers, RemoveReviewers: removeReviewers,
				AddAssignees: assignees, RemoveAssignees: removeAssignees,
				Parallelism: parallelism,
			}
			if since != "" {
				t, err := query.ParseSince(since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				opts.Since = t
			}
			if draftSet {
				opts.Draft = &draft
			}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("edit-body") {
				opts.EditBody = &editBody
			}
			if cmd.Flags().Changed("base") {
				opts.Base = &base
			}
			if milestoneClear {
				opts.MilestoneSet = true
				opts.MilestoneID = nil
			} else if milestoneSet {
				opts.MilestoneSet = true
				opts.MilestoneID = &milestoneID
			}

			bridge := a.feedbackBridge(gh)
			outcomes, err := bridge.Dispatch(ctx, repo, ids, action, opts)
			if err != nil {
				return err
			}

			failed := 0
			for _, o := range outcomes {
				if !o.OK {
					failed++
				}
			}

			format := resolveFormat(cmd, a.cfg.Output.DefaultFormat)
			if err := writeRows(cmd.OutOrStdout(), format, outcomes, func(o feedback.Outcome) string {
				if o.OK {
					return fmt.Sprintf("%s  ok", o.ShortID)
				}
				return fmt.Sprintf("%s  FAILED: %s", o.ShortID, o.Error)
			}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d actions failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "comment/review body text")
	cmd.Flags().BoolVar(&all, "all", false, "apply to every unresolved thread on the given PR(s)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "required alongside a bare PR id to resolve all of its threads")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "resolve the thread after replying (reply action only)")
	cmd.Flags().StringVar(&since, "since", "", "only act on entries created since this relative time (e.g. 2d)")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "labels to add (edit action only)")
	cmd.Flags().StringSliceVar(&removeLabels, "remove-labels", nil, "labels to remove (edit action only)")
	cmd.Flags().StringSliceVar(&reviewers, "reviewers", nil, "reviewer node ids to request (edit action only)")
	cmd.Flags().StringSliceVar(&removeReviewers, "remove-reviewers", nil, "reviewer node ids to un-request (edit action only)")
	cmd.Flags().StringSliceVar(&assignees, "assignees", nil, "assignee node ids to add (edit action only)")
	cmd.Flags().StringSliceVar(&removeAssignees, "remove-assignees", nil, "assignee node ids to remove (edit action only)")
	cmd.Flags().BoolVar(&draft, "draft", false, "draft status to set (edit action only)")
	cmd.Flags().StringVar(&title, "title", "", "new PR title (edit action only)")
	cmd.Flags().StringVar(&editBody, "edit-body", "", "new PR description (edit action only)")
	cmd.Flags().StringVar(&base, "base", "", "new base branch (edit action only)")
	cmd.Flags().BoolVar(&milestoneSet, "milestone", false, "set the PR milestone to --milestone-id (edit action only)")
	cmd.Flags().StringVar(&milestoneID, "milestone-id", "", "milestone node id, used with --milestone (edit action only)")
	cmd.Flags().BoolVar(&milestoneClear, "clear-milestone", false, "clear the PR's milestone (edit action only)")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "max concurrent mutations (defaults to 4)")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		draftSet = cmd.Flags().Changed("draft")
		return nil
	}

	return cmd
}
