package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/review"
	"github.com/cleared-dev/smsledger/internal/tui"
)

func newReviewCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review pending candidates interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				snap, err := a.repo.Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("loading suggestions: %w", err)
				}
				categories := append([]string(nil), snap.Suggestions.Categories...)
				for _, c := range a.cfg.Categories {
					categories = appendMissing(categories, c)
				}

				session := review.New(a.applier(), a.log)
				applied, skipped, err := tui.Run(cmd.Context(), session, tui.Options{
					Recipients: snap.Suggestions.Recipients,
					Categories: categories,
				}, cmd.InOrStdin(), cmd.OutOrStdout())
				if errors.Is(err, review.ErrNothingToReview) {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to review.")
					return nil
				}
				if applied+skipped > 0 {
					a.snapshot(fmt.Sprintf("review: %d applied, %d skipped", applied, skipped))
				}
				return err
			})
		},
	}

	cmd.AddCommand(newReviewListCommand(opts))

	return cmd
}

func newReviewListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				pending, err := a.applier().Pending(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(pending) == 0 {
					fmt.Fprintln(out, "Nothing to review.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tACCOUNT\tTYPE\tAMOUNT\tRECIPIENT\tCATEGORY")
				for _, c := range pending {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						c.ID, c.LastFourDigits, c.Direction,
						candidates.Get(c, candidates.FieldAmount),
						dash(c.Recipient), dash(c.Category))
				}
				return tw.Flush()
			})
		},
	}
}

func appendMissing(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
