package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/smsledger/internal/model"
	"github.com/cleared-dev/smsledger/internal/report"
)

// filterFlags are the history selection flags shared by list and export.
type filterFlags struct {
	period    string
	recipient string
	category  string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.period, "period", "all", "all, daily, monthly or yearly")
	cmd.Flags().StringVar(&f.recipient, "recipient", "", "only recipients containing this text")
	cmd.Flags().StringVar(&f.category, "category", "", "only this category")
}

func (f *filterFlags) filter() (report.Filter, error) {
	p, err := report.ParsePeriod(f.period)
	if err != nil {
		return report.Filter{}, err
	}
	return report.Filter{Period: p, Recipient: f.recipient, Category: f.category}, nil
}

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show, delete and export applied transactions",
	}

	cmd.AddCommand(
		newHistoryListCommand(opts),
		newHistoryDeleteCommand(opts),
		newHistoryExportCommand(opts),
	)

	return cmd
}

func newHistoryListCommand(opts *globalOptions) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applied transactions per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				groups, err := a.report().Groups(cmd.Context(), f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(groups) == 0 {
					fmt.Fprintln(out, "No accounts.")
					return nil
				}
				for i, g := range groups {
					if i > 0 {
						fmt.Fprintln(out)
					}
					if err := printGroup(out, g); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	ff.register(cmd)

	return cmd
}

func printGroup(w io.Writer, g report.Group) error {
	fmt.Fprintf(w, "%s (balance %s)\n", g.Title(), g.Account.InitialBalance)
	if len(g.Records) == 0 {
		fmt.Fprintln(w, "  no transactions")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tDATE\tRECIPIENT\tCATEGORY\tAMOUNT")
	for _, h := range g.Records {
		date := h.Timestamp
		if t, err := h.Time(); err == nil {
			date = t.Format("2006-01-02 15:04")
		}
		amount := "-" + h.Amount
		if h.Direction == model.Credit {
			amount = "+" + h.Amount
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s %s\t%s\n", h.ID, date, h.Recipient, h.CategoryIcon, h.Category, amount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "  in %s (%d), out %s (%d), net %s\n",
		model.FormatAmount(g.Totals.Credit), g.Totals.CreditCount,
		model.FormatAmount(g.Totals.Debit), g.Totals.DebitCount,
		model.FormatAmount(g.Totals.Net()))
	return nil
}

func newHistoryDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction and undo its balance change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				rev, err := a.applier().Reverse(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.snapshot("history: delete " + args[0])
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Deleted %s (%s %s)\n", rev.Record.ID, rev.Record.Direction, rev.Record.Amount)
				if rev.BalanceRestored {
					fmt.Fprintf(out, "  account %s balance %s\n", rev.Record.LastFourDigits, model.FormatAmount(rev.Balance))
				} else {
					fmt.Fprintf(out, "  account %s no longer exists, no balance changed\n", rev.Record.LastFourDigits)
				}
				if rev.CandidateRestored {
					fmt.Fprintln(out, "  the transaction is back in review")
				}
				return nil
			})
		},
	}
}

func newHistoryExportCommand(opts *globalOptions) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write applied transactions as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				file, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating %s: %w", args[0], err)
				}
				n, err := a.report().Export(cmd.Context(), file, f)
				if err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("closing %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", n, args[0])
				return nil
			})
		},
	}

	ff.register(cmd)

	return cmd
}
