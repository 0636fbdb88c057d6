package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/smsledger/internal/model"
)

func newForecastCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Project this month's spending per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				o, err := a.report().Forecast(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(o.Categories) == 0 {
					fmt.Fprintln(out, "No spending recorded this month.")
					return nil
				}
				fmt.Fprintf(out, "Forecast for %s, %d days remaining\n", o.Now.Format("January 2006"), o.RemainingDays)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(tw, "CATEGORY\tSPENT\tCOUNT\tDAILY AVG\tPROJECTED\tMORE EXPECTED\t")
				for _, f := range o.Categories {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t\n",
						f.Category,
						model.FormatAmount(f.TotalSpent),
						f.Count,
						model.FormatAmount(f.DailyAverage),
						model.FormatAmount(f.Projection),
						f.Frequency.StringFixed(1))
				}
				return tw.Flush()
			})
		},
	}
}
