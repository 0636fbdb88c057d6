package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/smsledger/internal/importer"
	"github.com/cleared-dev/smsledger/internal/ingest"
)

func newFetchCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "fetch [FILE]",
		Short: "Extract transaction candidates from an SMS export",
		Long: `Extract transaction candidates from an SMS export.

Without FILE every export in <data-dir>/import/ is read and moved to
import/processed/ once merged. Messages already seen are ignored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := importer.DefaultRegistry()
			return withApp(cmd, opts, func(a *app) error {
				f := a.fetcher(cmd)
				out := cmd.OutOrStdout()

				if len(args) == 0 {
					sums, err := f.FetchInbox(cmd.Context(), a.dataDir, reg)
					if err != nil {
						return err
					}
					if len(sums) == 0 {
						fmt.Fprintln(out, "No exports found in import/")
						return nil
					}
					added := 0
					for _, s := range sums {
						printSummary(out, s)
						added += s.Added
					}
					a.snapshot(fmt.Sprintf("fetch: %d new candidates", added))
					return nil
				}

				p, err := parserFor(reg, format, args[0])
				if err != nil {
					return err
				}
				sum, err := f.Fetch(cmd.Context(), importer.FileSource{Path: args[0], Parser: p}, filepath.Base(args[0]))
				if err != nil {
					return err
				}
				printSummary(out, sum)
				a.snapshot(fmt.Sprintf("fetch: %d new candidates", sum.Added))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "export format: json or csv (default from the file extension)")

	return cmd
}

func parserFor(reg *importer.Registry, format, path string) (importer.Parser, error) {
	if format != "" {
		if p := reg.Get(format); p != nil {
			return p, nil
		}
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if p := reg.ForFile(path); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("cannot tell the format of %s, pass --format", path)
}

func printSummary(w io.Writer, s ingest.Summary) {
	fmt.Fprintf(w, "%s: %d messages, %d transactions, %d new, %d already known\n",
		s.Source, s.Read, s.Kept, s.Added, s.Duplicates)
	if s.UnknownSender > 0 || s.UnknownAccount > 0 {
		fmt.Fprintf(w, "  ignored: %d from unknown senders, %d for unknown accounts\n", s.UnknownSender, s.UnknownAccount)
	}
}
