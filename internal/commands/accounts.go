package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/smsledger/internal/accounts"
	"github.com/cleared-dev/smsledger/internal/model"
)

func newAccountsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage tracked accounts",
	}

	cmd.AddCommand(
		newAccountsListCommand(opts),
		newAccountsAddCommand(opts),
		newAccountsRemoveCommand(opts),
		newAccountsSetBalanceCommand(opts),
		newAccountsLinkCommand(opts),
		newAccountsUnlinkCommand(opts),
		newAccountsSetManualCommand(opts),
		newAccountsImportCommand(opts),
		newAccountsExportCommand(opts),
	)

	return cmd
}

func newAccountsListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				accts, err := a.accounts().List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(accts) == 0 {
					fmt.Fprintln(out, "No accounts. Add one with: smsledger accounts add")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DIGITS\tNAME\tTYPE\tBALANCE\tLINKED TO\tMANUAL")
				for _, acct := range accts {
					manual := ""
					if acct.ManualTransaction {
						manual = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						acct.LastFourDigits, acct.Name, acct.Type, acct.InitialBalance, acct.LinkedTo, manual)
				}
				return tw.Flush()
			})
		},
	}
}

func newAccountsAddCommand(opts *globalOptions) *cobra.Command {
	var in accounts.NewAccount
	var typ string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseAccountType(typ)
			if err != nil {
				return err
			}
			in.Type = t
			return withApp(cmd, opts, func(a *app) error {
				acct, err := a.accounts().Add(cmd.Context(), in)
				if err != nil {
					return err
				}
				a.recordAccount("add", acct.LastFourDigits)
				a.snapshot("accounts: add " + acct.LastFourDigits)
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s, balance %s\n", acct.Label(), acct.InitialBalance)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "account name (required)")
	cmd.Flags().StringVar(&in.Number, "number", "", "account or card number, at least the last four digits (required)")
	cmd.Flags().StringVar(&in.Balance, "balance", "0", "current balance")
	cmd.Flags().StringVar(&typ, "type", "bank", "account type: bank, credit-card or other")
	cmd.Flags().StringVar(&in.BankAddress, "bank-address", "", "SMS sender address of the bank")
	cmd.Flags().StringVar(&in.LinkedTo, "linked-to", "", "last four digits of the account whose balance this one mirrors")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

// parseAccountType accepts the short CLI names as well as the stored names.
func parseAccountType(s string) (model.AccountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bank", "bank account":
		return model.AccountTypeBank, nil
	case "credit-card", "credit card", "card":
		return model.AccountTypeCreditCard, nil
	case "other":
		return model.AccountTypeOther, nil
	}
	return "", fmt.Errorf("unknown account type %q (must be bank, credit-card or other)", s)
}

func newAccountsRemoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove DIGITS",
		Short: "Remove an account; accounts linked to it become primary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return accountMutation(cmd, opts, "remove", args[0], func(a *app) error {
				return a.accounts().Remove(cmd.Context(), args[0])
			}, fmt.Sprintf("Removed account %s", args[0]))
		},
	}
}

func newAccountsSetBalanceCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-balance DIGITS BALANCE",
		Short: "Overwrite the balance of an account and everything linked to it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return accountMutation(cmd, opts, "set-balance", args[0], func(a *app) error {
				return a.accounts().SetBalance(cmd.Context(), args[0], args[1])
			}, fmt.Sprintf("Updated balance of %s", args[0]))
		},
	}
}

func newAccountsLinkCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link DIGITS TARGET",
		Short: "Make an account mirror another account's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return accountMutation(cmd, opts, "link", args[0], func(a *app) error {
				return a.accounts().Link(cmd.Context(), args[0], args[1])
			}, fmt.Sprintf("Linked account %s", args[0]))
		},
	}
}

func newAccountsUnlinkCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink DIGITS",
		Short: "Make a linked account primary again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return accountMutation(cmd, opts, "unlink", args[0], func(a *app) error {
				return a.accounts().Unlink(cmd.Context(), args[0])
			}, fmt.Sprintf("Unlinked account %s", args[0]))
		},
	}
}

func newAccountsSetManualCommand(opts *globalOptions) *cobra.Command {
	var clearTarget bool

	cmd := &cobra.Command{
		Use:   "set-manual [DIGITS]",
		Short: "Choose the account manual entries target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var digits string
			switch {
			case clearTarget && len(args) > 0:
				return fmt.Errorf("--clear takes no account")
			case !clearTarget && len(args) == 0:
				return fmt.Errorf("an account is required unless --clear is given")
			case !clearTarget:
				digits = args[0]
			}
			msg := "Manual entries now target " + digits
			if clearTarget {
				msg = "Manual entry target cleared"
			}
			return accountMutation(cmd, opts, "set-manual", digits, func(a *app) error {
				return a.accounts().SetManual(cmd.Context(), digits)
			}, msg)
		},
	}

	cmd.Flags().BoolVar(&clearTarget, "clear", false, "clear the manual entry target")

	return cmd
}

// accountMutation runs fn, records and snapshots it, then prints done.
func accountMutation(cmd *cobra.Command, opts *globalOptions, op, digits string, fn func(*app) error, done string) error {
	return withApp(cmd, opts, func(a *app) error {
		if err := fn(a); err != nil {
			return err
		}
		a.recordAccount(op, digits)
		a.snapshot(strings.TrimSpace("accounts: " + op + " " + digits))
		fmt.Fprintln(cmd.OutOrStdout(), done)
		return nil
	})
}

func newAccountsImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Merge accounts from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			return withApp(cmd, opts, func(a *app) error {
				added, replaced, err := a.accounts().Import(cmd.Context(), f)
				if err != nil {
					return err
				}
				a.recordAccount("import", "")
				a.snapshot("accounts: import")
				fmt.Fprintf(cmd.OutOrStdout(), "Imported accounts: %d added, %d replaced\n", added, replaced)
				return nil
			})
		},
	}
}

func newAccountsExportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write accounts as CSV to FILE or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if len(args) == 0 {
					return a.accounts().Export(cmd.Context(), cmd.OutOrStdout())
				}
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating %s: %w", args[0], err)
				}
				if err := a.accounts().Export(cmd.Context(), f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
}
