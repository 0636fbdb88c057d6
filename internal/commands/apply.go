package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/ledger"
	"github.com/cleared-dev/smsledger/internal/model"
)

// edits are the optional field overrides shared by apply and manual.
type edits struct {
	recipient string
	category  string
	icon      string
	amount    string
	direction string
}

func (e *edits) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.recipient, "recipient", "", "recipient")
	cmd.Flags().StringVar(&e.category, "category", "", "category")
	cmd.Flags().StringVar(&e.icon, "icon", "", "category icon")
	cmd.Flags().StringVar(&e.amount, "amount", "", "amount")
	cmd.Flags().StringVar(&e.direction, "type", "", "credit or debit")
}

// apply writes every flag the user set onto candidate id.
func (e *edits) apply(cmd *cobra.Command, l *ledger.Applier, id string) error {
	set := []struct {
		flag  string
		field candidates.Field
		value string
	}{
		{"recipient", candidates.FieldRecipient, e.recipient},
		{"category", candidates.FieldCategory, e.category},
		{"amount", candidates.FieldAmount, e.amount},
		{"type", candidates.FieldDirection, e.direction},
	}
	for _, s := range set {
		if !cmd.Flags().Changed(s.flag) {
			continue
		}
		if _, err := l.Edit(cmd.Context(), id, s.field, s.value); err != nil {
			return err
		}
	}
	// Icon goes last: editing the category may have suggested one.
	if cmd.Flags().Changed("icon") {
		if _, err := l.Edit(cmd.Context(), id, candidates.FieldCategoryIcon, e.icon); err != nil {
			return err
		}
	}
	return nil
}

func newApplyCommand(opts *globalOptions) *cobra.Command {
	var e edits
	var account string

	cmd := &cobra.Command{
		Use:   "apply ID",
		Short: "Apply a candidate to its account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withApp(cmd, opts, func(a *app) error {
				l := a.applier()
				if account != "" {
					if _, err := l.Retarget(cmd.Context(), id, account); err != nil {
						return err
					}
				}
				if err := e.apply(cmd, l, id); err != nil {
					return err
				}
				return postCandidate(cmd, a, l, id)
			})
		},
	}

	e.register(cmd)
	cmd.Flags().StringVar(&account, "account", "", "post to this account instead (last four digits)")

	return cmd
}

func postCandidate(cmd *cobra.Command, a *app, l *ledger.Applier, id string) error {
	res, err := l.Apply(cmd.Context(), id)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w (set it with --%s)", err, flagFor(verr.Field))
		}
		return err
	}
	out := cmd.OutOrStdout()
	if res.Outcome == ledger.OutcomeUnresolved {
		fmt.Fprintf(out, "Account of %s not found; nothing applied. Skip it or pass --account.\n", id)
		return nil
	}
	a.snapshot(fmt.Sprintf("apply: %s %s %s", id, res.Record.Direction, res.Record.Amount))
	fmt.Fprintf(out, "Applied %s: %s %s, %s balance %s\n",
		id, res.Record.Direction, res.Record.Amount, res.Primary.Label(), model.FormatAmount(res.Balance))
	return nil
}

func flagFor(f candidates.Field) string {
	switch f {
	case candidates.FieldCategoryIcon:
		return "icon"
	case candidates.FieldDirection:
		return "type"
	}
	return string(f)
}

func newSkipCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "skip ID",
		Short: "Dismiss a candidate without touching balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if err := a.applier().Skip(cmd.Context(), args[0]); err != nil {
					return err
				}
				a.snapshot("skip: " + args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s\n", args[0])
				return nil
			})
		},
	}
}

func newManualCommand(opts *globalOptions) *cobra.Command {
	var e edits
	var account string

	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Record a transaction that has no SMS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				res, err := a.applier().PostManual(cmd.Context(), ledger.ManualEntry{
					Account:      account,
					Recipient:    e.recipient,
					Category:     e.category,
					CategoryIcon: e.icon,
					Amount:       e.amount,
					Direction:    e.direction,
				})
				if err != nil {
					var verr *ledger.ValidationError
					if errors.As(err, &verr) {
						return fmt.Errorf("%w (set it with --%s)", err, flagFor(verr.Field))
					}
					if errors.Is(err, ledger.ErrNoManualAccount) {
						return fmt.Errorf("%w: pass --account or run accounts set-manual", err)
					}
					return err
				}
				a.snapshot(fmt.Sprintf("manual: %s %s %s", res.Record.ID, res.Record.Direction, res.Record.Amount))
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %s: %s %s, %s balance %s\n",
					res.Record.ID, res.Record.Direction, res.Record.Amount, res.Primary.Label(), model.FormatAmount(res.Balance))
				return nil
			})
		},
	}

	e.register(cmd)
	cmd.Flags().StringVar(&account, "account", "", "account to post to (default: the manual entry account)")
	_ = cmd.MarkFlagRequired("recipient")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
