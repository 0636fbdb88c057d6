package ledger

import (
	"context"
	"fmt"

	"github.com/cleared-dev/smsledger/internal/accounts"
	"github.com/cleared-dev/smsledger/internal/activitylog"
	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/extract"
	"github.com/cleared-dev/smsledger/internal/store"
)

// ManualEntry is a complete manual transaction. An empty Account means the
// account flagged for manual entries; an empty Direction means debit.
type ManualEntry struct {
	Account      string
	Recipient    string
	Category     string
	CategoryIcon string
	Amount       string
	Direction    string
}

// PostManual creates a manual entry from e and applies it in the same
// update. Any failure, including validation, leaves the store untouched.
func (a *Applier) PostManual(ctx context.Context, e ManualEntry) (Result, error) {
	var res Result
	err := a.repo.Update(ctx, func(s *store.Snapshot) error {
		if len(s.Accounts) == 0 {
			return ErrNoAccounts
		}
		g := accounts.NewGraph(s.Accounts)
		target := e.Account
		if target == "" {
			m, ok := g.ManualTarget()
			if !ok {
				return ErrNoManualAccount
			}
			target = m.LastFourDigits
		} else if _, ok := g.Get(target); !ok {
			return fmt.Errorf("account %s: %w", target, accounts.ErrAccountNotFound)
		}

		c := extract.NewManual(target, a.now())
		fields := []struct {
			field candidates.Field
			value string
		}{
			{candidates.FieldRecipient, e.Recipient},
			{candidates.FieldCategory, e.Category},
			{candidates.FieldCategoryIcon, e.CategoryIcon},
			{candidates.FieldAmount, e.Amount},
			{candidates.FieldDirection, e.Direction},
		}
		for _, f := range fields {
			if f.value == "" {
				continue
			}
			if err := candidates.Set(&c, f.field, f.value); err != nil {
				return err
			}
		}
		if c.CategoryIcon == "" {
			c.CategoryIcon = SuggestIcon(s.History, c.Category)
		}

		s.Candidates = append(s.Candidates, c)
		var err error
		res, err = a.post(s, len(s.Candidates)-1)
		if err != nil {
			return err
		}
		if res.Outcome == OutcomeUnresolved {
			return fmt.Errorf("account %s: %w", target, accounts.ErrAccountNotFound)
		}
		return nil
	})
	if err != nil {
		return Result{}, a.fail("manual", "", err)
	}

	a.record(activitylog.Entry{Action: activitylog.ActionManual, CandidateID: res.Record.ID, Account: res.Primary.LastFourDigits})
	a.applied("manual", res.Record.ID, res)
	return res, nil
}
