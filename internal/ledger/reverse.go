package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/smsledger/internal/accounts"
	"github.com/cleared-dev/smsledger/internal/activitylog"
	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/logging"
	"github.com/cleared-dev/smsledger/internal/model"
	"github.com/cleared-dev/smsledger/internal/store"
)

// Reversal describes a successful Reverse.
type Reversal struct {
	Record model.HistoryRecord
	// BalanceRestored is false when the record's account no longer exists.
	BalanceRestored bool
	Balance         decimal.Decimal
	// CandidateRestored is false when the originating candidate is gone.
	CandidateRestored bool
}

// Reverse deletes a history record and undoes its effect: the primary
// account moves back by the recorded amount, linked accounts mirror it and
// the originating candidate becomes reviewable again.
func (a *Applier) Reverse(ctx context.Context, historyID string) (Reversal, error) {
	var rev Reversal
	err := a.repo.Update(ctx, func(s *store.Snapshot) error {
		idx := -1
		for i, h := range s.History {
			if h.ID == historyID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%s: %w", historyID, ErrHistoryNotFound)
		}
		rec := s.History[idx]
		amount, err := rec.AmountValue()
		if err != nil {
			return err
		}

		s.History = append(append([]model.HistoryRecord(nil), s.History[:idx]...), s.History[idx+1:]...)
		rev = Reversal{Record: rec}

		if primary, ok := accounts.NewGraph(s.Accounts).Primary(rec.LastFourDigits); ok {
			accts := append([]model.Account(nil), s.Accounts...)
			balance, err := accounts.Adjust(accts, primary.LastFourDigits, rec.Direction.Signed(amount).Neg())
			if err != nil {
				return err
			}
			s.Accounts = accts
			rev.BalanceRestored = true
			rev.Balance = balance
		}

		if i := candidates.Index(s.Candidates, rec.ID); i >= 0 {
			s.Candidates[i].IsApplied = false
			s.Candidates[i].IsRead = false
			rev.CandidateRestored = true
		}
		return nil
	})
	if err != nil {
		return Reversal{}, a.fail("reverse", historyID, err)
	}

	entry := a.log.WithFields(logrus.Fields{
		logging.FieldOperation:   "reverse",
		logging.FieldCandidateID: historyID,
		logging.FieldAccount:     rev.Record.LastFourDigits,
	})
	if !rev.BalanceRestored {
		entry.Warn("history account not found, balances unchanged")
	}
	if !rev.CandidateRestored {
		entry.Info("originating candidate not found, not returned to review")
	}
	entry.Info("transaction reversed")

	amount, _ := rev.Record.AmountValue()
	a.record(activitylog.Entry{
		Action:      activitylog.ActionReverse,
		CandidateID: historyID,
		Account:     rev.Record.LastFourDigits,
		Amount:      model.FormatAmount(rev.Record.Direction.Signed(amount).Neg()),
		Details:     rev.Record.Recipient + ", " + rev.Record.Category,
	})
	return rev, nil
}
