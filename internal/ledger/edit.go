package ledger

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/smsledger/internal/accounts"
	"github.com/cleared-dev/smsledger/internal/activitylog"
	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/extract"
	"github.com/cleared-dev/smsledger/internal/logging"
	"github.com/cleared-dev/smsledger/internal/model"
	"github.com/cleared-dev/smsledger/internal/store"
)

// Edit sets one field of an unapplied candidate and returns the result.
// Setting a category on a candidate without an icon copies the icon of the
// first history record with that category.
func (a *Applier) Edit(ctx context.Context, id string, field candidates.Field, value string) (model.Candidate, error) {
	var out model.Candidate
	err := a.repo.Update(ctx, func(s *store.Snapshot) error {
		return candidates.Edit(s.Candidates, id, func(c *model.Candidate) error {
			if err := candidates.Set(c, field, value); err != nil {
				return err
			}
			if field == candidates.FieldCategory && c.CategoryIcon == "" {
				c.CategoryIcon = SuggestIcon(s.History, c.Category)
			}
			out = *c
			return nil
		})
	})
	if err != nil {
		return model.Candidate{}, a.fail("edit", id, err)
	}
	return out, nil
}

// Trim shortens one field the way the review delete key does and returns
// the candidate.
func (a *Applier) Trim(ctx context.Context, id string, field candidates.Field) (model.Candidate, error) {
	var out model.Candidate
	err := a.repo.Update(ctx, func(s *store.Snapshot) error {
		return candidates.Edit(s.Candidates, id, func(c *model.Candidate) error {
			if _, err := candidates.Trim(c, field); err != nil {
				return err
			}
			out = *c
			return nil
		})
	})
	if err != nil {
		return model.Candidate{}, a.fail("trim", id, err)
	}
	return out, nil
}

// AddManual appends a blank manual entry targeting the account flagged for
// manual entries, if any. It fails when no accounts exist.
func (a *Applier) AddManual(ctx context.Context) (model.Candidate, error) {
	var out model.Candidate
	err := a.repo.Update(ctx, func(s *store.Snapshot) error {
		if len(s.Accounts) == 0 {
			return ErrNoAccounts
		}
		var target string
		if m, ok := accounts.NewGraph(s.Accounts).ManualTarget(); ok {
			target = m.LastFourDigits
		}
		out = extract.NewManual(target, a.now())
		s.Candidates = append(s.Candidates, out)
		return nil
	})
	if err != nil {
		return model.Candidate{}, a.fail("manual", "", err)
	}
	a.log.WithFields(logrus.Fields{
		logging.FieldOperation:   "manual",
		logging.FieldCandidateID: out.ID,
		logging.FieldAccount:     out.LastFourDigits,
	}).Info("manual entry created")
	a.record(activitylog.Entry{Action: activitylog.ActionManual, CandidateID: out.ID, Account: out.LastFourDigits})
	return out, nil
}

// Retarget points an unapplied candidate at the account with digits. It is
// the remedy for a candidate whose account no longer resolves.
func (a *Applier) Retarget(ctx context.Context, id, digits string) (model.Candidate, error) {
	var out model.Candidate
	err := a.repo.Update(ctx, func(s *store.Snapshot) error {
		if _, ok := accounts.NewGraph(s.Accounts).Get(digits); !ok {
			return fmt.Errorf("account %s: %w", digits, accounts.ErrAccountNotFound)
		}
		return candidates.Edit(s.Candidates, id, func(c *model.Candidate) error {
			c.LastFourDigits = digits
			out = *c
			return nil
		})
	})
	if err != nil {
		return model.Candidate{}, a.fail("retarget", id, err)
	}
	a.log.WithFields(logrus.Fields{
		logging.FieldOperation:   "retarget",
		logging.FieldCandidateID: id,
		logging.FieldAccount:     digits,
	}).Info("candidate retargeted")
	return out, nil
}

// SuggestIcon returns the icon of the first history record whose category
// equals category, or "". Later records are never consulted.
func SuggestIcon(history []model.HistoryRecord, category string) string {
	if category == "" {
		return ""
	}
	for _, h := range history {
		if h.Category == category {
			return h.CategoryIcon
		}
	}
	return ""
}

// Pending returns the reviewable candidates.
func (a *Applier) Pending(ctx context.Context) ([]model.Candidate, error) {
	snap, err := a.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	return candidates.Reviewable(snap.Candidates), nil
}
