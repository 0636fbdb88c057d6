package accounts

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/smsledger/internal/logging"
	"github.com/cleared-dev/smsledger/internal/model"
	"github.com/cleared-dev/smsledger/internal/store"
)

// Service performs account management on the persisted account set.
// Every mutation is validated as a whole before it is written.
type Service struct {
	repo *store.Repository
	log  logrus.FieldLogger
}

// NewService creates a Service over repo.
func NewService(repo *store.Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]model.Account, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	return snap.Accounts, nil
}

// Graph returns a freshly built link graph.
func (s *Service) Graph(ctx context.Context) (*Graph, error) {
	accts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewGraph(accts), nil
}

// Add creates an account. A linked account starts with its primary's balance.
func (s *Service) Add(ctx context.Context, in NewAccount) (model.Account, error) {
	acct, err := Build(in)
	if err != nil {
		return model.Account{}, err
	}
	err = s.mutate(ctx, "add", acct.LastFourDigits, func(accts []model.Account) ([]model.Account, error) {
		if acct.IsLinked() {
			if p, ok := NewGraph(accts).Get(acct.LinkedTo); ok {
				acct.InitialBalance = p.InitialBalance
			}
		}
		return append(accts, acct), nil
	})
	if err != nil {
		return model.Account{}, err
	}
	return acct, nil
}

// Remove deletes an account. Accounts linked to it become primary and keep
// their current balance.
func (s *Service) Remove(ctx context.Context, digits string) error {
	return s.mutate(ctx, "remove", digits, func(accts []model.Account) ([]model.Account, error) {
		out := accts[:0]
		found := false
		for _, a := range accts {
			if a.LastFourDigits == digits {
				found = true
				continue
			}
			if a.LinkedTo == digits {
				a.LinkedTo = ""
			}
			out = append(out, a)
		}
		if !found {
			return nil, fmt.Errorf("account %s: %w", digits, ErrAccountNotFound)
		}
		return out, nil
	})
}

// SetBalance overwrites the balance shared by digits' primary and every
// account linked to it.
func (s *Service) SetBalance(ctx context.Context, digits, balance string) error {
	bal, err := model.ParseDecimal(balance)
	if err != nil {
		return fmt.Errorf("balance %q is not a number", balance)
	}
	return s.mutate(ctx, "set-balance", digits, func(accts []model.Account) ([]model.Account, error) {
		p, ok := NewGraph(accts).Primary(digits)
		if !ok {
			return nil, fmt.Errorf("account %s: %w", digits, ErrAccountNotFound)
		}
		if err := SetBalance(accts, p.LastFourDigits, bal); err != nil {
			return nil, err
		}
		return accts, nil
	})
}

// Link makes digits mirror target. The account takes target's balance.
func (s *Service) Link(ctx context.Context, digits, target string) error {
	return s.mutate(ctx, "link", digits, func(accts []model.Account) ([]model.Account, error) {
		g := NewGraph(accts)
		if _, ok := g.Get(digits); !ok {
			return nil, fmt.Errorf("account %s: %w", digits, ErrAccountNotFound)
		}
		if len(g.Linked(digits)) > 0 {
			return nil, ValidationErrors{{
				Rule:        RuleLinkDepth,
				Account:     digits,
				Description: "other accounts are linked to this one, it cannot be linked itself",
			}}
		}
		p, ok := g.Get(target)
		for i := range accts {
			if accts[i].LastFourDigits == digits {
				accts[i].LinkedTo = target
				if ok {
					accts[i].InitialBalance = p.InitialBalance
				}
			}
		}
		return accts, nil
	})
}

// Unlink makes digits a primary account that keeps its current balance.
func (s *Service) Unlink(ctx context.Context, digits string) error {
	return s.mutate(ctx, "unlink", digits, func(accts []model.Account) ([]model.Account, error) {
		for i := range accts {
			if accts[i].LastFourDigits == digits {
				accts[i].LinkedTo = ""
				return accts, nil
			}
		}
		return nil, fmt.Errorf("account %s: %w", digits, ErrAccountNotFound)
	})
}

// SetManual flags digits as the target for manual entries and clears the
// flag everywhere else. An empty digits clears it everywhere.
func (s *Service) SetManual(ctx context.Context, digits string) error {
	return s.mutate(ctx, "set-manual", digits, func(accts []model.Account) ([]model.Account, error) {
		if digits != "" {
			if _, ok := NewGraph(accts).Get(digits); !ok {
				return nil, fmt.Errorf("account %s: %w", digits, ErrAccountNotFound)
			}
		}
		for i := range accts {
			accts[i].ManualTransaction = accts[i].LastFourDigits == digits
		}
		return accts, nil
	})
}

// Import merges accounts from CSV: rows with known digits replace the
// stored account, the rest are appended. It returns the number of rows
// added and replaced.
func (s *Service) Import(ctx context.Context, r io.Reader) (added, replaced int, err error) {
	incoming, err := ReadAccounts(r)
	if err != nil {
		return 0, 0, err
	}
	err = s.mutate(ctx, "import", "", func(accts []model.Account) ([]model.Account, error) {
		added, replaced = 0, 0
		for _, in := range incoming {
			idx := -1
			for i := range accts {
				if accts[i].LastFourDigits == in.LastFourDigits {
					idx = i
					break
				}
			}
			if idx >= 0 {
				accts[idx] = in
				replaced++
				continue
			}
			accts = append(accts, in)
			added++
		}
		return accts, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return added, replaced, nil
}

// Export writes all accounts as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	accts, err := s.List(ctx)
	if err != nil {
		return err
	}
	return WriteAccounts(w, accts)
}

func (s *Service) mutate(ctx context.Context, op, digits string, fn func([]model.Account) ([]model.Account, error)) error {
	err := s.repo.Update(ctx, func(snap *store.Snapshot) error {
		next, err := fn(append([]model.Account(nil), snap.Accounts...))
		if err != nil {
			return err
		}
		if err := check(next); err != nil {
			return err
		}
		snap.Accounts = next
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s account: %w", op, err)
	}
	s.log.WithFields(logrus.Fields{logging.FieldOperation: op, logging.FieldAccount: digits}).Info("accounts updated")
	return nil
}
