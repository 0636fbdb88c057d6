// Package accounts manages the tracked accounts and the link graph.
//
// An account is either primary or linked to exactly one primary account.
// A linked account's balance always mirrors its primary's.
package accounts

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/smsledger/internal/model"
)

// ErrAccountNotFound is returned when no account has the given digits.
var ErrAccountNotFound = errors.New("account not found")

// Graph is a read-only index over an account list. Build a new one after
// every mutation; it is never cached.
type Graph struct {
	accounts []model.Account
	index    map[string]int
}

// NewGraph indexes accounts by LastFourDigits. On duplicate digits the
// first account wins.
func NewGraph(accounts []model.Account) *Graph {
	index := make(map[string]int, len(accounts))
	for i, a := range accounts {
		if _, dup := index[a.LastFourDigits]; !dup {
			index[a.LastFourDigits] = i
		}
	}
	return &Graph{accounts: accounts, index: index}
}

// All returns every account in stored order.
func (g *Graph) All() []model.Account {
	return g.accounts
}

// Get returns the account with the given digits.
func (g *Graph) Get(digits string) (model.Account, bool) {
	i, ok := g.index[digits]
	if !ok || digits == "" {
		return model.Account{}, false
	}
	return g.accounts[i], true
}

// Primary resolves digits to the account holding the authoritative
// balance: the account itself, or the account it is linked to. It fails
// when either account is missing or the link target is itself linked.
func (g *Graph) Primary(digits string) (model.Account, bool) {
	a, ok := g.Get(digits)
	if !ok {
		return model.Account{}, false
	}
	if !a.IsLinked() {
		return a, true
	}
	p, ok := g.Get(a.LinkedTo)
	if !ok || p.IsLinked() {
		return model.Account{}, false
	}
	return p, true
}

// Linked returns the accounts linked to primary.
func (g *Graph) Linked(primary string) []model.Account {
	var out []model.Account
	for _, a := range g.accounts {
		if a.LinkedTo == primary {
			out = append(out, a)
		}
	}
	return out
}

// ManualTarget returns the account flagged for manual entries.
func (g *Graph) ManualTarget() (model.Account, bool) {
	for _, a := range g.accounts {
		if a.ManualTransaction {
			return a, true
		}
	}
	return model.Account{}, false
}

// SetBalance writes balance to the primary account and every account
// linked to it. accounts is modified in place.
func SetBalance(accounts []model.Account, primary string, balance decimal.Decimal) error {
	found := false
	formatted := model.FormatAmount(balance)
	for i := range accounts {
		switch {
		case accounts[i].LastFourDigits == primary && !accounts[i].IsLinked():
			accounts[i].InitialBalance = formatted
			found = true
		case accounts[i].LinkedTo == primary:
			accounts[i].InitialBalance = formatted
		}
	}
	if !found {
		return fmt.Errorf("primary account %s: %w", primary, ErrAccountNotFound)
	}
	return nil
}

// Adjust adds delta to the primary account's balance, rounds the result
// to two places and mirrors it to linked accounts. It returns the new
// balance. accounts is modified in place.
func Adjust(accounts []model.Account, primary string, delta decimal.Decimal) (decimal.Decimal, error) {
	p, ok := NewGraph(accounts).Get(primary)
	if !ok || p.IsLinked() {
		return decimal.Zero, fmt.Errorf("primary account %s: %w", primary, ErrAccountNotFound)
	}
	old, err := p.Balance()
	if err != nil {
		return decimal.Zero, err
	}
	next := old.Add(delta).Round(2)
	if err := SetBalance(accounts, primary, next); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}
