package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType classifies a tracked account.
type AccountType string

const (
	AccountTypeBank       AccountType = "Bank Account"
	AccountTypeCreditCard AccountType = "Credit Card"
	AccountTypeOther      AccountType = "Other"
)

// AccountTypes lists every accepted account type.
var AccountTypes = []AccountType{AccountTypeBank, AccountTypeCreditCard, AccountTypeOther}

// Account is one entry in the "accounts" collection.
// LastFourDigits is the natural key.
type Account struct {
	Type              AccountType `json:"type" validate:"required,oneof='Bank Account' 'Credit Card' 'Other'"`
	Name              string      `json:"name" validate:"required"`
	LastFourDigits    string      `json:"lastFourDigits" validate:"required,numeric,len=4"`
	InitialBalance    string      `json:"initialBalance" validate:"required,numeric"`
	LinkedTo          string      `json:"linkedTo,omitempty" validate:"omitempty,numeric,len=4"`
	ManualTransaction bool        `json:"manualTransaction,omitempty"`
	BankAddress       string      `json:"bankAddress,omitempty"`
}

// IsLinked reports whether the account mirrors another account's balance.
func (a Account) IsLinked() bool {
	return a.LinkedTo != ""
}

// Balance parses InitialBalance.
func (a Account) Balance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.InitialBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing balance %q of account %s: %w", a.InitialBalance, a.LastFourDigits, err)
	}
	return d, nil
}

// Label returns "Name (1234)".
func (a Account) Label() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.LastFourDigits)
}

// FormatAmount renders an amount with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// plainNumber is the shape of user-entered money: an optional sign, digits
// and an optional fraction. Exponents are not accepted.
var plainNumber = regexp.MustCompile(`^[-+]?[0-9]+(?:\.[0-9]+)?$`)

// ParseDecimal parses s as a plain decimal number after trimming spaces.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !plainNumber.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%q is not a plain decimal number", s)
	}
	return decimal.NewFromString(s)
}
