package accounts

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cleared-dev/smsledger/internal/model"
)

// NewAccount is the user input for creating an account.
type NewAccount struct {
	Type        model.AccountType
	Name        string
	Number      string // full or partial account/card number
	Balance     string
	BankAddress string
	LinkedTo    string
}

// Build normalises in into an Account: type defaults to Bank Account, only
// the last four digits of Number are kept (mask characters X and * are
// ignored) and Balance is fixed to two places.
func Build(in NewAccount) (model.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Account{}, fmt.Errorf("account name is required")
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		switch {
		case unicode.IsSpace(r), r == '-':
			return -1
		case r == 'X', r == 'x', r == '*':
			// masked card digits, e.g. "XXXX-2792" or "**** 2792"
			return -1
		}
		return '?'
	}, in.Number)
	if strings.ContainsRune(digits, '?') || len(digits) < 4 {
		return model.Account{}, fmt.Errorf("account number %q must contain at least 4 digits and nothing else", in.Number)
	}

	bal, err := model.ParseDecimal(in.Balance)
	if err != nil {
		return model.Account{}, fmt.Errorf("balance %q is not a number", in.Balance)
	}

	typ := in.Type
	if typ == "" {
		typ = model.AccountTypeBank
	}

	return model.Account{
		Type:           typ,
		Name:           name,
		LastFourDigits: digits[len(digits)-4:],
		InitialBalance: model.FormatAmount(bal),
		LinkedTo:       strings.TrimSpace(in.LinkedTo),
		BankAddress:    strings.TrimSpace(in.BankAddress),
	}, nil
}
