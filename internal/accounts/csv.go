package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/smsledger/internal/model"
)

const (
	numFields      = 7
	colType        = 0
	colName        = 1
	colDigits      = 2
	colBalance     = 3
	colLinkedTo    = 4
	colManual      = 5
	colBankAddress = 6
)

var header = []string{"type", "name", "last_four_digits", "balance", "linked_to", "manual", "bank_address"}

// ReadAccounts reads an accounts CSV with a header row.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts as CSV with a header row.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colType] = string(acct.Type)
	row[colName] = acct.Name
	row[colDigits] = acct.LastFourDigits
	row[colBalance] = acct.InitialBalance
	row[colLinkedTo] = acct.LinkedTo
	if acct.ManualTransaction {
		row[colManual] = "true"
	}
	row[colBankAddress] = acct.BankAddress
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var manual bool
	if record[colManual] != "" {
		var err error
		manual, err = strconv.ParseBool(record[colManual])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing manual %q: %w", record[colManual], err)
		}
	}

	return model.Account{
		Type:              model.AccountType(record[colType]),
		Name:              record[colName],
		LastFourDigits:    record[colDigits],
		InitialBalance:    record[colBalance],
		LinkedTo:          record[colLinkedTo],
		ManualTransaction: manual,
		BankAddress:       record[colBankAddress],
	}, nil
}
