package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/model"
)

// Validate checks recipient, category and amount in that order and
// returns the parsed amount. Only the first failure is reported.
func Validate(c model.Candidate) (decimal.Decimal, error) {
	if strings.TrimSpace(c.Recipient) == "" {
		return decimal.Zero, &ValidationError{CandidateID: c.ID, Field: candidates.FieldRecipient, Err: ErrMissingRecipient}
	}
	if strings.TrimSpace(c.Category) == "" {
		return decimal.Zero, &ValidationError{CandidateID: c.ID, Field: candidates.FieldCategory, Err: ErrMissingCategory}
	}
	amount, ok := ParseAmount(c.EditableAmount)
	if !ok {
		return decimal.Zero, &ValidationError{CandidateID: c.ID, Field: candidates.FieldAmount, Err: ErrInvalidAmount}
	}
	return amount, nil
}

// ParseAmount parses user-entered amount text and rounds it to cents.
// Thousands separators are ignored and exponents are rejected. The check
// for a positive amount runs after rounding, so anything below half a
// cent is invalid and "0.005" posts as 0.01.
func ParseAmount(s string) (decimal.Decimal, bool) {
	d, err := model.ParseDecimal(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
