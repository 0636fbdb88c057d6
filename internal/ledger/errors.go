// Package ledger posts reviewed candidates to account balances and
// history, and reverses them again.
package ledger

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/smsledger/internal/candidates"
)

// Validation failures, checked in this order.
var (
	ErrMissingRecipient = errors.New("recipient is required")
	ErrMissingCategory  = errors.New("category is required")
	ErrInvalidAmount    = errors.New("amount must be a number greater than zero")
)

var (
	ErrCandidateNotFound = candidates.ErrNotFound
	ErrAlreadyApplied    = candidates.ErrApplied
	ErrHistoryNotFound   = errors.New("history record not found")
	ErrNoAccounts        = errors.New("no accounts configured")
	ErrNoManualAccount   = errors.New("no account given and none is flagged for manual entries")
)

// ValidationError reports why a candidate cannot be applied yet.
// The candidate and ledger are unchanged; fix Field and apply again.
type ValidationError struct {
	CandidateID string
	Field       candidates.Field
	Err         error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("candidate %s: %s: %v", e.CandidateID, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
