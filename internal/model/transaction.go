package model

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/smsledger/internal/id"
)

// Direction says whether money came in or went out.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Valid reports whether d is credit or debit.
func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

// Signed returns +amount for credits and -amount for debits.
func (d Direction) Signed(amount decimal.Decimal) decimal.Decimal {
	if d == Credit {
		return amount
	}
	return amount.Neg()
}

// ManualEntryMessage is the raw message of a manually created candidate.
const ManualEntryMessage = "Manual Entry"

// Candidate is a transaction inferred from a message or entered by hand.
// It lives in the "transactions" collection until applied or skipped.
type Candidate struct {
	ID              string          `json:"id"`
	RawMessage      string          `json:"message"`
	Address         string          `json:"address,omitempty"`
	LastFourDigits  string          `json:"lastFourDigits"`
	Direction       Direction       `json:"type"`
	ExtractedAmount decimal.Decimal `json:"amount"`
	EditableAmount  string          `json:"editableAmount"`
	Recipient       string          `json:"recipient"`
	Category        string          `json:"category,omitempty"`
	CategoryIcon    string          `json:"categoryIcon,omitempty"`
	IsRead          bool            `json:"isRead"`
	IsApplied       bool            `json:"isApplied"`
	Timestamp       string          `json:"date"`
}

// IsManual reports whether the candidate was entered by hand.
func (c Candidate) IsManual() bool {
	return id.IsManual(c.ID) || c.RawMessage == ManualEntryMessage
}

// Message is one raw notification as read from an inbox.
type Message struct {
	ID        string `json:"_id" csv:"id"`
	Address   string `json:"address" csv:"address"`
	Body      string `json:"body" csv:"body"`
	Timestamp string `json:"date" csv:"date"`
}

// Suggestions holds the distinct recipients and categories used so far,
// in first-use order.
type Suggestions struct {
	Recipients []string `json:"recipients"`
	Categories []string `json:"categories"`
}

// AddRecipient records r unless it is blank or already present.
func (s *Suggestions) AddRecipient(r string) {
	s.Recipients = appendDistinct(s.Recipients, r)
}

// AddCategory records c unless it is blank or already present.
func (s *Suggestions) AddCategory(c string) {
	s.Categories = appendDistinct(s.Categories, c)
}

func appendDistinct(list []string, v string) []string {
	if strings.TrimSpace(v) == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
