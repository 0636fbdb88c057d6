package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HistoryRecord is the immutable snapshot written to "recentTransactions"
// when a candidate is applied. LastFourDigits and AccountName always
// describe the primary account the balance change landed on.
type HistoryRecord struct {
	ID             string    `json:"id"`
	Recipient      string    `json:"recipient"`
	Category       string    `json:"category,omitempty"`
	CategoryIcon   string    `json:"categoryIcon,omitempty"`
	Amount         string    `json:"amount"`
	AccountName    string    `json:"accountName"`
	LastFourDigits string    `json:"lastFourDigits"`
	Direction      Direction `json:"type"`
	Timestamp      string    `json:"date"`
}

// AmountValue parses Amount.
func (h HistoryRecord) AmountValue() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(h.Amount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q of history record %s: %w", h.Amount, h.ID, err)
	}
	return d, nil
}

// Time parses Timestamp.
func (h HistoryRecord) Time() (time.Time, error) {
	return ParseTimestamp(h.Timestamp)
}

// ParseTimestamp accepts epoch milliseconds (as stored by the SMS provider)
// or RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
