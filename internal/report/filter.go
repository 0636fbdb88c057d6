// Package report derives read-only views from applied history: filtered
// listings, per-account totals, a month-end spending forecast and CSV
// export.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/smsledger/internal/model"
)

// Period restricts history to records on the same calendar day, month or
// year as the reference time.
type Period string

const (
	PeriodAll     Period = "all"
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Periods lists every accepted period.
var Periods = []Period{PeriodAll, PeriodDaily, PeriodMonthly, PeriodYearly}

// ParsePeriod accepts a period name; "" means all.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PeriodAll, nil
	}
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q (want all, daily, monthly or yearly)", s)
}

// Filter selects history records. Zero fields match everything.
type Filter struct {
	Period Period
	// Recipient matches case-insensitively anywhere in the recipient.
	Recipient string
	// Category matches the whole category case-insensitively.
	Category string
	// Now is the reference time for Period; its location decides calendar
	// boundaries.
	Now time.Time
}

// Match reports whether h passes every criterion of f. Records whose
// timestamp cannot be parsed only pass PeriodAll.
func (f Filter) Match(h model.HistoryRecord) bool {
	if !f.inPeriod(h) {
		return false
	}
	if f.Recipient != "" && !strings.Contains(strings.ToLower(h.Recipient), strings.ToLower(f.Recipient)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(h.Category, f.Category) {
		return false
	}
	return true
}

// Apply returns the records that match f, in their original order.
func (f Filter) Apply(history []model.HistoryRecord) []model.HistoryRecord {
	var out []model.HistoryRecord
	for _, h := range history {
		if f.Match(h) {
			out = append(out, h)
		}
	}
	return out
}

func (f Filter) inPeriod(h model.HistoryRecord) bool {
	if f.Period == "" || f.Period == PeriodAll {
		return true
	}
	t, err := h.Time()
	if err != nil {
		return false
	}
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	t = t.In(now.Location())

	switch f.Period {
	case PeriodDaily:
		return t.Year() == now.Year() && t.YearDay() == now.YearDay()
	case PeriodMonthly:
		return t.Year() == now.Year() && t.Month() == now.Month()
	case PeriodYearly:
		return t.Year() == now.Year()
	}
	return true
}
