package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/smsledger/internal/model"
)

// Uncategorized labels debits without a category.
const Uncategorized = "Uncategorized"

// Forecast projects one category's spending to the end of the month.
type Forecast struct {
	Category   string
	Projection decimal.Decimal
	// Frequency is the expected number of further debits this month.
	Frequency decimal.Decimal

	TotalSpent     decimal.Decimal
	DailyAverage   decimal.Decimal
	DailyFrequency decimal.Decimal
	DaysSpanned    int
	RemainingDays  int
	Count          int
}

// Outlook is the forecast for the month containing Now.
type Outlook struct {
	Now           time.Time
	RemainingDays int
	// DaysWithData counts the distinct calendar days with a debit so far.
	DaysWithData int
	Categories   []Forecast
}

type categoryStats struct {
	total    decimal.Decimal
	count    int
	earliest time.Time
	latest   time.Time
}

// BuildForecast projects month-to-date debits per category. A category
// with a single debit is projected at its total. Categories are sorted by
// projection, largest first.
func BuildForecast(history []model.HistoryRecord, now time.Time) Outlook {
	loc := now.Location()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, loc).Day()
	out := Outlook{Now: now, RemainingDays: daysInMonth - now.Day()}

	stats := make(map[string]*categoryStats)
	var order []string
	days := make(map[string]bool)
	for _, h := range history {
		if h.Direction != model.Debit {
			continue
		}
		t, err := h.Time()
		if err != nil {
			continue
		}
		t = t.In(loc)
		if t.Before(startOfMonth) || t.After(now) {
			continue
		}
		amount, err := h.AmountValue()
		if err != nil {
			continue
		}
		days[t.Format(time.DateOnly)] = true

		cat := h.Category
		if cat == "" {
			cat = Uncategorized
		}
		st, ok := stats[cat]
		if !ok {
			st = &categoryStats{earliest: t, latest: t}
			stats[cat] = st
			order = append(order, cat)
		}
		st.total = st.total.Add(amount)
		st.count++
		if t.Before(st.earliest) {
			st.earliest = t
		}
		if t.After(st.latest) {
			st.latest = t
		}
	}
	out.DaysWithData = len(days)

	remaining := decimal.NewFromInt(int64(out.RemainingDays))
	for _, cat := range order {
		st := stats[cat]
		spanned := int(st.latest.Sub(st.earliest)/(24*time.Hour)) + 1
		if spanned < 1 {
			spanned = 1
		}
		span := decimal.NewFromInt(int64(spanned))
		avg := st.total.Div(span)
		freq := decimal.NewFromInt(int64(st.count)).Div(span)

		f := Forecast{
			Category:       cat,
			Projection:     st.total,
			Frequency:      decimal.Zero,
			TotalSpent:     st.total.Round(2),
			DailyAverage:   avg.Round(2),
			DailyFrequency: freq.Round(2),
			DaysSpanned:    spanned,
			RemainingDays:  out.RemainingDays,
			Count:          st.count,
		}
		if st.count > 1 {
			f.Projection = st.total.Add(avg.Mul(remaining))
			f.Frequency = freq.Mul(remaining)
		}
		f.Projection = f.Projection.Round(2)
		f.Frequency = f.Frequency.Round(2)
		out.Categories = append(out.Categories, f)
	}

	sort.SliceStable(out.Categories, func(i, j int) bool {
		return out.Categories[i].Projection.GreaterThan(out.Categories[j].Projection)
	})
	return out
}
