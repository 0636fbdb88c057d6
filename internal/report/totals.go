package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/smsledger/internal/model"
)

// Totals sums credits and debits separately.
type Totals struct {
	Credit      decimal.Decimal
	Debit       decimal.Decimal
	CreditCount int
	DebitCount  int
}

// Net returns credits minus debits.
func (t Totals) Net() decimal.Decimal {
	return t.Credit.Sub(t.Debit)
}

// Sum totals records. Records with an unparsable amount are counted but
// add nothing.
func Sum(records []model.HistoryRecord) Totals {
	var t Totals
	for _, h := range records {
		amount, err := h.AmountValue()
		if err != nil {
			amount = decimal.Zero
		}
		if h.Direction == model.Credit {
			t.Credit = t.Credit.Add(amount)
			t.CreditCount++
		} else {
			t.Debit = t.Debit.Add(amount)
			t.DebitCount++
		}
	}
	return t
}

// Group is the filtered history of one account.
type Group struct {
	Account model.Account
	Records []model.HistoryRecord
	Totals  Totals
}

// Title renders "Name Type - 1234".
func (g Group) Title() string {
	return fmt.Sprintf("%s %s - %s", g.Account.Name, g.Account.Type, g.Account.LastFourDigits)
}

// ByAccount groups history by account in account order, applying f to
// each group. Every account gets a group, possibly empty. Records of
// accounts that no longer exist are left out.
func ByAccount(accounts []model.Account, history []model.HistoryRecord, f Filter) []Group {
	groups := make([]Group, 0, len(accounts))
	for _, a := range accounts {
		var mine []model.HistoryRecord
		for _, h := range history {
			if h.LastFourDigits == a.LastFourDigits {
				mine = append(mine, h)
			}
		}
		mine = f.Apply(mine)
		groups = append(groups, Group{Account: a, Records: mine, Totals: Sum(mine)})
	}
	return groups
}

// Categories returns the distinct non-empty categories in history, in
// first-seen order.
func Categories(history []model.HistoryRecord) []string {
	var s model.Suggestions
	for _, h := range history {
		s.AddCategory(h.Category)
	}
	return s.Categories
}
