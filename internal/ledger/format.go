package ledger

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/smsledger/internal/model"
)

// NormalizeRecipient is applied to recipients written to history: digits
// are removed and each word is title-cased.
func NormalizeRecipient(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)

	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// ManualMessage is the text stored on a manual entry once it is applied.
func ManualMessage(c model.Candidate, marker string, amount decimal.Decimal) string {
	return fmt.Sprintf("Manual %s: %s.%s to %s for %s",
		c.Direction, marker, model.FormatAmount(amount), strings.TrimSpace(c.Recipient), strings.TrimSpace(c.Category))
}
