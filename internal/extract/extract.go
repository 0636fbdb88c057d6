// Package extract turns raw notification messages into candidate
// transactions using pattern rules derived from the account list.
//
// Extraction never fails: a field that cannot be parsed falls back to its
// zero value so the user can complete it during review.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/smsledger/internal/id"
	"github.com/cleared-dev/smsledger/internal/model"
)

// DefaultCurrencyMarkers prefix amounts in notification text.
var DefaultCurrencyMarkers = []string{"Rs", "INR"}

var (
	creditPattern    = regexp.MustCompile(`(?i)credit|receive`)
	debitPattern     = regexp.MustCompile(`(?i)spent|deduct|debit|sent|txn`)
	recipientPattern = regexp.MustCompile(`(?i)\b(?:At|To)\b:?\s*([A-Za-z0-9\s]+)`)
)

// Outcome says what happened to a message.
type Outcome int

const (
	// Kept means the message produced a candidate.
	Kept Outcome = iota
	// UnknownSender means the address matched no account's bank address.
	UnknownSender
	// UnknownAccount means the body mentioned no known account digits.
	UnknownAccount
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case UnknownSender:
		return "unknown_sender"
	case UnknownAccount:
		return "unknown_account"
	default:
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// Options tunes rule compilation.
type Options struct {
	// CurrencyMarkers are the literal prefixes of amounts, e.g. "Rs".
	CurrencyMarkers []string
}

// Rules are compiled from one account list. Compile them again for every
// extraction run so edits to accounts take effect immediately.
type Rules struct {
	address *regexp.Regexp
	digits  *regexp.Regexp
	amount  *regexp.Regexp
}

// Compile builds Rules for accounts. Accounts with an empty bank address or
// empty digits contribute nothing to the respective pattern. A bank address
// that is not a valid regular expression is matched literally.
func Compile(accounts []model.Account, opts Options) *Rules {
	var addrs, digits []string
	for _, a := range accounts {
		if addr := strings.TrimSpace(a.BankAddress); addr != "" {
			if _, err := regexp.Compile(addr); err != nil {
				addr = regexp.QuoteMeta(addr)
			}
			addrs = append(addrs, "(?:"+addr+")")
		}
		if d := strings.TrimSpace(a.LastFourDigits); d != "" {
			digits = append(digits, regexp.QuoteMeta(d))
		}
	}

	markers := opts.CurrencyMarkers
	if len(markers) == 0 {
		markers = DefaultCurrencyMarkers
	}
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}

	r := &Rules{
		amount: regexp.MustCompile(`(?:` + strings.Join(quoted, "|") + `)\.?\s?(\d+(?:,\d+)*(?:\.\d{2})?)`),
	}
	if len(addrs) > 0 {
		r.address = regexp.MustCompile(`(?i)` + strings.Join(addrs, "|"))
	}
	if len(digits) > 0 {
		r.digits = regexp.MustCompile(`(?i)` + strings.Join(digits, "|"))
	}
	return r
}

// Extract maps msg to a candidate. The candidate is only meaningful when
// the outcome is Kept.
func (r *Rules) Extract(msg model.Message) (model.Candidate, Outcome) {
	if r.address == nil || !r.address.MatchString(msg.Address) {
		return model.Candidate{}, UnknownSender
	}

	var digits string
	if r.digits != nil {
		digits = r.digits.FindString(msg.Body)
	}
	if digits == "" {
		return model.Candidate{}, UnknownAccount
	}

	amount := r.Amount(msg.Body)
	return model.Candidate{
		ID:              msg.ID,
		RawMessage:      msg.Body,
		Address:         msg.Address,
		LastFourDigits:  digits,
		Direction:       Direction(msg.Body),
		ExtractedAmount: amount,
		EditableAmount:  model.FormatAmount(amount),
		Recipient:       Recipient(msg.Body),
		Timestamp:       msg.Timestamp,
	}, Kept
}

// Amount returns the first currency amount in body, or zero.
func (r *Rules) Amount(body string) decimal.Decimal {
	m := r.amount.FindStringSubmatch(body)
	if m == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Direction classifies body as credit when it mentions incoming funds and
// debit otherwise.
func Direction(body string) model.Direction {
	if creditPattern.MatchString(body) {
		return model.Credit
	}
	if debitPattern.MatchString(body) {
		return model.Debit
	}
	return model.Debit
}

// Recipient returns the trimmed run of letters, digits and spaces after the
// first "At" or "To" marker, or "".
func Recipient(body string) string {
	m := recipientPattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// NewManual starts a blank manual entry targeting account (may be empty).
func NewManual(account string, now time.Time) model.Candidate {
	return model.Candidate{
		ID:              id.NewManual(now),
		RawMessage:      model.ManualEntryMessage,
		LastFourDigits:  account,
		Direction:       model.Debit,
		ExtractedAmount: decimal.Zero,
		IsRead:          true,
		Timestamp:       strconv.FormatInt(now.UnixMilli(), 10),
	}
}
