package accounts

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cleared-dev/smsledger/internal/model"
)

// Rule names reported in ValidationError.
const (
	RuleFields       = "fields"
	RuleUniqueDigits = "unique-digits"
	RuleSingleManual = "single-manual"
	RuleLinkTarget   = "link-target"
	RuleLinkSelf     = "link-self"
	RuleLinkDepth    = "link-depth"
	RuleMirror       = "linked-mirror"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Rule        string
	Account     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.Account, e.Description)
}

// ValidationErrors is returned when an account set breaks one or more rules.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks each account's fields and the rules that span the set:
// unique digits, at most one manual target, links of depth one to existing
// accounts, and linked balances equal to their primary's.
func Validate(accounts []model.Account) []ValidationError {
	var errs []ValidationError

	for _, a := range accounts {
		if err := validate.Struct(a); err != nil {
			if fieldErrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range fieldErrs {
					errs = append(errs, ValidationError{
						Rule:        RuleFields,
						Account:     a.LastFourDigits,
						Description: fmt.Sprintf("%s fails %q (value %q)", fe.Field(), fe.Tag(), fmt.Sprint(fe.Value())),
					})
				}
				continue
			}
			errs = append(errs, ValidationError{Rule: RuleFields, Account: a.LastFourDigits, Description: err.Error()})
		}
	}

	seen := make(map[string]bool, len(accounts))
	manual := 0
	for _, a := range accounts {
		if seen[a.LastFourDigits] {
			errs = append(errs, ValidationError{
				Rule:        RuleUniqueDigits,
				Account:     a.LastFourDigits,
				Description: "another account uses the same digits",
			})
		}
		seen[a.LastFourDigits] = true
		if a.ManualTransaction {
			manual++
		}
	}
	if manual > 1 {
		errs = append(errs, ValidationError{
			Rule:        RuleSingleManual,
			Description: fmt.Sprintf("%d accounts are flagged for manual entries, at most one allowed", manual),
		})
	}

	g := NewGraph(accounts)
	for _, a := range accounts {
		if !a.IsLinked() {
			continue
		}
		if a.LinkedTo == a.LastFourDigits {
			errs = append(errs, ValidationError{Rule: RuleLinkSelf, Account: a.LastFourDigits, Description: "account is linked to itself"})
			continue
		}
		p, ok := g.Get(a.LinkedTo)
		if !ok {
			errs = append(errs, ValidationError{
				Rule:        RuleLinkTarget,
				Account:     a.LastFourDigits,
				Description: fmt.Sprintf("linked to unknown account %s", a.LinkedTo),
			})
			continue
		}
		if p.IsLinked() {
			errs = append(errs, ValidationError{
				Rule:        RuleLinkDepth,
				Account:     a.LastFourDigits,
				Description: fmt.Sprintf("linked to %s which is itself linked to %s", p.LastFourDigits, p.LinkedTo),
			})
			continue
		}
		if !sameBalance(a, p) {
			errs = append(errs, ValidationError{
				Rule:        RuleMirror,
				Account:     a.LastFourDigits,
				Description: fmt.Sprintf("balance %s differs from primary %s balance %s", a.InitialBalance, p.LastFourDigits, p.InitialBalance),
			})
		}
	}

	return errs
}

func check(accounts []model.Account) error {
	if errs := Validate(accounts); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

func sameBalance(a, b model.Account) bool {
	x, errA := a.Balance()
	y, errB := b.Balance()
	if errA != nil || errB != nil {
		return a.InitialBalance == b.InitialBalance
	}
	return x.Equal(y)
}
