package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/smsledger/internal/model"
)

func rules(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Rule)
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(jointAccounts()))
	assert.Empty(t, Validate(nil))
}

func TestValidate_Fields(t *testing.T) {
	errs := Validate([]model.Account{
		{Type: "Savings", Name: "", LastFourDigits: "27x2", InitialBalance: "abc"},
	})
	assert.NotEmpty(t, errs)
	for _, e := range errs {
		assert.Equal(t, RuleFields, e.Rule)
	}
	assert.GreaterOrEqual(t, len(errs), 4)
}

func TestValidate_CrossRecordRules(t *testing.T) {
	base := func() []model.Account { return jointAccounts() }

	tests := []struct {
		name   string
		mutate func([]model.Account) []model.Account
		rule   string
	}{
		{"duplicate digits", func(a []model.Account) []model.Account {
			return append(a, model.Account{Type: model.AccountTypeOther, Name: "Dup", LastFourDigits: "1111", InitialBalance: "0"})
		}, RuleUniqueDigits},
		{"two manual targets", func(a []model.Account) []model.Account {
			a[0].ManualTransaction = true
			return a
		}, RuleSingleManual},
		{"unknown link target", func(a []model.Account) []model.Account {
			a[1].LinkedTo = "9999"
			return a
		}, RuleLinkTarget},
		{"self link", func(a []model.Account) []model.Account {
			a[0].LinkedTo = "1111"
			return a
		}, RuleLinkSelf},
		{"chained link", func(a []model.Account) []model.Account {
			a[2].LinkedTo = "2222"
			a[2].InitialBalance = "1000.00"
			return a
		}, RuleLinkDepth},
		{"mirror drift", func(a []model.Account) []model.Account {
			a[1].InitialBalance = "999.99"
			return a
		}, RuleMirror},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.mutate(base()))
			assert.Contains(t, rules(errs), tt.rule)
		})
	}
}

func TestValidate_MirrorComparesNumerically(t *testing.T) {
	accts := jointAccounts()
	accts[1].InitialBalance = "1000"
	assert.Empty(t, Validate(accts))
}

func TestValidationErrors_Error(t *testing.T) {
	err := ValidationErrors{
		{Rule: RuleLinkSelf, Account: "1111", Description: "account is linked to itself"},
		{Rule: RuleSingleManual, Description: "too many"},
	}
	assert.Equal(t, "link-self [1111]: account is linked to itself; single-manual []: too many", err.Error())
}
