package accounts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/smsledger/internal/model"
)

func jointAccounts() []model.Account {
	return []model.Account{
		{Type: model.AccountTypeBank, Name: "A", LastFourDigits: "1111", InitialBalance: "1000.00"},
		{Type: model.AccountTypeBank, Name: "B", LastFourDigits: "2222", InitialBalance: "1000.00", LinkedTo: "1111"},
		{Type: model.AccountTypeCreditCard, Name: "C", LastFourDigits: "3333", InitialBalance: "50.00", ManualTransaction: true},
	}
}

func TestGraph_Primary(t *testing.T) {
	g := NewGraph(jointAccounts())

	p, ok := g.Primary("2222")
	require.True(t, ok)
	assert.Equal(t, "1111", p.LastFourDigits)

	p, ok = g.Primary("1111")
	require.True(t, ok)
	assert.Equal(t, "A", p.Name)

	_, ok = g.Primary("9999")
	assert.False(t, ok)
	_, ok = g.Primary("")
	assert.False(t, ok)
}

func TestGraph_PrimaryBrokenLink(t *testing.T) {
	g := NewGraph([]model.Account{
		{Name: "Orphan", LastFourDigits: "2222", InitialBalance: "0", LinkedTo: "1111"},
	})
	_, ok := g.Primary("2222")
	assert.False(t, ok)
}

func TestGraph_LinkedAndManual(t *testing.T) {
	g := NewGraph(jointAccounts())

	linked := g.Linked("1111")
	require.Len(t, linked, 1)
	assert.Equal(t, "2222", linked[0].LastFourDigits)
	assert.Empty(t, g.Linked("3333"))

	m, ok := g.ManualTarget()
	require.True(t, ok)
	assert.Equal(t, "3333", m.LastFourDigits)

	_, ok = NewGraph(nil).ManualTarget()
	assert.False(t, ok)
}

func TestAdjust_MirrorsLinked(t *testing.T) {
	accts := jointAccounts()
	bal, err := Adjust(accts, "1111", decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.Equal(t, "1100.00", model.FormatAmount(bal))
	assert.Equal(t, "1100.00", accts[0].InitialBalance)
	assert.Equal(t, "1100.00", accts[1].InitialBalance)
	assert.Equal(t, "50.00", accts[2].InitialBalance, "unrelated account untouched")
}

func TestAdjust_RoundsEachStep(t *testing.T) {
	accts := []model.Account{{Name: "A", LastFourDigits: "1111", InitialBalance: "0.00"}}
	step := decimal.RequireFromString("0.005")
	for i := 0; i < 10; i++ {
		_, err := Adjust(accts, "1111", step)
		require.NoError(t, err)
	}
	assert.Equal(t, "0.10", accts[0].InitialBalance)
}

func TestAdjust_Errors(t *testing.T) {
	accts := jointAccounts()
	_, err := Adjust(accts, "2222", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrAccountNotFound, "linked account is not a primary")

	_, err = Adjust(accts, "9999", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrAccountNotFound)

	bad := []model.Account{{Name: "A", LastFourDigits: "1111", InitialBalance: "lots"}}
	_, err = Adjust(bad, "1111", decimal.NewFromInt(1))
	assert.Error(t, err)
	assert.Equal(t, "lots", bad[0].InitialBalance)
}

func TestBuild(t *testing.T) {
	a, err := Build(NewAccount{Name: " HDFC ", Number: "4567 8901 2792", Balance: "5000", BankAddress: "HDFCBK"})
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeBank, a.Type)
	assert.Equal(t, "HDFC", a.Name)
	assert.Equal(t, "2792", a.LastFourDigits)
	assert.Equal(t, "5000.00", a.InitialBalance)
	assert.Equal(t, "HDFCBK", a.BankAddress)
}

func TestBuild_MaskedNumber(t *testing.T) {
	for _, number := range []string{"XXXX-2792", "xxxx xxxx 2792", "**** **** **** 2792", "XX2792"} {
		a, err := Build(NewAccount{Name: "Card", Number: number, Balance: "0"})
		require.NoError(t, err, number)
		assert.Equal(t, "2792", a.LastFourDigits, number)
	}

	_, err := Build(NewAccount{Name: "Card", Number: "XXXX-279", Balance: "0"})
	assert.ErrorContains(t, err, "at least 4 digits")
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   NewAccount
		want string
	}{
		{"empty name", NewAccount{Number: "1234", Balance: "0"}, "name is required"},
		{"short number", NewAccount{Name: "A", Number: "123", Balance: "0"}, "at least 4 digits"},
		{"letters in number", NewAccount{Name: "A", Number: "12ab34", Balance: "0"}, "at least 4 digits"},
		{"bad balance", NewAccount{Name: "A", Number: "1234", Balance: "ten"}, "not a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
