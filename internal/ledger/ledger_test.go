package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/smsledger/internal/accounts"
	"github.com/cleared-dev/smsledger/internal/activitylog"
	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/extract"
	"github.com/cleared-dev/smsledger/internal/model"
	"github.com/cleared-dev/smsledger/internal/store"
)

var fixedNow = time.Date(2025, 3, 26, 10, 0, 0, 0, time.UTC)

type memoryActivity struct {
	entries []activitylog.Entry
}

func (m *memoryActivity) Record(entries ...activitylog.Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

type fixture struct {
	repo     *store.Repository
	applier  *Applier
	hook     *test.Hook
	activity *memoryActivity
}

func newFixture(t *testing.T, accts []model.Account, cands []model.Candidate) *fixture {
	t.Helper()
	return newFixtureKV(t, store.NewMemory(), accts, cands)
}

func newFixtureKV(t *testing.T, kv store.KV, accts []model.Account, cands []model.Candidate) *fixture {
	t.Helper()
	repo := store.NewRepository(kv)
	require.NoError(t, repo.Update(context.Background(), func(s *store.Snapshot) error {
		s.Accounts = accts
		s.Candidates = cands
		return nil
	}))
	log, hook := test.NewNullLogger()
	act := &memoryActivity{}
	return &fixture{
		repo:     repo,
		applier:  NewApplier(repo, log, Config{Activity: act, Now: func() time.Time { return fixedNow }}),
		hook:     hook,
		activity: act,
	}
}

func (f *fixture) snapshot(t *testing.T) *store.Snapshot {
	t.Helper()
	s, err := f.repo.Load(context.Background())
	require.NoError(t, err)
	return s
}

func (f *fixture) account(t *testing.T, digits string) model.Account {
	t.Helper()
	for _, a := range f.snapshot(t).Accounts {
		if a.LastFourDigits == digits {
			return a
		}
	}
	t.Fatalf("account %s not found", digits)
	return model.Account{}
}

func (f *fixture) candidate(t *testing.T, id string) model.Candidate {
	t.Helper()
	c, ok := candidates.Find(f.snapshot(t).Candidates, id)
	require.True(t, ok, "candidate %s", id)
	return c
}

func hdfc() []model.Account {
	return []model.Account{
		{Type: model.AccountTypeBank, Name: "HDFC", LastFourDigits: "2792", InitialBalance: "5000.00", BankAddress: "HDFCBK"},
	}
}

func joint() []model.Account {
	return []model.Account{
		{Type: model.AccountTypeBank, Name: "A", LastFourDigits: "1111", InitialBalance: "1000.00"},
		{Type: model.AccountTypeBank, Name: "B", LastFourDigits: "2222", InitialBalance: "1000.00", LinkedTo: "1111"},
		{Type: model.AccountTypeOther, Name: "C", LastFourDigits: "3333", InitialBalance: "10.00"},
	}
}

func ready(id, digits string, dir model.Direction, amount string) model.Candidate {
	return model.Candidate{
		ID:             id,
		RawMessage:     "sms " + id,
		LastFourDigits: digits,
		Direction:      dir,
		EditableAmount: amount,
		Recipient:      "Someone",
		Category:       "Misc",
		Timestamp:      "1718000000000",
	}
}

func TestApply_Example(t *testing.T) {
	rules := extract.Compile(hdfc(), extract.Options{})
	c, out := rules.Extract(model.Message{
		ID:        "1042",
		Address:   "HDFCBK",
		Body:      "Rs.1,200.50 spent on card XX2792 At: CoffeeShop",
		Timestamp: "1718000000000",
	})
	require.Equal(t, extract.Kept, out)

	f := newFixture(t, hdfc(), []model.Candidate{c})
	ctx := context.Background()

	_, err := f.applier.Edit(ctx, "1042", candidates.FieldCategory, "Food")
	require.NoError(t, err)

	res, err := f.applier.Apply(ctx, "1042")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "3799.50", model.FormatAmount(res.Balance))

	assert.Equal(t, "3799.50", f.account(t, "2792").InitialBalance)
	assert.True(t, f.candidate(t, "1042").IsApplied)
	assert.True(t, f.candidate(t, "1042").IsRead)

	snap := f.snapshot(t)
	require.Len(t, snap.History, 1)
	h := snap.History[0]
	assert.Equal(t, "1042", h.ID)
	assert.Equal(t, model.Debit, h.Direction)
	assert.Equal(t, "1200.50", h.Amount)
	assert.Equal(t, "Coffeeshop", h.Recipient)
	assert.Equal(t, "Food", h.Category)
	assert.Equal(t, "HDFC", h.AccountName)
	assert.Equal(t, "2792", h.LastFourDigits)
	assert.Equal(t, "1718000000000", h.Timestamp)

	assert.Equal(t, []string{"CoffeeShop"}, snap.Suggestions.Recipients)
	assert.Equal(t, []string{"Food"}, snap.Suggestions.Categories)

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, activitylog.ActionApply, f.activity.entries[0].Action)
	assert.Equal(t, "-1200.50", f.activity.entries[0].Amount)
	assert.Equal(t, fixedNow, f.activity.entries[0].Timestamp)
}

func TestApply_LinkedMirroring(t *testing.T) {
	f := newFixture(t, joint(), []model.Candidate{
		ready("credit-a", "1111", model.Credit, "100"),
		ready("debit-b", "2222", model.Debit, "50.25"),
	})
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, "credit-a")
	require.NoError(t, err)
	assert.Equal(t, "1100.00", f.account(t, "1111").InitialBalance)
	assert.Equal(t, "1100.00", f.account(t, "2222").InitialBalance)
	assert.Equal(t, "10.00", f.account(t, "3333").InitialBalance)

	res, err := f.applier.Apply(ctx, "debit-b")
	require.NoError(t, err)
	assert.Equal(t, "1111", res.Primary.LastFourDigits)
	assert.Equal(t, "1049.75", f.account(t, "1111").InitialBalance)
	assert.Equal(t, "1049.75", f.account(t, "2222").InitialBalance)

	h := f.snapshot(t).History[1]
	assert.Equal(t, "A", h.AccountName, "history names the primary")
	assert.Equal(t, "1111", h.LastFourDigits)
}

func TestApply_ValidationOrder(t *testing.T) {
	c := model.Candidate{ID: "x", LastFourDigits: "2792", Direction: model.Debit, EditableAmount: "abc"}
	f := newFixture(t, hdfc(), []model.Candidate{c})
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, "x")
	assert.ErrorIs(t, err, ErrMissingRecipient)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, candidates.FieldRecipient, verr.Field)
	assert.Equal(t, "x", verr.CandidateID)

	_, err = f.applier.Edit(ctx, "x", candidates.FieldRecipient, "  Metro ")
	require.NoError(t, err)
	_, err = f.applier.Apply(ctx, "x")
	assert.ErrorIs(t, err, ErrMissingCategory)

	_, err = f.applier.Edit(ctx, "x", candidates.FieldCategory, "Transport")
	require.NoError(t, err)
	_, err = f.applier.Apply(ctx, "x")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Equal(t, "5000.00", f.account(t, "2792").InitialBalance)
	assert.False(t, f.candidate(t, "x").IsApplied)
	assert.Empty(t, f.snapshot(t).History)
	assert.Empty(t, f.activity.entries)

	_, err = f.applier.Edit(ctx, "x", candidates.FieldAmount, "1,000")
	require.NoError(t, err)
	_, err = f.applier.Apply(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "4000.00", f.account(t, "2792").InitialBalance)
}

func TestApply_Unresolved(t *testing.T) {
	f := newFixture(t, hdfc(), []model.Candidate{ready("stale", "9999", model.Debit, "10")})

	res, err := f.applier.Apply(context.Background(), "stale")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, res.Outcome)
	assert.Equal(t, "unresolved", res.Outcome.String())

	assert.False(t, f.candidate(t, "stale").IsApplied)
	assert.Equal(t, "5000.00", f.account(t, "2792").InitialBalance)
	assert.Empty(t, f.snapshot(t).History)

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "stale", entry.Data["candidate_id"])
}

func TestApply_NotFoundAndAlreadyApplied(t *testing.T) {
	applied := ready("done", "2792", model.Debit, "10")
	applied.IsApplied = true
	f := newFixture(t, hdfc(), []model.Candidate{applied})

	_, err := f.applier.Apply(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCandidateNotFound)

	_, err = f.applier.Apply(context.Background(), "done")
	assert.ErrorIs(t, err, ErrAlreadyApplied)
}

func TestApply_RoundsPerTransaction(t *testing.T) {
	accts := []model.Account{{Type: model.AccountTypeBank, Name: "Z", LastFourDigits: "0001", InitialBalance: "0.00"}}
	var cands []model.Candidate
	for i := 0; i < 10; i++ {
		cands = append(cands, ready(string(rune('a'+i)), "0001", model.Credit, "0.005"))
	}
	f := newFixture(t, accts, cands)

	for _, c := range cands {
		_, err := f.applier.Apply(context.Background(), c.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, "0.10", f.account(t, "0001").InitialBalance)
}

func TestApply_BalanceConservation(t *testing.T) {
	deltas := []struct {
		dir    model.Direction
		amount string
	}{
		{model.Debit, "19.99"}, {model.Credit, "250"}, {model.Debit, "0.01"}, {model.Debit, "1,000.10"},
	}
	var cands []model.Candidate
	for i, d := range deltas {
		cands = append(cands, ready(string(rune('p'+i)), "2792", d.dir, d.amount))
	}
	f := newFixture(t, hdfc(), cands)
	for _, c := range cands {
		_, err := f.applier.Apply(context.Background(), c.ID)
		require.NoError(t, err)
	}
	// 5000 - 19.99 + 250 - 0.01 - 1000.10
	assert.Equal(t, "4229.90", f.account(t, "2792").InitialBalance)
}

func TestApply_ManualEntryRewrite(t *testing.T) {
	accts := hdfc()
	accts[0].ManualTransaction = true
	f := newFixture(t, accts, nil)
	ctx := context.Background()

	m, err := f.applier.AddManual(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2792", m.LastFourDigits)

	_, err = f.applier.Edit(ctx, m.ID, candidates.FieldRecipient, "Landlord")
	require.NoError(t, err)
	_, err = f.applier.Edit(ctx, m.ID, candidates.FieldCategory, "Rent")
	require.NoError(t, err)
	_, err = f.applier.Edit(ctx, m.ID, candidates.FieldAmount, "15000")
	require.NoError(t, err)

	_, err = f.applier.Apply(ctx, m.ID)
	require.NoError(t, err)

	got := f.candidate(t, m.ID)
	assert.Equal(t, "Manual debit: Rs.15000.00 to Landlord for Rent", got.RawMessage)
	assert.Equal(t, "15000.00", got.ExtractedAmount.StringFixed(2))
	assert.True(t, got.IsManual())
	assert.Equal(t, "-10000.00", f.account(t, "2792").InitialBalance)
}

func TestSkip(t *testing.T) {
	f := newFixture(t, hdfc(), []model.Candidate{ready("s", "2792", model.Debit, "10")})

	require.NoError(t, f.applier.Skip(context.Background(), "s"))
	assert.True(t, f.candidate(t, "s").IsApplied)
	assert.Equal(t, "5000.00", f.account(t, "2792").InitialBalance)
	assert.Empty(t, f.snapshot(t).History)

	assert.ErrorIs(t, f.applier.Skip(context.Background(), "s"), ErrAlreadyApplied)
	assert.ErrorIs(t, f.applier.Skip(context.Background(), "zz"), ErrCandidateNotFound)

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, activitylog.ActionSkip, f.activity.entries[0].Action)
}

func TestReverse_RoundTrip(t *testing.T) {
	f := newFixture(t, joint(), []model.Candidate{ready("r", "2222", model.Debit, "333.33")})
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "666.67", f.account(t, "2222").InitialBalance)

	rev, err := f.applier.Reverse(ctx, "r")
	require.NoError(t, err)
	assert.True(t, rev.BalanceRestored)
	assert.True(t, rev.CandidateRestored)
	assert.Equal(t, "1000.00", model.FormatAmount(rev.Balance))

	assert.Equal(t, "1000.00", f.account(t, "1111").InitialBalance)
	assert.Equal(t, "1000.00", f.account(t, "2222").InitialBalance)
	assert.Empty(t, f.snapshot(t).History)

	c := f.candidate(t, "r")
	assert.False(t, c.IsApplied)
	assert.False(t, c.IsRead)
	pending, err := f.applier.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r", pending[0].ID)

	assert.Equal(t, activitylog.ActionReverse, f.activity.entries[1].Action)
	assert.Equal(t, "333.33", f.activity.entries[1].Amount)
}

func TestReverse_CandidateGone(t *testing.T) {
	f := newFixture(t, hdfc(), []model.Candidate{ready("g", "2792", model.Credit, "5")})
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, "g")
	require.NoError(t, err)
	require.NoError(t, f.repo.Update(ctx, func(s *store.Snapshot) error {
		s.Candidates = nil
		return nil
	}))

	rev, err := f.applier.Reverse(ctx, "g")
	require.NoError(t, err)
	assert.True(t, rev.BalanceRestored)
	assert.False(t, rev.CandidateRestored)
	assert.Equal(t, "5000.00", f.account(t, "2792").InitialBalance)
}

func TestReverse_AccountGone(t *testing.T) {
	f := newFixture(t, hdfc(), []model.Candidate{ready("g", "2792", model.Credit, "5")})
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, "g")
	require.NoError(t, err)
	require.NoError(t, f.repo.Update(ctx, func(s *store.Snapshot) error {
		s.Accounts = nil
		return nil
	}))

	rev, err := f.applier.Reverse(ctx, "g")
	require.NoError(t, err)
	assert.False(t, rev.BalanceRestored)
	assert.True(t, rev.CandidateRestored)
	assert.Empty(t, f.snapshot(t).History)
	assert.False(t, f.candidate(t, "g").IsApplied)
}

func TestReverse_NotFound(t *testing.T) {
	f := newFixture(t, hdfc(), nil)
	_, err := f.applier.Reverse(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrHistoryNotFound)
}

func TestEdit_SuggestsIconFromFirstMatch(t *testing.T) {
	f := newFixture(t, hdfc(), []model.Candidate{{ID: "e", LastFourDigits: "2792", Direction: model.Debit}})
	ctx := context.Background()
	require.NoError(t, f.repo.Update(ctx, func(s *store.Snapshot) error {
		s.History = []model.HistoryRecord{
			{ID: "h1", Category: "Food", CategoryIcon: "coffee", Amount: "1.00"},
			{ID: "h2", Category: "Food", CategoryIcon: "pizza", Amount: "1.00"},
		}
		return nil
	}))

	c, err := f.applier.Edit(ctx, "e", candidates.FieldCategory, "Food")
	require.NoError(t, err)
	assert.Equal(t, "coffee", c.CategoryIcon)

	_, err = f.applier.Edit(ctx, "e", candidates.FieldCategoryIcon, "bag")
	require.NoError(t, err)
	c, err = f.applier.Edit(ctx, "e", candidates.FieldCategory, "Food")
	require.NoError(t, err)
	assert.Equal(t, "bag", c.CategoryIcon, "existing icon kept")

	_, err = f.applier.Edit(ctx, "e", candidates.FieldDirection, "sideways")
	assert.Error(t, err)
}

func TestTrim(t *testing.T) {
	c := ready("t", "2792", model.Debit, "12.5")
	c.Recipient = "Big Coffee"
	f := newFixture(t, hdfc(), []model.Candidate{c})

	got, err := f.applier.Trim(context.Background(), "t", candidates.FieldRecipient)
	require.NoError(t, err)
	assert.Equal(t, "Big", got.Recipient)
	assert.Equal(t, "Big", f.candidate(t, "t").Recipient)

	got, err = f.applier.Trim(context.Background(), "t", candidates.FieldAmount)
	require.NoError(t, err)
	assert.Equal(t, "12.", got.EditableAmount)
}

func TestRetarget(t *testing.T) {
	f := newFixture(t, hdfc(), []model.Candidate{ready("stale", "9999", model.Debit, "10")})
	ctx := context.Background()

	_, err := f.applier.Retarget(ctx, "stale", "0001")
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)

	c, err := f.applier.Retarget(ctx, "stale", "2792")
	require.NoError(t, err)
	assert.Equal(t, "2792", c.LastFourDigits)

	res, err := f.applier.Apply(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "4990.00", f.account(t, "2792").InitialBalance)

	_, err = f.applier.Retarget(ctx, "stale", "2792")
	assert.ErrorIs(t, err, ErrAlreadyApplied)
}

func TestAddManual(t *testing.T) {
	f := newFixture(t, nil, nil)
	_, err := f.applier.AddManual(context.Background())
	assert.ErrorIs(t, err, ErrNoAccounts)

	f = newFixture(t, hdfc(), []model.Candidate{ready("old", "2792", model.Debit, "1")})
	m, err := f.applier.AddManual(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", m.LastFourDigits, "no account flagged")

	pending, err := f.applier.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, m.ID, pending[1].ID, "appended at the end")
}

func TestPostManual(t *testing.T) {
	accts := hdfc()
	accts[0].ManualTransaction = true
	f := newFixture(t, accts, nil)

	res, err := f.applier.PostManual(context.Background(), ManualEntry{Recipient: "landlord", Category: "Rent", Amount: "15,000"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "-10000.00", model.FormatAmount(res.Balance))
	assert.Equal(t, "Landlord", res.Record.Recipient)

	c := f.candidate(t, res.Record.ID)
	assert.True(t, c.IsApplied)
	assert.Equal(t, "Manual debit: Rs.15000.00 to landlord for Rent", c.RawMessage)
	require.Len(t, f.snapshot(t).History, 1)

	var actions []string
	for _, e := range f.activity.entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{activitylog.ActionManual, activitylog.ActionApply}, actions)
}

func TestPostManual_FailureWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		accts   []model.Account
		entry   ManualEntry
		wantErr error
	}{
		{"no accounts", nil, ManualEntry{Recipient: "A", Category: "B", Amount: "5"}, ErrNoAccounts},
		{"no manual account", hdfc(), ManualEntry{Recipient: "A", Category: "B", Amount: "5"}, ErrNoManualAccount},
		{"unknown account", hdfc(), ManualEntry{Account: "9999", Recipient: "A", Category: "B", Amount: "5"}, accounts.ErrAccountNotFound},
		{"missing category", hdfc(), ManualEntry{Account: "2792", Recipient: "A", Amount: "5"}, ErrMissingCategory},
		{"bad amount", hdfc(), ManualEntry{Account: "2792", Recipient: "A", Category: "B", Amount: "abc"}, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.accts, nil)
			_, err := f.applier.PostManual(context.Background(), tt.entry)
			require.ErrorIs(t, err, tt.wantErr)

			s := f.snapshot(t)
			assert.Empty(t, s.Candidates)
			assert.Empty(t, s.History)
			if len(tt.accts) > 0 {
				assert.Equal(t, "5000.00", f.account(t, "2792").InitialBalance)
			}
			assert.Empty(t, f.activity.entries)
		})
	}

	f := newFixture(t, hdfc(), nil)
	_, err := f.applier.PostManual(context.Background(), ManualEntry{Account: "2792", Recipient: "A", Category: "B", Amount: "5", Direction: "refund"})
	require.Error(t, err)
	assert.Empty(t, f.snapshot(t).Candidates)
}

type brokenKV struct {
	*store.Memory
	broken bool
}

func (b *brokenKV) SetMany(ctx context.Context, entries map[string][]byte) error {
	if b.broken {
		return &store.Error{Backend: "test", Op: "set", Err: errors.New("disk full")}
	}
	return b.Memory.SetMany(ctx, entries)
}

func TestApply_StorageFailure(t *testing.T) {
	kv := &brokenKV{Memory: store.NewMemory()}
	f := newFixtureKV(t, kv, hdfc(), []model.Candidate{ready("s", "2792", model.Debit, "10")})
	kv.broken = true

	_, err := f.applier.Apply(context.Background(), "s")
	require.Error(t, err)
	assert.True(t, store.IsStorageFailure(err))

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)

	kv.broken = false
	assert.Equal(t, "5000.00", f.account(t, "2792").InitialBalance)
	assert.False(t, f.candidate(t, "s").IsApplied)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1200.50", "1200.50", true},
		{" 1,200.5 ", "1200.50", true},
		{"0.005", "0.01", true},
		{"0", "", false},
		{"-5", "", false},
		{"0.004", "", false},
		{"0.0049", "", false},
		{"0.015", "0.02", true},
		{"99.999", "100.00", true},
		{"+5", "5.00", true},
		{"1e3", "", false},
		{"1e900000000", "", false},
		{"1.5E2", "", false},
		{"", "", false},
		{"abc", "", false},
		{"12.3.4", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got.StringFixed(2), tt.in)
		}
	}
}

func TestNormalizeRecipient(t *testing.T) {
	tests := map[string]string{
		"coffee SHOP 12": "Coffee Shop",
		"CoffeeShop":     "Coffeeshop",
		"amazon pay":     "Amazon Pay",
		"1234":           "",
		"":               "",
		"élan café":      "Élan Café",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeRecipient(in), in)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{CandidateID: "9", Field: candidates.FieldAmount, Err: ErrInvalidAmount}
	assert.Equal(t, "candidate 9: amount: amount must be a number greater than zero", err.Error())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
