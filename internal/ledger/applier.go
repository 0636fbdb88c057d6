package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/smsledger/internal/accounts"
	"github.com/cleared-dev/smsledger/internal/activitylog"
	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/logging"
	"github.com/cleared-dev/smsledger/internal/model"
	"github.com/cleared-dev/smsledger/internal/store"
)

// Outcome says what Apply did.
type Outcome int

const (
	// OutcomeApplied means balances and history were updated.
	OutcomeApplied Outcome = iota
	// OutcomeUnresolved means the candidate's account no longer exists.
	// Nothing was changed and the candidate stays reviewable.
	OutcomeUnresolved
)

func (o Outcome) String() string {
	if o == OutcomeUnresolved {
		return "unresolved"
	}
	return "applied"
}

// Result describes a successful Apply.
type Result struct {
	Outcome Outcome
	// Primary is the account whose balance changed, after the change.
	Primary model.Account
	Balance decimal.Decimal
	Amount  decimal.Decimal
	Record  model.HistoryRecord
}

// Config holds optional Applier settings.
type Config struct {
	Activity activitylog.Recorder
	// CurrencyMarker prefixes amounts in rewritten manual entry messages.
	CurrencyMarker string
	Now            func() time.Time
}

// Applier owns every mutation of candidates, balances and history. Each
// operation is one Repository.Update, so a failure leaves nothing behind.
type Applier struct {
	repo     *store.Repository
	log      logrus.FieldLogger
	activity activitylog.Recorder
	marker   string
	now      func() time.Time
}

// NewApplier creates an Applier over repo.
func NewApplier(repo *store.Repository, log logrus.FieldLogger, cfg Config) *Applier {
	a := &Applier{
		repo:     repo,
		log:      log,
		activity: cfg.Activity,
		marker:   cfg.CurrencyMarker,
		now:      cfg.Now,
	}
	if a.activity == nil {
		a.activity = activitylog.Nop{}
	}
	if a.marker == "" {
		a.marker = "Rs"
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Apply validates the candidate and posts it: the primary account's
// balance moves by the signed amount, linked accounts mirror it, the
// candidate is marked applied and a history record is appended.
func (a *Applier) Apply(ctx context.Context, id string) (Result, error) {
	var res Result
	err := a.repo.Update(ctx, func(s *store.Snapshot) error {
		i := candidates.Index(s.Candidates, id)
		if i < 0 {
			return fmt.Errorf("%s: %w", id, ErrCandidateNotFound)
		}
		if s.Candidates[i].IsApplied {
			return fmt.Errorf("%s: %w", id, ErrAlreadyApplied)
		}
		var err error
		res, err = a.post(s, i)
		return err
	})
	if err != nil {
		return Result{}, a.fail("apply", id, err)
	}

	if res.Outcome == OutcomeUnresolved {
		a.log.WithFields(logrus.Fields{logging.FieldOperation: "apply", logging.FieldCandidateID: id}).
			Warn("candidate account not found, nothing applied")
		return res, nil
	}
	a.applied("apply", id, res)
	return res, nil
}

// post applies s.Candidates[i] to s. The candidate must be unapplied.
func (a *Applier) post(s *store.Snapshot, i int) (Result, error) {
	c := s.Candidates[i]
	amount, err := Validate(c)
	if err != nil {
		return Result{}, err
	}

	g := accounts.NewGraph(s.Accounts)
	primary, ok := g.Primary(c.LastFourDigits)
	if !ok {
		return Result{Outcome: OutcomeUnresolved}, nil
	}

	accts := append([]model.Account(nil), s.Accounts...)
	balance, err := accounts.Adjust(accts, primary.LastFourDigits, c.Direction.Signed(amount))
	if err != nil {
		return Result{}, err
	}
	s.Accounts = accts
	primary, _ = accounts.NewGraph(accts).Get(primary.LastFourDigits)

	if c.IsManual() {
		c.RawMessage = ManualMessage(c, a.marker, amount)
		c.ExtractedAmount = amount
	}
	c.IsApplied = true
	c.IsRead = true
	s.Candidates[i] = c

	rec := model.HistoryRecord{
		ID:             c.ID,
		Recipient:      NormalizeRecipient(c.Recipient),
		Category:       strings.TrimSpace(c.Category),
		CategoryIcon:   c.CategoryIcon,
		Amount:         model.FormatAmount(amount),
		AccountName:    primary.Name,
		LastFourDigits: primary.LastFourDigits,
		Direction:      c.Direction,
		Timestamp:      c.Timestamp,
	}
	s.History = append(s.History, rec)
	s.Suggestions.AddRecipient(strings.TrimSpace(c.Recipient))
	s.Suggestions.AddCategory(strings.TrimSpace(c.Category))

	return Result{Outcome: OutcomeApplied, Primary: primary, Balance: balance, Amount: amount, Record: rec}, nil
}

func (a *Applier) applied(op, id string, res Result) {
	a.log.WithFields(logrus.Fields{
		logging.FieldOperation:   op,
		logging.FieldCandidateID: id,
		logging.FieldAccount:     res.Primary.LastFourDigits,
		"balance":                model.FormatAmount(res.Balance),
	}).Info("transaction applied")
	a.record(activitylog.Entry{
		Action:      activitylog.ActionApply,
		CandidateID: id,
		Account:     res.Primary.LastFourDigits,
		Amount:      model.FormatAmount(res.Record.Direction.Signed(res.Amount)),
		Details:     res.Record.Recipient + ", " + res.Record.Category,
	})
}

// Skip marks the candidate applied without touching balances or history.
func (a *Applier) Skip(ctx context.Context, id string) error {
	err := a.repo.Update(ctx, func(s *store.Snapshot) error {
		return candidates.Edit(s.Candidates, id, func(c *model.Candidate) error {
			c.IsApplied = true
			return nil
		})
	})
	if err != nil {
		return a.fail("skip", id, err)
	}
	a.log.WithFields(logrus.Fields{logging.FieldOperation: "skip", logging.FieldCandidateID: id}).Info("transaction skipped")
	a.record(activitylog.Entry{Action: activitylog.ActionSkip, CandidateID: id})
	return nil
}

func (a *Applier) fail(op, id string, err error) error {
	if store.IsStorageFailure(err) {
		a.log.WithFields(logrus.Fields{logging.FieldOperation: op, logging.FieldCandidateID: id}).WithError(err).Error("storage failure")
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func (a *Applier) record(e activitylog.Entry) {
	e.Timestamp = a.now()
	if err := a.activity.Record(e); err != nil {
		a.log.WithError(err).Warn("writing activity log")
	}
}
