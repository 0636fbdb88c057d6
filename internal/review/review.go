// Package review walks the user through unapplied candidates one at a
// time. A Session is the only place that tracks position and focus; every
// mutation is delegated to the ledger and the reviewable set is reloaded
// afterwards.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/ledger"
	"github.com/cleared-dev/smsledger/internal/logging"
	"github.com/cleared-dev/smsledger/internal/model"
)

var (
	// ErrNothingToReview is returned by Open when every candidate is applied.
	ErrNothingToReview = errors.New("nothing to review")
	// ErrClosed is returned by operations that need an open session.
	ErrClosed = errors.New("review session is closed")
)

// Ledger is the subset of ledger.Applier a Session drives.
type Ledger interface {
	Pending(ctx context.Context) ([]model.Candidate, error)
	Edit(ctx context.Context, id string, field candidates.Field, value string) (model.Candidate, error)
	Trim(ctx context.Context, id string, field candidates.Field) (model.Candidate, error)
	Apply(ctx context.Context, id string) (ledger.Result, error)
	Skip(ctx context.Context, id string) error
	AddManual(ctx context.Context) (model.Candidate, error)
}

// Session is either closed or open at a position within the reviewable
// set. It is not safe for concurrent use.
type Session struct {
	ledger Ledger
	log    logrus.FieldLogger

	open  bool
	pos   int
	focus candidates.Field
	items []model.Candidate
}

// New creates a closed Session.
func New(l Ledger, log logrus.FieldLogger) *Session {
	return &Session{ledger: l, log: log}
}

// Open loads the reviewable set and moves to its first candidate.
func (s *Session) Open(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		return err
	}
	if len(s.items) == 0 {
		s.Close()
		return ErrNothingToReview
	}
	s.open = true
	s.pos = 0
	s.focus = ""
	s.log.WithField(logging.FieldCount, len(s.items)).Debug("review opened")
	return nil
}

// Close ends the session. Reopening always starts at the first candidate.
func (s *Session) Close() {
	s.open = false
	s.pos = 0
	s.focus = ""
	s.items = nil
}

// IsOpen reports whether the session is open.
func (s *Session) IsOpen() bool { return s.open }

// Position returns the zero-based index of the current candidate.
func (s *Session) Position() int { return s.pos }

// Len returns the size of the reviewable set.
func (s *Session) Len() int { return len(s.items) }

// Focused returns the field being edited, or "".
func (s *Session) Focused() candidates.Field { return s.focus }

// Items returns a copy of the reviewable set as last loaded.
func (s *Session) Items() []model.Candidate {
	return append([]model.Candidate(nil), s.items...)
}

// Current returns the candidate at the current position.
func (s *Session) Current() (model.Candidate, error) {
	if !s.open {
		return model.Candidate{}, ErrClosed
	}
	return s.items[s.pos], nil
}

// Next moves forward one candidate. It does nothing at the last one.
func (s *Session) Next() {
	if s.open && s.pos < len(s.items)-1 {
		s.pos++
		s.focus = ""
	}
}

// Prev moves back one candidate. It does nothing at the first one.
func (s *Session) Prev() {
	if s.open && s.pos > 0 {
		s.pos--
		s.focus = ""
	}
}

// Focus marks field as the one being edited.
func (s *Session) Focus(field candidates.Field) {
	if s.open {
		s.focus = field
	}
}

// Edit sets a field of the current candidate. Position is unchanged.
func (s *Session) Edit(ctx context.Context, field candidates.Field, value string) (model.Candidate, error) {
	cur, err := s.Current()
	if err != nil {
		return model.Candidate{}, err
	}
	c, err := s.ledger.Edit(ctx, cur.ID, field, value)
	if err != nil {
		return model.Candidate{}, err
	}
	s.items[s.pos] = c
	s.focus = field
	return c, nil
}

// TrimField deletes the last word (or, for the amount, the last
// character) of field. Trimming an empty field focuses it instead; a
// field trimmed down to nothing loses focus.
func (s *Session) TrimField(ctx context.Context, field candidates.Field) (model.Candidate, error) {
	cur, err := s.Current()
	if err != nil {
		return model.Candidate{}, err
	}
	if candidates.Get(cur, field) == "" {
		s.focus = field
		return cur, nil
	}
	c, err := s.ledger.Trim(ctx, cur.ID, field)
	if err != nil {
		return model.Candidate{}, err
	}
	s.items[s.pos] = c
	if candidates.Get(c, field) == "" {
		s.focus = ""
	} else {
		s.focus = field
	}
	return c, nil
}

// Skip marks the current candidate applied without posting it.
func (s *Session) Skip(ctx context.Context) error {
	cur, err := s.Current()
	if err != nil {
		return err
	}
	if err := s.ledger.Skip(ctx, cur.ID); err != nil {
		return err
	}
	return s.settle(ctx)
}

// Apply posts the current candidate. A validation failure or an
// unresolved account leaves the position where it was.
func (s *Session) Apply(ctx context.Context) (ledger.Result, error) {
	cur, err := s.Current()
	if err != nil {
		return ledger.Result{}, err
	}
	res, err := s.ledger.Apply(ctx, cur.ID)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			s.focus = verr.Field
		}
		return ledger.Result{}, err
	}
	if res.Outcome == ledger.OutcomeUnresolved {
		return res, nil
	}
	return res, s.settle(ctx)
}

// AddManual creates a blank manual entry and moves to it, opening the
// session if needed.
func (s *Session) AddManual(ctx context.Context) (model.Candidate, error) {
	c, err := s.ledger.AddManual(ctx)
	if err != nil {
		return model.Candidate{}, err
	}
	if err := s.reload(ctx); err != nil {
		return model.Candidate{}, err
	}
	s.open = true
	s.pos = len(s.items) - 1
	for i := range s.items {
		if s.items[i].ID == c.ID {
			s.pos = i
		}
	}
	s.focus = candidates.FieldRecipient
	return c, nil
}

// settle reloads after the current candidate left the reviewable set.
func (s *Session) settle(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		return err
	}
	s.focus = ""
	if len(s.items) == 0 {
		s.Close()
		return nil
	}
	if s.pos >= len(s.items) {
		s.pos = 0
	}
	return nil
}

func (s *Session) reload(ctx context.Context) error {
	items, err := s.ledger.Pending(ctx)
	if err != nil {
		return fmt.Errorf("loading reviewable candidates: %w", err)
	}
	s.items = items
	return nil
}
