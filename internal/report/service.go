package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cleared-dev/smsledger/internal/store"
)

// Service builds reports from the persisted history.
type Service struct {
	repo *store.Repository
	now  func() time.Time
}

// NewService creates a Service over repo. now may be nil.
func NewService(repo *store.Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// Groups returns filtered history per account. A zero f.Now is replaced by
// the current time.
func (s *Service) Groups(ctx context.Context, f Filter) ([]Group, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if f.Now.IsZero() {
		f.Now = s.now()
	}
	return ByAccount(snap.Accounts, snap.History, f), nil
}

// Forecast projects the current month's spending.
func (s *Service) Forecast(ctx context.Context) (Outlook, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return Outlook{}, fmt.Errorf("loading history: %w", err)
	}
	return BuildForecast(snap.History, s.now()), nil
}

// Export writes the filtered history, oldest first, as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer, f Filter) (int, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading history: %w", err)
	}
	if f.Now.IsZero() {
		f.Now = s.now()
	}
	records := f.Apply(snap.History)
	if err := WriteHistory(w, records, f.Now.Location()); err != nil {
		return 0, err
	}
	return len(records), nil
}
