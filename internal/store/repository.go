package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/cleared-dev/smsledger/internal/model"
)

// Snapshot is one consistent read of every collection. History is kept in
// the order records were appended.
type Snapshot struct {
	Accounts    []model.Account
	Candidates  []model.Candidate
	History     []model.HistoryRecord
	Suggestions model.Suggestions

	// baseline holds the encoding of each collection that was present when
	// the snapshot was loaded.
	baseline map[string][]byte
}

// Repository reads and writes Snapshots. Updates are serialised so that a
// read-modify-write never interleaves with another one in this process.
type Repository struct {
	kv KV
	mu sync.Mutex
}

// NewRepository wraps kv.
func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// Load reads every collection.
func (r *Repository) Load(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Update loads a snapshot, passes it to fn and persists whatever fn
// changed in one SetMany. If fn returns an error nothing is written.
func (r *Repository) Update(ctx context.Context, fn func(*Snapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	changed, err := s.changed()
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return nil
	}
	return r.kv.SetMany(ctx, changed)
}

// Close closes the underlying KV.
func (r *Repository) Close() error {
	return r.kv.Close()
}

func (r *Repository) load(ctx context.Context) (*Snapshot, error) {
	s := &Snapshot{}
	present := make(map[string]bool)

	targets := []struct {
		key string
		dst any
	}{
		{KeyAccounts, &s.Accounts},
		{KeyCandidates, &s.Candidates},
		{KeyHistory, &s.History},
		{KeySuggestions, &s.Suggestions},
	}
	for _, t := range targets {
		raw, err := r.kv.Get(ctx, t.key)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return nil, &Error{Backend: "json", Op: "decode", Key: t.key, Err: err}
		}
		present[t.key] = true
	}
	if !present[KeySuggestions] {
		s.Suggestions = SuggestionsFromHistory(s.History)
	}

	enc, err := s.encode()
	if err != nil {
		return nil, err
	}
	s.baseline = make(map[string][]byte)
	for key := range present {
		s.baseline[key] = enc[key].data
	}
	return s, nil
}

type encoded struct {
	data  []byte
	empty bool
}

func (s *Snapshot) encode() (map[string]encoded, error) {
	out := make(map[string]encoded, 4)
	put := func(key string, v any, empty bool) error {
		data, err := json.Marshal(v)
		if err != nil {
			return &Error{Backend: "json", Op: "encode", Key: key, Err: err}
		}
		out[key] = encoded{data: data, empty: empty}
		return nil
	}

	if err := put(KeyAccounts, nonNil(s.Accounts), len(s.Accounts) == 0); err != nil {
		return nil, err
	}
	if err := put(KeyCandidates, nonNil(s.Candidates), len(s.Candidates) == 0); err != nil {
		return nil, err
	}
	if err := put(KeyHistory, nonNil(s.History), len(s.History) == 0); err != nil {
		return nil, err
	}
	sugg := model.Suggestions{
		Recipients: nonNil(s.Suggestions.Recipients),
		Categories: nonNil(s.Suggestions.Categories),
	}
	if err := put(KeySuggestions, sugg, len(sugg.Recipients) == 0 && len(sugg.Categories) == 0); err != nil {
		return nil, err
	}
	return out, nil
}

// changed returns the encodings of collections that differ from the
// baseline. Collections that were absent and are still empty are skipped.
func (s *Snapshot) changed() (map[string][]byte, error) {
	enc, err := s.encode()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte)
	for key, e := range enc {
		base, present := s.baseline[key]
		switch {
		case !present && e.empty:
		case present && bytes.Equal(base, e.data):
		default:
			out[key] = e.data
		}
	}
	return out, nil
}

// SuggestionsFromHistory rebuilds the distinct recipient and category lists
// from applied history.
func SuggestionsFromHistory(history []model.HistoryRecord) model.Suggestions {
	var s model.Suggestions
	for _, h := range history {
		s.AddRecipient(h.Recipient)
		s.AddCategory(h.Category)
	}
	return s
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
