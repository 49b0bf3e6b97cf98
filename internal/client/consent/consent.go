// Package consent stores the visitor's cookie-consent decision.
package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mitaict-site/internal/client/storage"
)

// Choice is the consent state that produced a Record.
type Choice string

const (
	ChoiceUnset         Choice = ""
	ChoiceNecessaryOnly Choice = "necessary"
	ChoiceAcceptAll     Choice = "all"
	ChoiceCustom        Choice = "custom"
)

// Category is a cookie category a feature can require.
type Category string

const (
	CategoryNecessary Category = "necessary"
	CategoryAnalytics Category = "analytics"
	CategoryMarketing Category = "marketing"
)

// Preferences are the optional categories a visitor can toggle.
type Preferences struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}

// Record is the persisted consent decision. Necessary is always true.
type Record struct {
	Necessary bool      `json:"necessary"`
	Analytics bool      `json:"analytics"`
	Marketing bool      `json:"marketing"`
	Choice    Choice    `json:"choice"`
	Timestamp time.Time `json:"timestamp"`
}

// Allows reports whether the record grants category.
func (r Record) Allows(c Category) bool {
	switch c {
	case CategoryNecessary:
		return true
	case CategoryAnalytics:
		return r.Analytics
	case CategoryMarketing:
		return r.Marketing
	default:
		return false
	}
}

// Store keeps the current consent record in memory and in durable storage.
// A save is persisted before memory or subscribers see it.
type Store struct {
	mu     sync.RWMutex
	record Record

	storage storage.Store
	now     func() time.Time
	logger  *slog.Logger

	writeMu     sync.Mutex
	subMu       sync.Mutex
	subscribers map[int]func(Record)
	nextSubID   int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Open creates a Store and loads any prior decision from st.
func Open(ctx context.Context, st storage.Store, opts ...Option) (*Store, error) {
	s := &Store{
		record:      unsetRecord(),
		storage:     st,
		now:         time.Now,
		logger:      slog.Default(),
		subscribers: make(map[int]func(Record)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func unsetRecord() Record {
	return Record{Necessary: true, Choice: ChoiceUnset}
}

// Reload re-reads the persisted record. Unreadable data counts as no decision.
func (s *Store) Reload(ctx context.Context) error {
	raw, ok, err := s.storage.Get(ctx, storage.KeyCookieConsent)
	if err != nil {
		return fmt.Errorf("failed to load consent: %w", err)
	}

	rec := unsetRecord()
	if ok && raw != "" {
		if decoded, derr := decode(raw); derr != nil {
			s.logger.Warn("ignoring unreadable consent record", slog.String("error", derr.Error()))
		} else {
			rec = decoded
		}
	}

	s.mu.Lock()
	s.record = rec
	s.mu.Unlock()
	return nil
}

func decode(raw string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, err
	}
	rec.Necessary = true

	switch rec.Choice {
	case ChoiceNecessaryOnly, ChoiceAcceptAll, ChoiceCustom:
	case ChoiceUnset:
		// Records without a choice field predate it; infer one.
		switch {
		case rec.Analytics && rec.Marketing:
			rec.Choice = ChoiceAcceptAll
		case !rec.Analytics && !rec.Marketing:
			rec.Choice = ChoiceNecessaryOnly
		default:
			rec.Choice = ChoiceCustom
		}
	default:
		return Record{}, fmt.Errorf("unknown consent choice %q", rec.Choice)
	}
	return rec, nil
}

// Current returns the current record. With no decision it grants nothing
// beyond necessary cookies.
func (s *Store) Current() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// State returns the current consent state.
func (s *Store) State() Choice {
	return s.Current().Choice
}

// ShouldPrompt is true only while no decision has been recorded.
func (s *Store) ShouldPrompt() bool {
	return s.State() == ChoiceUnset
}

// AcceptAll grants every category.
func (s *Store) AcceptAll(ctx context.Context) error {
	return s.save(ctx, ChoiceAcceptAll, Preferences{Analytics: true, Marketing: true})
}

// AcceptNecessary records an explicit necessary-only decision.
func (s *Store) AcceptNecessary(ctx context.Context) error {
	return s.save(ctx, ChoiceNecessaryOnly, Preferences{})
}

// SavePreferences records a custom decision.
func (s *Store) SavePreferences(ctx context.Context, prefs Preferences) error {
	return s.save(ctx, ChoiceCustom, prefs)
}

// Withdraw forgets the decision so the visitor is prompted again.
func (s *Store) Withdraw(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Delete(ctx, storage.KeyCookieConsent); err != nil {
		return fmt.Errorf("failed to delete consent: %w", err)
	}

	rec := unsetRecord()
	s.mu.Lock()
	s.record = rec
	s.mu.Unlock()

	s.notify(rec)
	return nil
}

func (s *Store) save(ctx context.Context, choice Choice, prefs Preferences) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec := Record{
		Necessary: true,
		Analytics: prefs.Analytics,
		Marketing: prefs.Marketing,
		Choice:    choice,
		Timestamp: s.now().UTC(),
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode consent: %w", err)
	}
	if err := s.storage.Set(ctx, storage.KeyCookieConsent, string(raw)); err != nil {
		return fmt.Errorf("failed to persist consent: %w", err)
	}

	s.mu.Lock()
	s.record = rec
	s.mu.Unlock()

	s.logger.Info("consent recorded",
		slog.String("choice", string(choice)),
		slog.Bool("analytics", rec.Analytics),
		slog.Bool("marketing", rec.Marketing))

	s.notify(rec)
	return nil
}

// Subscribe registers fn to receive every new record.
func (s *Store) Subscribe(fn func(Record)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(rec Record) {
	s.subMu.Lock()
	subs := make([]func(Record), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(rec)
	}
}
