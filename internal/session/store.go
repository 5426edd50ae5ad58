package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bz888/gramfix/internal/logger"
	"github.com/bz888/gramfix/internal/prompt"
)

const (
	credentialKey = "gemini_api_key"
	historyKey    = "grammar_history"
	settingsKey   = "grammar_settings"

	// MaxHistory is the number of corrections kept.
	MaxHistory = 10
)

var log = logger.NewLogger("session")

// HistoryEntry is one completed correction.
type HistoryEntry struct {
	ID          int64           `json:"id"`
	Original    string          `json:"original"`
	Corrected   string          `json:"corrected"`
	Explanation string          `json:"explanation,omitempty"`
	Settings    prompt.Settings `json:"settings"`
	Timestamp   string          `json:"timestamp"`
}

// Time parses the entry's timestamp, returning the zero time when it is malformed.
func (e HistoryEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

type Option func(*Store)

// WithClock replaces the time source used for entry ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store owns the credential, settings and history kept in a KV.
type Store struct {
	kv     KV
	now    func() time.Time
	mu     sync.Mutex
	lastID int64
}

func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordCorrection prepends a new entry to the history, keeping at most
// MaxHistory entries.
func (s *Store) RecordCorrection(original, corrected string, settings prompt.Settings) (HistoryEntry, error) {
	return s.RecordEntry(original, corrected, "", settings)
}

// RecordEntry is RecordCorrection with an explanation of the changes. A
// history that cannot be read is left as it is and the error returned.
func (s *Store) RecordEntry(original, corrected, explanation string, settings prompt.Settings) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var entry HistoryEntry
	err := s.update(historyKey, func(raw string, ok bool) (string, error) {
		history := decodeHistory(raw, ok)

		id := now.UnixMilli()
		if id <= s.lastID {
			id = s.lastID + 1
		}
		if len(history) > 0 && history[0].ID >= id {
			id = history[0].ID + 1
		}

		entry = HistoryEntry{
			ID:          id,
			Original:    original,
			Corrected:   corrected,
			Explanation: explanation,
			Settings:    settings,
			Timestamp:   now.UTC().Format(time.RFC3339Nano),
		}

		history = append([]HistoryEntry{entry}, history...)
		if len(history) > MaxHistory {
			history = history[:MaxHistory]
		}

		out, err := json.Marshal(history)
		if err != nil {
			return "", fmt.Errorf("failed to encode history: %w", err)
		}
		return string(out), nil
	})
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("failed to save history: %w", err)
	}
	s.lastID = entry.ID
	return entry, nil
}

// update runs fn as one read-modify-write when the backend supports it, and as
// a Get followed by a Set otherwise.
func (s *Store) update(key string, fn UpdateFunc) error {
	if u, ok := s.kv.(Updater); ok {
		return u.Update(key, fn)
	}
	old, found, err := s.kv.Get(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	v, err := fn(old, found)
	if err != nil {
		return err
	}
	return s.kv.Set(key, v)
}

// LoadHistory returns the saved entries, newest first. A history that cannot
// be read is reported as empty.
func (s *Store) LoadHistory() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(historyKey)
	if err != nil {
		log.Warn("Failed to read history: ", err)
		return []HistoryEntry{}
	}
	return decodeHistory(raw, ok)
}

// decodeHistory treats a missing or corrupt value as no history.
func decodeHistory(raw string, ok bool) []HistoryEntry {
	if !ok || raw == "" {
		return []HistoryEntry{}
	}

	var history []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		log.Warn("Discarding corrupt history: ", err)
		return []HistoryEntry{}
	}
	if history == nil {
		history = []HistoryEntry{}
	}
	return history
}

func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(historyKey); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// SaveCredential stores the trimmed key, replacing any previous one. A blank
// key leaves the stored credential untouched.
func (s *Store) SaveCredential(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if err := s.kv.Set(credentialKey, key); err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

func (s *Store) LoadCredential() (string, bool, error) {
	key, ok, err := s.kv.Get(credentialKey)
	if err != nil {
		return "", false, fmt.Errorf("failed to read api key: %w", err)
	}
	if !ok || strings.TrimSpace(key) == "" {
		return "", false, nil
	}
	return key, true, nil
}

// MaskKey hides all but the last four characters of an API key.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func (s *Store) ClearCredential() error {
	if err := s.kv.Delete(credentialKey); err != nil {
		return fmt.Errorf("failed to clear api key: %w", err)
	}
	return nil
}

func (s *Store) SaveSettings(settings prompt.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.kv.Set(settingsKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// LoadSettings returns the saved settings, or the defaults when none are
// saved or the saved value cannot be used.
func (s *Store) LoadSettings() prompt.Settings {
	raw, ok, err := s.kv.Get(settingsKey)
	if err != nil {
		log.Warn("Failed to read settings: ", err)
		return prompt.DefaultSettings()
	}
	if !ok {
		return prompt.DefaultSettings()
	}

	settings := prompt.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		log.Warn("Discarding corrupt settings: ", err)
		return prompt.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		log.Warn("Discarding invalid settings: ", err)
		return prompt.DefaultSettings()
	}
	return settings
}
