package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bz888/gramfix/internal/prompt"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestRecordCorrectionKeepsTenNewestFirst(t *testing.T) {
	store := NewStore(NewMemoryKV(), WithClock(fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))))
	settings := prompt.DefaultSettings()

	for i := 1; i <= 11; i++ {
		_, err := store.RecordCorrection(fmt.Sprintf("text %d", i), fmt.Sprintf("Text %d.", i), settings)
		require.NoError(t, err)
	}

	history := store.LoadHistory()
	require.Len(t, history, MaxHistory)
	assert.Equal(t, "text 11", history[0].Original)
	assert.Equal(t, "text 2", history[9].Original)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i-1].ID, history[i].ID)
	}
}

func TestRecordEntryFields(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(NewMemoryKV(), WithClock(func() time.Time { return now }))
	settings := prompt.Settings{
		Tone:             prompt.ToneFormal,
		Language:         "french",
		ImprovementLevel: prompt.LevelHeavy,
		TargetWordCount:  50,
		ShowExplanations: true,
	}

	entry, err := store.RecordEntry("i has a apple", "I have an apple.", "Fixed verb agreement.", settings)
	require.NoError(t, err)

	want := HistoryEntry{
		ID:          now.UnixMilli(),
		Original:    "i has a apple",
		Corrected:   "I have an apple.",
		Explanation: "Fixed verb agreement.",
		Settings:    settings,
		Timestamp:   "2024-05-01T12:00:00Z",
	}
	assert.Empty(t, cmp.Diff(want, entry))
	assert.Empty(t, cmp.Diff([]HistoryEntry{want}, store.LoadHistory()))
	assert.True(t, entry.Time().Equal(now))
}

func TestRecordCorrectionIDsStrictlyIncreaseOnSameInstant(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(NewMemoryKV(), WithClock(func() time.Time { return now }))

	first, err := store.RecordCorrection("a", "A", prompt.DefaultSettings())
	require.NoError(t, err)
	second, err := store.RecordCorrection("b", "B", prompt.DefaultSettings())
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
}

func TestLoadHistoryEmptyAndCorrupt(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv)

	assert.Equal(t, []HistoryEntry{}, store.LoadHistory())

	require.NoError(t, kv.Set(historyKey, "{not json"))
	assert.Equal(t, []HistoryEntry{}, store.LoadHistory())

	_, err := store.RecordCorrection("x", "X", prompt.DefaultSettings())
	require.NoError(t, err)
	assert.Len(t, store.LoadHistory(), 1)
}

// lockedKV is a KV without Update whose reads can be made to fail.
type lockedKV struct {
	kv      *MemoryKV
	failGet bool
}

func (l *lockedKV) Get(key string) (string, bool, error) {
	if l.failGet {
		return "", false, errors.New("database is locked")
	}
	return l.kv.Get(key)
}

func (l *lockedKV) Set(key, value string) error { return l.kv.Set(key, value) }
func (l *lockedKV) Delete(key string) error     { return l.kv.Delete(key) }

func TestRecordCorrectionKeepsHistoryWhenReadFails(t *testing.T) {
	kv := &lockedKV{kv: NewMemoryKV()}
	store := NewStore(kv, WithClock(fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))))
	settings := prompt.DefaultSettings()

	for i := 1; i <= 9; i++ {
		_, err := store.RecordCorrection(fmt.Sprintf("text %d", i), fmt.Sprintf("Text %d.", i), settings)
		require.NoError(t, err)
	}

	kv.failGet = true
	_, err := store.RecordCorrection("text 10", "Text 10.", settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")

	kv.failGet = false
	history := store.LoadHistory()
	require.Len(t, history, 9)
	assert.Equal(t, "text 9", history[0].Original)
}

func TestRecordCorrectionAcrossFileKVHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	const writers, perWriter = 4, 2

	stores := make([]*Store, writers)
	for i := range stores {
		kv, err := NewFileKV(path)
		require.NoError(t, err)
		stores[i] = NewStore(kv)
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, store := range stores {
		wg.Add(1)
		go func(i int, store *Store) {
			defer wg.Done()
			<-start
			for j := 0; j < perWriter; j++ {
				_, err := store.RecordCorrection(fmt.Sprintf("w%d-%d", i, j), "ok", prompt.DefaultSettings())
				assert.NoError(t, err)
			}
		}(i, store)
	}
	close(start)
	wg.Wait()

	history := stores[0].LoadHistory()
	require.Len(t, history, writers*perWriter)
	seen := make(map[int64]bool)
	for _, entry := range history {
		assert.False(t, seen[entry.ID], "duplicate id %d", entry.ID)
		seen[entry.ID] = true
	}
}

func TestClearHistory(t *testing.T) {
	store := NewStore(NewMemoryKV())
	_, err := store.RecordCorrection("x", "X", prompt.DefaultSettings())
	require.NoError(t, err)

	require.NoError(t, store.ClearHistory())
	assert.Empty(t, store.LoadHistory())
}

func TestCredentialLifecycle(t *testing.T) {
	store := NewStore(NewMemoryKV())

	_, ok, err := store.LoadCredential()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveCredential("  AIza-first  "))
	key, ok, err := store.LoadCredential()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "AIza-first", key)

	require.NoError(t, store.SaveCredential("   "))
	key, _, _ = store.LoadCredential()
	assert.Equal(t, "AIza-first", key, "blank input must not overwrite the key")

	require.NoError(t, store.SaveCredential("AIza-second"))
	key, _, _ = store.LoadCredential()
	assert.Equal(t, "AIza-second", key)

	require.NoError(t, store.ClearCredential())
	_, ok, err = store.LoadCredential()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettingsRoundTripAndDefaults(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv)

	assert.Equal(t, prompt.DefaultSettings(), store.LoadSettings())

	custom := prompt.Settings{
		Tone:             prompt.ToneCasual,
		Language:         "german",
		ImprovementLevel: prompt.LevelLight,
		TargetWordCount:  120,
	}
	require.NoError(t, store.SaveSettings(custom))
	assert.Equal(t, custom, store.LoadSettings())

	require.Error(t, store.SaveSettings(prompt.Settings{Tone: "angry"}))

	require.NoError(t, kv.Set(settingsKey, `{"tone":"angry"}`))
	assert.Equal(t, prompt.DefaultSettings(), store.LoadSettings())
}

func TestStoreOverFileKVPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "gramfix.json")

	kv, err := NewFileKV(path)
	require.NoError(t, err)
	store := NewStore(kv)
	require.NoError(t, store.SaveCredential("AIza-file"))
	_, err = store.RecordCorrection("teh cat", "The cat", prompt.DefaultSettings())
	require.NoError(t, err)

	reopened, err := NewFileKV(path)
	require.NoError(t, err)
	other := NewStore(reopened)
	key, ok, err := other.LoadCredential()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "AIza-file", key)

	history := other.LoadHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "The cat", history[0].Corrected)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "********wxyz", MaskKey("AIzaSy12wxyz"))
	assert.Equal(t, "***", MaskKey("abc"))
	assert.Equal(t, "", MaskKey(""))
}
