package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bz888/gramfix/internal/api/server/client"
	"github.com/bz888/gramfix/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  provider: openai
  model: gpt-4o-mini
  upstream_timeout: 30s
client:
  store: sqlite
  store_path: /tmp/gramfix.db
`), 0o600))
	t.Setenv("GRAMFIX_PORT", "9191")
	t.Setenv("GRAMFIX_GATEWAY_URL", "http://gateway:9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Server.Provider)
	assert.Equal(t, 30*time.Second, cfg.Server.UpstreamTimeout)
	assert.Equal(t, StoreSQLite, cfg.Client.Store)
	assert.Equal(t, "http://gateway:9191", cfg.Client.GatewayURL)

	sc := cfg.ServerConfig()
	assert.Equal(t, client.ProviderOpenAI, sc.Provider)
	assert.Equal(t, "gpt-4o-mini", sc.Model)
	assert.Equal(t, 9191, sc.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GRAMFIX_PROVIDER=ollama\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GRAMFIX_PROVIDER") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Server.Provider)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("GRAMFIX_PORT", "eighty")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("GRAMFIX_PORT", "8080")
	t.Setenv("GRAMFIX_PROVIDER", "bard")
	_, err = Load("")
	assert.Error(t, err)

	t.Setenv("GRAMFIX_PROVIDER", "gemini")
	t.Setenv("GRAMFIX_STORE", "cloud")
	_, err = Load("")
	assert.Error(t, err)
}

func TestOpenStoreBackends(t *testing.T) {
	for _, kind := range []StoreKind{StoreMemory, StoreFile, StoreSQLite} {
		t.Run(string(kind), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Client.Store = kind
			cfg.Client.StorePath = filepath.Join(t.TempDir(), "state")

			store, closeStore, err := cfg.OpenStore()
			require.NoError(t, err)
			defer closeStore()

			require.NoError(t, store.SaveCredential("key"))
			key, ok, err := store.LoadCredential()
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "key", key)
			assert.Equal(t, prompt.DefaultSettings(), store.LoadSettings())
		})
	}
}
