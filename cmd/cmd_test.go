package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bz888/gramfix/internal/api/server/client"
	"github.com/bz888/gramfix/internal/config"
	"github.com/bz888/gramfix/internal/prompt"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadInput(t *testing.T) {
	text, err := readInput(strings.NewReader("ignored"), []string{"she", "go", "home"})
	require.NoError(t, err)
	assert.Equal(t, "she go home", text)

	text, err = readInput(strings.NewReader("from stdin\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin\n", text)

	text, err = readInput(strings.NewReader("dash"), []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "dash", text)
}

func TestApplySettingsFlagsOnlyOverridesChanged(t *testing.T) {
	c := &cobra.Command{Use: "x"}
	addSettingsFlags(c)
	require.NoError(t, c.Flags().Parse([]string{"--tone", "formal", "--words", "40"}))

	base := prompt.DefaultSettings()
	base.Language = "spanish"
	got, err := applySettingsFlags(c, base)
	require.NoError(t, err)

	assert.Equal(t, prompt.ToneFormal, got.Tone)
	assert.Equal(t, 40, got.TargetWordCount)
	assert.Equal(t, "spanish", got.Language)
	assert.Equal(t, base.ImprovementLevel, got.ImprovementLevel)

	bad := &cobra.Command{Use: "y"}
	addSettingsFlags(bad)
	require.NoError(t, bad.Flags().Parse([]string{"--level", "extreme"}))
	_, err = applySettingsFlags(bad, prompt.DefaultSettings())
	assert.Error(t, err)
}

func TestCorrectEndToEndWithLocalGateway(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req client.OllamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content, "she go home")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Here's the corrected text: \"She goes home.\""},"done":true}`))
	}))
	defer provider.Close()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GRAMFIX_PROVIDER", "ollama")
	t.Setenv("GRAMFIX_BASE_URL", provider.URL)
	t.Setenv("GRAMFIX_STORE_PATH", filepath.Join(dir, "state.json"))
	configFlag := "--config=" + filepath.Join(dir, "missing.yaml")

	_, err := run(t, "", "correct", configFlag, "--local", "she go home")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API Key missing")

	_, err = run(t, "", "key", "set", configFlag, "local-key")
	require.NoError(t, err)

	out, err := run(t, "", "key", "show", configFlag)
	require.NoError(t, err)
	assert.Equal(t, "*****-key\n", out)

	out, err = run(t, "", "correct", configFlag, "--local", "she go home")
	require.NoError(t, err)
	assert.Equal(t, "She goes home.\n", out)

	out, err = run(t, "", "history", "list", configFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "- she go home")
	assert.Contains(t, out, "+ She goes home.")

	_, err = run(t, "", "history", "clear", configFlag)
	require.NoError(t, err)
	out, err = run(t, "", "history", "list", configFlag)
	require.NoError(t, err)
	assert.Equal(t, "No corrections yet.\n", out)
}

func TestStartGatewayDialsTheBoundAddress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url, err := startGateway(ctx, config.DefaultConfig(), "127.0.0.1:0")
	require.NoError(t, err)
	assert.NotEqual(t, "http://localhost:8080", url)

	resp, err := http.Get(url + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartGatewayReportsPortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err = startGateway(ctx, config.DefaultConfig(), busy.Addr().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start gateway")
}

func TestDialURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9090", dialURL(&net.TCPAddr{IP: net.IPv6unspecified, Port: 9090}))
	assert.Equal(t, "http://localhost:9090", dialURL(&net.TCPAddr{Port: 9090}))
	assert.Equal(t, "http://127.0.0.1:9090", dialURL(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9090}))
}
