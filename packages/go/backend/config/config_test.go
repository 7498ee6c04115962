package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.resolveDrivers()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverStub, cfg.GenAI.Driver)
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agrivoice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  shutdown_timeout: 3s
i18n:
  default_language: hi
  bundles_dir: /etc/agrivoice/locales
storage:
  driver: redis
voice:
  synthesizer:
    driver: command
    command: ["espeak-ng", "-v", "{voice}"]
  retry:
    max_attempts: 5
`), 0o600))

	t.Setenv("AGRIVOICE_SERVER_ADDR", ":7070")
	t.Setenv("AGRIVOICE_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("AGRIVOICE_BUNDLES_WATCH", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "hi", cfg.I18n.DefaultLanguage)
	assert.True(t, cfg.I18n.Watch)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, DriverGemini, cfg.GenAI.Driver)
	assert.Equal(t, "test-key", cfg.GenAI.APIKey)
	assert.Equal(t, []string{"espeak-ng", "-v", "{voice}"}, cfg.Voice.Synthesizer.Command)
	assert.Equal(t, 5, cfg.Voice.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestApplyEnvPrefersGeminiKey(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(mapLookup(map[string]string{
		"GOOGLE_API_KEY": "google",
		"GEMINI_API_KEY": "gemini",
	})))
	assert.Equal(t, "gemini", cfg.GenAI.APIKey)
}

func TestApplyEnvRejectsBadBool(t *testing.T) {
	t.Parallel()

	cfg := Default()
	err := cfg.ApplyEnv(mapLookup(map[string]string{"AGRIVOICE_BUNDLES_WATCH": "sometimes"}))
	require.Error(t, err)
}

func TestValidateCollectsErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Server.Addr = ""
	cfg.I18n.DefaultLanguage = "fr"
	cfg.Storage.Driver = "postgres"
	cfg.GenAI.Driver = DriverGemini
	cfg.Voice.Microphone.Driver = DriverFile
	cfg.Voice.Retry.MaxAttempts = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"server.addr",
		"default_language",
		"storage.driver",
		"GEMINI_API_KEY",
		"voice.microphone.file",
		"max_attempts",
	} {
		assert.ErrorContains(t, err, want)
	}
}
