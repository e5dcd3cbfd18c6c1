package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setKey overrides one viper key for the duration of the test.
func setKey(t *testing.T, key string, value interface{}) {
	t.Helper()
	prev := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, prev) })
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultCompanyName, cfg.CompanyName)
	assert.Equal(t, DefaultLLMProvider, cfg.LLMProvider)
	assert.Equal(t, DefaultLLMModel, cfg.LLMModel)
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 10*time.Minute, cfg.CallIdleTTL())
	assert.Nil(t, cfg.Keywords())
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadOverrides(t *testing.T) {
	setKey(t, KeyListenAddr, ":9090")
	setKey(t, KeySupportPhoneNumber, "+15551234567")
	setKey(t, KeyPollIntervalSeconds, 5)
	setKey(t, KeyLLMProvider, "anthropic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "+15551234567", cfg.SupportPhoneNumber)
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.Equal(t, "anthropic", cfg.LLMProvider)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("poll_interval", func(t *testing.T) {
		setKey(t, KeyPollIntervalSeconds, 0)
		_, err := Load()
		assert.ErrorContains(t, err, "poll_interval_seconds")
	})

	t.Run("idle_ttl", func(t *testing.T) {
		setKey(t, KeyCallIdleTTLMinutes, -1)
		_, err := Load()
		assert.ErrorContains(t, err, "call_idle_ttl_minutes")
	})

	t.Run("provider", func(t *testing.T) {
		setKey(t, KeyLLMProvider, "bard")
		_, err := Load()
		assert.ErrorContains(t, err, "llm_provider")
	})
}

func TestKeywordsParsing(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty_uses_builtin", "", nil},
		{"whitespace_only", "   ", nil},
		{"single", "operator", []string{"operator"}},
		{"list_with_spaces", "operator, real person ,supervisor", []string{"operator", "real person", "supervisor"}},
		{"trailing_comma", "operator,", []string{"operator"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EscalationKeywords: tt.raw}
			assert.Equal(t, tt.want, cfg.Keywords())
		})
	}
}

func TestDataDirHelpers(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{DataDir: filepath.Join(dir, "nested", "parley")}

	require.NoError(t, cfg.EnsureDataDir())
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "cases.db"), cfg.CasesDBPath())
}
