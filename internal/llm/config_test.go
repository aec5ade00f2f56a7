package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearVendorKeys(t *testing.T) {
	t.Helper()
	for _, v := range vendors {
		t.Setenv(v.envKey, "")
	}
}

func TestDiscover_Order(t *testing.T) {
	clearVendorKeys(t)
	_, ok := Discover()
	assert.False(t, ok)

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	cfg, ok := Discover()
	require.True(t, ok)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-oai", cfg.Account.APIKey)
	assert.Equal(t, DefaultRetry, cfg.Retry)

	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, _ = Discover()
	assert.Equal(t, "gemini", cfg.Provider)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"mock needs nothing", Config{Provider: "mock"}, ""},
		{"keyed", Config{Provider: "anthropic", Account: Account{APIKey: "k"}}, ""},
		{"none", Config{}, "GEMINI_API_KEY"},
		{"unknown", Config{Provider: "ollama"}, "unknown LLM provider"},
		{"no key", Config{Provider: "openrouter"}, "MATHDRILL_LLM_OPENROUTER_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_AccountDefaults(t *testing.T) {
	acct := Config{Provider: "openrouter", Account: Account{APIKey: "k"}}.account()
	assert.Equal(t, "google/gemini-2.0-flash-001", acct.Model)
	assert.Equal(t, "https://openrouter.ai/api/v1", acct.BaseURL)

	acct = Config{Provider: "openai", Account: Account{APIKey: "k", Model: "gpt-4.1-mini"}}.account()
	assert.Equal(t, "gpt-4.1-mini", acct.Model)
	assert.Empty(t, acct.BaseURL)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "claude-haiku-4-5", DefaultModel("anthropic"))
	assert.Empty(t, DefaultModel("mock"))
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "anthropic", Account: Account{APIKey: "k"}, Retry: DefaultRetry}, nil)
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5", p.Model())

	p, err = NewProvider(context.Background(), Config{Provider: "openrouter", Account: Account{APIKey: "k"}}, &recordingEventRepo{})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-001", p.Model())

	_, err = NewProvider(context.Background(), Config{Provider: "gemini"}, nil)
	assert.Error(t, err)
}
