package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Account is the credentials and model for one provider.
type Account struct {
	APIKey  string
	Model   string // empty selects the vendor default
	BaseURL string // empty selects the vendor endpoint
}

// Config selects the provider used for recognition.
type Config struct {
	// Provider is one of Providers.
	Provider string
	Account  Account
	Retry    RetryConfig

	// Timeout bounds one recognition including retries.
	Timeout time.Duration
}

type vendor struct {
	key     string
	envKey  string
	model   string
	baseURL string
}

// vendors is ordered by discovery priority: cheapest capable vision model
// first.
var vendors = []vendor{
	{key: "gemini", envKey: "GEMINI_API_KEY", model: "gemini-2.0-flash"},
	{key: "openai", envKey: "OPENAI_API_KEY", model: "gpt-4o-mini"},
	{key: "anthropic", envKey: "ANTHROPIC_API_KEY", model: "claude-haiku-4-5"},
	{key: "openrouter", envKey: "OPENROUTER_API_KEY", model: "google/gemini-2.0-flash-001", baseURL: "https://openrouter.ai/api/v1"},
}

// Providers lists the accepted Config.Provider values.
var Providers = []string{"gemini", "openai", "anthropic", "openrouter", "mock"}

func lookupVendor(key string) (vendor, bool) {
	for _, v := range vendors {
		if v.key == key {
			return v, true
		}
	}
	return vendor{}, false
}

// DefaultModel returns the model used for provider when none is set.
func DefaultModel(provider string) string {
	v, _ := lookupVendor(provider)
	return v.model
}

// DefaultConfig returns a config with no provider selected.
func DefaultConfig() Config {
	return Config{Retry: DefaultRetry, Timeout: 15 * time.Second}
}

// Discover selects the first vendor whose standard API key variable is
// set (GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY,
// OPENROUTER_API_KEY).
func Discover() (Config, bool) {
	for _, v := range vendors {
		if k := os.Getenv(v.envKey); k != "" {
			cfg := DefaultConfig()
			cfg.Provider = v.key
			cfg.Account = Account{APIKey: k}
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks the provider is known and has a key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	if c.Provider == "" {
		return fmt.Errorf("no LLM provider configured; set one of %s", envKeys())
	}
	v, ok := lookupVendor(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider %q (have %s)", c.Provider, strings.Join(Providers, ", "))
	}
	if c.Account.APIKey == "" {
		return fmt.Errorf("%s needs an API key: set MATHDRILL_LLM_%s_API_KEY or %s",
			v.key, strings.ToUpper(v.key), v.envKey)
	}
	return nil
}

// account fills vendor defaults into c.Account.
func (c Config) account() Account {
	a := c.Account
	v, _ := lookupVendor(c.Provider)
	if a.Model == "" {
		a.Model = v.model
	}
	if a.BaseURL == "" {
		a.BaseURL = v.baseURL
	}
	return a
}

func envKeys() string {
	keys := make([]string, len(vendors))
	for i, v := range vendors {
		keys[i] = v.envKey
	}
	return strings.Join(keys, ", ")
}
