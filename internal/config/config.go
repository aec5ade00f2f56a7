// Package config resolves mathdrill settings from flags, MATHDRILL_*
// environment variables, a TOML config file and built-in defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/recognize"
	"github.com/abhisek/mathdrill/internal/store"
)

// EnvPrefix prefixes every environment override, e.g.
// MATHDRILL_PRACTICE_USERNAME or MATHDRILL_LLM_ANTHROPIC_API_KEY.
const EnvPrefix = "MATHDRILL"

// ProviderAuto picks the first LLM provider with a well-known API key
// variable set (GEMINI_API_KEY, OPENAI_API_KEY, ...).
const ProviderAuto = "auto"

// Settings is the resolved configuration.
type Settings struct {
	DB         string     `mapstructure:"db" toml:"db,omitempty"`
	LogLevel   string     `mapstructure:"log_level" toml:"log_level"`
	LogFormat  string     `mapstructure:"log_format" toml:"log_format"`
	Practice   Practice   `mapstructure:"practice" toml:"practice"`
	Recognizer Recognizer `mapstructure:"recognizer" toml:"recognizer"`
	LLM        LLM        `mapstructure:"llm" toml:"llm"`
}

// Practice holds the defaults for a new practice session. When
// Difficulty is set it decides the number range; an empty Difficulty
// uses Min and Max.
type Practice struct {
	Username       string   `mapstructure:"username" toml:"username"`
	Operations     []string `mapstructure:"operations" toml:"operations"`
	Difficulty     string   `mapstructure:"difficulty" toml:"difficulty"`
	Min            int      `mapstructure:"min" toml:"min"`
	Max            int      `mapstructure:"max" toml:"max"`
	Count          int      `mapstructure:"count" toml:"count"`
	MixedOperators int      `mapstructure:"mixed_operators" toml:"mixed_operators"`
	Parentheses    bool     `mapstructure:"parentheses" toml:"parentheses"`
	MaxParenPairs  int      `mapstructure:"max_paren_pairs" toml:"max_paren_pairs"`
}

// Recognizer selects the handwriting backend.
type Recognizer struct {
	Backend         string `mapstructure:"backend" toml:"backend"`
	GoogleVisionKey string `mapstructure:"google_vision_api_key" toml:"google_vision_api_key,omitempty"`
	VisionEndpoint  string `mapstructure:"vision_endpoint" toml:"vision_endpoint,omitempty"`
}

// LLM configures the provider used by the llm recognizer.
type LLM struct {
	Provider   string        `mapstructure:"provider" toml:"provider"`
	Timeout    time.Duration `mapstructure:"timeout" toml:"timeout"`
	Anthropic  Provider      `mapstructure:"anthropic" toml:"anthropic"`
	OpenAI     Provider      `mapstructure:"openai" toml:"openai"`
	Gemini     Provider      `mapstructure:"gemini" toml:"gemini"`
	OpenRouter Provider      `mapstructure:"openrouter" toml:"openrouter"`
}

// Provider holds one LLM provider's credentials and model.
type Provider struct {
	APIKey  string `mapstructure:"api_key" toml:"api_key,omitempty"`
	Model   string `mapstructure:"model" toml:"model"`
	BaseURL string `mapstructure:"base_url" toml:"base_url,omitempty"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	lc := llm.DefaultConfig()
	def := problemgen.DefaultConfig("")
	return Settings{
		LogLevel:  "warn",
		LogFormat: "text",
		Practice: Practice{
			Operations:     []string{string(problemgen.OpAdd)},
			Difficulty:     string(problemgen.DifficultyEasy),
			Min:            def.NumberMin,
			Max:            def.NumberMax,
			Count:          def.QuestionCount,
			MixedOperators: def.MixedOperatorCount,
			Parentheses:    false,
			MaxParenPairs:  1,
		},
		Recognizer: Recognizer{Backend: recognize.KeyNone},
		LLM: LLM{
			Provider:   ProviderAuto,
			Timeout:    lc.Timeout,
			Anthropic:  Provider{Model: llm.DefaultModel("anthropic")},
			OpenAI:     Provider{Model: llm.DefaultModel("openai")},
			Gemini:     Provider{Model: llm.DefaultModel("gemini")},
			OpenRouter: Provider{Model: llm.DefaultModel("openrouter")},
		},
	}
}

// LoadOptions controls where settings come from.
type LoadOptions struct {
	// ConfigFile is an explicit config path. It must exist when set.
	ConfigFile string

	// Flags maps setting keys (e.g. "practice.count") to the command-line
	// flags that override them. Only flags the user changed take effect.
	Flags map[string]*pflag.Flag

	// SearchPaths replaces the default config search path (".", ConfigDir).
	SearchPaths []string
}

// Load resolves settings. It returns the viper instance too so callers can
// report ConfigFileUsed.
func Load(opts LoadOptions) (*Settings, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetConfigType("toml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(AppName)
		paths := opts.SearchPaths
		if paths == nil {
			paths = []string{".", ConfigDir()}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && opts.ConfigFile == "":
		case errors.Is(err, fs.ErrNotExist) && opts.ConfigFile == "":
		default:
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, v, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("db", d.DB)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	v.SetDefault("practice.username", d.Practice.Username)
	v.SetDefault("practice.operations", d.Practice.Operations)
	v.SetDefault("practice.difficulty", d.Practice.Difficulty)
	v.SetDefault("practice.min", d.Practice.Min)
	v.SetDefault("practice.max", d.Practice.Max)
	v.SetDefault("practice.count", d.Practice.Count)
	v.SetDefault("practice.mixed_operators", d.Practice.MixedOperators)
	v.SetDefault("practice.parentheses", d.Practice.Parentheses)
	v.SetDefault("practice.max_paren_pairs", d.Practice.MaxParenPairs)

	v.SetDefault("recognizer.backend", d.Recognizer.Backend)
	v.SetDefault("recognizer.google_vision_api_key", d.Recognizer.GoogleVisionKey)
	v.SetDefault("recognizer.vision_endpoint", d.Recognizer.VisionEndpoint)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	for name, p := range map[string]Provider{
		"anthropic":  d.LLM.Anthropic,
		"openai":     d.LLM.OpenAI,
		"gemini":     d.LLM.Gemini,
		"openrouter": d.LLM.OpenRouter,
	} {
		v.SetDefault("llm."+name+".api_key", p.APIKey)
		v.SetDefault("llm."+name+".model", p.Model)
		v.SetDefault("llm."+name+".base_url", p.BaseURL)
	}
}

// PracticeConfig builds the generator config for username. An empty
// username falls back to the configured one.
func (s *Settings) PracticeConfig(username string) (problemgen.Config, error) {
	p := s.Practice
	if strings.TrimSpace(username) == "" {
		username = p.Username
	}

	ops, err := problemgen.ParseOperations(p.Operations)
	if err != nil {
		return problemgen.Config{}, err
	}

	lo, hi := p.Min, p.Max
	if p.Difficulty != "" {
		lo, hi, err = problemgen.Difficulty(p.Difficulty).Range()
		if err != nil {
			return problemgen.Config{}, err
		}
	}

	cfg := problemgen.Config{
		Username:            username,
		Operations:          ops,
		NumberMin:           lo,
		NumberMax:           hi,
		QuestionCount:       p.Count,
		MixedOperatorCount:  p.MixedOperators,
		EnableParentheses:   p.Parentheses,
		MaxParenthesesPairs: p.MaxParenPairs,
	}
	if err := cfg.Validate(); err != nil {
		return problemgen.Config{}, err
	}
	return cfg.Normalized(), nil
}

// LLMConfig converts the LLM section. With provider "auto" the first
// well-known API key variable decides; if none is set the returned
// config has an empty provider and fails validation.
func (s *Settings) LLMConfig() llm.Config {
	l := s.LLM
	cfg := llm.DefaultConfig()
	cfg.Timeout = l.Timeout

	if strings.EqualFold(l.Provider, ProviderAuto) || l.Provider == "" {
		found, ok := llm.Discover()
		if !ok {
			return cfg
		}
		found.Timeout = l.Timeout
		return found
	}

	cfg.Provider = strings.ToLower(l.Provider)
	if p, ok := l.section(cfg.Provider); ok {
		cfg.Account = llm.Account{APIKey: p.APIKey, Model: p.Model, BaseURL: p.BaseURL}
	}
	return cfg
}

// section returns the per-provider settings for key.
func (l LLM) section(key string) (Provider, bool) {
	switch key {
	case "anthropic":
		return l.Anthropic, true
	case "openai":
		return l.OpenAI, true
	case "gemini":
		return l.Gemini, true
	case "openrouter":
		return l.OpenRouter, true
	}
	return Provider{}, false
}

// RecognizerSettings builds the settings for the default recognizer
// registry.
func (s *Settings) RecognizerSettings(events store.EventRepo) recognize.Settings {
	return recognize.Settings{
		LLM:             s.LLMConfig(),
		EventRepo:       events,
		GoogleVisionKey: s.Recognizer.GoogleVisionKey,
		VisionEndpoint:  s.Recognizer.VisionEndpoint,
	}
}

// DBPath returns the configured database path or the default, creating
// its parent directory.
func (s *Settings) DBPath() (string, error) {
	if s.DB != "" {
		return s.DB, store.EnsureDir(s.DB)
	}
	return store.DefaultDBPath()
}
