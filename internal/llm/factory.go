package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/mathdrill/internal/store"
)

// NewProvider builds the configured provider. Requests are recorded in
// events when it is non-nil, and retried per cfg.Retry.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	acct := cfg.account()

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "anthropic":
		p, err = NewAnthropic(acct)
	case "openai", "openrouter":
		p, err = NewOpenAI(cfg.Provider, acct)
	case "gemini":
		p, err = NewGemini(ctx, acct)
	case "mock":
		p = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("set up %s: %w", cfg.Provider, err)
	}

	if events != nil {
		p = WithLogging(p, cfg.Provider, events)
	}
	return WithRetry(p, cfg.Retry), nil
}
