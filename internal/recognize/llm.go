package recognize

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/abhisek/mathdrill/internal/llm"
)

const llmInstructions = `You read handwritten whole numbers written by children practising arithmetic.
Reply with the digits you see, in order, left to right. Ignore anything that is not a digit.
If no digit is visible, reply with an empty string.`

// digitsSchema is the structured output requested from the model.
var digitsSchema = &llm.Schema{
	Name: "answer-digits",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"digits": map[string]any{
				"type":        "string",
				"description": "The digits in reading order, e.g. \"42\"",
			},
		},
		"required":             []any{"digits"},
		"additionalProperties": false,
	},
}

type digitsOutput struct {
	Digits string `json:"digits"`
}

// LLM recognizes answers with a vision-capable LLM provider.
type LLM struct {
	provider llm.Provider
	name     string
	timeout  time.Duration
}

// NewLLM wraps provider. name is the provider key, shown as "llm:<name>".
// A zero timeout means no deadline beyond the caller's context.
func NewLLM(provider llm.Provider, name string, timeout time.Duration) *LLM {
	return &LLM{provider: provider, name: name, timeout: timeout}
}

func (r *LLM) Name() string {
	if r.name == "" {
		return "llm"
	}
	return "llm:" + r.name
}

func (r *LLM) Available() bool {
	return r.provider != nil
}

func (r *LLM) Recognize(ctx context.Context, img Image) (int, bool) {
	if !r.Available() || img.Empty() {
		return 0, false
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if llm.PurposeOf(ctx) == "" {
		ctx = llm.WithPurpose(ctx, llm.PurposeAnswer)
	}

	reply, err := r.provider.Ask(ctx, llm.Request{
		Instructions: llmInstructions,
		Prompt:       "What number is written in this image?",
		Images:       []llm.Image{{Data: img.Data, MIMEType: img.MIMEType}},
		Schema:       digitsSchema,
		MaxTokens:    64,
	})
	if err != nil {
		slog.WarnContext(ctx, "llm recognition failed", "backend", r.Name(), "error", err)
		return 0, false
	}

	var out digitsOutput
	if err := json.Unmarshal(reply.Content, &out); err != nil {
		slog.WarnContext(ctx, "llm recognition returned malformed output", "backend", r.Name(), "error", err)
		return 0, false
	}
	return ExtractInteger(out.Digits)
}
