// Package llm sends answer images to vision-capable language models and
// returns their structured reply. Every backend speaks the same single-turn
// shape: instructions, a short prompt, the images, and an optional JSON
// schema the reply must satisfy.
package llm

import (
	"context"
	"encoding/json"
)

// Provider asks one vision model about a set of images.
type Provider interface {
	// Ask sends req and returns the model's reply. With req.Schema set the
	// reply Content has already been checked against it.
	Ask(ctx context.Context, req Request) (*Reply, error)

	// Model returns the model identifier requests are sent to.
	Model() string
}

// Request is a single-turn question about one or more images.
type Request struct {
	// Instructions is the system prompt.
	Instructions string

	// Prompt is the user text sent after the images.
	Prompt string

	Images []Image

	// Schema, when set, asks the provider for JSON output and is used to
	// validate the reply.
	Schema *Schema

	MaxTokens int
}

// Image is an inline image attachment.
type Image struct {
	Data     []byte
	MIMEType string // e.g. "image/png"
}

// Schema names a JSON Schema definition.
type Schema struct {
	// Name is sent to providers that label structured output and keys the
	// compiled-schema cache, e.g. "answer-digits".
	Name string

	Definition map[string]any
}

// Reply is what the model answered.
type Reply struct {
	// Content is the JSON object the model produced when a schema was
	// requested, otherwise the raw text as a JSON string.
	Content json.RawMessage

	Usage Usage

	// Model is the model that served the request as reported by the
	// provider. It may carry a dated suffix the request did not.
	Model string
}

// Usage is the token count billed for one request. Image tokens are
// included in InputTokens.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }
