package llm

import (
	"regexp"
	"strings"
)

// ModelCost is the list price of a vision model in USD.
type ModelCost struct {
	InputPerMTok  float64 // per 1M input tokens, images included
	OutputPerMTok float64 // per 1M output tokens

	// ImageTokens is the input tokens one answer image costs as sent by the
	// recognizer (a phone photo of a single number, OpenAI detail "low").
	ImageTokens int
}

// Cost is the charge for a request with the given usage.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1e6 + float64(outputTokens)*c.OutputPerMTok/1e6
}

// ImageCost estimates the input charge for n answer images before any
// request is made.
func (c ModelCost) ImageCost(n int) float64 {
	return c.Cost(n*c.ImageTokens, 0)
}

// Image token counts follow each vendor's published rule: Anthropic bills
// about w*h/750 and caps at roughly 1600 for a resized photo, OpenAI bills
// a flat 85 for low detail (2833 on gpt-4o-mini), Gemini 258 per tile.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5":  {1, 5, 1600},
	"claude-3-5-haiku":  {0.8, 4, 1600},
	"claude-sonnet-4":   {3, 15, 1600},
	"claude-sonnet-4-5": {3, 15, 1600},
	"claude-opus-4-1":   {15, 75, 1600},

	"gpt-4o":       {2.5, 10, 85},
	"gpt-4o-mini":  {0.15, 0.6, 2833},
	"gpt-4.1":      {2, 8, 85},
	"gpt-4.1-mini": {0.4, 1.6, 85},

	"gemini-2.0-flash":      {0.1, 0.4, 258},
	"gemini-2.0-flash-lite": {0.075, 0.3, 258},
	"gemini-2.5-flash":      {0.3, 2.5, 258},
	"gemini-2.5-flash-lite": {0.1, 0.4, 258},
	"gemini-2.5-pro":        {1.25, 10, 258},
}

// versionSuffix matches the snapshot tags providers append to a model
// name: -20251001, -2024-08-06, -001, -latest.
var versionSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2}|\d{3}|latest)$`)

// LookupCost returns the price of model, or nil when it is not a known
// vision model. OpenRouter vendor prefixes ("openai/gpt-4o") and snapshot
// suffixes are ignored.
func LookupCost(model string) *ModelCost {
	name := strings.ToLower(model)
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if c, ok := modelCosts[name]; ok {
		return &c
	}
	if c, ok := modelCosts[versionSuffix.ReplaceAllString(name, "")]; ok {
		return &c
	}
	return nil
}
