package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Gemini asks Google Gemini models through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a provider for acct on the Gemini API backend.
func NewGemini(ctx context.Context, acct Account) (*Gemini, error) {
	if acct.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  acct.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if acct.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: acct.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: acct.Model}, nil
}

func (p *Gemini) Model() string { return p.model }

func (p *Gemini) Ask(ctx context.Context, req Request) (*Reply, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchema(req.Schema.Definition)
	}

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, geminiError(ctx, err)
	}

	text := result.Text()
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return nil, &Error{Kind: KindTruncated, Provider: "gemini", Content: []byte(text),
			Err: fmt.Errorf("stopped at %d tokens", req.MaxTokens)}
	}

	content, err := decodeReply("gemini", req.Schema, text)
	if err != nil {
		return nil, err
	}
	reply := &Reply{Content: content, Model: p.model}
	if result.ModelVersion != "" {
		reply.Model = result.ModelVersion
	}
	if u := result.UsageMetadata; u != nil {
		reply.Usage = Usage{InputTokens: int(u.PromptTokenCount), OutputTokens: int(u.CandidatesTokenCount)}
	}
	return reply, nil
}

// geminiError maps genai failures. The SDK returns APIError by value;
// older releases used a pointer.
func geminiError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError("gemini", apiErr.Code, err)
	}
	var apiPtr *genai.APIError
	if errors.As(err, &apiPtr) {
		return statusError("gemini", apiPtr.Code, err)
	}
	return transportError(ctx, "gemini", err)
}

// geminiSchema converts the subset of JSON Schema the recognition schemas
// use: typed objects, arrays and string enums.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{}
	if t, ok := def["type"].(string); ok {
		s.Type = geminiType(t)
	}
	if desc, ok := def["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for k, v := range props {
			if pd, ok := v.(map[string]any); ok {
				s.Properties[k] = geminiSchema(pd)
			}
		}
	}
	s.Required = stringList(def["required"])
	s.Enum = stringList(def["enum"])
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	return s
}

func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		var out []string
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func geminiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
