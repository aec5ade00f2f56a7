package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI asks models over the OpenAI chat completions API. OpenRouter
// speaks the same protocol and uses this provider with its own base URL.
type OpenAI struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAI creates a provider reported as name ("openai" or "openrouter").
func NewOpenAI(name string, acct Account) (*OpenAI, error) {
	if acct.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}
	config := openai.DefaultConfig(acct.APIKey)
	if acct.BaseURL != "" {
		config.BaseURL = acct.BaseURL
	}
	return &OpenAI{name: name, client: openai.NewClientWithConfig(config), model: acct.Model}, nil
}

func (p *OpenAI) Model() string { return p.model }

func (p *OpenAI) Ask(ctx context.Context, req Request) (*Reply, error) {
	var messages []openai.ChatCompletionMessage
	if req.Instructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.Instructions,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: openAIParts(req),
	})

	chatReq := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            messages,
		MaxCompletionTokens: req.MaxTokens,
	}
	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %s: %w", req.Schema.Name, err)
		}
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: json.RawMessage(def),
				Strict: true,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.mapError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindBadReply, Provider: p.name, Err: errors.New("no choices in reply")}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		return nil, &Error{Kind: KindTruncated, Provider: p.name, Content: []byte(choice.Message.Content),
			Err: fmt.Errorf("stopped at %d tokens", req.MaxTokens)}
	}

	content, err := decodeReply(p.name, req.Schema, choice.Message.Content)
	if err != nil {
		return nil, err
	}
	return &Reply{
		Content: content,
		Usage:   Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
		Model:   resp.Model,
	}, nil
}

// openAIParts puts the images ahead of the prompt. Content and
// MultiContent are exclusive in the SDK, so the prompt is a part too.
func openAIParts(req Request) []openai.ChatMessagePart {
	parts := make([]openai.ChatMessagePart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL(img),
				Detail: openai.ImageURLDetailLow,
			},
		})
	}
	return append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: req.Prompt,
	})
}

func dataURL(img Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func (p *OpenAI) mapError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(p.name, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(p.name, reqErr.HTTPStatusCode, err)
	}
	return transportError(ctx, p.name, err)
}
