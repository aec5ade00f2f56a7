package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic asks Claude models through the Anthropic SDK.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates a provider for acct. The SDK's own retries are
// disabled; WithRetry owns that.
func NewAnthropic(acct Account) (*Anthropic, error) {
	if acct.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(acct.APIKey),
		option.WithMaxRetries(0),
	}
	if acct.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(acct.BaseURL))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: acct.Model}, nil
}

func (p *Anthropic) Model() string { return p.model }

func (p *Anthropic) Ask(ctx context.Context, req Request) (*Reply, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Images)+1)
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, anthropicError(ctx, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		return nil, &Error{Kind: KindTruncated, Provider: "anthropic", Content: []byte(text.String()),
			Err: fmt.Errorf("stopped at %d tokens", req.MaxTokens)}
	}

	content, err := decodeReply("anthropic", req.Schema, text.String())
	if err != nil {
		return nil, err
	}
	return &Reply{
		Content: content,
		Usage:   Usage{InputTokens: int(msg.Usage.InputTokens), OutputTokens: int(msg.Usage.OutputTokens)},
		Model:   string(msg.Model),
	}, nil
}

func anthropicError(ctx context.Context, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		e := statusError("anthropic", apiErr.StatusCode, err)
		if e.Kind == KindRateLimited && apiErr.Response != nil {
			e.RetryAfter = retryAfter(apiErr.Response.Header)
		}
		return e
	}
	return transportError(ctx, "anthropic", err)
}
