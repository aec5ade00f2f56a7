package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/mathdrill/internal/store"
)

// Purposes recorded with each request.
const (
	// PurposeAnswer is an answer image read during practice.
	PurposeAnswer = "answer"

	// PurposeCommand is an image read by the recognize command.
	PurposeCommand = "recognize"
)

type purposeKey struct{}

// WithPurpose labels requests made with ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeOf returns the label set by WithPurpose, or "".
func PurposeOf(ctx context.Context) string {
	p, _ := ctx.Value(purposeKey{}).(string)
	return p
}

type logging struct {
	inner    Provider
	provider string
	events   store.EventRepo
	now      func() time.Time
}

// WithLogging records every request p handles in events. name is the
// provider key stored with each event.
func WithLogging(p Provider, name string, events store.EventRepo) Provider {
	return &logging{inner: p, provider: name, events: events, now: time.Now}
}

func (l *logging) Model() string { return l.inner.Model() }

func (l *logging) Ask(ctx context.Context, req Request) (*Reply, error) {
	start := l.now()
	reply, err := l.inner.Ask(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.Model(),
		Purpose:     PurposeOf(ctx),
		Images:      len(req.Images),
		LatencyMs:   l.now().Sub(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if ev.Purpose == "" {
		ev.Purpose = PurposeAnswer
	}
	if reply != nil {
		ev.Model = reply.Model
		ev.InputTokens = reply.Usage.InputTokens
		ev.OutputTokens = reply.Usage.OutputTokens
		ev.ResponseBody = string(reply.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	slog.DebugContext(ctx, "llm request",
		"provider", l.provider,
		"model", ev.Model,
		"images", ev.Images,
		"latency_ms", ev.LatencyMs,
		"success", ev.Success)

	if logErr := l.events.AppendLLMRequest(ctx, ev); logErr != nil {
		slog.WarnContext(ctx, "record llm request", "error", logErr)
	}
	return reply, err
}

// describeRequest renders req for the event log. Image bytes are
// summarized by type and size.
func describeRequest(req Request) string {
	var b strings.Builder
	if req.Instructions != "" {
		fmt.Fprintf(&b, "[instructions]\n%s\n\n", req.Instructions)
	}
	for i, img := range req.Images {
		fmt.Fprintf(&b, "[image %d: %s, %d bytes]\n", i+1, img.MIMEType, len(img.Data))
	}
	if req.Prompt != "" {
		fmt.Fprintf(&b, "[prompt]\n%s\n", req.Prompt)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "\n[schema %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
