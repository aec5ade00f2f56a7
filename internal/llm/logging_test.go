package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/mathdrill/internal/store"
)

type recordingEventRepo struct {
	store.EventRepo
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLogging_RecordsAnswerImage(t *testing.T) {
	mock := NewMockProvider(MockReply{
		Content: `{"digits":"42"}`,
		Usage:   Usage{InputTokens: 1650, OutputTokens: 6},
	})
	repo := &recordingEventRepo{}
	p := WithLogging(mock, "anthropic", repo)

	req := answerRequest()
	req.Images = []Image{{Data: make([]byte, 2048), MIMEType: "image/jpeg"}}
	if _, err := p.Ask(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Provider != "anthropic" || ev.Model != "mock" {
		t.Fatalf("unexpected event identity: %+v", ev)
	}
	if ev.Purpose != PurposeAnswer {
		t.Fatalf("purpose = %q, want %q", ev.Purpose, PurposeAnswer)
	}
	if ev.Images != 1 {
		t.Fatalf("images = %d, want 1", ev.Images)
	}
	if !ev.Success || ev.InputTokens != 1650 || ev.OutputTokens != 6 {
		t.Fatalf("unexpected outcome: %+v", ev)
	}
	if ev.ResponseBody != `{"digits":"42"}` {
		t.Fatalf("response body = %q", ev.ResponseBody)
	}
	for _, want := range []string{"[instructions]", "[image 1: image/jpeg, 2048 bytes]", "[prompt]\nRead the answer.", "[schema test_digits]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Fatalf("request body missing %q:\n%s", want, ev.RequestBody)
		}
	}
}

func TestLogging_RecordsFailureAndPurpose(t *testing.T) {
	mock := NewMockProvider(MockReply{Err: &Error{Kind: KindRejected, Provider: "mock", Err: errors.New("image too large")}})
	repo := &recordingEventRepo{}
	p := WithLogging(mock, "gemini", repo)

	ctx := WithPurpose(context.Background(), PurposeCommand)
	if _, err := p.Ask(ctx, answerRequest()); err == nil {
		t.Fatal("expected error")
	}

	ev := repo.events[0]
	if ev.Success || !strings.Contains(ev.ErrorMessage, "image too large") {
		t.Fatalf("unexpected failure event: %+v", ev)
	}
	if ev.Purpose != PurposeCommand {
		t.Fatalf("purpose = %q", ev.Purpose)
	}
}

func TestLogging_AppendFailureDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockReply{Content: `{"digits":"1"}`})
	repo := &recordingEventRepo{err: errors.New("disk full")}
	p := WithLogging(mock, "openai", repo)

	reply, err := p.Ask(context.Background(), answerRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(reply.Content) != `{"digits":"1"}` {
		t.Fatalf("content = %s", reply.Content)
	}
}

func TestPurposeOf_Unset(t *testing.T) {
	if got := PurposeOf(context.Background()); got != "" {
		t.Fatalf("PurposeOf = %q", got)
	}
}
