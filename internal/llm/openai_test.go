package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type openAIBody struct {
	Model               string `json:"model"`
	MaxCompletionTokens int    `json:"max_completion_tokens"`
	Messages            []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string `json:"name"`
			Strict bool   `json:"strict"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

type openAIPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL struct {
		URL    string `json:"url"`
		Detail string `json:"detail"`
	} `json:"image_url"`
}

func newTestOpenAI(t *testing.T, name string, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAI(name, Account{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	return p
}

func chatCompletion(w http.ResponseWriter, content, finish string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1760000000,
		"model":   "gpt-4o-mini-2024-07-18",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 2900, "completion_tokens": 8, "total_tokens": 2908},
	})
}

func TestOpenAI_SendsAnswerImage(t *testing.T) {
	var body openAIBody
	p := newTestOpenAI(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatCompletion(w, `{"digits":"12"}`, "stop")
	})

	reply, err := p.Ask(context.Background(), answerRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(reply.Content) != `{"digits":"12"}` {
		t.Fatalf("content = %s", reply.Content)
	}
	if reply.Usage.InputTokens != 2900 || reply.Usage.OutputTokens != 8 {
		t.Fatalf("usage = %+v", reply.Usage)
	}

	if body.MaxCompletionTokens != 64 {
		t.Fatalf("max_completion_tokens = %d", body.MaxCompletionTokens)
	}
	if body.ResponseFormat.Type != "json_schema" || body.ResponseFormat.JSONSchema.Name != "test_digits" {
		t.Fatalf("response_format = %+v", body.ResponseFormat)
	}
	if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", body.Messages)
	}
	var parts []openAIPart
	if err := json.Unmarshal(body.Messages[1].Content, &parts); err != nil {
		t.Fatalf("user content is not a part list: %s", body.Messages[1].Content)
	}
	if len(parts) != 2 {
		t.Fatalf("expected image and text parts, got %d", len(parts))
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(answerPNG)
	if parts[0].Type != "image_url" || parts[0].ImageURL.URL != want {
		t.Fatalf("image part = %+v", parts[0])
	}
	if parts[0].ImageURL.Detail != "low" {
		t.Fatalf("image detail = %q", parts[0].ImageURL.Detail)
	}
	if parts[1].Type != "text" || parts[1].Text != "Read the answer." {
		t.Fatalf("text part = %+v", parts[1])
	}
}

func TestOpenAI_Truncated(t *testing.T) {
	p := newTestOpenAI(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		chatCompletion(w, `{"digi`, "length")
	})

	_, err := p.Ask(context.Background(), answerRequest())
	if kind, ok := KindOf(err); !ok || kind != KindTruncated {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	p := newTestOpenAI(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "model": "gpt-4o-mini", "choices": []any{}})
	})

	_, err := p.Ask(context.Background(), answerRequest())
	if kind, ok := KindOf(err); !ok || kind != KindBadReply {
		t.Fatalf("expected bad reply, got %v", err)
	}
}

func TestOpenAI_StatusKinds(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindRejected},
		{http.StatusBadGateway, KindUnavailable},
	}
	for _, tt := range tests {
		p := newTestOpenAI(t, "openrouter", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": http.StatusText(tt.status), "type": "error"},
			})
		})

		_, err := p.Ask(context.Background(), answerRequest())
		var e *Error
		if !errors.As(err, &e) || e.Kind != tt.kind {
			t.Fatalf("status %d: expected %v, got %v", tt.status, tt.kind, err)
		}
		if e.Provider != "openrouter" {
			t.Fatalf("provider = %q", e.Provider)
		}
	}
}

func TestOpenAI_CanceledContext(t *testing.T) {
	p := newTestOpenAI(t, "openai", func(w http.ResponseWriter, r *http.Request) {
		chatCompletion(w, `{"digits":"1"}`, "stop")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ask(ctx, answerRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, ok := KindOf(err); ok {
		t.Fatalf("cancellation should not be classified: %v", err)
	}
}
