package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type geminiBody struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens  int    `json:"maxOutputTokens"`
		ResponseMIMEType string `json:"responseMimeType"`
	} `json:"generationConfig"`
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewGemini(context.Background(), Account{APIKey: "test-key", Model: "gemini-2.0-flash", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	return p
}

func geminiResponse(w http.ResponseWriter, text, finish string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 290, "candidatesTokenCount": 6, "totalTokenCount": 296},
		"modelVersion":  "gemini-2.0-flash-001",
	})
}

func TestGemini_SendsAnswerImage(t *testing.T) {
	var body geminiBody
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		geminiResponse(w, `{"digits":"30"}`, "STOP")
	})

	reply, err := p.Ask(context.Background(), answerRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(reply.Content) != `{"digits":"30"}` {
		t.Fatalf("content = %s", reply.Content)
	}
	if reply.Model != "gemini-2.0-flash-001" || reply.Usage.InputTokens != 290 {
		t.Fatalf("reply = %+v", reply)
	}

	if body.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("response mime = %q", body.GenerationConfig.ResponseMIMEType)
	}
	if len(body.Contents) != 1 || len(body.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", body.Contents)
	}
	img := body.Contents[0].Parts[0].InlineData
	if img == nil || img.MIMEType != "image/png" {
		t.Fatalf("expected inline image part, got %+v", body.Contents[0].Parts[0])
	}
	if img.Data != base64.StdEncoding.EncodeToString(answerPNG) {
		t.Fatalf("image data = %q", img.Data)
	}
	if body.Contents[0].Parts[1].Text != "Read the answer." {
		t.Fatalf("text part = %+v", body.Contents[0].Parts[1])
	}
}

func TestGemini_Truncated(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		geminiResponse(w, `{"dig`, "MAX_TOKENS")
	})

	_, err := p.Ask(context.Background(), answerRequest())
	if kind, ok := KindOf(err); !ok || kind != KindTruncated {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestGemini_RateLimited(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"},
		})
	})

	_, err := p.Ask(context.Background(), answerRequest())
	if kind, ok := KindOf(err); !ok || kind != KindRateLimited {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"digits":     map[string]any{"type": "string"},
			"confidence": map[string]any{"type": "string", "enum": []string{"high", "low"}},
			"alternates": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
		"required": []any{"digits"},
	}

	schema := geminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(schema.Properties))
	}
	if len(schema.Properties["confidence"].Enum) != 2 {
		t.Fatalf("enum = %v", schema.Properties["confidence"].Enum)
	}
	if schema.Properties["alternates"].Items.Type != "INTEGER" {
		t.Fatalf("expected INTEGER items, got %s", schema.Properties["alternates"].Items.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "digits" {
		t.Fatalf("required = %v", schema.Required)
	}
}
