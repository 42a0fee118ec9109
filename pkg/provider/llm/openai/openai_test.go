package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/soundalike/pkg/provider/llm"
)

// TestConvertMessage_Roles checks that every supported role converts.
func TestConvertMessage_Roles(t *testing.T) {
	t.Parallel()

	for _, role := range []string{"system", "user", "assistant"} {
		param, err := convertMessage(llm.Message{Role: role, Content: "hi"})
		if err != nil {
			t.Fatalf("role %q: unexpected error: %v", role, err)
		}
		switch role {
		case "system":
			if param.OfSystem == nil {
				t.Error("expected OfSystem to be set")
			}
		case "user":
			if param.OfUser == nil {
				t.Error("expected OfUser to be set")
			}
		case "assistant":
			if param.OfAssistant == nil {
				t.Error("expected OfAssistant to be set")
			}
		}
	}
}

// TestConvertMessage_UnknownRole checks that unknown roles return an error.
func TestConvertMessage_UnknownRole(t *testing.T) {
	t.Parallel()

	if _, err := convertMessage(llm.Message{Role: "tool", Content: "x"}); err == nil {
		t.Fatal("expected error for unknown role, got nil")
	}
}

func TestModelCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model      string
		structured bool
	}{
		{"gpt-4o-2024-08-06", true},
		{"gpt-4o-mini", true},
		{"gpt-4o-2024-05-13", false},
		{"gpt-4-turbo", false},
		{"gpt-3.5-turbo", false},
		{"o1-mini", false},
		{"o3", true},
		{"some-future-model", true},
	}
	for _, tc := range tests {
		caps := modelCapabilities(tc.model)
		if caps.SupportsStructuredOutput != tc.structured {
			t.Errorf("%s: SupportsStructuredOutput=%v, want %v", tc.model, caps.SupportsStructuredOutput, tc.structured)
		}
		if caps.ContextWindow <= 0 || caps.MaxOutputTokens <= 0 {
			t.Errorf("%s: expected positive limits, got %+v", tc.model, caps)
		}
	}
}

func TestBuildParams_JSONSchema(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "gpt-4o-2024-08-06"}
	params, err := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You are a phonetician.",
		Messages:     []llm.Message{{Role: "user", Content: "cat"}},
		ResponseFormat: &llm.ResponseFormat{
			Name:   "ipa_transcriptions",
			Schema: map[string]any{"type": "object"},
			Strict: true,
		},
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected system + user message, got %d", len(params.Messages))
	}
	if params.ResponseFormat.OfJSONSchema == nil {
		t.Fatal("expected json_schema response format")
	}
	if got := params.ResponseFormat.OfJSONSchema.JSONSchema.Name; got != "ipa_transcriptions" {
		t.Errorf("schema name=%q, want ipa_transcriptions", got)
	}
}

func TestBuildParams_JSONObjectFallback(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "gpt-3.5-turbo"}
	params, err := p.buildParams(llm.CompletionRequest{
		Messages:       []llm.Message{{Role: "user", Content: "cat"}},
		ResponseFormat: &llm.ResponseFormat{Name: "x", Schema: map[string]any{}},
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if params.ResponseFormat.OfJSONObject == nil {
		t.Fatal("expected json_object response format for a model without structured outputs")
	}
}

func TestBuildParams_NoMessages(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "gpt-4o"}
	if _, err := p.buildParams(llm.CompletionRequest{}); err == nil {
		t.Fatal("expected error for empty message list")
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestComplete_AgainstFakeServer(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o-2024-08-06",
  "choices": [{"index": 0, "finish_reason": "stop",
    "message": {"role": "assistant", "content": "{\"syllables\":[\"cat\"]}", "refusal": ""}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`)
	}))
	defer srv.Close()

	p, err := New("sk-test", "gpt-4o-2024-08-06", WithBaseURL(srv.URL+"/v1/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages:       []llm.Message{{Role: "user", Content: "cat"}},
		ResponseFormat: &llm.ResponseFormat{Name: "syllabification", Schema: map[string]any{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"syllables":["cat"]}` {
		t.Errorf("Content=%q", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens=%d, want 15", resp.Usage.TotalTokens)
	}
	rf, _ := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format.type=%v, want json_schema", rf["type"])
	}
}
