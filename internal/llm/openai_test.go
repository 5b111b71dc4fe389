package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newOpenAITestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request: %v", err)
		}
		_ = r.Body.Close()

		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// A missing temperature key means the API default (1.0) applies;
		// the request must carry an explicit (effectively zero) value.
		rawTemp, ok := raw["temperature"]
		if !ok {
			t.Errorf("request body has no temperature key: %s", body)
		}
		var temp float64
		if err := json.Unmarshal(rawTemp, &temp); err != nil {
			t.Errorf("decode temperature: %v", err)
		}
		if temp < 0 || temp > 1e-30 {
			t.Errorf("temperature: got %v, want effectively zero", temp)
		}

		var req openai.ChatCompletionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MaxTokens != completionMaxTokens {
			t.Errorf("max tokens: got %d want %d", req.MaxTokens, completionMaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "id",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Complete(t *testing.T) {
	srv := newOpenAITestServer(t, " 4\n")

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-4o-mini")
	got, err := p.Complete(context.Background(), "pick a digit")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "4" {
		t.Fatalf("Complete: got %q want %q", got, "4")
	}
}

func TestCompatibleProvider_Name(t *testing.T) {
	p := NewCompatibleProvider("k", "https://api.groq.com/openai/v1", "")
	if p.Name() != "openai-compatible" {
		t.Fatalf("Name: got %q", p.Name())
	}
	if p.model != defaultOpenAIModel {
		t.Fatalf("model default: got %q want %q", p.model, defaultOpenAIModel)
	}
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "id", Object: "chat.completion"})
	}))
	t.Cleanup(srv.Close)

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-4o-mini")
	_, err := p.Complete(context.Background(), "x")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("Complete: got %v, want ErrEmptyCompletion", err)
	}
}

func TestOpenAIProvider_NilGuards(t *testing.T) {
	var pnil *OpenAIProvider
	if _, err := pnil.Complete(context.Background(), "x"); err == nil {
		t.Fatal("Complete(nil provider): expected error")
	}

	p := NewOpenAIProvider("k", "", "")
	var nilCtx context.Context
	if _, err := p.Complete(nilCtx, "x"); err == nil {
		t.Fatal("Complete(nil ctx): expected error")
	}
}
