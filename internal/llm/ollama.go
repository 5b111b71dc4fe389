package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ollama/ollama/api"
)

const (
	defaultOllamaModel = "llama3.2"
	defaultOllamaHost  = "http://localhost:11434"
)

// OllamaProvider runs completions against a locally hosted Ollama server.
type OllamaProvider struct {
	client *api.Client
	model  string
}

func NewOllamaProvider(model string, host string) (*OllamaProvider, error) {
	m := strings.TrimSpace(model)
	if m == "" {
		m = defaultOllamaModel
	}

	h := strings.TrimSpace(host)
	if h == "" {
		h = strings.TrimSpace(os.Getenv("OLLAMA_HOST"))
	}
	if h == "" {
		h = defaultOllamaHost
	}
	uri, err := url.Parse(h)
	if err != nil {
		return nil, fmt.Errorf("llm: ollama: parse host %q: %w", h, err)
	}

	return &OllamaProvider{
		client: api.NewClient(uri, http.DefaultClient),
		model:  m,
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p == nil || p.client == nil {
		return "", errors.New("llm: ollama: nil client")
	}
	if ctx == nil {
		return "", errors.New("llm: ollama: nil context")
	}

	stream := false
	req := &api.ChatRequest{
		Model: p.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": completionTemp,
			"num_predict": completionMaxTokens,
		},
	}

	var sb strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
