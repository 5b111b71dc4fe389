package llm

import (
	"context"
	"errors"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider talks to the hosted OpenAI API, or to any endpoint speaking
// the same chat-completions shape when constructed with a base URL.
type OpenAIProvider struct {
	client *openai.Client
	name   string
	model  string
}

func NewOpenAIProvider(apiKey string, baseURL string, model string) *OpenAIProvider {
	return newOpenAI("openai", apiKey, baseURL, model)
}

// NewCompatibleProvider targets an arbitrary OpenAI-compatible endpoint
// (Groq, Together, Baseten's OAI surface, vLLM, ...).
func NewCompatibleProvider(apiKey string, baseURL string, model string) *OpenAIProvider {
	return newOpenAI("openai-compatible", apiKey, baseURL, model)
}

func newOpenAI(name string, apiKey string, baseURL string, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = defaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		name:   name,
		model:  m,
	}
}

func (p *OpenAIProvider) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

func (p *OpenAIProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p == nil || p.client == nil {
		return "", errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return "", errors.New("llm: openai: nil context")
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: completionMaxTokens,
		// The client drops a zero Temperature from the request body, which
		// leaves the API at its default. The smallest nonzero float survives
		// marshaling and the API treats it as zero.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
