package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// basetenURLFormat is the per-deployment predict endpoint; the model flag
// carries the deployment id.
const basetenURLFormat = "https://model-%s.api.baseten.co/production/predict"

// BasetenProvider calls a Baseten model deployment. Deployments differ in
// their response envelope, so the body is normalized from either an
// OpenAI-style choices list or a bare output field.
type BasetenProvider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
}

func NewBasetenProvider(apiKey string, model string) *BasetenProvider {
	m := strings.TrimSpace(model)
	return &BasetenProvider{
		httpClient: &http.Client{},
		apiKey:     strings.TrimSpace(apiKey),
		model:      m,
		endpoint:   fmt.Sprintf(basetenURLFormat, m),
	}
}

func (p *BasetenProvider) Name() string {
	return "baseten"
}

func (p *BasetenProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}

type basetenRequest struct {
	Messages    []basetenMessage `json:"messages"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
}

type basetenMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type basetenResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Output string `json:"output"`
}

func (p *BasetenProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p == nil || p.httpClient == nil {
		return "", errors.New("llm: baseten: nil client")
	}
	if ctx == nil {
		return "", errors.New("llm: baseten: nil context")
	}

	body, err := json.Marshal(basetenRequest{
		Messages:    []basetenMessage{{Role: "user", Content: prompt}},
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemp,
	})
	if err != nil {
		return "", fmt.Errorf("llm: baseten: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: baseten: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Api-Key "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: baseten: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm: baseten: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("llm: baseten: api error (%s): %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var env basetenResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("llm: baseten: parse response: %w", err)
	}

	switch {
	case len(env.Choices) > 0:
		return strings.TrimSpace(env.Choices[0].Message.Content), nil
	case strings.TrimSpace(env.Output) != "":
		return strings.TrimSpace(env.Output), nil
	default:
		return "", ErrEmptyCompletion
	}
}
