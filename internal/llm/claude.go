package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultClaudeModel = "claude-3-haiku-20240307"
	claudeRetryMax     = 3
	claudeRetryBase    = time.Second
)

// ClaudeProvider talks to the Anthropic messages API. Transient 5xx and
// timeout failures are retried with exponential backoff.
type ClaudeProvider struct {
	client    anthropic.Client
	model     string
	retryMax  int
	retryBase time.Duration
}

func NewClaudeProvider(apiKey string, baseURL string, model string) *ClaudeProvider {
	opts := make([]option.RequestOption, 0, 3)
	if v := strings.TrimSpace(apiKey); v != "" {
		opts = append(opts, option.WithAPIKey(v))
	}
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(v, "/")))
	}
	opts = append(opts, option.WithMaxRetries(0))

	m := strings.TrimSpace(model)
	if m == "" {
		m = defaultClaudeModel
	}

	return &ClaudeProvider{
		client:    anthropic.NewClient(opts...),
		model:     m,
		retryMax:  claudeRetryMax,
		retryBase: claudeRetryBase,
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

func (p *ClaudeProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *ClaudeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p == nil {
		return "", errors.New("llm: claude: nil provider")
	}
	if ctx == nil {
		return "", errors.New("llm: claude: nil context")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   completionMaxTokens,
		Temperature: anthropic.Float(completionTemp),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	for attempt := 0; ; attempt++ {
		msg, err := p.client.Messages.New(ctx, params)
		if err != nil {
			if !claudeShouldRetry(err) || attempt >= p.retryMax {
				return "", err
			}
			if err := sleepWithContext(ctx, p.retryBase*time.Duration(1<<attempt)); err != nil {
				return "", err
			}
			continue
		}

		text := claudeText(msg)
		if text == "" {
			return "", ErrEmptyCompletion
		}
		return text, nil
	}
}

func claudeText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

func claudeShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		return sdkErr.StatusCode >= 500 && sdkErr.StatusCode <= 599
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
