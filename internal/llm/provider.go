package llm

import "context"

// Provider is a backend capable of producing a short text completion for a
// prompt. Implementations are stateless apart from held configuration
// (model name, credentials, endpoint) and must be safe for reuse across
// benchmark items.
//
// Complete returns an error for transport or API failures. A response that
// arrives but contains nothing usable is reported via ErrEmptyCompletion so
// callers can tell the two apart.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Answer-selection calls want deterministic, single-digit output, so every
// variant requests zero temperature and a small completion budget.
const (
	completionMaxTokens = 10
	completionTemp      = 0
)

// ModelName reports the model a provider resolved to, or "" when the
// provider does not expose one.
func ModelName(p Provider) string {
	if m, ok := p.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}
