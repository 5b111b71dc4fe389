package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/memory-bench/internal/config"
)

// Options carry per-run overrides for provider construction. Empty fields
// fall back to the corresponding config values.
type Options struct {
	Provider string
	Model    string
	APIBase  string
	APIKey   string
}

// New builds the provider named in opts. A missing credential or base URL is
// a configuration error: callers treat it as fatal and exit before any
// benchmark item is evaluated.
func New(cfg *config.Config, opts Options) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	name := normalizeName(opts.Provider)
	if name == "" {
		name = normalizeName(cfg.LLM.DefaultProvider)
	}
	if name == "" {
		return nil, errors.New("llm: missing provider name")
	}

	pcfg := cfg.LLM.Providers[name]
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(pcfg.APIKey)
	}
	apiBase := strings.TrimSpace(opts.APIBase)
	if apiBase == "" {
		apiBase = strings.TrimSpace(pcfg.BaseURL)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = strings.TrimSpace(pcfg.Model)
	}

	switch name {
	case "openai":
		if apiKey == "" {
			return nil, errors.New("llm: openai: missing api key (set OPENAI_API_KEY or --api-key)")
		}
		return NewOpenAIProvider(apiKey, apiBase, model), nil
	case "openai-compatible":
		if apiBase == "" {
			return nil, errors.New("llm: openai-compatible: missing --api-base")
		}
		if apiKey == "" {
			return nil, errors.New("llm: openai-compatible: missing api key (set OPENAI_API_KEY or --api-key)")
		}
		return NewCompatibleProvider(apiKey, apiBase, model), nil
	case "claude":
		if apiKey == "" {
			return nil, errors.New("llm: claude: missing api key (set ANTHROPIC_API_KEY or --api-key)")
		}
		return NewClaudeProvider(apiKey, apiBase, model), nil
	case "ollama":
		return NewOllamaProvider(model, apiBase)
	case "baseten":
		if apiKey == "" {
			return nil, errors.New("llm: baseten: missing api key (set BASETEN_API_KEY or --api-key)")
		}
		return NewBasetenProvider(apiKey, model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q (expected openai|openai-compatible|claude|ollama|baseten)", name)
	}
}

// NewRegistryFromConfig registers every provider the config carries enough
// configuration for. Entries missing a credential or base URL are skipped
// rather than failing the whole listing; New reports those per provider
// when one is actually selected.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	r := NewRegistry()
	for name := range cfg.LLM.Providers {
		key := normalizeName(name)
		if key == "" {
			continue
		}
		p, err := New(cfg, Options{Provider: key})
		if err != nil {
			continue
		}
		r.Register(p)
	}
	return r, nil
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "anthropic":
		return "claude"
	default:
		return name
	}
}
