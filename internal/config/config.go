package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

// Defaults applied when the config file leaves evaluation settings unset.
const (
	DefaultChunkSize   = 800
	DefaultSummaryMax  = 2000
	DefaultRecallLimit = 5
	DefaultRecallMode  = "hybrid"
	DefaultMemoryURL   = "http://127.0.0.1:3030"
	DefaultOutputPath  = "locomo_results.json"
	DefaultDBPath      = "data/membench.db"
)

type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Memory     MemoryConfig     `yaml:"memory"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Storage    StorageConfig    `yaml:"storage"`
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type MemoryConfig struct {
	URL    string `yaml:"url,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

type EvaluationConfig struct {
	ChunkSize   int    `yaml:"chunk_size,omitempty"`
	SummaryMax  int    `yaml:"summary_max,omitempty"`
	RecallLimit int    `yaml:"recall_limit,omitempty"`
	RecallMode  string `yaml:"recall_mode,omitempty"`
	OutputPath  string `yaml:"output_path,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

// Load reads the YAML config at path, falling back to defaults for anything
// unset and letting environment variables override credentials.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case os.IsNotExist(err) && path == DefaultPath:
		// Running without a config file is fine; flags and env cover it.
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultProvider) == "" {
		cfg.LLM.DefaultProvider = "openai"
	}
	if strings.TrimSpace(cfg.Memory.URL) == "" {
		cfg.Memory.URL = DefaultMemoryURL
	}
	if cfg.Evaluation.ChunkSize <= 0 {
		cfg.Evaluation.ChunkSize = DefaultChunkSize
	}
	if cfg.Evaluation.SummaryMax <= 0 {
		cfg.Evaluation.SummaryMax = DefaultSummaryMax
	}
	if cfg.Evaluation.RecallLimit <= 0 {
		cfg.Evaluation.RecallLimit = DefaultRecallLimit
	}
	if strings.TrimSpace(cfg.Evaluation.RecallMode) == "" {
		cfg.Evaluation.RecallMode = DefaultRecallMode
	}
	if strings.TrimSpace(cfg.Evaluation.OutputPath) == "" {
		cfg.Evaluation.OutputPath = DefaultOutputPath
	}
}

func applyEnv(cfg *Config) {
	setKey := func(name, key string) {
		if key == "" {
			return
		}
		p := cfg.LLM.Providers[name]
		p.APIKey = key
		cfg.LLM.Providers[name] = p
	}

	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		setKey("openai", v)
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		setKey("claude", v)
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		setKey("claude", v)
	}
	if v := strings.TrimSpace(os.Getenv("BASETEN_API_KEY")); v != "" {
		setKey("baseten", v)
	}

	if v := strings.TrimSpace(os.Getenv("MEMBENCH_MEMORY_URL")); v != "" {
		cfg.Memory.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMBENCH_MEMORY_KEY")); v != "" {
		cfg.Memory.APIKey = v
	}
}
