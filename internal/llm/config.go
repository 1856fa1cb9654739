package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "groq", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter CompatibleConfig
	Groq       CompatibleConfig
	Retry      RetryConfig

	// Timeout bounds a single request including retries.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string

	// MaxTokens caps output for requests that leave Request.MaxTokens unset.
	// The Messages API rejects a zero cap.
	MaxTokens int
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Optional override for OpenAI-compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string

	// MaxTokens caps output for requests that leave Request.MaxTokens unset.
	MaxTokens int
}

// CompatibleConfig configures a hosted OpenAI-compatible API such as
// OpenRouter or Groq.
type CompatibleConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultMaxTokens is the output cap used when neither the request nor the
// provider config names one. It fits a grade with a paragraph of feedback.
const DefaultMaxTokens = 500

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "anthropic",
		Anthropic: AnthropicConfig{Model: "claude-haiku", MaxTokens: DefaultMaxTokens},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:    GeminiConfig{Model: "gemini-flash", MaxTokens: DefaultMaxTokens},
		OpenRouter: CompatibleConfig{
			Model:   "google/gemini-2.0-flash-exp",
			BaseURL: defaultOpenRouterBaseURL,
		},
		Groq: CompatibleConfig{
			Model:   "gemma2-9b-it",
			BaseURL: defaultGroqBaseURL,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from QUIZLY_* environment variables. When
// QUIZLY_LLM_PROVIDER is unset, the first standard API key found selects the
// provider.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if discovered, ok := DiscoverConfig(); ok {
		cfg = discovered
	}

	if p := os.Getenv("QUIZLY_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	setFromEnv(&cfg.Anthropic.APIKey, "QUIZLY_ANTHROPIC_API_KEY")
	setFromEnv(&cfg.Anthropic.Model, "QUIZLY_ANTHROPIC_MODEL")

	setFromEnv(&cfg.OpenAI.APIKey, "QUIZLY_OPENAI_API_KEY")
	setFromEnv(&cfg.OpenAI.Model, "QUIZLY_OPENAI_MODEL")
	setFromEnv(&cfg.OpenAI.BaseURL, "QUIZLY_OPENAI_BASE_URL")

	setFromEnv(&cfg.Gemini.APIKey, "QUIZLY_GEMINI_API_KEY")
	setFromEnv(&cfg.Gemini.Model, "QUIZLY_GEMINI_MODEL")

	setFromEnv(&cfg.OpenRouter.APIKey, "QUIZLY_OPENROUTER_API_KEY")
	setFromEnv(&cfg.OpenRouter.Model, "QUIZLY_OPENROUTER_MODEL")

	setFromEnv(&cfg.Groq.APIKey, "QUIZLY_GROQ_API_KEY")
	setFromEnv(&cfg.Groq.Model, "QUIZLY_GROQ_MODEL")

	if v := os.Getenv("QUIZLY_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Anthropic.MaxTokens = n
			cfg.Gemini.MaxTokens = n
		}
	}

	if t := os.Getenv("QUIZLY_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig checks standard API key env vars in priority order
// (Groq → Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config
// for the first provider whose key is found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GROQ_API_KEY"); k != "" {
		cfg.Provider = "groq"
		cfg.Groq.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case "anthropic":
		key, env = c.Anthropic.APIKey, "QUIZLY_ANTHROPIC_API_KEY"
	case "openai":
		key, env = c.OpenAI.APIKey, "QUIZLY_OPENAI_API_KEY"
	case "gemini":
		key, env = c.Gemini.APIKey, "QUIZLY_GEMINI_API_KEY"
	case "openrouter":
		key, env = c.OpenRouter.APIKey, "QUIZLY_OPENROUTER_API_KEY"
	case "groq":
		key, env = c.Groq.APIKey, "QUIZLY_GROQ_API_KEY"
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%w: %s is required for the %s provider", ErrNotConfigured, env, c.Provider)
	}
	return nil
}
