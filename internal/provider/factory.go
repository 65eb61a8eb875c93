package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino/components/model"
)

// ConfigFromEnv resolves provider configuration from environment variables.
// ASKDOCS_BACKEND selects the backend; each backend uses its own credential
// variables. Tuning is left zero — callers set it per prompt variant.
//
// Environment variables:
//
//	ASKDOCS_BACKEND             = openai | azure | ollama | gemini | ark (default: openai)
//
//	OpenAI:  ASKDOCS_OPENAI_API_KEY, ASKDOCS_OPENAI_BASE_URL (optional override)
//	Azure:   ASKDOCS_OPENAI_API_KEY, ASKDOCS_OPENAI_BASE_URL (resource endpoint),
//	         ASKDOCS_OPENAI_API_VERSION (default: 2024-02-01)
//	Ollama:  ASKDOCS_OLLAMA_BASE_URL (default: http://localhost:11434)
//	Gemini:  ASKDOCS_GEMINI_API_KEY
//	Ark:     ASKDOCS_ARK_API_KEY, ASKDOCS_ARK_BASE_URL (optional override)
func ConfigFromEnv() *Config {
	return &Config{
		Backend: Backend(getEnvOrDefault("ASKDOCS_BACKEND", string(BackendOpenAI))),
		OpenAI: OpenAISettings{
			APIKey:     os.Getenv("ASKDOCS_OPENAI_API_KEY"),
			BaseURL:    os.Getenv("ASKDOCS_OPENAI_BASE_URL"),
			APIVersion: getEnvOrDefault("ASKDOCS_OPENAI_API_VERSION", "2024-02-01"),
		},
		Ollama: OllamaSettings{
			Host: getEnvOrDefault("ASKDOCS_OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Gemini: GeminiSettings{
			APIKey: os.Getenv("ASKDOCS_GEMINI_API_KEY"),
		},
		Ark: ArkSettings{
			APIKey:  os.Getenv("ASKDOCS_ARK_API_KEY"),
			BaseURL: os.Getenv("ASKDOCS_ARK_BASE_URL"),
		},
	}
}

// New constructs a chat model for one candidate model id, delegating to the
// appropriate backend constructor. The config is validated first.
func New(ctx context.Context, cfg *Config, modelID string) (model.BaseChatModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if modelID == "" {
		return nil, fmt.Errorf("provider: model id must not be empty")
	}

	switch cfg.Backend {
	case BackendOpenAI:
		return newOpenAI(ctx, cfg, modelID)
	case BackendAzure:
		return newAzure(ctx, cfg, modelID)
	case BackendOllama:
		return newOllama(ctx, cfg, modelID)
	case BackendGemini:
		return newGemini(ctx, cfg, modelID)
	case BackendArk:
		return newArk(ctx, cfg, modelID)
	default:
		return nil, fmt.Errorf("provider: unknown backend %q — valid values: openai, azure, ollama, gemini, ark", cfg.Backend)
	}
}

// NewFromEnv constructs a chat model for the given model id with
// configuration resolved from the environment.
func NewFromEnv(ctx context.Context, modelID string, tuning Tuning) (model.BaseChatModel, error) {
	cfg := ConfigFromEnv()
	cfg.Tuning = tuning
	return New(ctx, cfg, modelID)
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
