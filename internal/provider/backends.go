package provider

import (
	"context"
	"fmt"

	einoark "github.com/cloudwego/eino-ext/components/model/ark"
	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// tokenCap returns a pointer to the configured max-tokens cap, or nil when
// unset so the backend default applies.
func (t Tuning) tokenCap() *int {
	if t.MaxTokens <= 0 {
		return nil
	}
	v := t.MaxTokens
	return &v
}

// temp returns a pointer to the configured temperature, or nil when unset.
func (t Tuning) temp() *float32 {
	if t.Temperature <= 0 {
		return nil
	}
	v := t.Temperature
	return &v
}

// newOpenAI constructs a chat model backed by the OpenAI API.
func newOpenAI(ctx context.Context, cfg *Config, modelID string) (model.BaseChatModel, error) {
	return einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{ //nolint:wrapcheck // constructor passthrough
		Model:       modelID,
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		MaxTokens:   cfg.Tuning.tokenCap(),
		Temperature: cfg.Tuning.temp(),
	})
}

// newAzure constructs a chat model backed by Azure OpenAI Service. The model
// id is the deployment name. Reasoning deployments (o-series, codex) reject
// the max_tokens and temperature parameters, so those are skipped for them.
func newAzure(ctx context.Context, cfg *Config, modelID string) (model.BaseChatModel, error) {
	mc := &einoopenai.ChatModelConfig{
		Model:      modelID,
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		ByAzure:    true,
		APIVersion: cfg.OpenAI.APIVersion,
		// Use the deployment name as-is — the default mapper strips dots/colons
		// which breaks deployment names like "gpt-4.1".
		AzureModelMapperFunc: func(model string) string { return model },
	}
	if !isAzureReasoningModel(modelID) {
		mc.MaxTokens = cfg.Tuning.tokenCap()
		mc.Temperature = cfg.Tuning.temp()
	}
	return einoopenai.NewChatModel(ctx, mc) //nolint:wrapcheck // constructor passthrough
}

// newOllama constructs a chat model backed by a local Ollama instance.
func newOllama(ctx context.Context, cfg *Config, modelID string) (model.BaseChatModel, error) {
	baseURL := cfg.Ollama.Host
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return einoollama.NewChatModel(ctx, &einoollama.ChatModelConfig{ //nolint:wrapcheck // constructor passthrough
		BaseURL: baseURL,
		Model:   modelID,
	})
}

// newGemini constructs a chat model backed by Google Gemini (AI Studio).
func newGemini(ctx context.Context, cfg *Config, modelID string) (model.BaseChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: failed to create Gemini client: %w", err)
	}
	return einogemini.NewChatModel(ctx, &einogemini.Config{ //nolint:wrapcheck // constructor passthrough
		Client: client,
		Model:  modelID,
	})
}

// newArk constructs a chat model backed by Volcengine Ark.
func newArk(ctx context.Context, cfg *Config, modelID string) (model.BaseChatModel, error) {
	return einoark.NewChatModel(ctx, &einoark.ChatModelConfig{ //nolint:wrapcheck // constructor passthrough
		Model:       modelID,
		APIKey:      cfg.Ark.APIKey,
		BaseURL:     cfg.Ark.BaseURL,
		MaxTokens:   cfg.Tuning.tokenCap(),
		Temperature: cfg.Tuning.temp(),
	})
}
