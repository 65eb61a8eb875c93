// Package provider selects and constructs eino chat models for answer
// generation at runtime. The generation cascade tries several model ids
// within a single backend, so construction takes the model id per call while
// credentials and tuning live in the Config.
// Supported backends: OpenAI, Azure OpenAI, Ollama, Google Gemini, Volcengine Ark.
package provider

import (
	"fmt"
	"strings"
)

// Backend enumerates the supported inference providers.
type Backend string

const (
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendArk selects Volcengine Ark.
	BackendArk Backend = "ark"
)

// OpenAISettings holds credentials shared by the openai and azure backends.
type OpenAISettings struct {
	// APIKey is the Bearer token (OpenAI) or api-key (Azure).
	APIKey string
	// BaseURL overrides the API endpoint. Required for azure, where it is the
	// resource endpoint; optional for openai (proxies, compatible servers).
	BaseURL string
	// APIVersion is the Azure OpenAI REST API version (azure only).
	APIVersion string
}

// OllamaSettings holds Ollama connection settings.
type OllamaSettings struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434).
	Host string
}

// GeminiSettings holds Google Gemini credentials.
type GeminiSettings struct {
	// APIKey is the Google AI Studio API key.
	APIKey string
}

// ArkSettings holds Volcengine Ark credentials.
type ArkSettings struct {
	// APIKey is the Ark API key.
	APIKey string
	// BaseURL overrides the Ark API endpoint.
	BaseURL string
}

// Tuning holds construction-time generation parameters. Zero values leave the
// backend default in place.
type Tuning struct {
	// MaxTokens caps the number of tokens the model may generate per response.
	MaxTokens int
	// Temperature controls response randomness (0.0–1.0).
	Temperature float32
}

// Config holds backend credentials and tuning shared by every model id the
// cascade constructs.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	// OpenAI holds OpenAI/Azure credentials.
	OpenAI OpenAISettings

	// Ollama holds Ollama connection settings.
	Ollama OllamaSettings

	// Gemini holds Google Gemini credentials.
	Gemini GeminiSettings

	// Ark holds Volcengine Ark credentials.
	Ark ArkSettings

	// Tuning holds shared generation parameters.
	Tuning Tuning
}

// Validate checks that the config carries everything its backend requires,
// so callers get a clear error at startup rather than on the first request.
// Error messages name the environment variable that fixes the problem.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOllama:
		// Host defaults to localhost; nothing is required.
		return nil

	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("provider: ASKDOCS_OPENAI_API_KEY is required for openai backend")
		}
		return nil

	case BackendAzure:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("provider: ASKDOCS_OPENAI_API_KEY is required for azure backend")
		}
		if c.OpenAI.BaseURL == "" {
			return fmt.Errorf("provider: ASKDOCS_OPENAI_BASE_URL (Azure endpoint) is required for azure backend")
		}
		return nil

	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("provider: ASKDOCS_GEMINI_API_KEY is required for gemini backend")
		}
		return nil

	case BackendArk:
		if c.Ark.APIKey == "" {
			return fmt.Errorf("provider: ASKDOCS_ARK_API_KEY is required for ark backend")
		}
		return nil

	default:
		return fmt.Errorf("provider: unknown backend %q — valid values: openai, azure, ollama, gemini, ark", c.Backend)
	}
}

// isAzureReasoningModel reports whether an Azure deployment name belongs to
// the o-series/codex reasoning family. Those deployments reject the
// max_tokens and temperature parameters, so construction must skip them.
func isAzureReasoningModel(deployment string) bool {
	d := strings.ToLower(deployment)
	if strings.HasPrefix(d, "codex") {
		return true
	}
	// o-series: "o1", "o3-mini", "o4-mini", ...
	return len(d) >= 2 && d[0] == 'o' && d[1] >= '0' && d[1] <= '9'
}
