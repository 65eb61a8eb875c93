package embedder

import (
	"fmt"
	"os"
	"strconv"

	"github.com/askdocs/askdocs-go/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ — override with ASKDOCS_EMBED_DIMENSIONS.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
)

// DefaultDimensions returns the correct default embedding vector size for the
// given backend name. Callers that need to pre-configure the vector store
// (Qdrant collection creation) should use this rather than hardcoding a value.
// ASKDOCS_EMBED_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("ASKDOCS_EMBED_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "ollama":
		return defaultOllamaDimensions
	default:
		return defaultOpenAIDimensions
	}
}

// ResolveBackend returns the effective embedding backend name. ASKDOCS_EMBEDDER
// wins; otherwise the generation backend (ASKDOCS_BACKEND) is inherited so a
// single-backend setup needs only one variable; the final fallback is ollama.
func ResolveBackend() string {
	if backend := getEnv("ASKDOCS_EMBEDDER"); backend != "" {
		return backend
	}
	return getEnvOrDefault("ASKDOCS_BACKEND", "ollama")
}

// NewFromEnv constructs a rag.Embedder using cascading defaults that inherit
// from the generation backend configuration when embedding-specific overrides
// are not set.
//
// Resolution order:
//
//  1. ASKDOCS_EMBEDDER — if unset, inherits ASKDOCS_BACKEND (default: ollama)
//  2. Per-backend credentials are inherited from the generation env vars
//  3. ASKDOCS_EMBED_MODEL — overrides the default model for the resolved backend
//  4. ASKDOCS_EMBED_API_KEY — overrides the inherited API key
//  5. ASKDOCS_EMBED_ENDPOINT — overrides the inherited endpoint
//  6. ASKDOCS_EMBED_DIMENSIONS — overrides the default dimensions (ollama: 768, openai/azure: 1536)
func NewFromEnv() (rag.Embedder, error) {
	switch backend := ResolveBackend(); backend {
	case "ollama":
		host := getEnv("ASKDOCS_EMBED_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("ASKDOCS_OLLAMA_BASE_URL", "http://localhost:11434")
		}
		model := getEnvOrDefault("ASKDOCS_EMBED_MODEL", defaultOllamaModel)
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  host,
			Model: model,
		}), nil

	case "openai":
		dims := getEnvInt("ASKDOCS_EMBED_DIMENSIONS", defaultOpenAIDimensions)
		apiKey := getEnv("ASKDOCS_EMBED_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("ASKDOCS_OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires ASKDOCS_OPENAI_API_KEY or ASKDOCS_EMBED_API_KEY")
		}
		baseURL := getEnv("ASKDOCS_EMBED_ENDPOINT")
		if baseURL == "" {
			baseURL = getEnvOrDefault("ASKDOCS_OPENAI_BASE_URL", "https://api.openai.com/v1")
		}
		model := getEnvOrDefault("ASKDOCS_EMBED_MODEL", defaultOpenAIModel)
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
		}), nil

	case "azure":
		dims := getEnvInt("ASKDOCS_EMBED_DIMENSIONS", defaultOpenAIDimensions)
		apiKey := getEnv("ASKDOCS_EMBED_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("ASKDOCS_OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure requires ASKDOCS_OPENAI_API_KEY or ASKDOCS_EMBED_API_KEY")
		}
		endpoint := getEnv("ASKDOCS_EMBED_ENDPOINT")
		if endpoint == "" {
			endpoint = getEnv("ASKDOCS_OPENAI_BASE_URL")
		}
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires ASKDOCS_OPENAI_BASE_URL or ASKDOCS_EMBED_ENDPOINT")
		}
		apiVersion := getEnvOrDefault("ASKDOCS_OPENAI_API_VERSION", "2025-04-01-preview")
		model := getEnvOrDefault("ASKDOCS_EMBED_MODEL", defaultOpenAIModel)
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    endpoint + "/openai",
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
			Azure:      true,
			APIVersion: apiVersion,
		}), nil

	case "gemini":
		return nil, fmt.Errorf("embedder: gemini embedding support is not yet implemented — set ASKDOCS_EMBEDDER to ollama, openai, or azure")

	case "ark":
		return nil, fmt.Errorf("embedder: ark embedding support is not yet implemented — set ASKDOCS_EMBEDDER to ollama, openai, or azure")

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q — valid values: ollama, openai, azure", backend)
	}
}

// getEnv returns the value of the named environment variable, or empty string.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
