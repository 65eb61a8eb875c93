// Package config provides YAML-based configuration for askdocs.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win, so existing workflows are unaffected.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. ASKDOCS_CONFIG environment variable
//  3. ~/.askdocs/config.yaml
//  4. ./askdocs.yaml
//
// If no file is found the system runs entirely from env vars (backwards compatible).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Generation configures the answer-generation backend and model cascade.
	Generation GenerationConfig `yaml:"generation"`

	// Embedding configures the embedding provider for the vector store.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Qdrant configures the Qdrant vector store connection.
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Ingest configures chunking and the ingestion worker pool.
	Ingest IngestConfig `yaml:"ingest"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// History configures conversation history persistence.
	History HistoryConfig `yaml:"history"`

	// Tracing configures Langfuse tracing integration.
	Tracing TracingConfig `yaml:"tracing"`
}

// GenerationConfig holds answer-generation settings.
type GenerationConfig struct {
	// Backend selects the generation backend: openai, azure, ollama, gemini, ark.
	Backend string `yaml:"backend"`

	// Models is the ordered fallback cascade of model identifiers. The
	// generator tries each in order and stops at the first success.
	Models []string `yaml:"models"`

	// TokenBudget caps total generation output tokens per session (0 = unlimited).
	TokenBudget int `yaml:"token_budget"`

	// OpenAI holds OpenAI/Azure-specific settings.
	OpenAI OpenAIConfig `yaml:"openai"`

	// Ollama holds Ollama-specific settings.
	Ollama OllamaConfig `yaml:"ollama"`

	// Gemini holds Google Gemini-specific settings.
	Gemini GeminiConfig `yaml:"gemini"`

	// Ark holds Volcengine Ark-specific settings.
	Ark ArkConfig `yaml:"ark"`
}

// OpenAIConfig holds OpenAI (and Azure OpenAI) settings.
type OpenAIConfig struct {
	// APIKey is the API key. Prefer env var ASKDOCS_OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the API endpoint (set to the resource endpoint for Azure).
	BaseURL string `yaml:"base_url"`
	// APIVersion is the Azure OpenAI API version (azure backend only).
	APIVersion string `yaml:"api_version"`
}

// OllamaConfig holds Ollama settings.
type OllamaConfig struct {
	// BaseURL is the Ollama API endpoint.
	BaseURL string `yaml:"base_url"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var ASKDOCS_GEMINI_API_KEY.
	APIKey string `yaml:"api_key"`
}

// ArkConfig holds Volcengine Ark settings.
type ArkConfig struct {
	// APIKey is the Ark API key. Prefer env var ASKDOCS_ARK_API_KEY.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the Ark API endpoint.
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend (ollama, openai, azure).
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var ASKDOCS_EMBED_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	// Host is the Qdrant server hostname.
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port.
	Port int `yaml:"port"`
	// Collection is the Qdrant collection name.
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var ASKDOCS_QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	// TLS enables TLS for the Qdrant connection.
	TLS bool `yaml:"tls"`
}

// IngestConfig holds chunking and ingestion pipeline settings.
type IngestConfig struct {
	// MaxChars is the chunk size ceiling in characters.
	MaxChars int `yaml:"max_chars"`
	// Workers bounds the ingestion worker pool (0 = min(32, NumCPU)).
	Workers int `yaml:"workers"`
	// Rate throttles vector store inserts per second (0 = unlimited).
	Rate int `yaml:"rate"`
	// SettleSeconds overrides the post-ingest index settle delay.
	SettleSeconds int `yaml:"settle_seconds"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`
	// Token is the Bearer token for API authentication. Prefer env var ASKDOCS_SERVER_TOKEN.
	Token string `yaml:"token"`
	// Rate is the per-client request rate limit per second.
	Rate int `yaml:"rate"`
	// Burst is the per-client rate limit burst size.
	Burst int `yaml:"burst"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// HistoryConfig holds conversation history settings.
type HistoryConfig struct {
	// DBPath is the SQLite database path. Set to "disabled" to disable.
	DBPath string `yaml:"db_path"`
}

// TracingConfig holds Langfuse tracing settings.
type TracingConfig struct {
	// PublicKey is the Langfuse public key. Prefer env var LANGFUSE_PUBLIC_KEY.
	PublicKey string `yaml:"public_key"`
	// SecretKey is the Langfuse secret key. Prefer env var LANGFUSE_SECRET_KEY.
	SecretKey string `yaml:"secret_key"`
	// Host is the Langfuse API host.
	Host string `yaml:"host"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"ASKDOCS_BACKEND", func(c *Config) string { return c.Generation.Backend }},
	{"ASKDOCS_MODELS", func(c *Config) string { return strings.Join(c.Generation.Models, ",") }},
	{"ASKDOCS_TOKEN_BUDGET", func(c *Config) string { return intStr(c.Generation.TokenBudget) }},
	{"ASKDOCS_OPENAI_API_KEY", func(c *Config) string { return c.Generation.OpenAI.APIKey }},
	{"ASKDOCS_OPENAI_BASE_URL", func(c *Config) string { return c.Generation.OpenAI.BaseURL }},
	{"ASKDOCS_OPENAI_API_VERSION", func(c *Config) string { return c.Generation.OpenAI.APIVersion }},
	{"ASKDOCS_OLLAMA_BASE_URL", func(c *Config) string { return c.Generation.Ollama.BaseURL }},
	{"ASKDOCS_GEMINI_API_KEY", func(c *Config) string { return c.Generation.Gemini.APIKey }},
	{"ASKDOCS_ARK_API_KEY", func(c *Config) string { return c.Generation.Ark.APIKey }},
	{"ASKDOCS_ARK_BASE_URL", func(c *Config) string { return c.Generation.Ark.BaseURL }},
	{"ASKDOCS_EMBEDDER", func(c *Config) string { return c.Embedding.Provider }},
	{"ASKDOCS_EMBED_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"ASKDOCS_EMBED_DIMENSIONS", func(c *Config) string { return intStr(c.Embedding.Dimensions) }},
	{"ASKDOCS_EMBED_API_KEY", func(c *Config) string { return c.Embedding.APIKey }},
	{"ASKDOCS_EMBED_ENDPOINT", func(c *Config) string { return c.Embedding.Endpoint }},
	{"ASKDOCS_QDRANT_HOST", func(c *Config) string { return c.Qdrant.Host }},
	{"ASKDOCS_QDRANT_PORT", func(c *Config) string { return intStr(c.Qdrant.Port) }},
	{"ASKDOCS_COLLECTION", func(c *Config) string { return c.Qdrant.Collection }},
	{"ASKDOCS_QDRANT_API_KEY", func(c *Config) string { return c.Qdrant.APIKey }},
	{"ASKDOCS_QDRANT_USE_TLS", func(c *Config) string { return boolStr(c.Qdrant.TLS) }},
	{"ASKDOCS_MAX_CHARS", func(c *Config) string { return intStr(c.Ingest.MaxChars) }},
	{"ASKDOCS_INGEST_WORKERS", func(c *Config) string { return intStr(c.Ingest.Workers) }},
	{"ASKDOCS_INGEST_RATE", func(c *Config) string { return intStr(c.Ingest.Rate) }},
	{"ASKDOCS_SETTLE_SECONDS", func(c *Config) string { return intStr(c.Ingest.SettleSeconds) }},
	{"ASKDOCS_SERVER_ADDR", func(c *Config) string { return c.Server.Addr }},
	{"ASKDOCS_SERVER_TOKEN", func(c *Config) string { return c.Server.Token }},
	{"ASKDOCS_SERVER_RATE", func(c *Config) string { return intStr(c.Server.Rate) }},
	{"ASKDOCS_SERVER_BURST", func(c *Config) string { return intStr(c.Server.Burst) }},
	{"ASKDOCS_LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"ASKDOCS_LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
	{"ASKDOCS_HISTORY_DB", func(c *Config) string { return c.History.DBPath }},
	{"LANGFUSE_PUBLIC_KEY", func(c *Config) string { return c.Tracing.PublicKey }},
	{"LANGFUSE_SECRET_KEY", func(c *Config) string { return c.Tracing.SecretKey }},
	{"LANGFUSE_HOST", func(c *Config) string { return c.Tracing.Host }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" || yamlVal == "0" || yamlVal == "false" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env var already set — do not override
		}
		os.Setenv(m.envKey, yamlVal)
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("ASKDOCS_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".askdocs", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("askdocs.yaml"); err == nil {
		return "askdocs.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
