package embedder

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// knownChatModelPrefixes contains name fragments that identify chat/completion
// models which are NOT suitable for embedding. If ASKDOCS_EMBED_MODEL matches
// any of these, a warning is emitted so the operator knows they may have
// misconfigured the pipeline.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
	"solar",
	"vicuna",
	"falcon",
	"yi-",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// Validate checks that the embedder configuration is usable. It returns an
// error if the configuration is clearly broken (e.g. azure embedder with no
// API key), and logs a warning if ASKDOCS_EMBED_MODEL looks like a chat model
// rather than an embedding model.
//
// This is a pre-flight check — call it before constructing the embedder or
// the vector store so operators get a clear error at startup rather than a
// cryptic failure during the first embed call.
func Validate(log *slog.Logger) error {
	backend := ResolveBackend()

	// Warn when a non-local backend was inherited from the generation config
	// rather than set explicitly — the operator may not have intended to pay
	// for remote embeddings.
	if backend != "ollama" && os.Getenv("ASKDOCS_EMBEDDER") == "" {
		log.Warn("embedder: ASKDOCS_EMBEDDER is not set — inheriting ASKDOCS_BACKEND as embedding backend",
			slog.String("backend", backend),
			slog.String("hint", "set ASKDOCS_EMBEDDER=ollama (or openai/azure) to be explicit"),
		)
	}

	// Validate backend-specific required config.
	switch backend {
	case "ollama":
		// Local backend — nothing required.

	case "openai":
		apiKey := os.Getenv("ASKDOCS_EMBED_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("ASKDOCS_OPENAI_API_KEY")
		}
		if apiKey == "" {
			return fmt.Errorf("embedder: openai embedding requires an API key — set ASKDOCS_OPENAI_API_KEY or ASKDOCS_EMBED_API_KEY")
		}

	case "azure":
		apiKey := os.Getenv("ASKDOCS_EMBED_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("ASKDOCS_OPENAI_API_KEY")
		}
		if apiKey == "" {
			return fmt.Errorf("embedder: azure embedding requires an API key — set ASKDOCS_OPENAI_API_KEY or ASKDOCS_EMBED_API_KEY")
		}
		endpoint := os.Getenv("ASKDOCS_EMBED_ENDPOINT")
		if endpoint == "" {
			endpoint = os.Getenv("ASKDOCS_OPENAI_BASE_URL")
		}
		if endpoint == "" {
			return fmt.Errorf("embedder: azure embedding requires an endpoint — set ASKDOCS_OPENAI_BASE_URL or ASKDOCS_EMBED_ENDPOINT")
		}

	case "gemini", "ark":
		return fmt.Errorf("embedder: %s embedding is not yet implemented — set ASKDOCS_EMBEDDER to ollama, openai, or azure", backend)

	default:
		return fmt.Errorf("embedder: unknown backend %q — valid values: ollama, openai, azure", backend)
	}

	// Warn if ASKDOCS_EMBED_MODEL looks like a chat model.
	model := os.Getenv("ASKDOCS_EMBED_MODEL")
	if model != "" && looksLikeChatModel(model) {
		log.Warn("embedder: ASKDOCS_EMBED_MODEL looks like a chat model, not an embedding model — "+
			"this will likely produce poor or broken embeddings",
			slog.String("model", model),
			slog.String("hint", "use a dedicated embedding model e.g. nomic-embed-text, text-embedding-3-small"),
		)
	}

	return nil
}
