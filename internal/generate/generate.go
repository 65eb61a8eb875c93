// Package generate produces grounded answers from a retrieved passage via an
// ordered fallback cascade of candidate models. One grounding prompt is built
// per turn; each candidate model is tried in order with the same prompt, and
// the cascade stops at the first success. Exhausting every candidate is a
// normal outcome — the caller falls back to showing the raw passage.
//
// "Which model" is configuration data: the cascade order comes from
// ASKDOCS_MODELS, and every candidate runs against the single backend
// selected by ASKDOCS_BACKEND.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/askdocs/askdocs-go/internal/budget"
	"github.com/askdocs/askdocs-go/internal/logging"
	"github.com/askdocs/askdocs-go/internal/metrics"
	"github.com/askdocs/askdocs-go/internal/provider"
	"github.com/askdocs/askdocs-go/internal/rag"
)

// DefaultModels is the fallback cascade used when ASKDOCS_MODELS is unset.
var DefaultModels = []string{"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"}

// defaultTimeout bounds each individual model attempt. A timed-out attempt
// is an ordinary cascade failure, not a turn abort.
const defaultTimeout = 90 * time.Second

// Params are the generation parameters for one prompt variant.
type Params struct {
	// Temperature controls response randomness.
	Temperature float32
	// MaxTokens caps the tokens the model may generate per response.
	MaxTokens int
}

// PassageParams are the parameters for free-text passage grounding: low
// temperature keeps the answer factual, 512 tokens fits a concise reply.
var PassageParams = Params{Temperature: 0.3, MaxTokens: 512}

// FAQParams are the parameters for FAQ grounding: the canonical answer
// already exists, so a warmer rephrasing in fewer tokens is enough.
var FAQParams = Params{Temperature: 0.7, MaxTokens: 256}

// Answer is a generated answer grounded in one stored passage.
type Answer struct {
	// Text is the generated answer.
	Text string
	// SourcePassageID is the ChunkID of the passage the answer is grounded in.
	SourcePassageID string
	// Model is the candidate model that produced the answer.
	Model string
}

// ModelFactory constructs a chat model for one candidate model id with the
// given parameters. provider-backed factories come from ProviderFactory;
// tests inject fakes.
type ModelFactory func(ctx context.Context, modelID string, p Params) (model.BaseChatModel, error)

// ProviderFactory adapts a provider.Config into a ModelFactory. The config
// is copied per call so per-variant tuning never leaks between instances.
func ProviderFactory(cfg *provider.Config) ModelFactory {
	return func(ctx context.Context, modelID string, p Params) (model.BaseChatModel, error) {
		c := *cfg
		c.Tuning = provider.Tuning{
			MaxTokens:   p.MaxTokens,
			Temperature: p.Temperature,
		}
		return provider.New(ctx, &c, modelID)
	}
}

// ModelsFromEnv returns the cascade order from ASKDOCS_MODELS
// (comma-separated), or DefaultModels when unset.
func ModelsFromEnv() []string {
	raw := os.Getenv("ASKDOCS_MODELS")
	if strings.TrimSpace(raw) == "" {
		return DefaultModels
	}
	var models []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return DefaultModels
	}
	return models
}

// Config holds the tunables for a Generator.
type Config struct {
	// Models is the ordered candidate cascade. Defaults to DefaultModels.
	Models []string
	// Factory constructs chat models per candidate. Required.
	Factory ModelFactory
	// Budget caps generation output tokens across the session. Nil means
	// unlimited.
	Budget *budget.Budget
	// Metrics records cascade attempts and latency. Nil disables recording.
	Metrics *metrics.Metrics
	// Timeout bounds each model attempt. Defaults to 90s.
	Timeout time.Duration
}

// Generator runs the generation cascade. Safe for sequential per-turn use;
// the model cache is additionally guarded for the HTTP server, which may
// serve turns concurrently.
type Generator struct {
	models  []string
	factory ModelFactory
	budget  *budget.Budget
	metrics *metrics.Metrics
	timeout time.Duration

	// mu protects cache.
	mu sync.Mutex
	// cache holds one constructed model per (candidate, variant) so repeated
	// turns do not rebuild clients.
	cache map[cacheKey]model.BaseChatModel
}

// cacheKey identifies one constructed model instance.
type cacheKey struct {
	model string
	faq   bool
}

// New constructs a Generator from the provided config.
func New(cfg *Config) (*Generator, error) {
	if cfg == nil || cfg.Factory == nil {
		return nil, fmt.Errorf("generate: model factory must not be nil")
	}

	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModels
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	b := cfg.Budget
	if b == nil {
		b = budget.New(0)
	}

	return &Generator{
		models:  models,
		factory: cfg.Factory,
		budget:  b,
		metrics: cfg.Metrics,
		timeout: timeout,
		cache:   make(map[cacheKey]model.BaseChatModel),
	}, nil
}

// Models reports the resolved cascade order.
func (g *Generator) Models() []string {
	return g.models
}

// Generate tries each candidate model in order with one grounding prompt and
// returns the first successful answer. A nil answer with a nil error means
// every candidate failed (or the token budget ran out) — the caller shows
// the raw passage instead. The passage text goes into the prompt verbatim;
// truncation is the backend's concern.
func (g *Generator) Generate(ctx context.Context, question string, passage rag.Document) (*Answer, error) {
	log := logging.FromContext(ctx)
	params := paramsFor(passage)
	msgs := buildPrompt(question, passage)

	for _, candidate := range g.models {
		if !g.budget.Reserve(params.MaxTokens) {
			log.Warn("generate: token budget depleted, ending cascade",
				slog.String("model", candidate),
				slog.Int("needed", params.MaxTokens),
			)
			break
		}

		text, err := g.attempt(ctx, candidate, params, passage.IsFAQ(), msgs)
		if err != nil {
			g.budget.Refund(params.MaxTokens)
			g.metrics.CascadeAttempt(candidate, false)
			log.Warn("generate: model attempt failed, trying next candidate",
				slog.String("model", candidate),
				slog.Any("error", err),
			)
			continue
		}

		g.metrics.CascadeAttempt(candidate, true)
		return &Answer{
			Text:            text,
			SourcePassageID: passage.ChunkID,
			Model:           candidate,
		}, nil
	}

	log.Warn("generate: cascade exhausted, no generated answer",
		slog.Int("candidates", len(g.models)),
		slog.String("passage_id", passage.ChunkID),
	)
	return nil, nil
}

// attempt runs one candidate model against the prompt under the per-attempt
// timeout. Any failure — construction, transport, or an empty response — is
// reported uniformly so the cascade moves on.
func (g *Generator) attempt(ctx context.Context, candidate string, p Params, faq bool, msgs []*schema.Message) (string, error) {
	cm, err := g.modelFor(ctx, candidate, p, faq)
	if err != nil {
		return "", fmt.Errorf("construct: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := cm.Generate(attemptCtx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("generate: empty response")
	}

	g.metrics.ObserveGeneration(candidate, time.Since(start))
	return strings.TrimSpace(resp.Content), nil
}

// modelFor returns the cached model instance for the candidate and variant,
// constructing it on first use.
func (g *Generator) modelFor(ctx context.Context, candidate string, p Params, faq bool) (model.BaseChatModel, error) {
	key := cacheKey{model: candidate, faq: faq}

	g.mu.Lock()
	cm, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		return cm, nil
	}

	cm, err := g.factory(ctx, candidate, p)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.cache[key] = cm
	g.mu.Unlock()
	return cm, nil
}

// paramsFor selects the prompt variant parameters for a passage.
func paramsFor(passage rag.Document) Params {
	if passage.IsFAQ() {
		return FAQParams
	}
	return PassageParams
}

// buildPrompt renders the grounding prompt for a question and its retrieved
// passage. The passage is inserted verbatim.
func buildPrompt(question string, passage rag.Document) []*schema.Message {
	if passage.IsFAQ() {
		return []*schema.Message{
			schema.SystemMessage("You are a friendly support assistant. Answer using only the FAQ entry provided; do not invent information beyond it."),
			schema.UserMessage(fmt.Sprintf(
				"A user asked: %q\n\nThe closest FAQ entry is:\nQ: %s\nA: %s\n\nAnswer the user's question in a helpful, conversational tone using only this entry.",
				question, passage.Question, passage.Content,
			)),
		}
	}

	return []*schema.Message{
		schema.SystemMessage("You answer questions strictly from the passage provided. If the passage does not contain the answer, say so plainly."),
		schema.UserMessage(fmt.Sprintf(
			"A user asked: %q\n\nHere is a passage retrieved from the corpus:\n---\n%s\n---\n\nBased only on the information provided in the passage, answer the question. Be concise and factual.",
			question, passage.Content,
		)),
	}
}
