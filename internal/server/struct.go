package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/askdocs/askdocs-go/internal/metrics"
	"github.com/askdocs/askdocs-go/internal/session"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Addr is the listen address (default: 127.0.0.1:8080).
	Addr string
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of collaborator probes run by GET /readyz.
	// If empty, /readyz returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on /v1/*
	// (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// Token is the Bearer token required on /v1/* routes.
	// If empty, authentication is disabled (development mode).
	Token string
	// Registry collects this server's Prometheus instruments and backs
	// GET /metrics. If nil, a fresh registry is created.
	Registry *prometheus.Registry
	// Metrics is the instrument set shared with the engine and generator.
	// If nil, a fresh set is registered against Registry. Callers that
	// already registered instruments on Registry must pass them here, since
	// registering the same instruments twice panics.
	Metrics *metrics.Metrics
}

// turner is the interface handleAsk calls to run one question turn.
// *session.Engine satisfies it; tests inject a fake.
type turner interface {
	// Turn runs one retrieve-then-generate turn for the question.
	Turn(ctx context.Context, question string) (*session.TurnResult, error)
}

// Server exposes the question pipeline over HTTP: one turn per request.
type Server struct {
	// turner runs question turns; set to the session engine in production,
	// overridden by a fake in tests.
	turner turner
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of collaborator probes for GET /readyz.
	pingers []Pinger
	// metrics holds the instruments recorded by the middleware and handlers.
	metrics *metrics.Metrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /v1/ask.
type askRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
}

// askResponse is the JSON response for POST /v1/ask.
type askResponse struct {
	// Found reports whether retrieval produced a passage.
	Found bool `json:"found"`
	// Answer is the generated answer. Empty when the cascade was exhausted
	// or nothing was found.
	Answer string `json:"answer,omitempty"`
	// Model is the candidate model that produced the answer.
	Model string `json:"model,omitempty"`
	// Passage is the retrieved passage text (full, not a preview).
	Passage string `json:"passage,omitempty"`
	// PassageID is the ChunkID of the retrieved passage.
	PassageID string `json:"passage_id,omitempty"`
	// Score is the store-reported relevance. Omitted when the store did not
	// report one.
	Score *float32 `json:"score,omitempty"`
}
