package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"autopost/internal/config"
	"autopost/internal/metrics"
)

// New builds the backend named by cfg.Provider.
func New(cfg config.BackendConfig) (Gateway, error) {
	c := Config{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAI(c)
	case "claude", "anthropic":
		return NewClaude(c)
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// Build wraps a backend with metrics and the configured retry policy.
func Build(cfg config.BackendConfig, retry config.RetryConfig, m *metrics.Metrics) (Gateway, error) {
	g, err := New(cfg)
	if err != nil {
		return nil, err
	}
	p, err := ParseRetry(retry)
	if err != nil {
		return nil, err
	}
	return WithRetry(Instrument(g, m), p), nil
}

// ParseRetry converts the config strings into a RetryPolicy.
func ParseRetry(cfg config.RetryConfig) (RetryPolicy, error) {
	p := RetryPolicy{Attempts: cfg.Attempts}
	var err error
	if cfg.BaseDelay != "" {
		if p.BaseDelay, err = time.ParseDuration(cfg.BaseDelay); err != nil {
			return p, fmt.Errorf("llm: invalid retry base_delay: %w", err)
		}
	}
	if cfg.MaxDelay != "" {
		if p.MaxDelay, err = time.ParseDuration(cfg.MaxDelay); err != nil {
			return p, fmt.Errorf("llm: invalid retry max_delay: %w", err)
		}
	}
	return p, nil
}

// Choose returns the first candidate whose probe succeeds, skipping nil entries.
func Choose(ctx context.Context, candidates ...Gateway) (Gateway, error) {
	for _, g := range candidates {
		if g == nil {
			continue
		}
		if err := Available(ctx, g); err != nil {
			slog.Warn("llm: backend unavailable", "backend", Name(g), "error", err)
			continue
		}
		return g, nil
	}
	return nil, ErrUnavailable
}

// Instrumented records call outcomes and latency for every attempt.
type Instrumented struct {
	next    Gateway
	metrics *metrics.Metrics
}

// Instrument returns g unchanged when m is nil.
func Instrument(g Gateway, m *metrics.Metrics) Gateway {
	if m == nil {
		return g
	}
	return &Instrumented{next: g, metrics: m}
}

func (i *Instrumented) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := i.next.Generate(ctx, req)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case strings.TrimSpace(out) == "":
		outcome = "empty"
	}
	i.metrics.GatewayCall(Name(i.next), outcome, time.Since(start).Seconds())
	return out, err
}

func (i *Instrumented) Backend() string { return Name(i.next) }

func (i *Instrumented) Available(ctx context.Context) error { return Available(ctx, i.next) }
