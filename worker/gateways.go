package worker

import (
	"context"
	"log/slog"

	"autopost/internal/config"
	"autopost/internal/llm"
	"autopost/internal/metrics"
)

// GatewayResolver picks the model backend for an account set. A nil result
// means no backend is reachable.
type GatewayResolver interface {
	Gateway(ctx context.Context, set config.AccountSetConfig) llm.Gateway
}

// Backends resolves gateways from configuration: the set's own backend first,
// then the global one, then the global fallback.
type Backends struct {
	cfg     config.LLMConfig
	metrics *metrics.Metrics
	build   func(config.BackendConfig, config.RetryConfig, *metrics.Metrics) (llm.Gateway, error)
}

func NewBackends(cfg config.LLMConfig, m *metrics.Metrics) *Backends {
	return &Backends{cfg: cfg, metrics: m, build: llm.Build}
}

func (b *Backends) Gateway(ctx context.Context, set config.AccountSetConfig) llm.Gateway {
	var candidates []llm.Gateway
	if set.LLM.Provider != "" {
		candidates = append(candidates, b.make(set.LLM))
	}
	candidates = append(candidates, b.make(b.cfg.BackendConfig))
	if b.cfg.Fallback.Provider != "" {
		candidates = append(candidates, b.make(b.cfg.Fallback))
	}
	g, err := llm.Choose(ctx, candidates...)
	if err != nil {
		slog.Warn("backends: no model backend available", "set", set.Name, "error", err)
		return nil
	}
	return g
}

func (b *Backends) make(bc config.BackendConfig) llm.Gateway {
	g, err := b.build(b.cfg.Resolve(bc), b.cfg.Retry, b.metrics)
	if err != nil {
		slog.Warn("backends: cannot build backend", "provider", bc.Provider, "model", bc.Model, "error", err)
		return nil
	}
	return g
}
