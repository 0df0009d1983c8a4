package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// RetryPolicy bounds attempts on transport failures.
type RetryPolicy struct {
	Attempts  int // total attempts, including the first
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= p.BaseDelay {
		p.MaxDelay = 2 * p.BaseDelay
	}
	return p
}

// Retrying re-issues a request only when the previous attempt failed in transport.
// A response that arrived is returned as-is, however malformed.
type Retrying struct {
	next     Gateway
	backend  string
	executor failsafe.Executor[string]
}

// WithRetry wraps g with exponential backoff on retryable transport errors.
func WithRetry(g Gateway, p RetryPolicy) *Retrying {
	p = p.normalize()
	backend := Name(g)
	policy := retrypolicy.NewBuilder[string]().
		HandleIf(func(_ string, err error) bool {
			return IsRetryable(err)
		}).
		WithBackoff(p.BaseDelay, p.MaxDelay).
		WithJitterFactor(0.1).
		WithMaxRetries(p.Attempts - 1).
		ReturnLastFailure().
		Build()
	return &Retrying{next: g, backend: backend, executor: failsafe.With[string](policy)}
}

func (r *Retrying) Generate(ctx context.Context, req Request) (string, error) {
	attempt := 0
	return r.executor.WithContext(ctx).Get(func() (string, error) {
		attempt++
		out, err := r.next.Generate(ctx, req)
		if err != nil && IsRetryable(err) {
			slog.Warn("llm: transport failure", "backend", r.backend, "attempt", attempt, "error", err)
		}
		return out, err
	})
}

func (r *Retrying) Backend() string { return r.backend }

func (r *Retrying) Available(ctx context.Context) error { return Available(ctx, r.next) }
