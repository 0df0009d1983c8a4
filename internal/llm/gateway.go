package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Gateway sends a prompt to a language-model backend and returns the raw text.
// An empty string with a nil error is a successful, empty response.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Prober is implemented by backends that can report availability before any call.
type Prober interface {
	Available(ctx context.Context) error
}

// Named is implemented by backends that report a name for logs and metrics.
type Named interface {
	Backend() string
}

// Message is one conversation turn.
type Message struct {
	Role    string
	Content string
}

// Schema asks for schema-constrained output. Backends without support ignore it.
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// Request is the backend-neutral request shape.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	Schema      *Schema
}

// User builds a request with a single user message.
func User(system, content string) Request {
	return Request{System: system, Messages: []Message{{Role: RoleUser, Content: content}}}
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrUnavailable is returned when no configured backend answers its probe.
var ErrUnavailable = errors.New("llm: no backend available")

// TransportError reports a failure to obtain a response from the backend.
type TransportError struct {
	Backend   string
	Status    int // HTTP status, 0 when the request never completed
	Retryable bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("llm %s: status=%d: %v", e.Backend, e.Status, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transport failure worth another attempt.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Retryable
}

// retryableStatus covers throttling and server-side failures.
func retryableStatus(status int) bool {
	return status == 429 || status >= 500
}

// Name returns the backend name of g, or "unknown".
func Name(g Gateway) string {
	if n, ok := g.(Named); ok {
		return n.Backend()
	}
	return "unknown"
}

// Available probes g when it supports probing; other gateways are assumed available.
func Available(ctx context.Context, g Gateway) error {
	if g == nil {
		return ErrUnavailable
	}
	if p, ok := g.(Prober); ok {
		return p.Available(ctx)
	}
	return nil
}
