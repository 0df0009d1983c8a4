package worker

import (
	"context"
	"errors"
	"testing"

	"autopost/internal/config"
	"autopost/internal/llm"
	"autopost/internal/metrics"
)

type namedGateway struct {
	name string
	down bool
}

func (g namedGateway) Generate(context.Context, llm.Request) (string, error) { return "", nil }
func (g namedGateway) Backend() string { return g.name }
func (g namedGateway) Available(context.Context) error {
	if g.down {
		return errors.New("down")
	}
	return nil
}

func fakeBackends(cfg config.LLMConfig, down map[string]bool, keys map[string]string) *Backends {
	b := NewBackends(cfg, nil)
	b.build = func(bc config.BackendConfig, _ config.RetryConfig, _ *metrics.Metrics) (llm.Gateway, error) {
		if bc.Provider == "broken" {
			return nil, errors.New("unknown provider")
		}
		keys[bc.Provider+"/"+bc.Model] = bc.APIKey
		return namedGateway{name: bc.Provider + "/" + bc.Model, down: down[bc.Provider]}, nil
	}
	return b
}

func TestBackendsPreferenceOrder(t *testing.T) {
	cfg := config.LLMConfig{
		BackendConfig: config.BackendConfig{Provider: "openai", Model: "gpt", APIKey: "sk-global"},
		Fallback:      config.BackendConfig{Provider: "ollama", Model: "llama"},
		AnthropicKey:  "sk-ant",
	}
	keys := map[string]string{}
	set := config.AccountSetConfig{Name: "s", LLM: config.BackendConfig{Provider: "claude", Model: "sonnet"}}

	g := fakeBackends(cfg, nil, keys).Gateway(context.Background(), set)
	if llm.Name(g) != "claude/sonnet" || keys["claude/sonnet"] != "sk-ant" {
		t.Fatalf("got %s, keys %v", llm.Name(g), keys)
	}

	g = fakeBackends(cfg, map[string]bool{"claude": true}, keys).Gateway(context.Background(), set)
	if llm.Name(g) != "openai/gpt" {
		t.Fatalf("got %s", llm.Name(g))
	}

	g = fakeBackends(cfg, map[string]bool{"claude": true, "openai": true}, keys).Gateway(context.Background(), set)
	if llm.Name(g) != "ollama/llama" {
		t.Fatalf("got %s", llm.Name(g))
	}

	g = fakeBackends(cfg, map[string]bool{"claude": true, "openai": true, "ollama": true}, keys).Gateway(context.Background(), set)
	if g != nil {
		t.Fatalf("expected no gateway, got %s", llm.Name(g))
	}
}

func TestBackendsSkipsUnbuildable(t *testing.T) {
	cfg := config.LLMConfig{BackendConfig: config.BackendConfig{Provider: "openai", Model: "gpt"}}
	set := config.AccountSetConfig{LLM: config.BackendConfig{Provider: "broken"}}
	g := fakeBackends(cfg, nil, map[string]string{}).Gateway(context.Background(), set)
	if llm.Name(g) != "openai/gpt" {
		t.Fatalf("got %s", llm.Name(g))
	}
}
