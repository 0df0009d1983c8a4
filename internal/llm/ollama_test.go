package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ollamaServer(t *testing.T, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, seen)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": `{"title":"T"}`}}},
			})
		case "/v1/models":
			io.WriteString(w, `{"object":"list","data":[{"id":"llama3.1","object":"model"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOllamaGenerate(t *testing.T) {
	var seen map[string]any
	srv := ollamaServer(t, &seen)
	defer srv.Close()

	c, err := NewOllama(srv.URL+"/", "llama3.1")
	if err != nil {
		t.Fatal(err)
	}
	if c.Backend() != "ollama" {
		t.Fatalf("backend = %q", c.Backend())
	}
	req := User("you are a blogger", "write")
	req.Temperature = 0.8
	req.MaxTokens = 4096
	req.Schema = &Schema{Name: "blog_post", Definition: json.RawMessage(`{"type":"object"}`)}
	out, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"title":"T"}` {
		t.Fatalf("out = %q", out)
	}
	if seen["model"] != "llama3.1" || seen["max_tokens"] != float64(4096) {
		t.Fatalf("unexpected request: %v", seen)
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["content"] != "you are a blogger" {
		t.Fatalf("messages = %v", seen["messages"])
	}
	rf, ok := seen["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_schema" {
		t.Fatalf("response_format not sent: %v", seen["response_format"])
	}
	if err := c.Available(context.Background()); err != nil {
		t.Fatalf("available: %v", err)
	}
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewOllama(srv.URL, "m")
	_, err := c.Generate(context.Background(), User("", "x"))
	var te *TransportError
	if !errors.As(err, &te) || !te.Retryable || te.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected retryable transport error, got %v", err)
	}
	if err := c.Available(context.Background()); err == nil {
		t.Fatal("expected availability check to fail")
	}
}

func TestOllamaRequiresModel(t *testing.T) {
	if _, err := NewOllama("", ""); err == nil {
		t.Fatal("expected error without a model")
	}
}
