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

func chatServer(t *testing.T, status int, reply string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		out := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}}},
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func TestOpenAIGenerateSendsSchema(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, `{"selected_numbers":[1]}`, &seen)
	defer srv.Close()

	c, err := NewOpenAI(Config{APIKey: "k", Model: "gpt-test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	req := User("sys", "pick")
	req.MaxTokens = 500
	req.Schema = &Schema{Name: "topic_selection", Definition: json.RawMessage(`{"type":"object"}`)}
	out, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"selected_numbers":[1]}` {
		t.Fatalf("unexpected output %q", out)
	}
	rf, ok := seen["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_schema" {
		t.Fatalf("response_format not sent: %v", seen["response_format"])
	}
	msgs := seen["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["role"] != "system" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
}

func TestClaudeIgnoresSchema(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, "free text", &seen)
	defer srv.Close()

	c, err := NewClaude(Config{APIKey: "k", Model: "claude-test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	req := User("sys", "draft")
	req.Schema = &Schema{Name: "post", Definition: json.RawMessage(`{"type":"object"}`)}
	out, err := c.Generate(context.Background(), req)
	if err != nil || out != "free text" {
		t.Fatalf("generate = %q, %v", out, err)
	}
	if _, ok := seen["response_format"]; ok {
		t.Fatalf("claude backend must not send response_format")
	}
	if c.Backend() != "claude" {
		t.Fatalf("backend = %s", c.Backend())
	}
}

func TestOpenAIClassifiesStatus(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		srv := chatServer(t, tc.status, "", nil)
		c, _ := NewOpenAI(Config{APIKey: "k", Model: "m", BaseURL: srv.URL + "/v1"})
		_, err := c.Generate(context.Background(), User("", "x"))
		srv.Close()
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("status %d: expected TransportError, got %v", tc.status, err)
		}
		if te.Status != tc.status || te.Retryable != tc.retryable {
			t.Errorf("status %d: got status=%d retryable=%v", tc.status, te.Status, te.Retryable)
		}
	}
}

func TestNewOpenAIRequiresModel(t *testing.T) {
	if _, err := NewOpenAI(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error for empty model")
	}
}
