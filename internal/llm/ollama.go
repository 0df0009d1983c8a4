package llm

import "strings"

// DefaultOllamaBaseURL is where a local Ollama server listens.
const DefaultOllamaBaseURL = "http://localhost:11434"

// NewOllama returns a client for an Ollama server through its
// OpenAI-compatible /v1 API. Response schemas are sent as json_schema
// response formats, which Ollama turns into constrained output.
func NewOllama(baseURL, model string) (*OpenAIClient, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	c, err := newChatClient("ollama", Config{
		// Ollama ignores the key, but the client always sends one.
		APIKey:  "ollama",
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/") + "/v1",
	})
	if err != nil {
		return nil, err
	}
	c.schemas = true
	return c, nil
}
