package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultClaudeBaseURL is Anthropic's OpenAI-compatible endpoint.
const DefaultClaudeBaseURL = "https://api.anthropic.com/v1"

// OpenAIClient implements Gateway using the Chat Completions API. It also serves
// any OpenAI-compatible endpoint, such as Anthropic's.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	backend string
	// schemas reports whether the endpoint honours json_schema response formats.
	schemas bool
}

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string // optional
	HTTPClient *http.Client
}

// NewOpenAI returns a client for the OpenAI API with structured output enabled.
func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	c, err := newChatClient("openai", cfg)
	if err != nil {
		return nil, err
	}
	c.schemas = true
	return c, nil
}

// NewClaude returns a client for Anthropic's OpenAI-compatible endpoint. Response
// schemas are not sent; the interpreter handles free text.
func NewClaude(cfg Config) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultClaudeBaseURL
	}
	return newChatClient("claude", cfg)
}

func newChatClient(backend string, cfg Config) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, errors.New(backend + ": model must be specified")
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		cc.HTTPClient = cfg.HTTPClient
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cc), model: cfg.Model, backend: backend}, nil
}

func (o *OpenAIClient) Backend() string { return o.backend }

func (o *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	// Default timeout guard, if caller didn't set one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	creq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.Schema != nil && o.schemas {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: req.Schema.Definition,
			},
		}
	}
	resp, err := o.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", o.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Available lists models as a cheap authenticated round trip.
func (o *OpenAIClient) Available(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := o.client.ListModels(ctx); err != nil {
		return o.classify(err)
	}
	return nil
}

func (o *OpenAIClient) classify(err error) error {
	te := &TransportError{Backend: o.backend, Err: err, Retryable: true}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		te.Status = apiErr.HTTPStatusCode
		te.Retryable = retryableStatus(te.Status)
	case errors.As(err, &reqErr):
		te.Status = reqErr.HTTPStatusCode
		te.Retryable = te.Status == 0 || retryableStatus(te.Status)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		te.Retryable = false
	}
	return te
}
