package drafter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"autopost/internal/interpret"
	"autopost/internal/llm"
	"autopost/internal/metrics"
	"autopost/internal/model"
)

// ErrEmptyResponse means the model answered with nothing; no draft is produced.
var ErrEmptyResponse = errors.New("drafter: empty model response")

// maxBodyRunes bounds how much source text goes into a prompt.
const maxBodyRunes = 4000

// Drafter writes one structured post per topic.
type Drafter struct {
	gw          llm.Gateway
	timeout     time.Duration
	maxTokens   int
	temperature float32
	metrics     *metrics.Metrics
}

type Option func(*Drafter)

func WithTimeout(d time.Duration) Option { return func(x *Drafter) { x.timeout = d } }

func WithMaxTokens(n int) Option { return func(x *Drafter) { x.maxTokens = n } }

func WithTemperature(t float32) Option { return func(x *Drafter) { x.temperature = t } }

func WithMetrics(m *metrics.Metrics) Option { return func(x *Drafter) { x.metrics = m } }

func New(gw llm.Gateway, opts ...Option) *Drafter {
	d := &Drafter{
		gw:          gw,
		timeout:     10 * time.Minute,
		maxTokens:   4096,
		temperature: 0.8,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Draft generates a post for topic. A non-nil error means no draft; the caller
// skips the topic and leaves it unused.
func (d *Drafter) Draft(ctx context.Context, topic model.Topic, account model.Account) (*model.PostDraft, error) {
	if d.gw == nil {
		d.metrics.Draft(account.Name, "unavailable")
		return nil, llm.ErrUnavailable
	}
	tmpl := Lookup(account.TemplateKey())
	req := llm.User(systemPrompt(account), tmpl(NewPromptData(topic, account, maxBodyRunes)))
	req.MaxTokens = d.maxTokens
	req.Temperature = d.temperature
	req.Schema = &llm.Schema{Name: "blog_post", Definition: interpret.PostSchema()}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	raw, err := d.gw.Generate(callCtx, req)
	cancel()
	if err != nil {
		d.metrics.Draft(account.Name, "error")
		return nil, fmt.Errorf("draft %q: %w", topic.Title, err)
	}
	post, tier, ok := interpret.Post(raw, topic.Title)
	if !ok {
		d.metrics.Draft(account.Name, "empty")
		return nil, ErrEmptyResponse
	}
	post.Category = CoerceCategory(post.Category, account.Categories)
	post.Tags = NormalizeTags(post.Tags, account.DefaultTags)
	d.metrics.Draft(account.Name, "ok")
	slog.Info("drafter: drafted", "account", account.Name, "title", post.Title, "tier", tier.String(), "category", post.Category)
	return &post, nil
}

// CoerceCategory keeps an allowed category, fixes its casing, or replaces an
// unknown one with the first allowed entry. Empty stays empty, and so does
// anything when no vocabulary is declared.
func CoerceCategory(category string, allowed []string) string {
	c := strings.TrimSpace(category)
	if c == "" || len(allowed) == 0 {
		return c
	}
	for _, a := range allowed {
		if a == c {
			return a
		}
	}
	for _, a := range allowed {
		if strings.EqualFold(a, c) {
			return a
		}
	}
	slog.Debug("drafter: category outside vocabulary", "category", c, "using", allowed[0])
	return allowed[0]
}

// NormalizeTags trims and de-duplicates tags case-insensitively, keeping first
// spellings. With no tags left, defaults are used.
func NormalizeTags(tags, defaults []string) []string {
	out := dedupe(tags)
	if len(out) == 0 {
		out = dedupe(defaults)
	}
	return out
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		k := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

func systemPrompt(account model.Account) string {
	theme := strings.TrimSpace(account.Theme)
	if theme == "" {
		theme = "general interest"
	}
	return fmt.Sprintf("You are an experienced %s blogger and SEO specialist. You write original, well-structured posts in %s.", theme, langOrDefault(account.Language))
}
