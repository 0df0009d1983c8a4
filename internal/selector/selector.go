package selector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"autopost/internal/interpret"
	"autopost/internal/llm"
	"autopost/internal/metrics"
	"autopost/internal/model"
)

// MaxCandidates bounds how many topics are enumerated in the prompt. Topics
// beyond it can still be picked by the random fallback.
const MaxCandidates = 50

// Selector picks a bounded, duplicate-free subset of topics for an account set.
type Selector struct {
	gw          llm.Gateway
	rnd         *rand.Rand
	timeout     time.Duration
	maxTokens   int
	temperature float32
	metrics     *metrics.Metrics
}

type Option func(*Selector)

// WithRand fixes the fallback sampler's source, for reproducible runs.
func WithRand(r *rand.Rand) Option { return func(s *Selector) { s.rnd = r } }

func WithTimeout(d time.Duration) Option { return func(s *Selector) { s.timeout = d } }

func WithMaxTokens(n int) Option { return func(s *Selector) { s.maxTokens = n } }

func WithTemperature(t float32) Option { return func(s *Selector) { s.temperature = t } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Selector) { s.metrics = m } }

// New returns a Selector. A nil gateway makes every selection use random sampling.
func New(gw llm.Gateway, opts ...Option) *Selector {
	s := &Selector{
		gw:          gw,
		timeout:     2 * time.Minute,
		maxTokens:   500,
		temperature: 0.3,
	}
	for _, o := range opts {
		o(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Select returns at most count topics, in the order the model named them, or a
// random sample of the whole pool when the model call fails or names nothing usable.
func (s *Selector) Select(ctx context.Context, topics []model.Topic, account model.Account, count int) []model.Topic {
	if len(topics) == 0 || count <= 0 {
		return nil
	}
	if s.gw == nil {
		s.metrics.Fallback("unavailable")
		return s.Sample(topics, count)
	}

	candidates := topics
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	req := llm.User(systemPrompt(account), userPrompt(candidates, account, count))
	req.MaxTokens = s.maxTokens
	req.Temperature = s.temperature
	req.Schema = &llm.Schema{Name: "topic_selection", Definition: interpret.SelectionSchema()}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	raw, err := s.gw.Generate(callCtx, req)
	cancel()
	if err != nil {
		slog.Warn("selector: model call failed, sampling at random", "account", account.Name, "error", err)
		s.metrics.Fallback("gateway_error")
		return s.Sample(topics, count)
	}

	indices, tier := interpret.Selection(raw, len(candidates), count)
	if len(indices) == 0 {
		slog.Warn("selector: no usable topic numbers, sampling at random", "account", account.Name, "tier", tier.String())
		s.metrics.Fallback("empty")
		return s.Sample(topics, count)
	}
	s.metrics.Selection(tier.String())
	out := make([]model.Topic, 0, len(indices))
	for _, i := range indices {
		out = append(out, candidates[i])
	}
	slog.Info("selector: selected topics", "account", account.Name, "tier", tier.String(), "selected", len(out), "pool", len(topics))
	return out
}

// Sample draws min(count, len(topics)) distinct topics uniformly from the full pool.
func (s *Selector) Sample(topics []model.Topic, count int) []model.Topic {
	if count > len(topics) {
		count = len(topics)
	}
	if count <= 0 {
		return nil
	}
	perm := s.rnd.Perm(len(topics))
	out := make([]model.Topic, 0, count)
	for _, i := range perm[:count] {
		out = append(out, topics[i])
	}
	return out
}

func systemPrompt(account model.Account) string {
	theme := strings.TrimSpace(account.Theme)
	if theme == "" {
		theme = "general news"
	}
	return fmt.Sprintf("You are a content strategist for a blog about %s. You choose the stories most worth writing about.", theme)
}

func userPrompt(candidates []model.Topic, account model.Account, count int) string {
	b := &strings.Builder{}
	for i, t := range candidates {
		fmt.Fprintf(b, "%d. %s - %s\n", i+1, t.Title, t.Subject)
	}
	return fmt.Sprintf(`Candidate topics:
%s
Blog description: %s

Pick exactly %d distinct topics from the list above that fit the blog best.
Do not pick topics that duplicate or closely repeat each other.
Respond with JSON only: {"selected_numbers": [numbers from the list], "reasoning": "one sentence"}`,
		b.String(), account.Description, count)
}
