package drafter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"autopost/internal/interpret"
	"autopost/internal/llm"
	"autopost/internal/model"
	"autopost/internal/scrape"
)

// Platform describes how a promotional variant is written for one network.
type Platform struct {
	Name     string
	MaxRunes int
	Tone     string
	MinTags  int
	MaxTags  int
	CTA      string
	// Excerpt is how much of the post body the model sees.
	Excerpt int
}

var platforms = map[string]Platform{
	"x": {
		Name:     "x",
		MaxRunes: 280,
		Tone:     "short and punchy, with a hook in the first line",
		MinTags:  3,
		MaxTags:  5,
		CTA:      "Read more on the blog 👉",
		Excerpt:  500,
	},
	"threads": {
		Name:     "threads",
		MaxRunes: 500,
		Tone:     "conversational storytelling that ends with a question inviting replies",
		MinTags:  1,
		MaxTags:  3,
		CTA:      "The full story is on the blog ✨",
		Excerpt:  600,
	},
}

// LookupPlatform returns the style for a platform name.
func LookupPlatform(name string) (Platform, bool) {
	p, ok := platforms[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

const socialMaxTokens = 1024

// Social writes one promotional post per platform configured on account.
// Variants are optional: a platform that fails is logged and left out.
func (d *Drafter) Social(ctx context.Context, post model.PostDraft, account model.Account) []model.SocialPost {
	if d.gw == nil || len(account.Social) == 0 {
		return nil
	}
	var out []model.SocialPost
	for _, name := range account.Social {
		pf, ok := LookupPlatform(name)
		if !ok {
			slog.Warn("drafter: unknown social platform", "account", account.Name, "platform", name)
			continue
		}
		sp, err := d.social(ctx, post, account, pf)
		if err != nil {
			slog.Warn("drafter: social post failed", "account", account.Name, "platform", pf.Name, "error", err)
			continue
		}
		out = append(out, sp)
	}
	return out
}

func (d *Drafter) social(ctx context.Context, post model.PostDraft, account model.Account, pf Platform) (model.SocialPost, error) {
	req := llm.User(systemPrompt(account), socialPrompt(post, account, pf))
	req.MaxTokens = min(d.maxTokens, socialMaxTokens)
	req.Temperature = d.temperature
	req.Schema = &llm.Schema{Name: "social_post", Definition: interpret.SocialSchema()}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	raw, err := d.gw.Generate(callCtx, req)
	cancel()
	if err != nil {
		d.metrics.Draft(account.Name, "social_error")
		return model.SocialPost{}, err
	}
	sp, tier, ok := interpret.Social(raw, pf.Name)
	if !ok || sp.Text == "" {
		d.metrics.Draft(account.Name, "social_empty")
		return model.SocialPost{}, ErrEmptyResponse
	}
	if len(sp.Hashtags) == 0 {
		sp.Hashtags = interpret.Hashtags(post.Tags)
	}
	if len(sp.Hashtags) > pf.MaxTags {
		sp.Hashtags = sp.Hashtags[:pf.MaxTags]
	}
	sp.Text = clipRunes(sp.Text, pf.MaxRunes)
	d.metrics.Draft(account.Name, "social_ok")
	slog.Info("drafter: social post drafted", "account", account.Name, "platform", pf.Name, "tier", tier.String(), "runes", len([]rune(sp.Text)))
	return sp, nil
}

func socialPrompt(post model.PostDraft, account model.Account, pf Platform) string {
	excerpt := clipRunes(scrape.PlainText(post.Content), pf.Excerpt)
	return fmt.Sprintf(`Write a %s post in %s that promotes the blog article below.

Article title: %s
Article summary: %s
Article excerpt:
%s

Requirements:
- Tone: %s.
- At most %d characters including hashtags.
- %d to %d relevant hashtags.
- End with: %s

Respond with JSON only, no commentary:
{"text": "<post text>", "hashtags": ["#tag", "..."]}`,
		pf.Name, langOrDefault(account.Language), post.Title, post.Summary, excerpt,
		pf.Tone, pf.MaxRunes, pf.MinTags, pf.MaxTags, pf.CTA)
}

// clipRunes cuts s to at most n runes, ending with "…" when cut.
func clipRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if n <= 0 || len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
