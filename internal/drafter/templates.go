package drafter

import (
	"fmt"
	"strings"

	"autopost/internal/model"
)

// PromptData is what every drafting template can embed.
type PromptData struct {
	Title      string
	Body       string
	Source     string
	Categories []string
	Language   string
	Theme      string
}

// Template renders the user prompt for one topic.
type Template func(PromptData) string

var templates = map[string]Template{
	"default":   defaultTemplate,
	"finance":   financeTemplate,
	"tech":      techTemplate,
	"life_tips": lifeTipsTemplate,
}

// Lookup returns the template registered under key, or the default one.
func Lookup(key string) Template {
	if t, ok := templates[strings.ToLower(strings.TrimSpace(key))]; ok {
		return t
	}
	return defaultTemplate
}

// NewPromptData builds template input from a topic and its account set.
func NewPromptData(topic model.Topic, account model.Account, maxBody int) PromptData {
	body := strings.TrimSpace(topic.Body)
	if r := []rune(body); maxBody > 0 && len(r) > maxBody {
		body = string(r[:maxBody])
	}
	return PromptData{
		Title:      topic.Title,
		Body:       body,
		Source:     topic.Source,
		Categories: account.Categories,
		Language:   langOrDefault(account.Language),
		Theme:      account.Theme,
	}
}

const outputContract = `Respond with JSON only, no commentary:
{"title": "...", "content": "<HTML body>", "category": "one of the allowed categories", "tags": ["tag", "..."], "summary": "one sentence"}`

func categoryLine(cats []string) string {
	if len(cats) == 0 {
		return "Category: leave empty."
	}
	return "Category: choose exactly one of: " + strings.Join(cats, ", ")
}

func defaultTemplate(d PromptData) string {
	return fmt.Sprintf(`Write a blog post in %s based on the source below.

Source title: %s
Source: %s
Source content:
%s

Requirements:
- An engaging, search-friendly title.
- 1500 to 2500 characters of original writing; do not copy the source.
- HTML body with <h2> section headings and <p> paragraphs.
- 3 to 6 short tags.
- %s

%s`, d.Language, d.Title, d.Source, d.Body, categoryLine(d.Categories), outputContract)
}

func financeTemplate(d PromptData) string {
	return fmt.Sprintf(`Write a finance and economy blog post in %s for individual investors, based on the news below.

News title: %s
Source: %s
News content:
%s

Requirements:
- Explain what happened, why it matters for markets, and what readers should watch next.
- Define any financial jargon in plain words.
- No investment advice or price predictions.
- HTML body with <h2> headings, <p> paragraphs and one <ul> of key points.
- 3 to 6 tags such as tickers, sectors or policy names.
- %s

%s`, d.Language, d.Title, d.Source, d.Body, categoryLine(d.Categories), outputContract)
}

func techTemplate(d PromptData) string {
	return fmt.Sprintf(`Write a technology blog post in %s for curious non-specialists, based on the story below.

Story title: %s
Source: %s
Story content:
%s

Requirements:
- Lead with the concrete news, then explain how the technology works.
- Close with what it means for everyday users.
- HTML body with <h2> headings and <p> paragraphs; use <code> only for literal names.
- 3 to 6 tags naming products, companies or techniques.
- %s

%s`, d.Language, d.Title, d.Source, d.Body, categoryLine(d.Categories), outputContract)
}

func lifeTipsTemplate(d PromptData) string {
	return fmt.Sprintf(`Write a practical life-tips blog post in %s inspired by the post below.

Original title: %s
Source: %s
Original content:
%s

Requirements:
- Turn the idea into 5 to 7 actionable tips, each with a short explanation.
- Warm, friendly tone; no medical or legal claims.
- HTML body with an intro <p>, an <ol> of tips and a closing <p>.
- 3 to 6 tags.
- %s

%s`, d.Language, d.Title, d.Source, d.Body, categoryLine(d.Categories), outputContract)
}

func langOrDefault(lang string) string {
	l := strings.TrimSpace(lang)
	if l == "" {
		return "English"
	}
	return l
}
