package interpret

import (
	"errors"
	"strings"

	"autopost/internal/model"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const untitled = "Untitled"

// PostStrategies returns the post tiers in the order they are tried.
func PostStrategies() []Strategy[model.PostDraft] {
	return []Strategy[model.PostDraft]{
		{Name: "schema", Tier: TierStrict, Parse: strictPost},
		{Name: "json", Tier: TierTolerant, Parse: tolerantPost},
		{Name: "text", Tier: TierText, Parse: textPost},
	}
}

// Post interprets raw as a post draft. The boolean is false only when raw is
// empty, which callers treat as no draft. An empty title falls back to
// fallbackTitle.
func Post(raw, fallbackTitle string) (model.PostDraft, Tier, bool) {
	d, tier, err := Run(raw, PostStrategies())
	if err != nil {
		return model.PostDraft{}, TierNone, false
	}
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		d.Title = strings.TrimSpace(fallbackTitle)
	}
	if d.Title == "" {
		d.Title = untitled
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, tier, true
}

func strictPost(raw string) (model.PostDraft, error) {
	doc, err := validate(raw, func() *jsonschema.Schema { return postSchema })
	if err != nil {
		return model.PostDraft{}, err
	}
	return draftFromDoc(doc), nil
}

func tolerantPost(raw string) (model.PostDraft, error) {
	doc, err := decodeObject(stripFence(raw))
	if err != nil {
		return model.PostDraft{}, err
	}
	d := draftFromDoc(doc)
	if strings.TrimSpace(d.Content) == "" {
		return model.PostDraft{}, errors.New("content missing")
	}
	return d, nil
}

// textPost uses the whole response as content and its first line as title.
func textPost(raw string) (model.PostDraft, error) {
	content := strings.TrimSpace(raw)
	d := model.PostDraft{Content: content, Tags: []string{}}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		d.Title = strings.TrimSpace(strings.TrimLeft(line, "#"))
		break
	}
	return d, nil
}

func draftFromDoc(doc map[string]any) model.PostDraft {
	d := model.PostDraft{
		Title:    stringField(doc, "title"),
		Content:  stringField(doc, "content"),
		Category: stringField(doc, "category"),
		Summary:  stringField(doc, "summary"),
		Tags:     []string{},
	}
	if tags, ok := doc["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				d.Tags = append(d.Tags, strings.TrimSpace(s))
			}
		}
	}
	return d
}
