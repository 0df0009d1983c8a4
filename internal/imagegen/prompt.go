package imagegen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// PromptData contains inputs for building a blog cover prompt.
type PromptData struct {
	Title       string
	Summary     string
	Tags        []string
	Theme       string
	AspectRatio string
}

const defaultPrompt = `Create a clean, modern cover illustration for a blog post.

Requirements:
- Aspect ratio: %s.
- Blog theme: %s.
- Post title: "%s".
- About: "%s".
- Motifs: %s.
- Style: editorial flat illustration, warm palette, simple shapes, no photos, no logos, no watermarks.
- Do not render any text in the image.`

// BuildPrompt builds a cover prompt from d, using template if provided.
// Template variables: {Title}, {Summary}, {Tags}, {Theme}, {AspectRatio}
func BuildPrompt(d PromptData, template string) string {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "Untitled"
	}
	summary := clip(strings.TrimSpace(d.Summary), 200)
	if summary == "" {
		summary = title
	}
	theme := strings.TrimSpace(d.Theme)
	if theme == "" {
		theme = "general interest"
	}
	aspect := strings.TrimSpace(d.AspectRatio)
	if aspect == "" {
		aspect = "16:9"
	}
	tags := cleanTags(d.Tags, 5, 40)
	motifs := strings.Join(tags, ", ")
	if motifs == "" {
		motifs = theme
	}

	if strings.TrimSpace(template) == "" {
		return fmt.Sprintf(defaultPrompt, aspect, theme, title, summary, motifs)
	}
	return strings.NewReplacer(
		"{Title}", title,
		"{Summary}", summary,
		"{Tags}", motifs,
		"{Theme}", theme,
		"{AspectRatio}", aspect,
	).Replace(template)
}

func cleanTags(items []string, maxItems, maxLen int) []string {
	out := make([]string, 0, min(len(items), maxItems))
	for _, it := range items {
		t := clip(strings.TrimSpace(it), maxLen)
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) >= maxItems {
			break
		}
	}
	return out
}

func clip(s string, max int) string {
	if max <= 3 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
