package preview

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"autopost/internal/model"

	"gopkg.in/yaml.v3"
)

// Document is a parsed preview file.
type Document struct {
	Frontmatter Frontmatter
	Body        string
}

// ParseFile reads a preview file. Frontmatter sits between two lines holding
// only "---" at the top of the file; a file without it is all body.
func ParseFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(string(b))
}

// Parse splits s into frontmatter and body.
func Parse(s string) (Document, error) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return Document{Body: s}, nil
	}
	rest := s[len("---\n"):]
	var fm, body string
	if strings.HasPrefix(rest, "---\n") {
		body = rest[len("---\n"):]
	} else {
		end := strings.Index(rest, "\n---\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n---") {
				return Document{}, errors.New("preview: unterminated frontmatter")
			}
			end = len(rest) - len("\n---")
			fm, body = rest[:end], ""
		} else {
			fm, body = rest[:end], rest[end+len("\n---\n"):]
		}
	}
	var d Document
	if err := yaml.Unmarshal([]byte(fm), &d.Frontmatter); err != nil {
		return Document{}, fmt.Errorf("preview: frontmatter: %w", err)
	}
	d.Body = strings.TrimLeft(body, "\n")
	return d, nil
}

// Draft rebuilds the post draft a preview was rendered from. The body, with
// any edits made to the file, becomes the content.
func (d Document) Draft() (model.PostDraft, error) {
	content := strings.TrimSpace(d.Body)
	if content == "" {
		return model.PostDraft{}, errors.New("preview: empty body")
	}
	title := strings.TrimSpace(d.Frontmatter.Title)
	if title == "" {
		return model.PostDraft{}, errors.New("preview: frontmatter missing title")
	}
	return model.PostDraft{
		Title:    title,
		Content:  content,
		Category: d.Frontmatter.Category,
		Tags:     d.Frontmatter.Tags,
		Summary:  d.Frontmatter.Summary,
	}, nil
}
