package preview

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"autopost/internal/model"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the YAML header of a draft preview file.
type Frontmatter struct {
	Title     string   `yaml:"title"`
	Slug      string   `yaml:"slug"`
	Account   string   `yaml:"account"`
	Category  string   `yaml:"category,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	Summary   string   `yaml:"summary,omitempty"`
	SourceURL string   `yaml:"source_url,omitempty"`
	TopicID   string   `yaml:"topic_id,omitempty"`
	Datetime  string   `yaml:"datetime"`
	Cover     string   `yaml:"cover,omitempty"`

	Social []model.SocialPost `yaml:"social,omitempty"`
}

// Data is everything rendered into a preview file.
type Data struct {
	Frontmatter
	Content     string
	SourceTitle string
	SourceName  string
}

// NewData assembles preview data for a draft of topic.
func NewData(account string, topic model.Topic, d model.PostDraft, now time.Time) Data {
	return Data{
		Frontmatter: Frontmatter{
			Title:     d.Title,
			Slug:      Slug(account, topic, now),
			Account:   account,
			Category:  d.Category,
			Tags:      d.Tags,
			Summary:   d.Summary,
			SourceURL: topic.URL,
			TopicID:   topic.ID,
			Datetime:  now.Format("2006-01-02 15:04"),
		},
		Content:     d.Content,
		SourceTitle: topic.Title,
		SourceName:  topic.Source,
	}
}

// Slug is "<account>-<yyyymmdd>-<topic id prefix>".
func Slug(account string, topic model.Topic, now time.Time) string {
	id := topic.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = fmt.Sprint(topic.OriginIndex)
	}
	return fmt.Sprintf("%s-%s-%s", account, now.Format("20060102"), id)
}

//go:embed post.tmpl
var postTpl string

var compiled = template.Must(template.New("post").Parse(postTpl))

// Render returns the preview file contents: YAML frontmatter, then the body.
func Render(d Data) (string, error) {
	fm, err := yaml.Marshal(d.Frontmatter)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	if err := compiled.Execute(&buf, d); err != nil {
		return "", err
	}
	buf.WriteString("\n")
	return buf.String(), nil
}

// Write renders d into dir/<account>/<slug>.md and returns the path.
func Write(dir string, d Data) (string, error) {
	out, err := Render(d)
	if err != nil {
		return "", err
	}
	sub := filepath.Join(dir, d.Account)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(sub, d.Slug+".md")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// CoverPath is where the cover image for d is stored next to its preview.
func CoverPath(dir string, d Data) string {
	return filepath.Join(dir, d.Account, strings.TrimSuffix(d.Slug, ".md")+".webp")
}
