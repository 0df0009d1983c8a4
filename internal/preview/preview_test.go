package preview

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"autopost/internal/model"
)

func sampleData() Data {
	topic := model.Topic{ID: "0123456789abcdef", Title: "Fed holds rates", URL: "https://r/1?a=1&b=2", Source: "Reuters"}
	draft := model.PostDraft{
		Title:    `Rates: "on hold" again`,
		Content:  "<h2>What happened</h2>\n<p>The Fed paused.</p>",
		Category: "Economy",
		Tags:     []string{"Fed", "rates"},
		Summary:  "The Fed paused.",
	}
	return NewData("money", topic, draft, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
}

func TestRenderAndParseRoundTrip(t *testing.T) {
	d := sampleData()
	out, err := Render(d)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "---\n") || !strings.Contains(out, "slug: money-20240501-01234567") {
		t.Fatalf("unexpected frontmatter:\n%s", out)
	}
	if !strings.Contains(out, `href="https://r/1?a=1&amp;b=2"`) {
		t.Fatalf("source link not escaped:\n%s", out)
	}

	doc, err := Parse(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Frontmatter.Title != d.Title || doc.Frontmatter.Account != "money" {
		t.Fatalf("frontmatter = %+v", doc.Frontmatter)
	}
	draft, err := doc.Draft()
	if err != nil {
		t.Fatal(err)
	}
	if draft.Title != d.Title || draft.Category != "Economy" || !reflect.DeepEqual(draft.Tags, []string{"Fed", "rates"}) {
		t.Fatalf("draft = %+v", draft)
	}
	if !strings.HasPrefix(draft.Content, "<h2>What happened</h2>") || !strings.Contains(draft.Content, "Source:") {
		t.Fatalf("content = %q", draft.Content)
	}
}

func TestWriteAndParseFile(t *testing.T) {
	dir := t.TempDir()
	d := sampleData()
	path, err := Write(dir, d)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if want := filepath.Join(dir, "money", "money-20240501-01234567.md"); path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Frontmatter.TopicID != "0123456789abcdef" {
		t.Fatalf("topic id = %q", doc.Frontmatter.TopicID)
	}
	if CoverPath(dir, d) != filepath.Join(dir, "money", "money-20240501-01234567.webp") {
		t.Fatalf("cover path = %s", CoverPath(dir, d))
	}
}

func TestParseWithoutFrontmatter(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "no_fm.md")
	if err := os.WriteFile(path, []byte("# Hello\n\nNo frontmatter here.\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if doc.Frontmatter.Title != "" || !strings.Contains(doc.Body, "No frontmatter") {
		t.Fatalf("doc = %+v", doc)
	}
	if _, err := doc.Draft(); err == nil {
		t.Fatal("draft without title should fail")
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse("---\ntitle: x\nno end"); err == nil {
		t.Fatal("expected unterminated frontmatter error")
	}
	if _, err := Parse("---\ntitle: [unclosed\n---\nbody"); err == nil {
		t.Fatal("expected yaml error")
	}
	doc, err := Parse("---\r\ntitle: T\r\n---\r\nbody\r\n")
	if err != nil || doc.Frontmatter.Title != "T" || doc.Body != "body\n" {
		t.Fatalf("crlf: %+v, %v", doc, err)
	}
}

func TestSlugWithoutID(t *testing.T) {
	got := Slug("tech", model.Topic{OriginIndex: 7}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if got != "tech-20240102-7" {
		t.Fatalf("slug = %s", got)
	}
}
