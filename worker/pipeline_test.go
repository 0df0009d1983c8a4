package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"autopost/internal/config"
	"autopost/internal/llm"
	"autopost/internal/model"
	"autopost/internal/preview"
	"autopost/internal/storage"
	"autopost/internal/wordpress"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// scriptedModel answers selection requests with pick and drafts every topic
// whose title does not contain fail.
type scriptedModel struct {
	mu    sync.Mutex
	pick  string
	fail  string
	calls []string
}

func (m *scriptedModel) Generate(_ context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req.Schema.Name)
	switch req.Schema.Name {
	case "topic_selection":
		return m.pick, nil
	case "social_post":
		return `{"text":"New post is up, read more on the blog","hashtags":["news"]}`, nil
	}
	prompt := req.Messages[0].Content
	if m.fail != "" && strings.Contains(prompt, m.fail) {
		return "", errors.New("upstream closed connection")
	}
	return "```json\n" + `{"title":"Post about it","content":"<p>A long enough body for a post.</p>","category":"News","tags":["a","b"],"summary":"short"}` + "\n```", nil
}

type staticResolver struct{ gw llm.Gateway }

func (r staticResolver) Gateway(context.Context, config.AccountSetConfig) llm.Gateway { return r.gw }

type recordingPublisher struct {
	titles []string
	covers []string
}

func (p *recordingPublisher) Publish(_ context.Context, d model.PostDraft, cover []byte, name string) (*wordpress.Post, error) {
	p.titles = append(p.titles, d.Title)
	p.covers = append(p.covers, fmt.Sprintf("%s:%s", name, cover))
	n := len(p.titles)
	return &wordpress.Post{ID: n, Link: fmt.Sprintf("https://blog.example.com/?p=%d", n), Status: "future"}, nil
}

type fixedCover struct{}

func (fixedCover) Cover(context.Context, string) ([]byte, error) { return []byte("WEBP"), nil }

func newTestStore(t *testing.T) *storage.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return storage.NewRedisStore(rdb, "test")
}

func seed(t *testing.T, s *storage.RedisStore, set string, titles ...string) {
	t.Helper()
	topics := make([]model.Topic, 0, len(titles))
	for i, title := range titles {
		topics = append(topics, model.Topic{Title: title, Body: "body " + title, URL: fmt.Sprintf("https://news/%d", i)})
	}
	if _, err := s.AddTopics(context.Background(), set, topics); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func testSet(name string) config.AccountSetConfig {
	return config.AccountSetConfig{Name: name, Theme: "finance", Language: "English", MaxPosts: 3}
}

func TestRunSetEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store, "money", "Alpha", "Broken Beta", "Gamma")

	gw := &scriptedModel{pick: `{"selected_numbers":[3,2,1]}`, fail: "Broken"}
	pub := &recordingPublisher{}
	dir := t.TempDir()
	p := &Pipeline{
		Store:      store,
		Backends:   staticResolver{gw: gw},
		Publishers: func(config.AccountSetConfig) Publisher { return pub },
		Covers:     fixedCover{},
		OutputDir:  dir,
		Now:        func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
	}
	rep, err := p.RunSet(ctx, testSet("money"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Pool != 3 || rep.Selected != 3 || rep.Drafted != 2 || rep.Failed != 1 || rep.Published != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.RunID == "" || len(rep.Previews) != 2 {
		t.Fatalf("report = %+v", rep)
	}
	for _, path := range rep.Previews {
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), "cover: ") || !strings.Contains(string(b), "A long enough body") {
			t.Fatalf("preview %s:\n%s", path, b)
		}
		if _, err := os.Stat(strings.TrimSuffix(path, ".md") + ".webp"); err != nil {
			t.Fatalf("cover file missing: %v", err)
		}
		if filepath.Dir(path) != filepath.Join(dir, "money") {
			t.Fatalf("preview dir = %s", filepath.Dir(path))
		}
	}
	if len(pub.covers) != 2 || !strings.HasSuffix(pub.covers[0], ".webp:WEBP") {
		t.Fatalf("covers = %v", pub.covers)
	}

	unused, err := store.FetchUnused(ctx, "money")
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 1 || unused[0].Title != "Broken Beta" {
		t.Fatalf("unused after run = %+v", unused)
	}
	all, _ := store.ListTopics(ctx, "money")
	for _, tp := range all {
		if tp.Title == "Broken Beta" {
			continue
		}
		if tp.Used != "money_20240501_0900" || !strings.HasPrefix(tp.Published, "https://blog.example.com/") {
			t.Fatalf("topic %q used=%q published=%q", tp.Title, tp.Used, tp.Published)
		}
	}

	// A second run only sees the topic that failed drafting.
	gw.pick = `{"selected_numbers":[1]}`
	gw.fail = ""
	rep, err = p.RunSet(ctx, testSet("money"))
	if err != nil || rep.Pool != 1 || rep.Drafted != 1 {
		t.Fatalf("second run = %+v, %v", rep, err)
	}
}

func TestRunSetDryRunSkipsPublishing(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, "tech", "One", "Two")
	pub := &recordingPublisher{}
	p := &Pipeline{
		Store:      store,
		Backends:   staticResolver{gw: &scriptedModel{pick: "1"}},
		Publishers: func(config.AccountSetConfig) Publisher { return pub },
		OutputDir:  t.TempDir(),
		DryRun:     true,
	}
	set := testSet("tech")
	set.MaxPosts = 1
	rep, err := p.RunSet(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Drafted != 1 || rep.Published != 0 || len(pub.titles) != 0 || len(rep.Previews) != 1 {
		t.Fatalf("report = %+v, published %v", rep, pub.titles)
	}
}

func TestRunSetWithoutBackendMarksNothing(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, "life", "One", "Two")
	p := &Pipeline{Store: store, Backends: staticResolver{}}
	rep, err := p.RunSet(context.Background(), testSet("life"))
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if rep.Selected != 2 || rep.Drafted != 0 {
		t.Fatalf("report = %+v", rep)
	}
	unused, _ := store.FetchUnused(context.Background(), "life")
	if len(unused) != 2 {
		t.Fatalf("unused = %d", len(unused))
	}
}

func TestRunSetEmptyPoolCallsNothing(t *testing.T) {
	gw := &scriptedModel{pick: "1"}
	p := &Pipeline{Store: newTestStore(t), Backends: staticResolver{gw: gw}}
	rep, err := p.RunSet(context.Background(), testSet("empty"))
	if err != nil || rep.Pool != 0 || len(gw.calls) != 0 {
		t.Fatalf("rep=%+v err=%v calls=%v", rep, err, gw.calls)
	}
}

type brokenStore struct{ TopicStore }

func (brokenStore) FetchUnused(context.Context, string) ([]model.Topic, error) {
	return nil, errors.New("connection refused")
}

func TestRunAllContinuesAfterFailedSet(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, "ok", "Only")
	p := &Pipeline{Store: store, Backends: staticResolver{gw: &scriptedModel{pick: "1"}}}

	reps := p.RunAll(context.Background(), []config.AccountSetConfig{testSet("empty"), testSet("ok")})
	if len(reps) != 2 || reps[1].Drafted != 1 {
		t.Fatalf("reports = %+v", reps)
	}

	p.Store = brokenStore{}
	if _, err := p.RunSet(context.Background(), testSet("ok")); err == nil || !strings.Contains(err.Error(), "fetch unused") {
		t.Fatalf("err = %v", err)
	}
	reps = p.RunAll(context.Background(), []config.AccountSetConfig{testSet("a"), testSet("b")})
	if len(reps) != 2 {
		t.Fatalf("reports = %d", len(reps))
	}
}

func TestRunSetStoresSocialVariantsInPreview(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, "money", "Only")
	gw := &scriptedModel{pick: "1"}
	p := &Pipeline{Store: store, Backends: staticResolver{gw: gw}, OutputDir: t.TempDir()}
	set := testSet("money")
	set.Social = []string{"x", "threads"}
	rep, err := p.RunSet(context.Background(), set)
	if err != nil || rep.Drafted != 1 || len(rep.Previews) != 1 {
		t.Fatalf("report = %+v, %v", rep, err)
	}
	doc, err := preview.ParseFile(rep.Previews[0])
	if err != nil {
		t.Fatal(err)
	}
	social := doc.Frontmatter.Social
	if len(social) != 2 || social[0].Platform != "x" || social[1].Platform != "threads" {
		t.Fatalf("social = %+v", social)
	}
	if social[0].Text == "" || len(social[0].Hashtags) != 1 || social[0].Hashtags[0] != "#news" {
		t.Fatalf("x variant = %+v", social[0])
	}
	if got := strings.Join(gw.calls, ","); got != "topic_selection,blog_post,social_post,social_post" {
		t.Fatalf("calls = %s", got)
	}
}

type unmarkableStore struct{ TopicStore }

func (unmarkableStore) MarkUsed(context.Context, model.Topic, string, time.Time) error {
	return errors.New("READONLY You can't write against a read only replica.")
}

func TestRunSetDoesNotPublishWhenMarkUsedFails(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, "money", "One", "Two")
	pub := &recordingPublisher{}
	p := &Pipeline{
		Store:      unmarkableStore{store},
		Backends:   staticResolver{gw: &scriptedModel{pick: "1,2"}},
		Publishers: func(config.AccountSetConfig) Publisher { return pub },
		OutputDir:  t.TempDir(),
	}
	rep, err := p.RunSet(context.Background(), testSet("money"))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Drafted != 0 || rep.Failed != 2 || rep.Published != 0 || len(pub.titles) != 0 {
		t.Fatalf("report = %+v, published %v", rep, pub.titles)
	}
	// drafts are still previewed so nothing generated is lost
	if len(rep.Previews) != 2 {
		t.Fatalf("previews = %v", rep.Previews)
	}
	unused, _ := store.FetchUnused(context.Background(), "money")
	if len(unused) != 2 {
		t.Fatalf("unused = %d", len(unused))
	}
}
