package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"autopost/internal/config"
	"autopost/internal/drafter"
	"autopost/internal/imagegen"
	"autopost/internal/llm"
	"autopost/internal/model"
	"autopost/internal/preview"
	"autopost/internal/selector"
	"autopost/internal/storage"
	"autopost/internal/wordpress"

	"github.com/google/uuid"
)

// TopicStore is the persistence the pipeline drives.
type TopicStore interface {
	storage.UsageTracker
	MarkPublished(ctx context.Context, topic model.Topic, set, link string) error
}

// Publisher sends a finished draft to a blog.
type Publisher interface {
	Publish(ctx context.Context, d model.PostDraft, cover []byte, coverName string) (*wordpress.Post, error)
}

// Report summarizes one account-set run.
type Report struct {
	RunID     string
	Set       string
	Pool      int
	Selected  int
	Drafted   int
	Failed    int
	Published int
	Previews  []string
}

// Pipeline turns stored topics into posts: select, draft, mark used, then
// social variants, cover, preview and publish.
type Pipeline struct {
	Store    TopicStore
	Backends GatewayResolver
	// Publishers returns the publisher for a set, or nil when it has none.
	Publishers func(set config.AccountSetConfig) Publisher
	Covers     imagegen.Generator
	CoverTpl   string
	OutputDir  string
	DryRun     bool

	SelectorOptions []selector.Option
	DrafterOptions  []drafter.Option

	Now func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// RunSet processes one account set. The returned error reports why the set
// produced nothing; failures of single topics are logged and counted instead.
func (p *Pipeline) RunSet(ctx context.Context, set config.AccountSetConfig) (Report, error) {
	rep := Report{RunID: uuid.NewString(), Set: set.Name}
	log := slog.With("run", rep.RunID, "set", set.Name)

	topics, err := p.Store.FetchUnused(ctx, set.Name)
	if err != nil {
		return rep, fmt.Errorf("fetch unused topics: %w", err)
	}
	rep.Pool = len(topics)
	if len(topics) == 0 {
		log.Info("pipeline: no unused topics")
		return rep, nil
	}

	var gw llm.Gateway
	if p.Backends != nil {
		gw = p.Backends.Gateway(ctx, set)
	}
	account := set.Account()
	chosen := selector.New(gw, p.SelectorOptions...).Select(ctx, topics, account, set.MaxPosts)
	rep.Selected = len(chosen)
	log.Info("pipeline: topics selected", "pool", rep.Pool, "selected", rep.Selected)
	if gw == nil {
		return rep, fmt.Errorf("draft: %w", llm.ErrUnavailable)
	}

	d := drafter.New(gw, p.DrafterOptions...)
	var pub Publisher
	if p.Publishers != nil && !p.DryRun {
		pub = p.Publishers(set)
	}
	for i, t := range chosen {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		tlog := log.With("topic", t.Title, "n", i+1)
		draft, err := d.Draft(ctx, t, account)
		if err != nil {
			rep.Failed++
			tlog.Warn("pipeline: draft failed, topic stays unused", "error", err)
			continue
		}
		if err := p.Store.MarkUsed(ctx, t, set.Name, p.now()); err != nil {
			// an unmarked topic can be picked again, so the post is only previewed
			rep.Failed++
			tlog.Error("pipeline: mark used failed, not publishing", "error", err)
			p.finish(ctx, tlog, set, t, *draft, nil, nil, &rep)
			continue
		}
		rep.Drafted++
		social := d.Social(ctx, *draft, account)
		p.finish(ctx, tlog, set, t, *draft, social, pub, &rep)
	}
	log.Info("pipeline: set done", "drafted", rep.Drafted, "failed", rep.Failed, "published", rep.Published)
	return rep, nil
}

// finish writes the preview and publishes when pub is set. Every failure here
// is logged.
func (p *Pipeline) finish(ctx context.Context, log *slog.Logger, set config.AccountSetConfig, t model.Topic, d model.PostDraft, social []model.SocialPost, pub Publisher, rep *Report) {
	data := preview.NewData(set.Name, t, d, p.now())
	data.Social = social

	var cover []byte
	if p.Covers != nil {
		prompt := imagegen.BuildPrompt(imagegen.PromptData{
			Title:   d.Title,
			Summary: d.Summary,
			Tags:    d.Tags,
			Theme:   set.Theme,
		}, p.CoverTpl)
		img, err := p.Covers.Cover(ctx, prompt)
		if err != nil {
			log.Warn("pipeline: cover generation failed", "error", err)
		} else {
			cover = img
		}
	}

	if p.OutputDir != "" {
		if len(cover) > 0 {
			path := preview.CoverPath(p.OutputDir, data)
			if err := writeFile(path, cover); err != nil {
				log.Warn("pipeline: save cover failed", "error", err)
			} else {
				data.Cover = filepath.Base(path)
			}
		}
		path, err := preview.Write(p.OutputDir, data)
		if err != nil {
			log.Error("pipeline: write preview failed", "error", err)
		} else {
			rep.Previews = append(rep.Previews, path)
			log.Info("pipeline: preview written", "path", path)
		}
	}

	if pub == nil {
		return
	}
	post, err := pub.Publish(ctx, d, cover, data.Slug+".webp")
	if err != nil {
		log.Error("pipeline: publish failed", "error", err)
		return
	}
	rep.Published++
	if err := p.Store.MarkPublished(ctx, t, set.Name, post.Link); err != nil {
		log.Warn("pipeline: mark published failed", "error", err)
	}
}

// RunAll runs sets one after another. A failed set is logged and the next
// one still runs.
func (p *Pipeline) RunAll(ctx context.Context, sets []config.AccountSetConfig) []Report {
	reports := make([]Report, 0, len(sets))
	for _, set := range sets {
		if ctx.Err() != nil {
			break
		}
		rep, err := p.RunSet(ctx, set)
		if err != nil {
			level := slog.LevelError
			if errors.Is(err, llm.ErrUnavailable) {
				level = slog.LevelWarn
			}
			slog.Log(ctx, level, "pipeline: set failed", "run", rep.RunID, "set", set.Name, "error", err)
		}
		reports = append(reports, rep)
	}
	return reports
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
