package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"autopost/internal/config"
	"autopost/internal/drafter"
	"autopost/internal/imagegen"
	"autopost/internal/metrics"
	"autopost/internal/newsapi"
	"autopost/internal/reddit"
	"autopost/internal/redisclient"
	"autopost/internal/scrape"
	"autopost/internal/selector"
	"autopost/internal/storage"
	"autopost/internal/trends"
	"autopost/internal/wordpress"
	"autopost/worker"

	"github.com/redis/go-redis/v9"
)

// selectSets returns the named set, or all sets when name is empty.
func selectSets(cfg config.Config, name string) ([]config.AccountSetConfig, error) {
	if name == "" {
		if len(cfg.AccountSets) == 0 {
			return nil, fmt.Errorf("no account_sets configured")
		}
		return cfg.AccountSets, nil
	}
	set, ok := cfg.AccountSet(name)
	if !ok {
		return nil, fmt.Errorf("unknown account set %q", name)
	}
	return []config.AccountSetConfig{set}, nil
}

func openStore(cfg config.Config) (*storage.RedisStore, *redis.Client) {
	rdb := redisclient.New(cfg.Redis)
	return storage.NewRedisStore(rdb, cfg.Redis.KeyPrefix), rdb
}

func location(cfg config.Config) *time.Location {
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		slog.Warn("config: unknown timezone, using UTC", "timezone", cfg.App.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

func duration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return d, nil
}

func newCollector(cfg config.Config, store worker.TopicSink, m *metrics.Metrics) (*worker.Collector, error) {
	timeout, err := duration("sources.timeout", cfg.Sources.Timeout)
	if err != nil {
		return nil, err
	}
	c := &worker.Collector{
		Store:   store,
		Reddit:  reddit.NewClient(cfg.Sources.Reddit.BaseURL, cfg.Sources.Reddit.UserAgent),
		Trends:  trends.NewClient(cfg.Sources.Trends.BaseURL),
		Sources: cfg.Sources,
		Metrics: m,
	}
	if n := cfg.Sources.NewsAPI; n.APIKey != "" {
		c.News = newsapi.NewClient(n.BaseURL, n.APIKey, n.Language, n.PageSize)
	} else {
		slog.Warn("collector: newsapi disabled, no api key")
	}
	if cfg.Sources.Enrich {
		c.Fetcher = scrape.NewFetcher(timeout, "")
	}
	return c, nil
}

func newPipeline(cfg config.Config, store worker.TopicStore, m *metrics.Metrics, dryRun bool) (*worker.Pipeline, error) {
	selTimeout, err := duration("llm.select_timeout", cfg.LLM.SelectTimeout)
	if err != nil {
		return nil, err
	}
	draftTimeout, err := duration("llm.draft_timeout", cfg.LLM.DraftTimeout)
	if err != nil {
		return nil, err
	}
	p := &worker.Pipeline{
		Store:     store,
		Backends:  worker.NewBackends(cfg.LLM, m),
		OutputDir: cfg.App.OutputDir,
		DryRun:    dryRun || cfg.App.DryRun,
		SelectorOptions: []selector.Option{
			selector.WithTimeout(selTimeout),
			selector.WithMaxTokens(cfg.LLM.SelectMaxTokens),
			selector.WithTemperature(cfg.LLM.SelectTemperature),
			selector.WithMetrics(m),
		},
		DrafterOptions: []drafter.Option{
			drafter.WithTimeout(draftTimeout),
			drafter.WithMaxTokens(cfg.LLM.DraftMaxTokens),
			drafter.WithTemperature(cfg.LLM.DraftTemperature),
			drafter.WithMetrics(m),
		},
	}
	covers, err := newCovers(cfg)
	if err != nil {
		return nil, err
	}
	if covers != nil {
		p.Covers = covers
	}
	wpTimeout, err := duration("wordpress.timeout", cfg.WordPress.Timeout)
	if err != nil {
		return nil, err
	}
	loc := location(cfg)
	p.Publishers = func(set config.AccountSetConfig) worker.Publisher {
		if pub := newPublisher(cfg, set, loc, wpTimeout); pub != nil {
			return pub
		}
		return nil
	}
	return p, nil
}

func newCovers(cfg config.Config) (*imagegen.Susanoo, error) {
	timeout, err := duration("susanoo.timeout", cfg.Susanoo.Timeout)
	if err != nil {
		return nil, err
	}
	return imagegen.NewSusanoo(imagegen.SusanooConfig{
		BaseURL:     cfg.Susanoo.BaseURL,
		APIKey:      cfg.Susanoo.APIKey,
		AspectRatio: "16:9",
		Timeout:     timeout,
	}), nil
}

// newPublisher returns nil when the set has no site or token.
func newPublisher(cfg config.Config, set config.AccountSetConfig, loc *time.Location, timeout time.Duration) *wordpress.Publisher {
	token := set.WordPress.Token
	if token == "" {
		token = cfg.WordPress.Token
	}
	if set.WordPress.SiteID == "" || token == "" {
		slog.Info("wordpress: publishing disabled for set", "set", set.Name)
		return nil
	}
	client := wordpress.New(cfg.WordPress.BaseURL, set.WordPress.SiteID, token, timeout)
	return wordpress.NewPublisher(client, wordpress.PublisherConfig{
		Categories:      set.WordPress.Categories,
		DefaultCategory: set.WordPress.DefaultCategory,
		Location:        loc,
		HourFrom:        cfg.WordPress.PublishHourFrom,
		HourTo:          cfg.WordPress.PublishHourTo,
	})
}
