package worker

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"autopost/internal/config"
	"autopost/internal/metrics"
	"autopost/internal/model"
	"autopost/internal/newsapi"
	"autopost/internal/reddit"
	"autopost/internal/scrape"
	"autopost/internal/trends"
)

// TopicSink stores collected topics, skipping ones seen before.
type TopicSink interface {
	AddTopics(ctx context.Context, set string, topics []model.Topic) (int, error)
}

// Collector gathers candidate topics for account sets from every configured
// source. Nil clients disable their source.
type Collector struct {
	Store   TopicSink
	News    *newsapi.Client
	Reddit  *reddit.Client
	Trends  *trends.Client
	Fetcher *scrape.Fetcher // enriches truncated NewsAPI articles when set
	Sources config.DataSources
	Metrics *metrics.Metrics
}

// CollectSet fetches and stores topics for set and returns how many were new.
// Source failures are logged and skipped; only a storage error is returned.
func (c *Collector) CollectSet(ctx context.Context, set config.AccountSetConfig) (int, error) {
	bySource := map[string][]model.Topic{}

	keywords := set.Keywords
	if set.UseTrends && c.Trends != nil {
		tr := c.Sources.Trends
		trending, err := c.Trends.Keywords(ctx, tr.Geo, tr.Count)
		if err != nil {
			slog.Warn("collector: trends unavailable, using configured keywords", "set", set.Name, "error", err)
		} else {
			keywords = trends.Merge(keywords, trending)
		}
	}

	if c.News != nil {
		for _, kw := range keywords {
			arts, err := c.News.Everything(ctx, []string{kw})
			if err != nil {
				slog.Error("collector: newsapi search failed", "set", set.Name, "keyword", kw, "error", err)
				continue
			}
			bySource["newsapi"] = append(bySource["newsapi"], c.articles(ctx, arts, kw)...)
		}
		if set.TopHeadlines != "" {
			arts, err := c.News.TopHeadlines(ctx, set.TopHeadlines, c.Sources.NewsAPI.Country)
			if err != nil {
				slog.Error("collector: newsapi headlines failed", "set", set.Name, "category", set.TopHeadlines, "error", err)
			} else {
				bySource["newsapi"] = append(bySource["newsapi"], c.articles(ctx, arts, set.TopHeadlines)...)
			}
		}
	}

	if c.Reddit != nil {
		rc := c.Sources.Reddit
		for _, sub := range set.Subreddits {
			posts, err := c.Reddit.TopOfDay(ctx, sub, rc.Limit)
			if err != nil {
				slog.Error("collector: reddit fetch failed", "set", set.Name, "subreddit", sub, "error", err)
				continue
			}
			bySource["reddit"] = append(bySource["reddit"], c.Reddit.Topics(posts, rc.MinLength)...)
		}
	}

	total := 0
	for _, source := range []string{"newsapi", "reddit"} {
		topics := bySource[source]
		if len(topics) == 0 {
			continue
		}
		n, err := c.Store.AddTopics(ctx, set.Name, topics)
		total += n
		if err != nil {
			return total, err
		}
		c.Metrics.Collected(set.Name, source, n)
		slog.Info("collector: stored topics", "set", set.Name, "source", source, "fetched", len(topics), "new", n)
	}
	return total, nil
}

// articles converts NewsAPI articles, replacing truncated bodies with the
// scraped page text when it is longer.
func (c *Collector) articles(ctx context.Context, arts []newsapi.Article, subject string) []model.Topic {
	out := make([]model.Topic, 0, len(arts))
	for _, a := range arts {
		t := newsapi.ToTopic(a, subject)
		if t.Title == "" || t.Title == "[Removed]" {
			continue
		}
		if c.Fetcher != nil && c.Sources.Enrich && a.Truncated() && a.URL != "" {
			fctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			_, text, err := c.Fetcher.Scrape(fctx, a.URL)
			cancel()
			if err != nil {
				slog.Debug("collector: enrich failed", "url", a.URL, "error", err)
			} else if utf8.RuneCountInString(text) > utf8.RuneCountInString(t.Body) {
				t.Body = text
			}
		}
		out = append(out, t)
	}
	return out
}

// CollectAll runs CollectSet for each set in order.
func (c *Collector) CollectAll(ctx context.Context, sets []config.AccountSetConfig) int {
	total := 0
	for _, set := range sets {
		if ctx.Err() != nil {
			break
		}
		n, err := c.CollectSet(ctx, set)
		if err != nil {
			slog.Error("collector: set failed", "set", set.Name, "error", err)
		}
		total += n
	}
	return total
}
