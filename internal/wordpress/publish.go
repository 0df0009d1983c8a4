package wordpress

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"autopost/internal/model"
)

// Publisher schedules drafts on one account set's site.
type Publisher struct {
	client     *Client
	categories map[string]int
	fallback   int
	loc        *time.Location
	fromHour   int
	toHour     int
	rnd        *rand.Rand
	now        func() time.Time
}

// PublisherConfig wires a Publisher.
type PublisherConfig struct {
	Categories      map[string]int
	DefaultCategory int
	Location        *time.Location
	HourFrom        int
	HourTo          int
	Rand            *rand.Rand
}

func NewPublisher(c *Client, cfg PublisherConfig) *Publisher {
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Publisher{
		client:     c,
		categories: cfg.Categories,
		fallback:   cfg.DefaultCategory,
		loc:        loc,
		fromHour:   cfg.HourFrom,
		toHour:     cfg.HourTo,
		rnd:        rnd,
		now:        time.Now,
	}
}

// Publish uploads cover (when non-empty) and schedules d for tomorrow.
// A failed cover upload is logged and the post goes out without it.
func (p *Publisher) Publish(ctx context.Context, d model.PostDraft, cover []byte, coverName string) (*Post, error) {
	params := PostParams{
		Title:   d.Title,
		Content: d.Content,
		Excerpt: d.Summary,
		Status:  "future",
		Date:    ScheduleDate(p.now(), p.loc, p.rnd, p.fromHour, p.toHour).Format(dateLayout),
	}
	if id := CategoryID(d.Category, p.categories, p.fallback); id != 0 {
		params.Categories = []int{id}
	}
	if len(cover) > 0 {
		m, err := p.client.UploadMedia(ctx, coverName, cover)
		if err != nil {
			slog.Warn("wordpress: cover upload failed", "title", d.Title, "error", err)
		} else {
			params.FeaturedMedia = m.ID
		}
	}
	post, err := p.client.CreatePost(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("publish %q: %w", d.Title, err)
	}
	slog.Info("wordpress: post scheduled", "id", post.ID, "date", params.Date, "link", post.Link)
	return post, nil
}
