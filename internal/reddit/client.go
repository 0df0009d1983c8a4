package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"autopost/internal/model"
	"autopost/internal/scrape"
)

// Client reads subreddit listings from Reddit's public JSON endpoints.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Post is a subset of Reddit link fields used by this service.
type Post struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML string  `json:"selftext_html"`
	URL          string  `json:"url"`
	Permalink    string  `json:"permalink"`
	Subreddit    string  `json:"subreddit"`
	Score        int     `json:"score"`
	Created      float64 `json:"created_utc"`
	Stickied     bool    `json:"stickied"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// TopOfDay fetches the day's top posts of a subreddit.
// API: GET /r/{sub}/top.json?t=day&limit={limit}
func (c *Client) TopOfDay(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	endpoint := fmt.Sprintf("%s/r/%s/top.json", c.baseURL, url.PathEscape(subreddit))
	q := url.Values{"t": {"day"}, "limit": {fmt.Sprint(limit)}, "raw_json": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// Reddit rejects default Go user agents
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reddit: status %d", resp.StatusCode)
	}
	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		posts = append(posts, ch.Data)
	}
	return posts, nil
}

// Topics keeps text posts of at least minLength runes and converts them.
func (c *Client) Topics(posts []Post, minLength int) []model.Topic {
	out := make([]model.Topic, 0, len(posts))
	for _, p := range posts {
		if p.Stickied {
			continue
		}
		body := strings.TrimSpace(p.Selftext)
		if p.SelftextHTML != "" {
			body = scrape.PlainText(p.SelftextHTML)
		}
		if utf8.RuneCountInString(body) < minLength {
			continue
		}
		link := p.URL
		if p.Permalink != "" {
			link = c.baseURL + p.Permalink
		}
		out = append(out, model.Topic{
			Title:       strings.TrimSpace(p.Title),
			Body:        body,
			URL:         link,
			Source:      "reddit",
			Subject:     p.Subreddit,
			CollectedAt: time.Unix(int64(p.Created), 0).UTC(),
		})
	}
	return out
}
