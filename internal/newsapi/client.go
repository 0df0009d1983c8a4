package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"autopost/internal/model"
	"autopost/internal/scrape"
)

type Client struct {
	baseURL  string
	apiKey   string
	language string
	pageSize int
	client   *http.Client
	now      func() time.Time
}

func NewClient(baseURL, apiKey, language string, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		language: language,
		pageSize: pageSize,
		client:   &http.Client{Timeout: 20 * time.Second},
		now:      time.Now,
	}
}

// Article is the subset of NewsAPI article fields used by this service.
type Article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []Article `json:"articles"`
}

// truncMarker is the "[+1234 chars]" suffix NewsAPI appends to cut content.
var truncMarker = regexp.MustCompile(`\s*\[\+\d+ chars\]\s*$`)

// Truncated reports whether the article content was cut by the API.
func (a Article) Truncated() bool {
	return truncMarker.MatchString(a.Content)
}

// Everything searches articles from the last day matching any of keywords.
// API: GET /v2/everything?q=...&sortBy=relevancy&from=YYYY-MM-DD
func (c *Client) Everything(ctx context.Context, keywords []string) ([]Article, error) {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			terms = append(terms, fmt.Sprintf(`"%s"`, k))
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}
	q := url.Values{
		"q":        {strings.Join(terms, " OR ")},
		"sortBy":   {"relevancy"},
		"pageSize": {fmt.Sprint(c.pageSize)},
		"from":     {c.now().AddDate(0, 0, -1).Format("2006-01-02")},
	}
	if c.language != "" {
		q.Set("language", c.language)
	}
	return c.get(ctx, "/v2/everything", q)
}

// TopHeadlines lists current headlines for a NewsAPI category, e.g. "business".
func (c *Client) TopHeadlines(ctx context.Context, category, country string) ([]Article, error) {
	q := url.Values{"category": {category}, "pageSize": {fmt.Sprint(c.pageSize)}}
	if country != "" {
		q.Set("country", country)
	}
	return c.get(ctx, "/v2/top-headlines", q)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("newsapi: status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "ok" {
		return nil, fmt.Errorf("newsapi: status %d: %s %s", resp.StatusCode, out.Code, out.Message)
	}
	return out.Articles, nil
}

// ToTopic converts an article into a topic with plain-text body.
func ToTopic(a Article, subject string) model.Topic {
	body := scrape.PlainText(truncMarker.ReplaceAllString(a.Content, ""))
	if body == "" {
		body = scrape.PlainText(a.Description)
	}
	return model.Topic{
		Title:       strings.TrimSpace(a.Title),
		Body:        body,
		URL:         a.URL,
		Source:      a.Source.Name,
		Subject:     subject,
		CollectedAt: time.Now().UTC(),
	}
}
