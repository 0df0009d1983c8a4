package trends

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client reads Google Trends' daily trending-search RSS feed.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{Timeout: 10 * time.Second}}
}

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			Traffic string `xml:"approx_traffic"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Keywords returns up to n trending search terms for geo, most trending first.
func (c *Client) Keywords(ctx context.Context, geo string, n int) ([]string, error) {
	q := url.Values{"geo": {geo}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("trends: status %d", resp.StatusCode)
	}
	var feed rss
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("trends: decode feed: %w", err)
	}
	out := make([]string, 0, n)
	for _, it := range feed.Channel.Items {
		if len(out) == n {
			break
		}
		if kw := strings.TrimSpace(it.Title); kw != "" {
			out = append(out, kw)
		}
	}
	return out, nil
}

// Merge appends trending keywords to base, skipping case-insensitive repeats.
func Merge(base, trending []string) []string {
	seen := make(map[string]struct{}, len(base)+len(trending))
	out := make([]string, 0, len(base)+len(trending))
	for _, k := range append(append([]string{}, base...), trending...) {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if _, ok := seen[key]; ok || k == "" {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}
