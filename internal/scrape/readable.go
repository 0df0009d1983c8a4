package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// maxPageBytes caps how much of a page is read before extraction.
const maxPageBytes = 5 << 20

var reSpaces = regexp.MustCompile(`[ \t\x{00a0}]+`)

// Fetcher downloads article pages and extracts their readable text.
type Fetcher struct {
	http      *http.Client
	userAgent string
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; autopost/1.0)"
	}
	return &Fetcher{http: &http.Client{Timeout: timeout}, userAgent: userAgent}
}

// Scrape fetches u and returns the article title and plain-text body.
func (f *Fetcher) Scrape(ctx context.Context, u string) (title, content string, err error) {
	if f == nil {
		return "", "", errors.New("nil fetcher")
	}
	pageURL, err := url.ParseRequestURI(u)
	if err != nil {
		return "", "", fmt.Errorf("invalid url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.http.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("fetch failed: status=%d url=%s", resp.StatusCode, u)
	}
	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return "", "", fmt.Errorf("extract %s: %w", u, err)
	}
	return strings.TrimSpace(article.Title), normalizeSpace(article.TextContent), nil
}

// normalizeSpace collapses runs of blanks and drops empty lines.
func normalizeSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(reSpaces.ReplaceAllString(l, " "))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
