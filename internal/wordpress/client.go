package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the WordPress.com REST root for hosted sites.
const DefaultBaseURL = "https://public-api.wordpress.com/wp/v2/sites"

// Client is a minimal HTTP client for one WordPress site.
type Client struct {
	baseURL string
	siteID  string
	token   string
	http    *http.Client
}

// New creates a client for site. baseURL is like DefaultBaseURL (no trailing slash).
func New(baseURL, siteID, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		siteID:  siteID,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// PostParams are the fields sent when creating a post.
type PostParams struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt,omitempty"`
	Status        string `json:"status"`
	Date          string `json:"date,omitempty"` // site-local, "2006-01-02T15:04:05"
	Categories    []int  `json:"categories,omitempty"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
}

// Post is the subset of the created post returned by the API.
type Post struct {
	ID     int    `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// Media is the subset of an uploaded media item returned by the API.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.siteID), path)
}

// CreatePost creates a post; WordPress answers 201 Created.
func (c *Client) CreatePost(ctx context.Context, p PostParams) (*Post, error) {
	if c == nil {
		return nil, errors.New("nil wordpress client")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("posts"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out Post
	if err := c.do(req, http.StatusCreated, &out, "create post"); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, errors.New("create post: missing id in response")
	}
	return &out, nil
}

// UploadMedia uploads an image and returns the created media item.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte) (*Media, error) {
	if c == nil {
		return nil, errors.New("nil wordpress client")
	}
	if len(data) == 0 {
		return nil, errors.New("empty media")
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("media"), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	var out Media
	if err := c.do(req, http.StatusCreated, &out, "upload media"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, want int, out any, op string) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed: status=%d body=%s", op, resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
