package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chai2010/webp"
)

// Generator produces cover images.
type Generator interface {
	// Cover returns a WebP-encoded image for prompt.
	Cover(ctx context.Context, prompt string) ([]byte, error)
}

// SusanooConfig holds configuration for the Susanoo image API.
type SusanooConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	AspectRatio string
	Timeout     time.Duration
	WebPQuality int
}

// Susanoo implements Generator using Susanoo image generation.
type Susanoo struct {
	baseURL     string
	apiKey      string
	model       string
	aspectRatio string
	timeout     time.Duration
	webPQuality int
	httpClient  *http.Client
}

// NewSusanoo creates a Susanoo client from config. Returns nil if essential config is missing.
func NewSusanoo(cfg SusanooConfig) *Susanoo {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	quality := cfg.WebPQuality
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Susanoo{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       model,
		aspectRatio: strings.TrimSpace(cfg.AspectRatio),
		timeout:     timeout,
		webPQuality: quality,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type imageGenerationRequest struct {
	Model    string         `json:"model"`
	Prompt   string         `json:"prompt"`
	N        int            `json:"n,omitempty"`
	Provider string         `json:"provider,omitempty"`
	Options  map[string]any `json:"gemini_options,omitempty"`
}

type imageGenerationResponse struct {
	Data struct {
		Error   string `json:"error"`
		Results []struct {
			B64JSON string `json:"b64_json"`
		} `json:"results"`
	} `json:"data"`
}

// Cover generates an image from prompt and re-encodes it as WebP.
func (s *Susanoo) Cover(ctx context.Context, prompt string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil susanoo client")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt is empty")
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	slog.Info("susanoo: generating cover image",
		"model", s.model,
		"aspect_ratio", s.aspectRatio,
		"prompt_runes", len([]rune(prompt)),
	)

	body, err := json.Marshal(imageGenerationRequest{
		Model:    s.model,
		Prompt:   prompt,
		N:        1,
		Provider: "gemini",
		Options:  geminiOptions(s.aspectRatio),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/images/generations?async=0", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-SUSANOO-KEY", s.apiKey)

	reqStart := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("susanoo request: %w", err)
	}
	defer resp.Body.Close()
	slog.Info("susanoo: response received",
		"status", resp.StatusCode,
		"duration", time.Since(reqStart),
	)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("susanoo status=%d body=%s", resp.StatusCode, string(b))
	}
	var parsed imageGenerationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(parsed.Data.Error) != "" {
		return nil, fmt.Errorf("susanoo error: %s", parsed.Data.Error)
	}
	if len(parsed.Data.Results) == 0 || strings.TrimSpace(parsed.Data.Results[0].B64JSON) == "" {
		return nil, errors.New("susanoo returned empty image data")
	}
	raw, err := base64.StdEncoding.DecodeString(parsed.Data.Results[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	slog.Info("susanoo: image payload decoded", "bytes", len(raw))
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var out bytes.Buffer
	if err := webp.Encode(&out, img, &webp.Options{Quality: float32(s.webPQuality)}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	b := img.Bounds()
	slog.Info("susanoo: cover generated",
		"width", b.Dx(),
		"height", b.Dy(),
		"bytes", out.Len(),
		"duration", time.Since(start),
	)
	return out.Bytes(), nil
}

func geminiOptions(aspectRatio string) map[string]any {
	aspectRatio = strings.TrimSpace(aspectRatio)
	if aspectRatio == "" {
		return nil
	}
	return map[string]any{"aspect_ratio": aspectRatio}
}
