package config

import (
	"strings"

	"autopost/internal/model"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	OutputDir string `mapstructure:"output_dir"` // draft preview files
	Timezone  string `mapstructure:"timezone"`   // used for publish scheduling
	DryRun    bool   `mapstructure:"dry_run"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RetryConfig bounds gateway retries on transport failures.
type RetryConfig struct {
	Attempts  int    `mapstructure:"attempts"`
	BaseDelay string `mapstructure:"base_delay"` // duration string, e.g., "1s"
	MaxDelay  string `mapstructure:"max_delay"`
}

// BackendConfig selects one language-model backend.
type BackendConfig struct {
	Provider string `mapstructure:"provider"` // openai, claude, ollama
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
}

// LLMConfig controls the model gateway and the per-call budgets.
type LLMConfig struct {
	BackendConfig     `mapstructure:",squash"`
	Fallback          BackendConfig `mapstructure:"fallback"`
	SelectTimeout     string        `mapstructure:"select_timeout"`
	DraftTimeout      string        `mapstructure:"draft_timeout"`
	SelectMaxTokens   int           `mapstructure:"select_max_tokens"`
	DraftMaxTokens    int           `mapstructure:"draft_max_tokens"`
	SelectTemperature float32       `mapstructure:"select_temperature"`
	DraftTemperature  float32       `mapstructure:"draft_temperature"`
	Retry             RetryConfig   `mapstructure:"retry"`
	// Provider keys, used by any backend of that provider that names no key.
	OpenAIKey    string `mapstructure:"openai_api_key"`
	AnthropicKey string `mapstructure:"anthropic_api_key"`
}

// Resolve fills b's API key from the provider-wide keys when it has none.
func (c LLMConfig) Resolve(b BackendConfig) BackendConfig {
	if b.APIKey != "" {
		return b
	}
	switch strings.ToLower(b.Provider) {
	case "openai":
		b.APIKey = c.OpenAIKey
	case "claude", "anthropic":
		b.APIKey = c.AnthropicKey
	}
	if b.APIKey == "" && strings.EqualFold(b.Provider, c.Provider) {
		b.APIKey = c.APIKey
	}
	return b
}

// NewsAPIConfig controls the NewsAPI collector.
type NewsAPIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
	PageSize int    `mapstructure:"page_size"`
	Country  string `mapstructure:"country"` // top-headlines only
}

// RedditConfig controls the Reddit collector.
type RedditConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
	Limit     int    `mapstructure:"limit"`
	MinLength int    `mapstructure:"min_length"` // minimum selftext length in runes
}

// TrendsConfig controls the Google Trends keyword source.
type TrendsConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Geo     string `mapstructure:"geo"`
	Count   int    `mapstructure:"count"`
}

// DataSources groups available collectors.
type DataSources struct {
	NewsAPI NewsAPIConfig `mapstructure:"newsapi"`
	Reddit  RedditConfig  `mapstructure:"reddit"`
	Trends  TrendsConfig  `mapstructure:"trends"`
	// Enrich fetches the full article when NewsAPI content is truncated.
	Enrich  bool   `mapstructure:"enrich"`
	Timeout string `mapstructure:"timeout"`
}

// WordPressConfig holds publisher-wide settings. Token is used by account sets
// that carry none of their own.
type WordPressConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Token           string `mapstructure:"token"`
	Timeout         string `mapstructure:"timeout"`
	PublishHourFrom int    `mapstructure:"publish_hour_from"`
	PublishHourTo   int    `mapstructure:"publish_hour_to"`
}

// SusanooConfig controls the cover image generator.
type SusanooConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout string `mapstructure:"timeout"`
}

// ScheduleConfig controls the serve loop.
type ScheduleConfig struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// AccountWordPress holds per-set WordPress.com credentials and category ids.
type AccountWordPress struct {
	SiteID          string         `mapstructure:"site_id"`
	Token           string         `mapstructure:"token"`
	// Categories maps category names to ids. Viper lowercases map keys, so
	// names arrive lowercased; look them up with wordpress.CategoryID.
	Categories      map[string]int `mapstructure:"categories"`
	DefaultCategory int            `mapstructure:"default_category"`
}

// AccountSetConfig defines one account set: its theme, its sources and its publisher.
type AccountSetConfig struct {
	Name         string           `mapstructure:"name"`
	Theme        string           `mapstructure:"theme"`
	Description  string           `mapstructure:"description"`
	Language     string           `mapstructure:"language"`
	Template     string           `mapstructure:"template"`
	Categories   []string         `mapstructure:"categories"`
	DefaultTags  []string         `mapstructure:"default_tags"`
	MaxPosts     int              `mapstructure:"max_posts"`
	Keywords     []string         `mapstructure:"keywords"`
	Subreddits   []string         `mapstructure:"subreddits"`
	UseTrends    bool             `mapstructure:"use_trends"`
	TopHeadlines string           `mapstructure:"top_headlines"` // NewsAPI category, empty disables
	LLM          BackendConfig    `mapstructure:"llm"`           // overrides the global backend when provider is set
	WordPress    AccountWordPress `mapstructure:"wordpress"`
	Social       []string         `mapstructure:"social"` // platforms for promotional variants: x, threads
}

// Account converts the set into the context the selector and drafter use.
func (a AccountSetConfig) Account() model.Account {
	return model.Account{
		Name:        a.Name,
		Theme:       a.Theme,
		Description: a.Description,
		Language:    a.Language,
		Template:    a.Template,
		Categories:  a.Categories,
		DefaultTags: a.DefaultTags,
		Social:      a.Social,
	}
}

// Config is the top-level configuration structure.
type Config struct {
	App         AppConfig          `mapstructure:"app"`
	Redis       RedisConfig        `mapstructure:"redis"`
	LLM         LLMConfig          `mapstructure:"llm"`
	Sources     DataSources        `mapstructure:"sources"`
	WordPress   WordPressConfig    `mapstructure:"wordpress"`
	Susanoo     SusanooConfig      `mapstructure:"susanoo"`
	Schedule    ScheduleConfig     `mapstructure:"schedule"`
	Metrics     MetricsConfig      `mapstructure:"metrics"`
	AccountSets []AccountSetConfig `mapstructure:"account_sets"`
}

// AccountSet returns the named account set.
func (c *Config) AccountSet(name string) (AccountSetConfig, bool) {
	for _, a := range c.AccountSets {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return AccountSetConfig{}, false
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.OutputDir == "" {
		c.App.OutputDir = "./out"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "Asia/Seoul"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "autopost"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel(c.LLM.Provider)
	}
	if c.LLM.Fallback.Provider != "" && c.LLM.Fallback.Model == "" {
		c.LLM.Fallback.Model = DefaultModel(c.LLM.Fallback.Provider)
	}
	if c.LLM.SelectTimeout == "" {
		c.LLM.SelectTimeout = "2m"
	}
	if c.LLM.DraftTimeout == "" {
		c.LLM.DraftTimeout = "10m"
	}
	if c.LLM.SelectMaxTokens == 0 {
		c.LLM.SelectMaxTokens = 500
	}
	if c.LLM.DraftMaxTokens == 0 {
		c.LLM.DraftMaxTokens = 4096
	}
	if c.LLM.SelectTemperature == 0 {
		c.LLM.SelectTemperature = 0.3
	}
	if c.LLM.DraftTemperature == 0 {
		c.LLM.DraftTemperature = 0.8
	}
	if c.LLM.Retry.Attempts == 0 {
		c.LLM.Retry.Attempts = 3
	}
	if c.LLM.Retry.BaseDelay == "" {
		c.LLM.Retry.BaseDelay = "1s"
	}
	if c.LLM.Retry.MaxDelay == "" {
		c.LLM.Retry.MaxDelay = "30s"
	}
	if c.Sources.NewsAPI.BaseURL == "" {
		c.Sources.NewsAPI.BaseURL = "https://newsapi.org"
	}
	if c.Sources.NewsAPI.PageSize == 0 {
		c.Sources.NewsAPI.PageSize = 20
	}
	if c.Sources.Reddit.BaseURL == "" {
		c.Sources.Reddit.BaseURL = "https://www.reddit.com"
	}
	if c.Sources.Reddit.UserAgent == "" {
		c.Sources.Reddit.UserAgent = "autopost/1.0"
	}
	if c.Sources.Reddit.Limit == 0 {
		c.Sources.Reddit.Limit = 50
	}
	if c.Sources.Reddit.MinLength == 0 {
		c.Sources.Reddit.MinLength = 1000
	}
	if c.Sources.Trends.BaseURL == "" {
		c.Sources.Trends.BaseURL = "https://trends.google.com/trending/rss"
	}
	if c.Sources.Trends.Geo == "" {
		c.Sources.Trends.Geo = "KR"
	}
	if c.Sources.Trends.Count == 0 {
		c.Sources.Trends.Count = 5
	}
	if c.Sources.Timeout == "" {
		c.Sources.Timeout = "20s"
	}
	if c.WordPress.BaseURL == "" {
		c.WordPress.BaseURL = "https://public-api.wordpress.com/wp/v2/sites"
	}
	if c.WordPress.Timeout == "" {
		c.WordPress.Timeout = "60s"
	}
	if c.WordPress.PublishHourFrom == 0 && c.WordPress.PublishHourTo == 0 {
		c.WordPress.PublishHourFrom, c.WordPress.PublishHourTo = 9, 21
	}
	if c.Susanoo.Timeout == "" {
		c.Susanoo.Timeout = "180s"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 9 * * *"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	for i := range c.AccountSets {
		a := &c.AccountSets[i]
		if a.Theme == "" {
			a.Theme = a.Name
		}
		if a.Language == "" {
			a.Language = "Korean"
		}
		if a.MaxPosts == 0 {
			a.MaxPosts = 3
		}
		if a.LLM.Provider != "" && a.LLM.Model == "" {
			a.LLM.Model = DefaultModel(a.LLM.Provider)
		}
	}
}

// DefaultModel returns the model used when a backend names none.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "claude":
		return "claude-3-5-sonnet-latest"
	case "ollama":
		return "llama3.1"
	default:
		return "gpt-4o-mini"
	}
}
