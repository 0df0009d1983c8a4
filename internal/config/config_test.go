package config

import (
	"strings"
	"testing"

	"autopost/internal/wordpress"

	"github.com/spf13/viper"
)

const sampleYAML = `
app:
  dry_run: true
llm:
  provider: claude
  retry:
    attempts: 5
  fallback:
    provider: ollama
    base_url: http://gpu-box:11434
account_sets:
  - name: Money
    template: finance
    categories: [Economy, Investing]
    max_posts: 2
    keywords: [inflation, "interest rates"]
    social: [x, threads]
    llm:
      provider: openai
      api_key: sk-set
    wordpress:
      site_id: money.example.com
      categories:
        Economy: 7
        Banking: 3
  - name: tips
`

func load(t *testing.T, doc string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
		t.Fatalf("read: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	c.FillDefaults()
	return c
}

func TestUnmarshalAndDefaults(t *testing.T) {
	c := load(t, sampleYAML)
	if !c.App.DryRun || c.App.LogLevel != "info" || c.App.Timezone != "Asia/Seoul" {
		t.Fatalf("app = %+v", c.App)
	}
	if c.LLM.Provider != "claude" || c.LLM.Model != "claude-3-5-sonnet-latest" {
		t.Fatalf("llm backend = %+v", c.LLM.BackendConfig)
	}
	if c.LLM.Fallback.Model != "llama3.1" || c.LLM.Fallback.BaseURL != "http://gpu-box:11434" {
		t.Fatalf("fallback = %+v", c.LLM.Fallback)
	}
	if c.LLM.Retry.Attempts != 5 || c.LLM.Retry.BaseDelay != "1s" || c.LLM.SelectTimeout != "2m" {
		t.Fatalf("retry/timeouts = %+v %s", c.LLM.Retry, c.LLM.SelectTimeout)
	}
	if c.Redis.KeyPrefix != "autopost" || c.Schedule.Cron != "0 9 * * *" {
		t.Fatalf("redis/schedule = %+v %+v", c.Redis, c.Schedule)
	}
	if c.WordPress.PublishHourFrom != 9 || c.WordPress.PublishHourTo != 21 {
		t.Fatalf("wordpress hours = %+v", c.WordPress)
	}
	if len(c.AccountSets) != 2 {
		t.Fatalf("sets = %d", len(c.AccountSets))
	}
	money := c.AccountSets[0]
	if money.MaxPosts != 2 || money.Theme != "Money" || money.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("money = %+v", money)
	}
	// viper lowercases map keys
	if money.WordPress.Categories["economy"] != 7 {
		t.Fatalf("categories = %v", money.WordPress.Categories)
	}
	if id := wordpress.CategoryID("Economy", money.WordPress.Categories, 1); id != 7 {
		t.Fatalf("category id for Economy = %d", id)
	}
	tips := c.AccountSets[1]
	if tips.MaxPosts != 3 || tips.Language != "Korean" || tips.LLM.Provider != "" {
		t.Fatalf("tips = %+v", tips)
	}
}

func TestAccountSetLookup(t *testing.T) {
	c := load(t, sampleYAML)
	set, ok := c.AccountSet("money")
	if !ok || set.Name != "Money" {
		t.Fatalf("lookup = %+v, %v", set, ok)
	}
	if _, ok := c.AccountSet("nope"); ok {
		t.Fatal("unexpected match")
	}
	acc := set.Account()
	if acc.TemplateKey() != "finance" || len(acc.Categories) != 2 || len(acc.Social) != 2 {
		t.Fatalf("account = %+v", acc)
	}
}

func TestResolveKeys(t *testing.T) {
	l := LLMConfig{
		BackendConfig: BackendConfig{Provider: "ollama", APIKey: "global"},
		OpenAIKey:     "sk-openai",
		AnthropicKey:  "sk-ant",
	}
	cases := []struct {
		in   BackendConfig
		want string
	}{
		{BackendConfig{Provider: "openai"}, "sk-openai"},
		{BackendConfig{Provider: "Claude"}, "sk-ant"},
		{BackendConfig{Provider: "openai", APIKey: "own"}, "own"},
		{BackendConfig{Provider: "ollama"}, "global"},
		{BackendConfig{Provider: "other"}, ""},
	}
	for _, c := range cases {
		if got := l.Resolve(c.in).APIKey; got != c.want {
			t.Fatalf("Resolve(%+v) = %q, want %q", c.in, got, c.want)
		}
	}
}
