package leads

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/leadscout/leads/internal/apifetch"
	"github.com/hazyhaar/leadscout/leads/internal/score"
	"github.com/hazyhaar/leadscout/leads/internal/vocab"
	"github.com/hazyhaar/leadscout/shield"
)

// Config holds all leadscout configuration.
type Config struct {
	DBPath   string         `yaml:"db_path"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Collect  CollectConfig  `yaml:"collect"`
	Enrich   EnrichConfig   `yaml:"enrich"`
	Rules    score.Rules    `yaml:"rules"`
	Outreach OutreachConfig `yaml:"outreach"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// FetchConfig controls outbound HTTP.
type FetchConfig struct {
	Timeout        time.Duration `yaml:"timeout"`         // search and feed calls
	SiteTimeout    time.Duration `yaml:"site_timeout"`    // enrichment page fetches
	WebhookTimeout time.Duration `yaml:"webhook_timeout"` // notifier POSTs
	MaxBytes       int64         `yaml:"max_bytes"`
	UserAgent      string        `yaml:"user_agent"`
	// AllowPrivate disables the private-address guard. Only for local
	// stubs and tests.
	AllowPrivate bool `yaml:"allow_private"`
}

// CollectConfig controls the signal sources.
type CollectConfig struct {
	Queries           []string        `yaml:"queries"`
	Feeds             []string        `yaml:"feeds"`
	PerQuery          int             `yaml:"per_query"`
	CallDelay         *time.Duration  `yaml:"call_delay"` // nil means 500ms; 0 disables
	SnippetMax        int             `yaml:"snippet_max"`
	GitHubAPI         string          `yaml:"github_api"`
	GitHubToken       string          `yaml:"github_token"`
	AggregatorAPI     string          `yaml:"aggregator_api"`
	AggregatorItemURL string          `yaml:"aggregator_item_url"`
	AggregatorFields  apifetch.Config `yaml:"aggregator_fields"`
	FeedKeywords      []string        `yaml:"feed_keywords"`
}

// EnrichConfig controls prospect website enrichment.
type EnrichConfig struct {
	Limit       int            `yaml:"limit"`
	SignalDelay *time.Duration `yaml:"signal_delay"` // nil means 300ms; 0 disables
	Scheme      string         `yaml:"scheme"`
	// TechPatterns override fingerprints by name; unknown names are added.
	TechPatterns []vocab.TechPattern `yaml:"tech_patterns"`
}

// OutreachConfig controls the downstream consumers of the ranked view.
type OutreachConfig struct {
	MinScore       *int   `yaml:"min_score"`        // nil means 10
	NotifyMinScore *int   `yaml:"notify_min_score"` // nil means 20
	NotifyTop      int    `yaml:"notify_top"`
	ExportTop      int    `yaml:"export_top"`
	ExportPath     string `yaml:"export_path"`
	WebhookURL     string `yaml:"webhook_url"`
	Product        string `yaml:"product"`
	Sender         string `yaml:"sender"`
}

// HTTPConfig controls the read API.
type HTTPConfig struct {
	Addr      string                 `yaml:"addr"`
	RateLimit shield.RateLimitConfig `yaml:"rate_limit"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "leads.db"
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 20 * time.Second
	}
	if c.Fetch.SiteTimeout <= 0 {
		c.Fetch.SiteTimeout = 15 * time.Second
	}
	if c.Fetch.WebhookTimeout <= 0 {
		c.Fetch.WebhookTimeout = 10 * time.Second
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 5 * 1024 * 1024
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "leadscout/1.0"
	}
	if c.Collect.Queries == nil {
		c.Collect.Queries = vocab.Queries()
	}
	if c.Collect.Feeds == nil {
		c.Collect.Feeds = vocab.Feeds()
	}
	if c.Collect.FeedKeywords == nil {
		c.Collect.FeedKeywords = vocab.AuthKeywords()
	}
	if c.Collect.PerQuery <= 0 {
		c.Collect.PerQuery = 5
	}
	if c.Collect.CallDelay == nil {
		c.Collect.CallDelay = ptr(500 * time.Millisecond)
	}
	if c.Collect.SnippetMax <= 0 {
		c.Collect.SnippetMax = 300
	}
	if c.Enrich.Limit <= 0 {
		c.Enrich.Limit = 100
	}
	if c.Enrich.SignalDelay == nil {
		c.Enrich.SignalDelay = ptr(300 * time.Millisecond)
	}
	if c.Enrich.Scheme == "" {
		c.Enrich.Scheme = "https"
	}
	c.Enrich.TechPatterns = vocab.MergeTechPatterns(vocab.TechPatterns(), c.Enrich.TechPatterns)
	c.Rules = c.Rules.Merge(score.DefaultRules())
	if c.Outreach.MinScore == nil {
		c.Outreach.MinScore = ptr(10)
	}
	if c.Outreach.NotifyMinScore == nil {
		c.Outreach.NotifyMinScore = ptr(20)
	}
	if c.Outreach.NotifyTop <= 0 {
		c.Outreach.NotifyTop = 3
	}
	if c.Outreach.ExportTop <= 0 {
		c.Outreach.ExportTop = 5
	}
	if c.Outreach.ExportPath == "" {
		c.Outreach.ExportPath = "crm_export.json"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8087"
	}
}

func ptr[T any](v T) *T { return &v }

// applyEnv lets the environment supply secrets that should not live in the
// config file. An explicit value in the file wins.
func (c *Config) applyEnv() {
	if c.Outreach.WebhookURL == "" {
		c.Outreach.WebhookURL = os.Getenv("LEADS_WEBHOOK")
	}
	if c.Collect.GitHubToken == "" {
		c.Collect.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("leads: parse config %s: %w", path, err)
	}
	return cfg, nil
}
