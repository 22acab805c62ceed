package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// source kinds
const (
	KindHTTP   = "http"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindRSS    = "rss"
)

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen     string        `yaml:"listen" json:"listen" jsonschema:"required,default=:8080,description=HTTP server listen address"`
		Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		BaseURL    string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Public URL used in RSS links"`
		SessionTTL time.Duration `yaml:"session_ttl" json:"session_ttl" jsonschema:"default=30m,description=How long a page keeps its feed state for load more requests"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Site SiteConfig `yaml:"site" json:"site" jsonschema:"description=Site presentation"`

	Posts    SourceConfig `yaml:"posts" json:"posts" jsonschema:"required,description=Where posts come from"`
	Articles SourceConfig `yaml:"articles" json:"articles" jsonschema:"description=Where the secondary articles list comes from, optional"`

	Sync struct {
		Location string        `yaml:"location" json:"location" jsonschema:"description=Posts JSON url or file mirrored into the database, sqlite posts only"`
		Interval time.Duration `yaml:"interval" json:"interval" jsonschema:"default=15m,description=How often the mirror is refreshed"`
	} `yaml:"sync" json:"sync" jsonschema:"description=Periodic import of posts into the database"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:blogfeed.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration, used by sqlite posts and --import"`
}

// SiteConfig holds site presentation settings
type SiteConfig struct {
	Title       string   `yaml:"title" json:"title" jsonschema:"default=Blog,description=Site title, used in page titles"`
	Locale      string   `yaml:"locale" json:"locale" jsonschema:"default=pt-BR,description=BCP 47 locale for post dates"`
	PageSize    int      `yaml:"page_size" json:"page_size" jsonschema:"default=10,minimum=1,description=Posts revealed per batch"`
	RecentCount int      `yaml:"recent_count" json:"recent_count" jsonschema:"default=5,minimum=0,description=Entries in each recent list"`
	Messages    Messages `yaml:"messages" json:"messages" jsonschema:"description=User visible texts, empty keeps the default"`
}

// Messages holds overrides for user visible texts
type Messages struct {
	LoadMore      string `yaml:"load_more" json:"load_more,omitempty" jsonschema:"description=Label of the load more button"`
	End           string `yaml:"end" json:"end,omitempty" jsonschema:"description=Message after the last post"`
	Empty         string `yaml:"empty" json:"empty,omitempty" jsonschema:"description=Message when no post matches"`
	FetchFailed   string `yaml:"fetch_failed" json:"fetch_failed,omitempty" jsonschema:"description=Message when posts can't be loaded"`
	BannerHeading string `yaml:"banner_heading" json:"banner_heading,omitempty" jsonschema:"description=Filter banner heading, %s is replaced by the upper-cased tag"`
	BannerText    string `yaml:"banner_text" json:"banner_text,omitempty" jsonschema:"description=Filter banner subtitle"`
}

// SourceConfig describes a post or article source
type SourceConfig struct {
	Kind      string        `yaml:"kind" json:"kind" jsonschema:"enum=http,enum=file,enum=sqlite,enum=rss,description=Source type"`
	Location  string        `yaml:"location" json:"location" jsonschema:"description=URL or file path, not used by sqlite"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Fetch timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=blogfeed/1.0,description=User agent for HTTP requests"`
}

// Enabled reports whether the source is configured
func (s SourceConfig) Enabled() bool {
	return s.Kind != ""
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse makes configuration from YAML data, environment variables are expanded
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		log.Printf("[WARN] schema validation failed: %v", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given, posts are read from posts.json
func Default() *Config {
	cfg := &Config{}
	cfg.Posts = SourceConfig{Kind: KindFile, Location: "posts.json"}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = 30 * time.Minute
	}

	if c.Site.Title == "" {
		c.Site.Title = "Blog"
	}
	if c.Site.Locale == "" {
		c.Site.Locale = "pt-BR"
	}
	if c.Site.PageSize == 0 {
		c.Site.PageSize = 10
	}
	if c.Site.RecentCount == 0 {
		c.Site.RecentCount = 5
	}

	for _, s := range []*SourceConfig{&c.Posts, &c.Articles} {
		if s.Timeout == 0 {
			s.Timeout = 10 * time.Second
		}
		if s.UserAgent == "" {
			s.UserAgent = "blogfeed/1.0"
		}
	}

	if c.Sync.Interval == 0 {
		c.Sync.Interval = 15 * time.Minute
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:blogfeed.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Server.SessionTTL < time.Second {
		return fmt.Errorf("server session_ttl must be at least 1 second")
	}
	if cfg.Site.PageSize < 1 {
		return fmt.Errorf("site.page_size must be at least 1")
	}
	if cfg.Site.RecentCount < 0 {
		return fmt.Errorf("site.recent_count must be non-negative")
	}

	if !cfg.Posts.Enabled() {
		return fmt.Errorf("posts.kind is required")
	}
	if err := validateSource("posts", cfg.Posts, KindHTTP, KindFile, KindSQLite); err != nil {
		return err
	}
	if cfg.Articles.Enabled() {
		if err := validateSource("articles", cfg.Articles, KindHTTP, KindFile, KindRSS); err != nil {
			return err
		}
	}

	if cfg.Sync.Location != "" {
		if cfg.Posts.Kind != KindSQLite {
			return fmt.Errorf("sync.location needs posts.kind %q", KindSQLite)
		}
		if cfg.Sync.Interval < time.Second {
			return fmt.Errorf("sync.interval must be at least 1 second")
		}
	}
	return nil
}

func validateSource(name string, s SourceConfig, kinds ...string) error {
	supported := false
	for _, k := range kinds {
		if s.Kind == k {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%s.kind %q is not supported, use one of %v", name, s.Kind, kinds)
	}
	if s.Kind != KindSQLite && s.Location == "" {
		return fmt.Errorf("%s.location is required for %s source", name, s.Kind)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("%s.timeout must be non-negative", name)
	}
	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetSiteConfig returns site presentation settings
func (c *Config) GetSiteConfig() SiteConfig {
	return c.Site
}

// GetFullConfig returns the full configuration
func (c *Config) GetFullConfig() *Config {
	return c
}
