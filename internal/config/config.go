// Package config loads and validates novelbind configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MongoURIEnv names the environment variable holding the store connection
// string. It is bound explicitly so the documented name works regardless of
// the viper key layout.
const MongoURIEnv = "NOVELBIND_MONGO_URI"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Store   StoreConfig   `mapstructure:"store"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig identifies the remote fiction and the discovery lower bound.
type SourceConfig struct {
	IndexURL      string `mapstructure:"index_url"`
	BaseURL       string `mapstructure:"base_url"`
	MinChapter    int    `mapstructure:"min_chapter"`
	CachePath     string `mapstructure:"cache_path"`
	CacheTTLHours int    `mapstructure:"cache_ttl_hours"`
}

// CrawlerConfig governs fetch and scheduling behavior.
type CrawlerConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Workers        int    `mapstructure:"workers"`
	DelayMS        int    `mapstructure:"delay_ms"`
}

// StoreConfig controls access to the chapter store.
type StoreConfig struct {
	URI string `mapstructure:"uri"`
}

// OutputConfig sets the file sink directory and packaging targets.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	EpubPath  string `mapstructure:"epub_path"`
	BookTitle string `mapstructure:"book_title"`
	Author    string `mapstructure:"author"`
	CSSPath   string `mapstructure:"css_path"`
	CoverPath string `mapstructure:"cover_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Timeout returns the per-request timeout as a duration.
func (c CrawlerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay returns the politeness pacing delay as a duration.
func (c CrawlerConfig) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// CacheTTL returns the index cache lifetime as a duration.
func (c SourceConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Load builds a Config from defaults, an optional YAML file, and
// NOVELBIND_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NOVELBIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("store.uri", MongoURIEnv); err != nil {
		return Config{}, fmt.Errorf("bind %s: %w", MongoURIEnv, err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.index_url", "https://www.royalroad.com/fiction/36049/the-primal-hunter")
	v.SetDefault("source.base_url", "https://www.royalroad.com")
	v.SetDefault("source.min_chapter", 986)
	v.SetDefault("source.cache_path", "data/toc.html")
	v.SetDefault("source.cache_ttl_hours", 6)

	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (compatible; novelbind/1.0)")
	v.SetDefault("crawler.timeout_seconds", 30)
	v.SetDefault("crawler.workers", 0) // 0 = resolve from env, then default
	v.SetDefault("crawler.delay_ms", 500)

	v.SetDefault("store.uri", "mongodb://localhost:27017")

	v.SetDefault("output.dir", "data/chapters")
	v.SetDefault("output.epub_path", "data/the-primal-hunter.epub")
	v.SetDefault("output.book_title", "The Primal Hunter")
	v.SetDefault("output.author", "Zogarth")
	v.SetDefault("output.css_path", "assets/epub.css")
	v.SetDefault("output.cover_path", "assets/cover.jpg")

	v.SetDefault("logging.development", true)
}

// Validate checks invariants the rest of the pipeline relies on.
func (c Config) Validate() error {
	if c.Source.IndexURL == "" {
		return fmt.Errorf("source.index_url must be set")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must be set")
	}
	if c.Source.MinChapter < 0 {
		return fmt.Errorf("source.min_chapter must not be negative")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be positive")
	}
	if c.Crawler.DelayMS < 0 {
		return fmt.Errorf("crawler.delay_ms must not be negative")
	}
	if c.Store.URI == "" {
		return fmt.Errorf("store.uri must be set")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Output.EpubPath == "" {
		return fmt.Errorf("output.epub_path must be set")
	}
	if c.Output.BookTitle == "" {
		return fmt.Errorf("output.book_title must be set")
	}
	return nil
}
