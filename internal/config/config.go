// Package config loads and validates spider configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider values accepted by the archive, store, and notify sections.
const (
	ProviderNone     = "none"
	ProviderMemory   = "memory"
	ProviderLocal    = "local"
	ProviderGCS      = "gcs"
	ProviderPostgres = "postgres"
	ProviderPubSub   = "pubsub"
)

// Output formats accepted by the export section.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config captures all runtime knobs loaded via Viper.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Export  ExportConfig  `mapstructure:"export"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Store   StoreConfig   `mapstructure:"store"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Server  ServerConfig  `mapstructure:"server"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlConfig bounds the crawl run.
type CrawlConfig struct {
	Threads  int `mapstructure:"threads"`
	MaxPages int `mapstructure:"max_pages"`
	// MaxDepth limits link distance from the seeds; zero or negative
	// disables the check.
	MaxDepth int `mapstructure:"max_depth"`
}

// FetchConfig configures HTTP fetch and retry behavior.
type FetchConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Retries        int    `mapstructure:"retries"`
	RetryDelayMs   int    `mapstructure:"retry_delay_ms"`
	UserAgent      string `mapstructure:"user_agent"`
}

// ExportConfig controls where and how crawl results are written.
type ExportConfig struct {
	Format    string `mapstructure:"format"`
	OutputDir string `mapstructure:"output_dir"`
}

// ArchiveConfig selects the raw-page blob store.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// StoreConfig selects the relational document store.
type StoreConfig struct {
	Provider       string `mapstructure:"provider"`
	DSN            string `mapstructure:"dsn"`
	DocumentsTable string `mapstructure:"documents_table"`
	SignalsTable   string `mapstructure:"signals_table"`
}

// NotifyConfig selects the run-completion publisher.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ServerConfig controls the serve command's HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// APIKey protects the query routes when non-empty.
	APIKey string `mapstructure:"api_key"`
}

// Load builds a Config from an optional YAML file plus SPIDER_* environment
// overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPIDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	v.SetDefault("logging.development", false)
	v.SetDefault("crawl.threads", 5)
	v.SetDefault("crawl.max_pages", 100)
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("fetch.timeout_seconds", 5)
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.retry_delay_ms", 1000)
	v.SetDefault("fetch.user_agent", "spider/0.1 (+https://github.com/leadspider/spider)")
	v.SetDefault("export.format", FormatJSON)
	v.SetDefault("export.output_dir", "output")
	v.SetDefault("archive.provider", ProviderNone)
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("store.provider", ProviderNone)
	v.SetDefault("store.documents_table", "documents")
	v.SetDefault("store.signals_table", "signals")
	v.SetDefault("notify.provider", ProviderNone)
	v.SetDefault("server.port", 8080)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawl.Threads <= 0 {
		return fmt.Errorf("crawl.threads must be > 0")
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must be >= 0")
	}
	if c.Export.Format != FormatJSON && c.Export.Format != FormatCSV {
		return fmt.Errorf("export.format must be %q or %q", FormatJSON, FormatCSV)
	}
	switch c.Archive.Provider {
	case ProviderNone, ProviderMemory:
	case ProviderLocal:
		if c.Archive.LocalDir == "" {
			return fmt.Errorf("archive.local_dir must be set when archive.provider is %q", ProviderLocal)
		}
	case ProviderGCS:
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.provider is %q", ProviderGCS)
		}
	default:
		return fmt.Errorf("unknown archive.provider %q", c.Archive.Provider)
	}
	switch c.Store.Provider {
	case ProviderNone:
	case ProviderPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.provider is %q", ProviderPostgres)
		}
	default:
		return fmt.Errorf("unknown store.provider %q", c.Store.Provider)
	}
	switch c.Notify.Provider {
	case ProviderNone, ProviderMemory:
	case ProviderPubSub:
		if c.Notify.ProjectID == "" || c.Notify.TopicID == "" {
			return fmt.Errorf("notify.project_id and notify.topic_id must be set when notify.provider is %q", ProviderPubSub)
		}
	default:
		return fmt.Errorf("unknown notify.provider %q", c.Notify.Provider)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Timeout returns the per-attempt fetch timeout.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between fetch attempts.
func (c FetchConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}
