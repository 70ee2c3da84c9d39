package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	UpstreamBaseURL  string `mapstructure:"upstream_base_url"`
	CommentPath      string `mapstructure:"comment_path"`
	LoginPath        string `mapstructure:"login_path"`
	UpstreamUsername string `mapstructure:"upstream_username"`
	UpstreamPassword string `mapstructure:"upstream_password"`

	FetchIntervalMs       int64         `mapstructure:"fetch_interval_ms"`
	FetchInterval         time.Duration `mapstructure:"-"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	UpstreamRPS           float64       `mapstructure:"upstream_rps"`

	MediaBaseURL         string `mapstructure:"media_base_url"`
	PlaceholderContent   string `mapstructure:"placeholder_content"`
	MaxConcurrentLookups int    `mapstructure:"max_concurrent_lookups"`

	EnrichUnlinked bool  `mapstructure:"enrich_unlinked"`
	EnrichDelayMs  int64 `mapstructure:"enrich_delay_ms"`

	PublishersFile string `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-comment-ingestor")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("comment_path", "/api/comment")
	v.SetDefault("login_path", "/api/login")

	v.SetDefault("fetch_interval_ms", 10000)
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("upstream_rps", 1.0)

	v.SetDefault("placeholder_content", "No Content")
	v.SetDefault("max_concurrent_lookups", 8)

	v.SetDefault("enrich_unlinked", false)
	v.SetDefault("enrich_delay_ms", 500)

	v.SetDefault("publishers_file", "./configs/publishers.yaml")

	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/reports.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.UpstreamBaseURL == "" {
		return nil, fmt.Errorf("upstream_base_url is required")
	}
	if _, err := url.Parse(cfg.UpstreamBaseURL); err != nil {
		return nil, fmt.Errorf("invalid upstream_base_url: %w", err)
	}
	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = cfg.UpstreamBaseURL
	}

	if cfg.FetchIntervalMs <= 0 {
		return nil, fmt.Errorf("invalid fetch_interval_ms (must be positive milliseconds)")
	}
	cfg.FetchInterval = time.Duration(cfg.FetchIntervalMs) * time.Millisecond

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.UpstreamRPS <= 0 {
		return nil, fmt.Errorf("invalid upstream_rps (must be positive)")
	}
	if cfg.MaxConcurrentLookups <= 0 {
		return nil, fmt.Errorf("invalid max_concurrent_lookups (must be positive)")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// CommentURL returns the fully qualified comments endpoint.
func (c *Config) CommentURL() string {
	u, err := url.JoinPath(c.UpstreamBaseURL, c.CommentPath)
	if err != nil {
		return c.UpstreamBaseURL + c.CommentPath
	}
	return u
}

// LoginURL returns the fully qualified login endpoint.
func (c *Config) LoginURL() string {
	u, err := url.JoinPath(c.UpstreamBaseURL, c.LoginPath)
	if err != nil {
		return c.UpstreamBaseURL + c.LoginPath
	}
	return u
}

// EnrichDelay returns the per-request throttle used by the enrichment scraper.
func (c *Config) EnrichDelay() time.Duration {
	if c.EnrichDelayMs <= 0 {
		return 0
	}
	return time.Duration(c.EnrichDelayMs) * time.Millisecond
}
