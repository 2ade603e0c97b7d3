// Package config loads site settings from defaults, an optional TOML file and
// the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"muses/internal/goodreads"
	"muses/internal/lastfm"
	"muses/internal/literal"
	"muses/internal/muses"
	"muses/internal/upstream"

	"github.com/spf13/viper"
)

const envPrefix = "MUSES"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Literal    LiteralConfig    `mapstructure:"literal"`
	Letterboxd LetterboxdConfig `mapstructure:"letterboxd"`
	LastFM     LastFMConfig     `mapstructure:"lastfm"`
	Goodreads  GoodreadsConfig  `mapstructure:"goodreads"`
	Muses      MusesConfig      `mapstructure:"muses"`
	Images     ImagesConfig     `mapstructure:"images"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ProductionMode bool   `mapstructure:"production"`
	ContentDir     string `mapstructure:"content_dir"`
	SiteURL        string `mapstructure:"site_url"`
}

type DatabaseConfig struct {
	Path              string `mapstructure:"path"`
	FetchLogRetention int    `mapstructure:"fetch_log_retention"`
}

type UpstreamConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

type LiteralConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	// Statuses lists the reading states shown, e.g. IS_READING, FINISHED.
	Statuses            []string `mapstructure:"statuses"`
	ReadDateConcurrency int      `mapstructure:"read_date_concurrency"`
}

type LetterboxdConfig struct {
	FeedURL string `mapstructure:"feed_url"`
}

type LastFMConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Username string `mapstructure:"username"`
}

// GoodreadsConfig holds the shelf URL and the scraper's data-quality patches.
type GoodreadsConfig struct {
	ListURL          string   `mapstructure:"list_url"`
	ExcludeTitles    []string `mapstructure:"exclude_titles"`
	CoverStripTokens []string `mapstructure:"cover_strip_tokens"`
	PlaceholderCover string   `mapstructure:"placeholder_cover"`
}

type MusesConfig struct {
	Sections []SectionConfig `mapstructure:"sections"`
}

type SectionConfig struct {
	Source     string   `mapstructure:"source"`
	Title      string   `mapstructure:"title"`
	Limit      int      `mapstructure:"limit"`
	FetchLimit int      `mapstructure:"fetch_limit"`
	MinRating  *float64 `mapstructure:"min_rating"`
}

type ImagesConfig struct {
	Allowed []ImageHost `mapstructure:"allowed"`
}

// ImageHost is one scheme and hostname pair the image proxy may fetch from.
type ImageHost struct {
	Scheme   string `mapstructure:"scheme"`
	Hostname string `mapstructure:"hostname"`
}

func defaultSections() []map[string]any {
	var out []map[string]any
	for _, s := range muses.DefaultSections() {
		m := map[string]any{
			"source":      string(s.Source),
			"title":       s.Title,
			"limit":       s.Limit,
			"fetch_limit": s.FetchLimit,
		}
		if s.MinRating != nil {
			m["min_rating"] = *s.MinRating
		}
		out = append(out, m)
	}
	return out
}

func defaultImageHosts() []map[string]any {
	hosts := []ImageHost{
		{Scheme: "https", Hostname: "assets.literal.club"},
		{Scheme: "http", Hostname: "books.google.com"},
		{Scheme: "https", Hostname: "books.google.com"},
		{Scheme: "https", Hostname: "lastfm.freetls.fastly.net"},
		{Scheme: "https", Hostname: "a.ltrbxd.com"},
		{Scheme: "https", Hostname: "i.gr-assets.com"},
		{Scheme: "https", Hostname: "images-na.ssl-images-amazon.com"},
		{Scheme: "https", Hostname: "m.media-amazon.com"},
	}
	out := make([]map[string]any, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, map[string]any{"scheme": h.Scheme, "hostname": h.Hostname})
	}
	return out
}

func setDefaults(v *viper.Viper) {
	gr := goodreads.DefaultOptions()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.production", false)
	v.SetDefault("server.content_dir", "content")
	v.SetDefault("server.site_url", "")

	v.SetDefault("database.path", filepath.Join("data", "muses.db"))
	v.SetDefault("database.fetch_log_retention", 500)

	v.SetDefault("upstream.timeout", upstream.DefaultTimeout)
	v.SetDefault("upstream.user_agent", upstream.DefaultUserAgent)
	v.SetDefault("upstream.max_body_bytes", upstream.DefaultMaxBodyBytes)

	v.SetDefault("literal.endpoint", literal.DefaultEndpoint)
	v.SetDefault("literal.email", "")
	v.SetDefault("literal.password", "")
	v.SetDefault("literal.statuses", []string{string(literal.StatusIsReading), string(literal.StatusFinished)})
	v.SetDefault("literal.read_date_concurrency", muses.DefaultOptions().ReadDateConcurrency)

	v.SetDefault("letterboxd.feed_url", "")

	v.SetDefault("lastfm.endpoint", lastfm.DefaultEndpoint)
	v.SetDefault("lastfm.api_key", "")
	v.SetDefault("lastfm.username", "")

	v.SetDefault("goodreads.list_url", "")
	v.SetDefault("goodreads.exclude_titles", gr.ExcludeTitles)
	v.SetDefault("goodreads.cover_strip_tokens", gr.CoverStripTokens)
	v.SetDefault("goodreads.placeholder_cover", gr.PlaceholderCover)

	v.SetDefault("muses.sections", defaultSections())
	v.SetDefault("images.allowed", defaultImageHosts())
}

// Load reads configuration. An empty configPath searches ./muses.toml and
// $HOME/.config/muses/muses.toml; a missing file is not an error unless the
// path was given explicitly.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("muses")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "muses"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// credential variable names shared with the hosting environment
	v.BindEnv("literal.email", "LITERAL_EMAIL", envPrefix+"_LITERAL_EMAIL")
	v.BindEnv("literal.password", "LITERAL_PASSWORD", envPrefix+"_LITERAL_PASSWORD")
	v.BindEnv("lastfm.api_key", "LASTFM_API_KEY", envPrefix+"_LASTFM_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late, at request time.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if _, err := c.DashboardSections(); err != nil {
		return err
	}
	if _, err := c.BookStatuses(); err != nil {
		return err
	}
	for _, h := range c.Images.Allowed {
		if h.Scheme != "http" && h.Scheme != "https" {
			return fmt.Errorf("config: image host %q: unsupported scheme %q", h.Hostname, h.Scheme)
		}
		if h.Hostname == "" {
			return fmt.Errorf("config: image host with empty hostname")
		}
	}
	return nil
}

// GetAddress returns the listen address for the HTTP server.
func (c Config) GetAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// DashboardSections converts the configured sections, in order.
func (c *Config) DashboardSections() ([]muses.SectionConfig, error) {
	out := make([]muses.SectionConfig, 0, len(c.Muses.Sections))
	for i, s := range c.Muses.Sections {
		src, err := muses.ParseSource(s.Source)
		if err != nil {
			return nil, fmt.Errorf("config: muses.sections[%d]: %w", i, err)
		}
		if s.Limit < 0 || s.FetchLimit < 0 {
			return nil, fmt.Errorf("config: muses.sections[%d]: negative limit", i)
		}
		out = append(out, muses.SectionConfig{
			Source:     src,
			Title:      s.Title,
			Limit:      s.Limit,
			FetchLimit: s.FetchLimit,
			MinRating:  s.MinRating,
		})
	}
	return out, nil
}

// BookStatuses parses literal.statuses.
func (c *Config) BookStatuses() ([]literal.ReadingStatus, error) {
	out := make([]literal.ReadingStatus, 0, len(c.Literal.Statuses))
	for _, s := range c.Literal.Statuses {
		status := literal.ReadingStatus(strings.ToUpper(strings.TrimSpace(s)))
		if !status.Valid() {
			return nil, fmt.Errorf("config: unknown reading status %q", s)
		}
		out = append(out, status)
	}
	return out, nil
}

// GoodreadsOptions returns the scraper workarounds.
func (c *Config) GoodreadsOptions() goodreads.Options {
	return goodreads.Options{
		ExcludeTitles:    c.Goodreads.ExcludeTitles,
		CoverStripTokens: c.Goodreads.CoverStripTokens,
		PlaceholderCover: c.Goodreads.PlaceholderCover,
	}
}

func (c *Config) UpstreamConfig() upstream.Config {
	return upstream.Config{
		Timeout:      c.Upstream.Timeout,
		UserAgent:    c.Upstream.UserAgent,
		MaxBodyBytes: c.Upstream.MaxBodyBytes,
	}
}
