// Package config loads and validates apodex configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/archive"
	"github.com/JakeFAU/apodex/internal/day"
	collyfetcher "github.com/JakeFAU/apodex/internal/fetcher/colly"
	"github.com/JakeFAU/apodex/internal/logging"
	"github.com/JakeFAU/apodex/internal/media"
	"github.com/JakeFAU/apodex/internal/media/bolt"
	"github.com/JakeFAU/apodex/internal/policy/ratelimit"
	"github.com/JakeFAU/apodex/internal/scraper"
	"github.com/JakeFAU/apodex/internal/storage/gcs"
	"github.com/JakeFAU/apodex/internal/storage/local"
	"github.com/JakeFAU/apodex/internal/task"
)

// Version is reported in the User-Agent header.
const Version = "0.1.0"

// DefaultUserAgent identifies the archiver to the remote site.
const DefaultUserAgent = "apodex/" + Version + " (APOD archiving tool)"

// EnvPrefix namespaces environment overrides, e.g. APODEX_FETCH_INTERVAL.
const EnvPrefix = "APODEX"

// Config captures all knobs loaded via Viper.
type Config struct {
	Fetch   FetchConfig    `mapstructure:"fetch"`
	Scrape  ScrapeConfig   `mapstructure:"scrape"`
	Archive ArchiveConfig  `mapstructure:"archive"`
	Media   MediaConfig    `mapstructure:"media"`
	Tasks   TasksConfig    `mapstructure:"tasks"`
	Logging logging.Config `mapstructure:"logging"`
	Export  ExportConfig   `mapstructure:"export"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

// FetchConfig controls the HTTP client and the shared rate limiter.
type FetchConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Interval    time.Duration `mapstructure:"interval"`
	MaxBodySize int           `mapstructure:"max_body_size"`
}

// ScrapeConfig paces the scraper.
type ScrapeConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// ArchiveConfig locates the document and entry archives.
type ArchiveConfig struct {
	Path        string `mapstructure:"path"`
	EntriesPath string `mapstructure:"entries_path"`
	Level       int    `mapstructure:"level"`
}

// MediaConfig sizes both media tiers.
type MediaConfig struct {
	Dir          string `mapstructure:"dir"`
	Bucket       string `mapstructure:"bucket"`
	MaxSizeMB    int    `mapstructure:"max_size_mb"`
	VolatileSize int    `mapstructure:"volatile_size"`
}

// TasksConfig sizes the background pool.
type TasksConfig struct {
	Workers int `mapstructure:"workers"`
}

// ExportConfig picks the export target. A bucket wins over a directory.
type ExportConfig struct {
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// MetricsConfig controls the Prometheus textfile written on exit.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// SearchPaths are tried in order by Discover. Environment variables are expanded.
var SearchPaths = []string{
	"apodex.yaml",
	filepath.Join(xdg.ConfigHome, "apodex", "apodex.yaml"),
	"$HOME/.apodex/apodex.yaml",
	"/etc/apodex/apodex.yaml",
}

// Discover returns the first existing file in SearchPaths, or "" when none exists.
func Discover() string {
	for _, p := range SearchPaths {
		p = os.ExpandEnv(p)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load builds a Config from defaults, an optional file, and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
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
	v.SetDefault("fetch.base_url", day.BaseURL)
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.timeout", collyfetcher.DefaultTimeout)
	v.SetDefault("fetch.interval", ratelimit.DefaultInterval)
	v.SetDefault("fetch.max_body_size", 0)
	v.SetDefault("scrape.delay", scraper.DefaultDelay)
	v.SetDefault("archive.path", "apod_html.apodz")
	v.SetDefault("archive.entries_path", "apod_entries.apodz")
	v.SetDefault("archive.level", archive.LevelDefault)
	v.SetDefault("media.dir", "media")
	v.SetDefault("media.bucket", bolt.DefaultBucket)
	v.SetDefault("media.max_size_mb", bolt.DefaultMaxSizeMB)
	v.SetDefault("media.volatile_size", media.DefaultVolatileSize)
	v.SetDefault("tasks.workers", task.DefaultWorkers)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("export.dir", "export")
	v.SetDefault("export.gcs_bucket", "")
	v.SetDefault("export.gcs_prefix", "")
	v.SetDefault("metrics.textfile", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Fetch.BaseURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("fetch.base_url must be an absolute URL")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.Fetch.MaxBodySize < 0 {
		return fmt.Errorf("fetch.max_body_size must be >= 0")
	}
	if strings.TrimSpace(c.Archive.Path) == "" {
		return fmt.Errorf("archive.path is required")
	}
	if strings.TrimSpace(c.Archive.EntriesPath) == "" {
		return fmt.Errorf("archive.entries_path is required")
	}
	if c.Archive.Level < 1 || c.Archive.Level > archive.LevelMax {
		return fmt.Errorf("archive.level must be within 1..%d", archive.LevelMax)
	}
	if strings.TrimSpace(c.Media.Dir) == "" {
		return fmt.Errorf("media.dir is required")
	}
	if c.Media.MaxSizeMB <= 0 {
		return fmt.Errorf("media.max_size_mb must be > 0")
	}
	if c.Media.VolatileSize <= 0 {
		return fmt.Errorf("media.volatile_size must be > 0")
	}
	if c.Tasks.Workers <= 0 {
		return fmt.Errorf("tasks.workers must be > 0")
	}
	if c.Logging.Level != "" {
		if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	return nil
}

// FetcherConfig adapts the fetch section for the HTTP backend.
func (c Config) FetcherConfig() collyfetcher.Config {
	return collyfetcher.Config{
		UserAgent:   c.Fetch.UserAgent,
		Timeout:     c.Fetch.Timeout,
		MaxBodySize: c.Fetch.MaxBodySize,
	}
}

// LimiterConfig adapts the fetch section for the shared token bucket.
func (c Config) LimiterConfig() ratelimit.Config {
	return ratelimit.Config{Interval: c.Fetch.Interval}
}

// ScraperConfig adapts the scrape section.
func (c Config) ScraperConfig() scraper.Config {
	return scraper.Config{BaseURL: c.Fetch.BaseURL, Delay: c.Scrape.Delay}
}

// MediaStoreConfig adapts the media section for the persistent tier.
func (c Config) MediaStoreConfig() bolt.Config {
	return bolt.Config{Dir: c.Media.Dir, Bucket: c.Media.Bucket, MaxSizeMB: c.Media.MaxSizeMB}
}

// LocalExportConfig adapts the export section for the filesystem target.
func (c Config) LocalExportConfig() local.Config {
	return local.Config{BaseDir: c.Export.Dir}
}

// GCSExportConfig adapts the export section for the bucket target.
func (c Config) GCSExportConfig() gcs.Config {
	return gcs.Config{Bucket: c.Export.GCSBucket, Prefix: c.Export.GCSPrefix}
}
