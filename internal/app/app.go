// Package app wires the core components into the systems a front end drives:
// Data (archives), Scrape (page queue) and Media (payload cache). Every long
// operation runs on the shared task pool; the front end calls Update on each
// tick and reads state through the systems' accessors.
package app

import (
	"context"
	"fmt"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/clock/system"
	"github.com/JakeFAU/apodex/internal/config"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/fetcher"
	collyfetcher "github.com/JakeFAU/apodex/internal/fetcher/colly"
	"github.com/JakeFAU/apodex/internal/id/uuid"
	"github.com/JakeFAU/apodex/internal/media"
	"github.com/JakeFAU/apodex/internal/media/bolt"
	"github.com/JakeFAU/apodex/internal/metrics"
	"github.com/JakeFAU/apodex/internal/policy/ratelimit"
	"github.com/JakeFAU/apodex/internal/scraper"
	"github.com/JakeFAU/apodex/internal/storage"
	"github.com/JakeFAU/apodex/internal/storage/gcs"
	"github.com/JakeFAU/apodex/internal/storage/local"
	"github.com/JakeFAU/apodex/internal/task"
)

// App holds the long-lived services. It is built once at startup and closed
// on exit.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	pool       *task.Pool
	mediaStore *bolt.Store

	Data   *Data
	Scrape *Scrape
	Media  *Media
}

// Option customizes New.
type Option func(*options)

type options struct {
	fetcher   fetcher.Fetcher
	clock     day.Clock
	skipStore bool
}

// WithFetcher replaces the HTTP backend. The rate limiter still applies.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithClock replaces the host clock used to compute missing days.
func WithClock(c day.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithoutMediaStore keeps media in memory only.
func WithoutMediaStore() Option {
	return func(o *options) { o.skipStore = true }
}

// New builds the services described by cfg.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{clock: system.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fetcher == nil {
		o.fetcher = collyfetcher.New(cfg.FetcherConfig(), logger)
	}

	metrics.Init()
	logger.Info("initializing application services")

	limiter := ratelimit.New(cfg.LimiterConfig())
	f := fetcher.RateLimited(o.fetcher, limiter)
	pool := task.NewPool(cfg.Tasks.Workers, uuid.New(), logger)

	a := &App{cfg: cfg, logger: logger, pool: pool}

	var store media.Store
	if !o.skipStore {
		s, err := bolt.Open(cfg.MediaStoreConfig(), logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to open media store: %w", err)
		}
		a.mediaStore = s
		store = s
	}

	a.Data = NewData(pool, o.clock, logger)
	a.Scrape = NewScrape(scraper.New(f, cfg.ScraperConfig(), logger), pool, a.Data, logger)
	a.Media = NewMedia(f, store, cfg.Media.VolatileSize, pool, logger)
	return a, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Update advances every system by one tick and returns their notices in order.
func (a *App) Update() []Notice {
	var notices []Notice
	notices = append(notices, a.Scrape.Update()...)
	notices = append(notices, a.Data.Update()...)
	notices = append(notices, a.Media.Update()...)
	return notices
}

// IsBusy reports whether any system has work queued or in flight.
func (a *App) IsBusy() bool {
	return a.Scrape.IsBusy() || a.Data.LoadBusy() || a.Data.SaveBusy() || a.Media.IsBusy() || a.Media.Pending() > 0
}

// ExportTarget opens an export destination: the GCS bucket when one is set,
// else the local export directory. The returned close func releases the
// client.
func (a *App) ExportTarget(ctx context.Context, exp config.ExportConfig) (storage.BlobStore, func() error, error) {
	cfg := a.cfg
	cfg.Export = exp
	if exp.GCSBucket != "" {
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		store, err := gcs.New(client, cfg.GCSExportConfig(), a.logger)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		a.logger.Info("exporting to GCS", zap.String("bucket", exp.GCSBucket))
		return store, client.Close, nil
	}
	store, err := local.New(cfg.LocalExportConfig())
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("exporting to directory", zap.String("dir", exp.Dir))
	return store, func() error { return nil }, nil
}

// Close cancels outstanding work, closes the media store and writes the
// metrics textfile when configured.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	a.pool.Close()
	if a.mediaStore != nil {
		if err := a.mediaStore.Close(); err != nil {
			a.logger.Warn("error closing media store", zap.Error(err))
		}
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("error writing metrics", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
