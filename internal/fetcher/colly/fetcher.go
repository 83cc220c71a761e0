// Package collyfetcher implements fetcher.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/fetcher"
	"github.com/JakeFAU/apodex/internal/metrics"
)

// DefaultTimeout bounds a single request when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodySize caps the response body in bytes. Zero means unlimited.
	MaxBodySize int
}

// Fetcher implements fetcher.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	logger        *zap.Logger
	baseCollector *colly.Collector
}

var _ fetcher.Fetcher = (*Fetcher)(nil)

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// outcome collects what the hooks observed for one visit.
type outcome struct {
	status int
	body   []byte
	err    error
}

// New builds a Fetcher. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.ParseHTTPErrorResponse = true
	c.MaxBodySize = cfg.MaxBodySize
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}

	return &Fetcher{
		cfg:           cfg,
		logger:        logger.Named("colly"),
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly. 404 reports found=false.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, bool, error) {
	var result outcome
	start := time.Now()

	collector := f.baseCollector.Clone()
	collector.Context = ctx
	configureCollectorHooks(collector, &result)

	if err := runCollector(ctx, collector, url); err != nil {
		metrics.ObserveFetch(url, metrics.FetchError, 0)
		return nil, false, &fetcher.Error{URL: url, Err: err}
	}

	body, found, err := interpret(url, result)
	f.logger.Debug("fetched",
		zap.String("url", url),
		zap.Int("status", result.status),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return body, found, err
}

func configureCollectorHooks(hooks collectorHooks, result *outcome) {
	hooks.OnResponse(func(r *colly.Response) {
		result.status = r.StatusCode
		result.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.status = r.StatusCode
		}
		result.err = err
	})
}

// interpret maps the observed response onto the fetcher contract.
func interpret(url string, result outcome) ([]byte, bool, error) {
	switch {
	case result.err != nil:
		metrics.ObserveFetch(url, metrics.FetchError, 0)
		return nil, false, &fetcher.Error{URL: url, StatusCode: result.status, Err: result.err}
	case result.status == http.StatusNotFound:
		metrics.ObserveFetch(url, metrics.FetchNotFound, 0)
		return nil, false, nil
	case result.status < 200 || result.status > 299:
		metrics.ObserveFetch(url, metrics.FetchError, 0)
		return nil, false, &fetcher.Error{URL: url, StatusCode: result.status}
	default:
		metrics.ObserveFetch(url, metrics.FetchFound, len(result.body))
		return result.body, true, nil
	}
}

func runCollector(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
