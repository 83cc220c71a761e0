// Package scraper paces page fetches: one day at a time, with a fixed delay
// after every fetch so throughput stays bounded end to end.
package scraper

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/fetcher"
)

// DefaultDelay is the pause after each fetch when Config.Delay is unset.
const DefaultDelay = time.Second

// Config controls a Scraper.
type Config struct {
	BaseURL string
	// Delay after each fetch. Negative disables the pause.
	Delay time.Duration
}

// Result is the outcome of fetching one day. Found is false for days without
// a page; Err is set when the fetch failed.
type Result struct {
	Day   day.Index
	HTML  string
	Found bool
	Err   error
}

// Scraper fetches day pages through a Fetcher.
type Scraper struct {
	fetcher fetcher.Fetcher
	baseURL string
	delay   time.Duration
	logger  *zap.Logger
}

// New builds a Scraper. An empty BaseURL uses the public archive.
func New(f fetcher.Fetcher, cfg Config, logger *zap.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = day.BaseURL
	}
	switch {
	case cfg.Delay == 0:
		cfg.Delay = DefaultDelay
	case cfg.Delay < 0:
		cfg.Delay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		fetcher: f,
		baseURL: cfg.BaseURL,
		delay:   cfg.Delay,
		logger:  logger.Named("scraper"),
	}
}

// FetchOne fetches the page for d and then waits for the configured delay.
// The wait is cut short when ctx is done.
func (s *Scraper) FetchOne(ctx context.Context, d day.Index) Result {
	html, found, err := fetcher.FetchPage(ctx, s.fetcher, s.baseURL, d)
	res := Result{Day: d, HTML: html, Found: found, Err: err}
	switch {
	case err != nil:
		s.logger.Warn("fetch failed", zap.Stringer("day", d), zap.Error(err))
	case !found:
		s.logger.Info("page not found", zap.Stringer("day", d))
	default:
		s.logger.Debug("page fetched", zap.Stringer("day", d), zap.Int("bytes", len(html)))
	}
	s.pause(ctx)
	return res
}

func (s *Scraper) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Stream yields one Result per day from start through end inclusive. Nothing
// is fetched until the sequence is ranged over, and no further fetch happens
// once the consumer stops or ctx is done.
func (s *Scraper) Stream(ctx context.Context, start, end day.Index) iter.Seq[Result] {
	return s.StreamDays(ctx, dayRange(start, end))
}

// StreamDays is Stream over an arbitrary sequence of days.
func (s *Scraper) StreamDays(ctx context.Context, days iter.Seq[day.Index]) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		for d := range days {
			if ctx.Err() != nil {
				return
			}
			if !yield(s.FetchOne(ctx, d)) {
				return
			}
		}
	}
}

func dayRange(start, end day.Index) iter.Seq[day.Index] {
	return func(yield func(day.Index) bool) {
		if start > end {
			return
		}
		for d := start; ; d++ {
			if !yield(d) || d == end {
				return
			}
		}
	}
}
