package app

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/scraper"
	"github.com/JakeFAU/apodex/internal/task"
)

// ScrapeStats counts queue outcomes since the system was created.
type ScrapeStats struct {
	Fetched int
	Missing int
	Failed  int
}

// Scrape drains a queue of days through the scraper and feeds found pages
// into Data.
type Scrape struct {
	scraper *scraper.Scraper
	queue   *scraper.Queue
	data    *Data
	logger  *zap.Logger
	stats   ScrapeStats
}

// NewScrape wires a scraper queue to data.
func NewScrape(s *scraper.Scraper, pool *task.Pool, data *Data, logger *zap.Logger) *Scrape {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scrape{
		scraper: s,
		queue:   scraper.NewQueue(s, pool),
		data:    data,
		logger:  logger.Named("scrape"),
	}
}

// Scraper returns the underlying scraper for callers that stream days on
// their own goroutine. It shares the queue's rate limiter.
func (s *Scrape) Scraper() *scraper.Scraper {
	return s.scraper
}

// Enqueue appends days to the queue.
func (s *Scrape) Enqueue(days ...day.Index) {
	s.queue.Enqueue(days...)
}

// EnqueueMissing queues every valid day without a stored page and returns how
// many were queued.
func (s *Scrape) EnqueueMissing() int {
	missing := s.data.MissingDays()
	s.queue.Enqueue(missing...)
	return len(missing)
}

// Abort clears the queue and cancels the in-flight fetch.
func (s *Scrape) Abort() {
	s.queue.Abort()
}

// IsBusy reports whether days are queued or a fetch is in flight.
func (s *Scrape) IsBusy() bool {
	return s.queue.IsBusy() || s.queue.Len() > 0
}

// Status is the progress message of the in-flight fetch.
func (s *Scrape) Status() (string, bool) {
	return s.queue.Status()
}

// QueueLength is the number of days waiting, excluding the one in flight.
func (s *Scrape) QueueLength() int {
	return s.queue.Len()
}

// Stats returns the running totals.
func (s *Scrape) Stats() ScrapeStats {
	return s.stats
}

// Update advances the queue by at most one result.
func (s *Scrape) Update() []Notice {
	res, ok := s.queue.Update()
	if !ok {
		return nil
	}
	switch {
	case res.Err != nil:
		s.stats.Failed++
		return []Notice{noticef(LevelWarning, "Failed to fetch %s: %v", res.Day, res.Err)}
	case !res.Found:
		s.stats.Missing++
		return []Notice{noticef(LevelInfo, "No page for %s", res.Day)}
	default:
		s.stats.Fetched++
		s.data.InsertDocument(apod.Document{Index: res.Day, HTML: res.HTML})
		if err := s.data.Error(res.Day); err != nil {
			s.logger.Warn("fetched page did not parse", zap.Stringer("day", res.Day), zap.Error(err))
		}
		return nil
	}
}
