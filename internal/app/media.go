package app

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/fetcher"
	"github.com/JakeFAU/apodex/internal/media"
	"github.com/JakeFAU/apodex/internal/task"
)

type mediaResult struct {
	day        day.Index
	found      bool
	storeError error
	err        error
}

// Media fetches the payloads of requested entries one at a time and keeps
// them in a two-tier cache. Requests for a day already queued or in flight
// are dropped.
type Media struct {
	fetcher fetcher.Fetcher
	cache   *media.Cache[media.Blob]
	fetch   *task.Handle[mediaResult]
	queue   []apod.Entry
	current *apod.Entry
	logger  *zap.Logger
}

// NewMedia builds the media system. A nil store keeps media in memory only.
func NewMedia(f fetcher.Fetcher, store media.Store, volatileSize int, pool *task.Pool, logger *zap.Logger) *Media {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Media{
		fetcher: f,
		cache:   media.NewCache(store, volatileSize, media.Identity),
		fetch:   task.NewHandle[mediaResult](pool, "fetch_media"),
		logger:  logger.Named("media"),
	}
}

// Handle returns the in-memory payload for d without touching disk or network.
func (m *Media) Handle(d day.Index) (media.Blob, bool) {
	return m.cache.Peek(d)
}

// Request returns the payload if it is already in memory. Otherwise it queues
// the entry so a later Update loads it from disk or the network.
func (m *Media) Request(entry apod.Entry) (media.Blob, bool) {
	if blob, ok := m.cache.Peek(entry.Index); ok {
		return blob, true
	}
	if m.current != nil && m.current.Index == entry.Index {
		return media.Blob{}, false
	}
	if !slices.ContainsFunc(m.queue, func(e apod.Entry) bool { return e.Index == entry.Index }) {
		m.queue = append(m.queue, entry)
	}
	return media.Blob{}, false
}

// Pending is the number of queued requests, excluding the one in flight.
func (m *Media) Pending() int { return len(m.queue) }

// IsBusy reports whether a request is in flight.
func (m *Media) IsBusy() bool { return m.fetch.IsBusy() }

// Status is the progress message of the in-flight request.
func (m *Media) Status() (string, bool) { return m.fetch.Status() }

// Abort drops queued requests and cancels the in-flight one.
func (m *Media) Abort() {
	m.queue = nil
	m.current = nil
	m.fetch.Abort()
}

// Update starts the next request when idle, otherwise collects the in-flight one.
func (m *Media) Update() []Notice {
	if !m.fetch.IsBusy() {
		if len(m.queue) == 0 {
			return nil
		}
		entry := m.queue[0]
		m.queue = slices.Delete(m.queue, 0, 1)
		m.current = &entry
		m.fetch.Spawn(func(ctx context.Context, report *task.Reporter) mediaResult {
			return m.load(ctx, report, entry)
		})
		return nil
	}

	res, ok := m.fetch.Poll()
	if !ok {
		return nil
	}
	m.current = nil
	switch {
	case res.err != nil:
		m.logger.Warn("media fetch failed", zap.Stringer("day", res.day), zap.Error(res.err))
		return []Notice{noticef(LevelError, "Failed to fetch media for %s: %v", res.day, res.err)}
	case !res.found:
		return []Notice{noticef(LevelWarning, "Media for %s not found", res.day)}
	case res.storeError != nil:
		m.logger.Warn("media not persisted", zap.Stringer("day", res.day), zap.Error(res.storeError))
		return []Notice{noticef(LevelWarning, "Failed to cache media for %s: %v", res.day, res.storeError)}
	default:
		return nil
	}
}

// load runs off the calling goroutine: persistent tier first, then the network.
func (m *Media) load(ctx context.Context, report *task.Reporter, entry apod.Entry) mediaResult {
	d := entry.Index
	report.Reportf("Loading media for %s...", d)
	if _, ok, err := m.cache.Get(d); err != nil {
		m.logger.Warn("media store read failed", zap.Stringer("day", d), zap.Error(err))
	} else if ok {
		return mediaResult{day: d, found: true}
	}

	report.Reportf("Fetching media for %s...", d)
	blob, found, err := fetcher.FetchMedia(ctx, m.fetcher, entry)
	if err != nil || !found {
		return mediaResult{day: d, found: found, err: err}
	}
	_, storeErr := m.cache.Put(d, blob)
	return mediaResult{day: d, found: true, storeError: storeErr}
}
