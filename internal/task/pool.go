// Package task runs long operations off the calling goroutine. A Pool bounds how
// many run at once; a Handle owns at most one live unit of work and is polled
// for its result without blocking.
package task

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/apodex/internal/metrics"
)

// DefaultWorkers is the pool size used when a non-positive size is requested.
const DefaultWorkers = 4

// IDGenerator names task runs for log correlation.
type IDGenerator interface {
	NewID() (string, error)
}

// Pool executes units of work on at most a fixed number of goroutines at a time.
type Pool struct {
	sem    *semaphore.Weighted
	ids    IDGenerator
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a pool with the given number of slots.
func NewPool(workers int, ids IDGenerator, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(workers)),
		ids:    ids,
		logger: logger.Named("task"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close cancels every running unit and waits for them to return.
func (p *Pool) Close() {
	p.cancel()
	p.wg.Wait()
}

// submit starts fn in a new goroutine once a slot is free. It never blocks the caller.
func (p *Pool) submit(ctx context.Context, name, runID string, fn func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		logger := p.logger.With(zap.String("task", name), zap.String("run_id", runID))

		if err := p.sem.Acquire(ctx, 1); err != nil {
			logger.Debug("task cancelled before start")
			metrics.ObserveTask(name, "cancelled")
			return
		}
		defer p.sem.Release(1)
		metrics.IncActiveTasks()
		defer metrics.DecActiveTasks()

		logger.Debug("task started")
		fn(ctx)
		outcome := "completed"
		if ctx.Err() != nil {
			outcome = "cancelled"
		}
		metrics.ObserveTask(name, outcome)
		logger.Debug("task finished", zap.String("outcome", outcome))
	}()
}

func (p *Pool) newRunID() string {
	if p.ids == nil {
		return ""
	}
	id, err := p.ids.NewID()
	if err != nil {
		p.logger.Warn("failed to generate run id", zap.Error(err))
		return ""
	}
	return id
}
