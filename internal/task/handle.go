package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Reporter publishes the latest progress message of a running unit.
type Reporter struct {
	status atomic.Pointer[string]
}

// Report replaces the progress message.
func (r *Reporter) Report(status string) {
	r.status.Store(&status)
}

// Reportf formats and replaces the progress message.
func (r *Reporter) Reportf(format string, args ...any) {
	r.Report(fmt.Sprintf(format, args...))
}

func (r *Reporter) load() (string, bool) {
	s := r.status.Load()
	if s == nil {
		return "", false
	}
	return *s, true
}

// Work is a unit of work. It should return promptly once ctx is done.
type Work[T any] func(ctx context.Context, report *Reporter) T

type run[T any] struct {
	id       string
	cancel   context.CancelFunc
	done     chan T
	reporter *Reporter
}

// Handle holds at most one live unit of work. It is Idle until Spawn, Running
// until the result is taken by Poll, and returns to Idle after Poll or Abort.
// Methods are safe for concurrent use but are normally called from one goroutine.
type Handle[T any] struct {
	pool *Pool
	name string

	mu  sync.Mutex
	cur *run[T]
}

// NewHandle creates an idle handle whose units run on pool.
func NewHandle[T any](pool *Pool, name string) *Handle[T] {
	return &Handle[T]{pool: pool, name: name}
}

// Spawn starts work, superseding any unit already held: the previous unit's
// context is cancelled and its result will never be delivered.
func (h *Handle[T]) Spawn(work Work[T]) {
	ctx, cancel := context.WithCancel(h.pool.ctx)
	r := &run[T]{
		id:       h.pool.newRunID(),
		cancel:   cancel,
		done:     make(chan T, 1),
		reporter: &Reporter{},
	}

	h.mu.Lock()
	prev := h.cur
	h.cur = r
	h.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}

	h.pool.submit(ctx, h.name, r.id, func(ctx context.Context) {
		defer cancel()
		r.done <- work(ctx, r.reporter)
	})
}

// Poll returns the result if the current unit has finished. A result is
// returned exactly once; afterwards the handle is idle.
func (h *Handle[T]) Poll() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var zero T
	if h.cur == nil {
		return zero, false
	}
	select {
	case v := <-h.cur.done:
		h.cur = nil
		return v, true
	default:
		return zero, false
	}
}

// Status returns the latest progress message of the current unit.
func (h *Handle[T]) Status() (string, bool) {
	h.mu.Lock()
	cur := h.cur
	h.mu.Unlock()
	if cur == nil {
		return "", false
	}
	return cur.reporter.load()
}

// IsBusy reports whether a unit was spawned and its result not yet taken.
func (h *Handle[T]) IsBusy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cur != nil
}

// RunID identifies the current unit in logs. Empty when idle.
func (h *Handle[T]) RunID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return ""
	}
	return h.cur.id
}

// Abort cancels the current unit and discards its result.
func (h *Handle[T]) Abort() {
	h.mu.Lock()
	cur := h.cur
	h.cur = nil
	h.mu.Unlock()
	if cur != nil {
		cur.cancel()
	}
}
