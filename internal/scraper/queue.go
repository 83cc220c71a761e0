package scraper

import (
	"context"
	"slices"

	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/task"
)

// Queue feeds pending days to a Scraper one at a time on a task handle. The
// owner calls Update on every tick; nothing blocks.
type Queue struct {
	scraper *Scraper
	pending []day.Index
	fetch   *task.Handle[Result]
}

// NewQueue creates an empty queue whose fetches run on pool.
func NewQueue(s *Scraper, pool *task.Pool) *Queue {
	return &Queue{
		scraper: s,
		fetch:   task.NewHandle[Result](pool, "scrape"),
	}
}

// Enqueue appends days to the back of the queue.
func (q *Queue) Enqueue(days ...day.Index) {
	q.pending = append(q.pending, days...)
}

// Dequeue removes and returns the day at the front of the queue.
func (q *Queue) Dequeue() (day.Index, bool) {
	if len(q.pending) == 0 {
		return 0, false
	}
	d := q.pending[0]
	q.pending = slices.Delete(q.pending, 0, 1)
	return d, true
}

// Pending returns a copy of the queued days in order.
func (q *Queue) Pending() []day.Index {
	return slices.Clone(q.pending)
}

// Len returns the number of queued days, excluding the one in flight.
func (q *Queue) Len() int {
	return len(q.pending)
}

// IsBusy reports whether a fetch is in flight or its result not yet collected.
func (q *Queue) IsBusy() bool {
	return q.fetch.IsBusy()
}

// Status returns the progress message of the in-flight fetch.
func (q *Queue) Status() (string, bool) {
	return q.fetch.Status()
}

// Abort clears the queue and cancels the in-flight fetch.
func (q *Queue) Abort() {
	q.pending = nil
	q.fetch.Abort()
}

// Update starts the next fetch when idle, otherwise polls the in-flight one.
// It returns a Result when a fetch has completed.
func (q *Queue) Update() (Result, bool) {
	if !q.fetch.IsBusy() {
		if d, ok := q.Dequeue(); ok {
			q.fetch.Spawn(func(ctx context.Context, report *task.Reporter) Result {
				report.Reportf("Fetching page for %s...", d)
				return q.scraper.FetchOne(ctx, d)
			})
		}
		return Result{}, false
	}
	return q.fetch.Poll()
}
