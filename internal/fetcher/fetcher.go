// Package fetcher defines the byte-fetching contract used to pull pages and
// media, plus the helpers layered on top of it.
package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JakeFAU/apodex/internal/policy/ratelimit"
)

// Fetcher retrieves the body behind a URL. A 404 is reported as found=false
// with a nil error; every other failure is returned as an *Error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body []byte, found bool, err error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, url string) ([]byte, bool, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, url string) ([]byte, bool, error) {
	return f(ctx, url)
}

// Error describes a failed fetch. StatusCode is zero for transport failures.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

type rateLimited struct {
	next    Fetcher
	limiter *ratelimit.Limiter
}

// RateLimited takes one token from limiter before every fetch passed to next.
// The limiter is typically shared by every fetcher in the process.
func RateLimited(next Fetcher, limiter *ratelimit.Limiter) Fetcher {
	return &rateLimited{next: next, limiter: limiter}
}

func (r *rateLimited) Fetch(ctx context.Context, url string) ([]byte, bool, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, false, &Error{URL: url, Err: err}
	}
	return r.next.Fetch(ctx, url)
}
