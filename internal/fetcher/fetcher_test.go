package fetcher

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/media"
	"github.com/JakeFAU/apodex/internal/policy/ratelimit"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls atomic.Int32
	urls  chan string
	body  []byte
	found bool
	err   error
}

// newRecorder answers every fetch with body; an empty body is returned as nil
// like a not-found response from the real backend.
func newRecorder(body string, found bool, err error) *recorder {
	r := &recorder{urls: make(chan string, 16), found: found, err: err}
	if body != "" {
		r.body = []byte(body)
	}
	return r
}

func (r *recorder) Fetch(_ context.Context, url string) ([]byte, bool, error) {
	r.calls.Add(1)
	r.urls <- url
	return r.body, r.found, r.err
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	status := &Error{URL: "https://x/a", StatusCode: http.StatusBadGateway}
	require.Equal(t, "fetch https://x/a: unexpected status 502 Bad Gateway", status.Error())

	cause := errors.New("connection reset")
	transport := &Error{URL: "https://x/a", Err: cause}
	require.ErrorIs(t, transport, cause)
	require.Contains(t, transport.Error(), "connection reset")

	var target *Error
	require.ErrorAs(t, error(transport), &target)
}

func TestRateLimitedSpacesCalls(t *testing.T) {
	t.Parallel()

	const interval = 40 * time.Millisecond
	inner := newRecorder("", false, nil)
	f := RateLimited(inner, ratelimit.New(ratelimit.Config{Interval: interval}))

	start := time.Now()
	for range 3 {
		body, found, err := f.Fetch(context.Background(), "https://x/ap950616.html")
		require.NoError(t, err)
		require.False(t, found)
		require.Nil(t, body)
	}
	require.GreaterOrEqual(t, time.Since(start), 2*interval-5*time.Millisecond)
	require.EqualValues(t, 3, inner.calls.Load())
}

func TestRateLimitedHonorsContext(t *testing.T) {
	t.Parallel()

	inner := newRecorder("ok", true, nil)
	limiter := ratelimit.New(ratelimit.Config{Interval: time.Hour})
	f := RateLimited(inner, limiter)

	_, _, err := f.Fetch(context.Background(), "https://x/1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err = f.Fetch(ctx, "https://x/2")

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, "https://x/2", fetchErr.URL)
	require.EqualValues(t, 1, inner.calls.Load())
}

func TestFetchPage(t *testing.T) {
	t.Parallel()

	inner := newRecorder("<title>APOD - Héllo</title>", true, nil)
	text, found, err := FetchPage(context.Background(), inner, "https://apod.nasa.gov/apod/", day.FromDate(2024, time.March, 1))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "<title>APOD - Héllo</title>", text)
	require.Equal(t, "https://apod.nasa.gov/apod/ap240301.html", <-inner.urls)
}

func TestFetchPageNotFound(t *testing.T) {
	t.Parallel()

	inner := newRecorder("", false, nil)
	text, found, err := FetchPage(context.Background(), inner, "http://127.0.0.1:1", 0)
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, text)
	require.Equal(t, "http://127.0.0.1:1/ap950616.html", <-inner.urls)
}

func TestFetchPagePropagatesError(t *testing.T) {
	t.Parallel()

	want := &Error{URL: "u", StatusCode: http.StatusInternalServerError}
	_, _, err := FetchPage(context.Background(), newRecorder("", false, want), "b", 0)
	require.ErrorIs(t, err, want)
}

func TestDecodeText(t *testing.T) {
	t.Parallel()

	latin1 := []byte("<meta charset=\"iso-8859-1\"><p>Caf\xe9</p>")
	require.Equal(t, "<meta charset=\"iso-8859-1\"><p>Café</p>", DecodeText(latin1))

	require.Equal(t, "plain ascii", DecodeText([]byte("plain ascii")))
	require.Equal(t, "ünïcode", DecodeText([]byte("ünïcode")))
}

func TestFetchMedia(t *testing.T) {
	t.Parallel()

	inner := newRecorder("\x89PNG", true, nil)
	entry := apod.Entry{Media: apod.MediaURL{
		URL:   "https://apod.nasa.gov/apod/image/a_small.jpg",
		HDURL: "https://apod.nasa.gov/apod/image/a.png",
	}}
	blob, found, err := FetchMedia(context.Background(), inner, entry)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, media.Blob{Kind: media.KindPNG, Data: []byte("\x89PNG")}, blob)
	require.Equal(t, entry.Media.HDURL, <-inner.urls)

	_, found, err = FetchMedia(context.Background(), inner, apod.Entry{})
	require.NoError(t, err)
	require.False(t, found)
	require.EqualValues(t, 1, inner.calls.Load())
}

func TestFuncAdapter(t *testing.T) {
	t.Parallel()

	var f Fetcher = Func(func(_ context.Context, url string) ([]byte, bool, error) {
		return []byte(url), true, nil
	})
	body, found, err := f.Fetch(context.Background(), "abc")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("abc"), body)
}
