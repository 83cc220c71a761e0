package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JakeFAU/apodex/internal/app"
	"github.com/JakeFAU/apodex/internal/clock/system"
	"github.com/JakeFAU/apodex/internal/day"
)

// tickInterval paces the Update loop the way a UI frame would.
var tickInterval = 50 * time.Millisecond

// hostClock resolves "today".
var hostClock day.Clock = system.New()

// wait ticks the app until every system is idle, printing notices to out.
// When ctx is cancelled the scrape and media queues are aborted and ctx.Err
// is returned; loads and saves already running are allowed to finish.
func wait(ctx context.Context, a *app.App, out io.Writer) ([]app.Notice, error) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var (
		notices  []app.Notice
		waitErr  error
		lastSeen string
	)
	for {
		for _, n := range a.Update() {
			fmt.Fprintln(out, renderNotice(n))
			notices = append(notices, n)
		}
		if status, ok := currentStatus(a); ok && status != lastSeen {
			a.Logger().Debug(status)
			lastSeen = status
		}
		if !a.IsBusy() {
			return notices, waitErr
		}

		select {
		case <-ctx.Done():
			if waitErr == nil {
				waitErr = ctx.Err()
				a.Scrape.Abort()
				a.Media.Abort()
			}
			// Keep ticking so in-flight saves land.
			time.Sleep(tickInterval)
		case <-ticker.C:
		}
	}
}

func currentStatus(a *app.App) (string, bool) {
	for _, status := range []func() (string, bool){a.Data.LoadStatus, a.Data.SaveStatus, a.Scrape.Status, a.Media.Status} {
		if s, ok := status(); ok {
			return s, true
		}
	}
	return "", false
}

// firstError returns the first error-level notice as an error.
func firstError(notices []app.Notice) error {
	for _, n := range notices {
		if n.Level == app.LevelError {
			return errors.New(n.Message)
		}
	}
	return nil
}

// loadDocuments loads the archive at path, or the bundled archive when
// bundled is set or the file does not exist yet.
func loadDocuments(ctx context.Context, a *app.App, out io.Writer, path string, bundled bool) error {
	if !bundled {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "%s not found, using the bundled archive\n", path)
			bundled = true
		}
	}
	if bundled {
		a.Data.LoadBundled()
	} else {
		a.Data.LoadArchive(path)
	}
	notices, err := wait(ctx, a, out)
	if err != nil {
		return err
	}
	return firstError(notices)
}

// parseDay accepts a YYYY-MM-DD date or "today".
func parseDay(value string) (day.Index, error) {
	if value == "today" {
		return day.Today(hostClock), nil
	}
	return day.Parse(value)
}
