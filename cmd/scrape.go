package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/app"
	"github.com/JakeFAU/apodex/internal/day"
)

type scrapeOptions struct {
	from    string
	to      string
	missing bool
	all     bool
	out     string
	entries string
	level   int
	bundled bool
}

func newScrapeCmd() *cobra.Command {
	var opts scrapeOptions
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch day pages and add them to the archive",
		Long: `Fetches day pages into the document archive and re-extracts their entries.
Without flags every valid day missing from the archive is fetched. With --all
every valid day is streamed in order, replacing stored pages. The archive is
saved when the work finishes or the command is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "first day to fetch (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "last day to fetch (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&opts.missing, "missing", false, "fetch every valid day missing from the archive")
	cmd.Flags().BoolVar(&opts.all, "all", false, "fetch every valid day, replacing stored pages")
	cmd.Flags().StringVar(&opts.out, "out", "", "document archive path (default archive.path)")
	cmd.Flags().StringVar(&opts.entries, "entries", "", "entry archive path (default archive.entries_path)")
	cmd.Flags().IntVar(&opts.level, "level", 0, "compression level 1..22 (default archive.level)")
	cmd.Flags().BoolVar(&opts.bundled, "bundled", false, "start from the bundled archive instead of --out")
	cmd.MarkFlagsMutuallyExclusive("all", "missing", "from")
	return cmd
}

func runScrape(cmd *cobra.Command, opts scrapeOptions) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := a.Config()
	if opts.out == "" {
		opts.out = cfg.Archive.Path
	}
	if opts.entries == "" {
		opts.entries = cfg.Archive.EntriesPath
	}
	if opts.level == 0 {
		opts.level = cfg.Archive.Level
	}
	out := cmd.OutOrStdout()

	days, explicit, err := scrapeDays(opts, day.Today(hostClock))
	if err != nil {
		return err
	}
	if err := loadDocuments(cmd.Context(), a, out, opts.out, opts.bundled); err != nil {
		return err
	}

	var (
		stats     app.ScrapeStats
		scrapeErr error
	)
	if opts.all {
		stats, scrapeErr = streamDays(cmd.Context(), a, out, days)
	} else {
		if explicit {
			a.Scrape.Enqueue(days...)
		} else {
			a.Scrape.EnqueueMissing()
		}
		fmt.Fprintf(out, "Fetching %d days\n", a.Scrape.QueueLength())
		_, scrapeErr = wait(cmd.Context(), a, out)
		stats = a.Scrape.Stats()
	}
	if scrapeErr != nil && !errors.Is(scrapeErr, context.Canceled) {
		return scrapeErr
	}
	writeScrapeSummary(out, stats, a.Data.MissingCount())

	// Save even after an interrupt so fetched pages are kept.
	a.Data.SaveArchive(opts.out, opts.level)
	if err := waitSave(a, out); err != nil {
		return err
	}
	a.Data.SaveEntries(opts.entries, opts.level)
	if err := waitSave(a, out); err != nil {
		return err
	}
	return scrapeErr
}

// scrapeDays resolves the flags to a day list. explicit is false when the
// missing days should be queued instead.
func scrapeDays(opts scrapeOptions, today day.Index) (days []day.Index, explicit bool, err error) {
	switch {
	case opts.all:
		return slices.Collect(day.ValidUpTo(today)), true, nil
	case opts.missing || opts.from == "":
		if opts.to != "" && !opts.missing {
			return nil, false, errors.New("--to requires --from")
		}
		return nil, false, nil
	}

	from, err := day.Parse(opts.from)
	if err != nil {
		return nil, false, err
	}
	to := today
	if opts.to != "" {
		if to, err = day.Parse(opts.to); err != nil {
			return nil, false, err
		}
	}
	if to < from {
		return nil, false, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	for d := from; ; d = d.Next() {
		if !day.IsKnownMissing(d) {
			days = append(days, d)
		}
		if d >= to {
			break
		}
	}
	return days, true, nil
}

// streamDays fetches days in order on the calling goroutine and inserts every
// page found. It stops at the first day after ctx is done.
func streamDays(ctx context.Context, a *app.App, out io.Writer, days []day.Index) (app.ScrapeStats, error) {
	var stats app.ScrapeStats
	fmt.Fprintf(out, "Fetching %d days\n", len(days))
	for res := range a.Scrape.Scraper().StreamDays(ctx, slices.Values(days)) {
		switch {
		case res.Err != nil && ctx.Err() != nil:
			// Interrupted mid-fetch.
		case res.Err != nil:
			stats.Failed++
			fmt.Fprintln(out, renderNotice(app.Notice{
				Level:   app.LevelWarning,
				Message: fmt.Sprintf("Failed to fetch %s: %v", res.Day, res.Err),
			}))
		case !res.Found:
			stats.Missing++
		default:
			stats.Fetched++
			a.Data.InsertDocument(apod.Document{Index: res.Day, HTML: res.HTML})
		}
	}
	return stats, ctx.Err()
}

// waitSave waits for a save without honoring interrupts.
func waitSave(a *app.App, out io.Writer) error {
	notices, err := wait(context.Background(), a, out)
	if err != nil {
		return err
	}
	return firstError(notices)
}

func writeScrapeSummary(out io.Writer, stats app.ScrapeStats, missing int) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Fetched", "No page", "Errors", "Still missing"})
	t.AppendRow(table.Row{stats.Fetched, stats.Missing, stats.Failed, missing})
	t.Render()
}
