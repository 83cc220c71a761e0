package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/archive"
	"github.com/JakeFAU/apodex/internal/dataset"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/extract"
	"github.com/JakeFAU/apodex/internal/hash/sha256"
	"github.com/JakeFAU/apodex/internal/metrics"
	"github.com/JakeFAU/apodex/internal/quality"
	"github.com/JakeFAU/apodex/internal/storage"
	"github.com/JakeFAU/apodex/internal/task"
)

// Archive instantiations used throughout the app.
type (
	Documents = archive.Archive[apod.Document, *apod.Document]
	Entries   = archive.Archive[apod.Entry, *apod.Entry]
)

// Extraction outcomes as counted in metrics.
const (
	outcomeOK                  = "ok"
	outcomeWarning             = "warning"
	outcomeTitleNotFound       = "title_not_found"
	outcomeExplanationNotFound = "explanation_not_found"
	outcomeError               = "error"
)

// ErrNothingToExport is returned by an export of an empty document archive.
var ErrNothingToExport = errors.New("nothing to export")

// parsed is a document archive together with everything derived from it.
type parsed struct {
	docs     *Documents
	entries  *Entries
	warnings map[day.Index]quality.Set
	errors   map[day.Index]error
}

func newParsed(docs *Documents) *parsed {
	return &parsed{
		docs:     docs,
		entries:  archive.New[apod.Entry](),
		warnings: make(map[day.Index]quality.Set),
		errors:   make(map[day.Index]error),
	}
}

// insert stores doc and re-derives its entry. A day holds an entry or an
// error, never both.
func (p *parsed) insert(doc apod.Document) {
	p.docs.Push(doc)

	d := doc.Index
	p.entries.Delete(d)
	delete(p.warnings, d)
	delete(p.errors, d)

	res := extract.Verbose(d, doc.HTML)
	metrics.ObserveExtraction(extractionOutcome(res))
	if !res.OK() {
		p.errors[d] = res.Err
		return
	}
	p.entries.Push(res.Entry)
	if !res.Warnings.Empty() {
		p.warnings[d] = res.Warnings
	}
}

func extractionOutcome(res extract.Result) string {
	switch {
	case errors.Is(res.Err, extract.ErrTitleNotFound):
		return outcomeTitleNotFound
	case errors.Is(res.Err, extract.ErrExplanationNotFound):
		return outcomeExplanationNotFound
	case res.Err != nil:
		return outcomeError
	case !res.Warnings.Empty():
		return outcomeWarning
	default:
		return outcomeOK
	}
}

// parseAll derives entries for every document, publishing progress as it goes.
func parseAll(ctx context.Context, report *task.Reporter, docs *Documents) (*parsed, error) {
	p := newParsed(archive.New[apod.Document]())
	total := docs.Len()
	i := 0
	for _, doc := range docs.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.insert(doc)
		i++
		if i%100 == 0 || i == total {
			report.Reportf("Parsing HTML archive... (%d/%d)", i, total)
		}
	}
	return p, nil
}

type loadResult struct {
	parsed *parsed
	source string
	err    error
}

type saveResult struct {
	message string
	err     error
}

// Data owns the document and entry archives plus the per-day extraction
// findings. Loads and saves run on task handles; Update swaps results in.
// Data must only be used from the goroutine that calls Update. Document saves
// and exports share one handle; entry saves have their own, so SaveArchive
// and SaveEntries may be issued back to back.
type Data struct {
	logger      *zap.Logger
	clock       day.Clock
	state       *parsed
	load        *task.Handle[loadResult]
	save        *task.Handle[saveResult]
	saveEntries *task.Handle[saveResult]
}

// NewData creates an empty data system whose loads and saves run on pool.
func NewData(pool *task.Pool, clock day.Clock, logger *zap.Logger) *Data {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Data{
		logger:      logger.Named("data"),
		clock:       clock,
		state:       newParsed(archive.New[apod.Document]()),
		load:        task.NewHandle[loadResult](pool, "load_archive"),
		save:        task.NewHandle[saveResult](pool, "save_archive"),
		saveEntries: task.NewHandle[saveResult](pool, "save_entries"),
	}
}

// LoadArchive reads a document archive from path and parses it in the background.
// The current archives stay visible until the load succeeds.
func (d *Data) LoadArchive(path string) {
	d.load.Spawn(func(ctx context.Context, report *task.Reporter) loadResult {
		report.Report("Loading HTML archive...")
		docs, err := archive.Load[apod.Document](path)
		if err != nil {
			return loadResult{source: path, err: err}
		}
		p, err := parseAll(ctx, report, docs)
		return loadResult{parsed: p, source: path, err: err}
	})
}

// LoadBundled loads the archive embedded in the binary.
func (d *Data) LoadBundled() {
	d.load.Spawn(func(ctx context.Context, report *task.Reporter) loadResult {
		report.Report("Loading bundled HTML archive...")
		docs, err := dataset.Documents()
		if err != nil {
			return loadResult{source: "bundled archive", err: err}
		}
		p, err := parseAll(ctx, report, docs)
		return loadResult{parsed: p, source: "bundled archive", err: err}
	})
}

// SaveArchive writes a snapshot of the document archive to path.
func (d *Data) SaveArchive(path string, level int) {
	snapshot := d.state.docs.Clone()
	d.save.Spawn(func(_ context.Context, report *task.Reporter) saveResult {
		report.Report(compressStatus(level))
		if err := snapshot.Save(path, level); err != nil {
			return saveResult{err: fmt.Errorf("save %s: %w", path, err)}
		}
		return saveResult{message: fmt.Sprintf("Saved %d documents to %s", snapshot.Len(), path)}
	})
}

// SaveEntries writes a snapshot of the entry archive to path.
func (d *Data) SaveEntries(path string, level int) {
	snapshot := d.state.entries.Clone()
	d.saveEntries.Spawn(func(_ context.Context, report *task.Reporter) saveResult {
		report.Report(compressStatus(level))
		if err := snapshot.Save(path, level); err != nil {
			return saveResult{err: fmt.Errorf("save %s: %w", path, err)}
		}
		return saveResult{message: fmt.Sprintf("Saved %d entries to %s", snapshot.Len(), path)}
	})
}

// Export compresses both archives and uploads them to store.
func (d *Data) Export(store storage.BlobStore, level int) {
	docs := d.state.docs.Clone()
	entries := d.state.entries.Clone()
	d.save.Spawn(func(ctx context.Context, report *task.Reporter) saveResult {
		latest, ok := docs.LatestDay()
		if !ok {
			return saveResult{err: ErrNothingToExport}
		}
		report.Report(compressStatus(level))
		docData, err := docs.Compress(level)
		if err != nil {
			return saveResult{err: err}
		}
		entryData, err := entries.Compress(level)
		if err != nil {
			return saveResult{err: err}
		}

		report.Report("Uploading archives...")
		var uris []string
		for _, obj := range []struct {
			kind string
			data []byte
		}{{"documents", docData}, {"entries", entryData}} {
			uri, err := store.PutObject(ctx, storage.ObjectName(obj.kind, latest), storage.ContentTypeArchive, bytes.NewReader(obj.data))
			if err != nil {
				return saveResult{err: fmt.Errorf("export %s: %w", obj.kind, err)}
			}
			d.logger.Info("archive exported",
				zap.String("uri", uri),
				zap.Int("bytes", len(obj.data)),
				zap.String("sha256", sha256.Sum(obj.data)))
			uris = append(uris, uri)
		}
		return saveResult{message: "Exported " + strings.Join(uris, ", ")}
	})
}

func compressStatus(level int) string {
	if level >= archive.LevelMax {
		return "Compressing as small as possible, this might take a bit..."
	}
	return fmt.Sprintf("Compressing at level %d...", level)
}

// InsertDocument stores a freshly fetched page and extracts its entry.
func (d *Data) InsertDocument(doc apod.Document) {
	d.state.insert(doc)
}

// Update collects finished loads and saves. A failed load leaves the current
// archives untouched.
func (d *Data) Update() []Notice {
	var notices []Notice
	if res, ok := d.load.Poll(); ok {
		if res.err != nil {
			d.logger.Error("load failed", zap.String("source", res.source), zap.Error(res.err))
			notices = append(notices, noticef(LevelError, "Error loading data from %s: %v", res.source, res.err))
		} else {
			d.state = res.parsed
			d.logger.Info("archive loaded",
				zap.String("source", res.source),
				zap.Int("documents", res.parsed.docs.Len()),
				zap.Int("entries", res.parsed.entries.Len()),
				zap.Int("errors", len(res.parsed.errors)),
			)
			notices = append(notices, noticef(LevelSuccess, "Loaded %d documents from %s", res.parsed.docs.Len(), res.source))
		}
	}
	for _, h := range []*task.Handle[saveResult]{d.save, d.saveEntries} {
		if res, ok := h.Poll(); ok {
			notices = append(notices, d.saveNotice(res))
		}
	}
	return notices
}

func (d *Data) saveNotice(res saveResult) Notice {
	if res.err != nil {
		d.logger.Error("save failed", zap.Error(res.err))
		return noticef(LevelError, "Error saving data: %v", res.err)
	}
	d.logger.Info(res.message)
	return Notice{Level: LevelSuccess, Message: res.message}
}

// LoadBusy reports whether a load is in flight.
func (d *Data) LoadBusy() bool { return d.load.IsBusy() }

// LoadStatus is the progress message of the in-flight load.
func (d *Data) LoadStatus() (string, bool) { return d.load.Status() }

// SaveBusy reports whether a save or export is in flight.
func (d *Data) SaveBusy() bool { return d.save.IsBusy() || d.saveEntries.IsBusy() }

// SaveStatus is the progress message of the in-flight save or export.
func (d *Data) SaveStatus() (string, bool) {
	if s, ok := d.save.Status(); ok {
		return s, true
	}
	return d.saveEntries.Status()
}

// Entry returns the extracted entry for day.
func (d *Data) Entry(i day.Index) (apod.Entry, bool) { return d.state.entries.Get(i) }

// Document returns the raw page for day.
func (d *Data) Document(i day.Index) (apod.Document, bool) { return d.state.docs.Get(i) }

// Warnings returns the quality findings for day. Empty when clean or unknown.
func (d *Data) Warnings(i day.Index) quality.Set { return d.state.warnings[i] }

// Error returns the extraction error for day, if extraction failed.
func (d *Data) Error(i day.Index) error { return d.state.errors[i] }

// Errors returns a copy of every extraction error by day.
func (d *Data) Errors() map[day.Index]error { return maps.Clone(d.state.errors) }

// Documents yields the raw pages in ascending day order.
func (d *Data) Documents() iter.Seq2[day.Index, apod.Document] { return d.state.docs.All() }

// Entries yields the extracted entries in ascending day order.
func (d *Data) Entries() iter.Seq2[day.Index, apod.Entry] { return d.state.entries.All() }

// DocumentCount is the number of stored pages.
func (d *Data) DocumentCount() int { return d.state.docs.Len() }

// EntryCount is the number of successfully extracted entries.
func (d *Data) EntryCount() int { return d.state.entries.Len() }

// LatestLoadedDay is the newest day with a stored page.
func (d *Data) LatestLoadedDay() (day.Index, bool) { return d.state.docs.LatestDay() }

// MissingDays lists the valid days up to today that have no stored page.
func (d *Data) MissingDays() []day.Index {
	var missing []day.Index
	for i := range day.ValidUpTo(day.Today(d.clock)) {
		if !d.state.docs.Has(i) {
			missing = append(missing, i)
		}
	}
	return missing
}

// MissingCount is len(MissingDays()).
func (d *Data) MissingCount() int {
	return len(d.MissingDays())
}
