// Package day models the publication calendar as a signed count of days since
// the first published page (1995-06-16). Every other package keys its data by Index.
package day

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"time"
)

// Index counts days since Epoch. Negative values are dates before the first page.
type Index int32

// Layout is the default textual form used by String and Parse.
const Layout = "2006-01-02"

// pageLayout renders the per-day page name, e.g. ap950616.html.
const pageLayout = "060102"

// Epoch is the calendar date of Index 0.
var Epoch = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

// Bounds of the representable range.
const (
	Min Index = math.MinInt32
	Max Index = math.MaxInt32
)

// knownMissing lists days that never had a page.
var knownMissing = []Index{
	FromDate(1995, time.June, 17),
	FromDate(1995, time.June, 18),
	FromDate(1995, time.June, 19),
	FromDate(2020, time.June, 10),
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// FromDate converts a calendar date. Out-of-range months and days are normalized
// the same way time.Date normalizes them.
func FromDate(year int, month time.Month, dayOfMonth int) Index {
	t := time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
	return saturate(daysFromCivil(int64(t.Year()), int64(t.Month()), int64(t.Day())) - epochDays)
}

// FromTime converts the calendar date of t, as seen in t's own location.
func FromTime(t time.Time) Index {
	return FromDate(t.Year(), t.Month(), t.Day())
}

// Today derives the current index from the clock's local calendar date.
func Today(clock Clock) Index {
	return FromTime(clock.Now())
}

// Parse reads a date in Layout form.
func Parse(value string) (Index, error) {
	return ParseLayout(value, Layout)
}

// ParseLayout reads a date using a Go time layout.
func ParseLayout(value, layout string) (Index, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return 0, fmt.Errorf("parse day %q: %w", value, err)
	}
	return FromTime(t), nil
}

// Time returns midnight UTC of the index's calendar date. FromTime(i.Time()) == i.
func (i Index) Time() time.Time {
	return Epoch.AddDate(0, 0, int(i))
}

// Days returns the raw offset from Epoch.
func (i Index) Days() int32 {
	return int32(i)
}

// Add moves n days, saturating at Min and Max.
func (i Index) Add(n int64) Index {
	return saturate(int64(i) + n)
}

// Next returns the following day, saturating at Max.
func (i Index) Next() Index {
	return i.Add(1)
}

// Format renders the date with a Go time layout.
func (i Index) Format(layout string) string {
	return i.Time().Format(layout)
}

// String renders the date as YYYY-MM-DD.
func (i Index) String() string {
	return i.Format(Layout)
}

// PageName is the archive's file name for this day, e.g. ap950616.html.
func (i Index) PageName() string {
	return "ap" + i.Format(pageLayout) + ".html"
}

// BaseURL is the public archive root every page lives under.
const BaseURL = "https://apod.nasa.gov/apod/"

// Link is the canonical page URL. Days before Epoch have no page.
func (i Index) Link() (string, bool) {
	if i < 0 {
		return "", false
	}
	return BaseURL + i.PageName(), true
}

// IsKnownMissing reports whether the day is one of the days without a page.
func IsKnownMissing(i Index) bool {
	return slices.Contains(knownMissing, i)
}

// KnownMissing returns a copy of the days without a page.
func KnownMissing() []Index {
	return slices.Clone(knownMissing)
}

// ValidUpTo yields every day from Epoch through today in ascending order,
// skipping known-missing days. The sequence can be ranged over repeatedly.
func ValidUpTo(today Index) iter.Seq[Index] {
	return func(yield func(Index) bool) {
		if today < 0 {
			return
		}
		for i := Index(0); ; i++ {
			if !IsKnownMissing(i) && !yield(i) {
				return
			}
			if i >= today {
				return
			}
		}
	}
}

// TotalValidDays is (today - Epoch + 1) minus the known-missing days, never negative.
func TotalValidDays(today Index) uint32 {
	total := int64(today) + 1 - int64(len(knownMissing))
	if total < 0 {
		return 0
	}
	return uint32(total)
}

var epochDays = daysFromCivil(1995, 6, 16)

// daysFromCivil counts days since 1970-01-01 in the proleptic Gregorian calendar.
func daysFromCivil(y, m, d int64) int64 {
	if m <= 2 {
		y--
	}
	era := y / 400
	if y < 0 && y%400 != 0 {
		era--
	}
	yoe := y - era*400
	mp := (m + 9) % 12
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func saturate(v int64) Index {
	switch {
	case v > int64(Max):
		return Max
	case v < int64(Min):
		return Min
	default:
		return Index(v)
	}
}
