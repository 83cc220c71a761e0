// Package extract turns a day's page into an apod.Entry. Each field is located by
// an ordered list of strategies because the page layout drifted over the years;
// the first strategy that yields non-empty text wins.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/quality"
	"github.com/PuerkitoBio/goquery"
)

// Extraction failures. A day with one of these has no entry.
var (
	ErrTitleNotFound       = errors.New("title not found")
	ErrExplanationNotFound = errors.New("explanation not found")
)

const explanationMarker = "Explanation:"

// trailers mark boilerplate that follows the explanation. The first one found wins.
var trailers = []string{
	"Tomorrow's picture",
	"Tomorrow's Picture",
	"Authors & editors",
	"Author:",
	"We keep an archive file.",
}

var pageBase = mustParseURL(day.BaseURL)

// Extract parses html and returns the entry for d. It is a pure function of its inputs.
func Extract(d day.Index, html string) (apod.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return apod.Entry{}, fmt.Errorf("parse html: %w", err)
	}

	title, err := Title(doc)
	if err != nil {
		return apod.Entry{}, err
	}
	explanation, err := Explanation(doc)
	if err != nil {
		return apod.Entry{}, err
	}
	return apod.Entry{
		Index:       d,
		Title:       title,
		Explanation: explanation,
		Media:       Media(doc),
	}, nil
}

// Result bundles an extraction with its quality findings. Err and Entry are
// mutually exclusive; Warnings is empty when Err is set.
type Result struct {
	Entry    apod.Entry
	Warnings quality.Set
	Err      error
}

// OK reports whether the page yielded an entry.
func (r Result) OK() bool { return r.Err == nil }

// Verbose runs Extract followed by quality.Inspect.
func Verbose(d day.Index, html string) Result {
	entry, err := Extract(d, html)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Entry: entry, Warnings: quality.Inspect(entry)}
}

// Title tries the centered bold heading first, then the <title> element.
func Title(doc *goquery.Document) (string, error) {
	for _, strategy := range []func(*goquery.Document) string{titleFromCenter, titleFromTitleTag} {
		if title := cleanTitle(strategy(doc)); title != "" {
			return title, nil
		}
	}
	return "", ErrTitleNotFound
}

// titleFromCenter reads the first bold run of the heading block: the second
// <center> when the page has exactly two, otherwise the first.
func titleFromCenter(doc *goquery.Document) string {
	centers := doc.Find("center")
	idx := 0
	if centers.Length() == 2 {
		idx = 1
	}
	bold := centers.Eq(idx).Find("b").First()
	if bold.Length() == 0 {
		return ""
	}
	return bold.Text()
}

// titleFromTitleTag reads the text after the last " - " of the <title> element.
func titleFromTitleTag(doc *goquery.Document) string {
	title := doc.Find("title").First()
	if title.Length() == 0 {
		return ""
	}
	text := title.Text()
	if i := strings.LastIndex(text, " - "); i >= 0 {
		text = text[i+len(" - "):]
	}
	return text
}

func cleanTitle(raw string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	line, _, _ = strings.Cut(line, "Credit:")
	return collapseWhitespace(line)
}

// Explanation tries the table cell holding the marker, then a paragraph, then
// the whole document text.
func Explanation(doc *goquery.Document) (string, error) {
	strategies := []func(*goquery.Document) string{
		func(doc *goquery.Document) string { return afterMarker(firstWithMarker(doc, "td")) },
		func(doc *goquery.Document) string { return afterMarker(firstWithMarker(doc, "p")) },
		func(doc *goquery.Document) string { return afterMarker(doc.Text()) },
	}
	for _, strategy := range strategies {
		if text := cleanExplanation(strategy(doc)); text != "" {
			return text, nil
		}
	}
	return "", ErrExplanationNotFound
}

// firstWithMarker returns the text of the first element matching selector whose
// text contains the explanation marker.
func firstWithMarker(doc *goquery.Document, selector string) string {
	var found string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, explanationMarker) {
			found = text
			return false
		}
		return true
	})
	return found
}

// afterMarker returns the text between the first marker and the next one, if any.
func afterMarker(text string) string {
	_, after, ok := strings.Cut(text, explanationMarker)
	if !ok {
		return ""
	}
	after, _, _ = strings.Cut(after, explanationMarker)
	return after
}

func cleanExplanation(raw string) string {
	text := collapseWhitespace(raw)
	for _, trailer := range trailers {
		if i := strings.Index(text, trailer); i >= 0 {
			text = text[:i]
			break
		}
	}
	return strings.TrimSpace(text)
}

// Media returns the image and its high resolution link, or failing that a
// single embedded video URL. Pages with neither yield an empty MediaURL.
func Media(doc *goquery.Document) apod.MediaURL {
	if src, ok := attr(doc.Find("img").First(), "src"); ok {
		image := FinalizeURL(src)
		hd := image
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if strings.HasPrefix(href, "image") {
				hd = FinalizeURL(href)
				return false
			}
			return true
		})
		return apod.MediaURL{URL: image, HDURL: hd}
	}
	if src, ok := videoSource(doc); ok {
		return apod.MediaURL{URL: FinalizeURL(src)}
	}
	return apod.MediaURL{}
}

func videoSource(doc *goquery.Document) (string, bool) {
	if src, ok := attr(doc.Find("iframe").First(), "src"); ok {
		return src, true
	}
	video := doc.Find("video").First()
	if video.Length() == 0 {
		return "", false
	}
	if src, ok := attr(video.Find("source").First(), "src"); ok {
		return src, true
	}
	return attr(video, "src")
}

func attr(s *goquery.Selection, name string) (string, bool) {
	v, ok := s.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// FinalizeURL turns an attribute value into an absolute URL. When the value
// holds several whitespace separated absolute URLs the last one wins; anything
// else is resolved against the archive root.
func FinalizeURL(raw string) string {
	fields := strings.Fields(raw)
	for i := len(fields) - 1; i >= 0; i-- {
		if isAbsoluteHTTP(fields[i]) {
			return fields[i]
		}
	}
	trimmed := strings.TrimSpace(raw)
	ref, err := url.Parse(trimmed)
	if err != nil {
		return day.BaseURL + strings.TrimPrefix(trimmed, "/")
	}
	return pageBase.ResolveReference(ref).String()
}

func isAbsoluteHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
