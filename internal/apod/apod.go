// Package apod holds the two record types kept in archives: the raw page of a day
// and the entry extracted from it.
package apod

import (
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/media"
)

// Document is the page text fetched for one day.
type Document struct {
	Index day.Index
	HTML  string
}

// Day returns the archive key.
func (d Document) Day() day.Index { return d.Index }

// MediaURL references the media of an entry. Either field may be empty.
type MediaURL struct {
	URL   string
	HDURL string
}

// Best returns the highest quality URL available.
func (m MediaURL) Best() (string, bool) {
	switch {
	case m.HDURL != "":
		return m.HDURL, true
	case m.URL != "":
		return m.URL, true
	default:
		return "", false
	}
}

// Kind classifies the media by its best URL.
func (m MediaURL) Kind() media.Kind {
	url, ok := m.Best()
	if !ok {
		return media.KindUnknown
	}
	return media.KindOf(url)
}

// Entry is the structured record extracted from a Document.
type Entry struct {
	Index       day.Index
	Title       string
	Explanation string
	Media       MediaURL
}

// Day returns the archive key.
func (e Entry) Day() day.Index { return e.Index }
