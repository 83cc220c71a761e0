// Package quality flags non-fatal anomalies in extracted entries.
package quality

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JakeFAU/apodex/internal/apod"
)

// Warning is one kind of finding.
type Warning uint8

// Findings. Each is a distinct bit so a Set is a plain bitmask.
const (
	ContainsHTML Warning = 1 << iota
	EmptyField
	LeadingWhitespace
	TrailingWhitespace
	MultiWhitespace
	TitleMultiline
)

var allWarnings = []Warning{
	ContainsHTML,
	EmptyField,
	LeadingWhitespace,
	TrailingWhitespace,
	MultiWhitespace,
	TitleMultiline,
}

var warningNames = map[Warning]string{
	ContainsHTML:       "contains_html",
	EmptyField:         "empty_field",
	LeadingWhitespace:  "leading_whitespace",
	TrailingWhitespace: "trailing_whitespace",
	MultiWhitespace:    "multi_whitespace",
	TitleMultiline:     "title_multiline",
}

func (w Warning) String() string {
	if name, ok := warningNames[w]; ok {
		return name
	}
	return "unknown"
}

// Set is an unordered set of warnings. The zero value is empty.
type Set uint8

// Add returns s with w included.
func (s Set) Add(w Warning) Set { return s | Set(w) }

// Has reports whether w is in s.
func (s Set) Has(w Warning) bool { return s&Set(w) != 0 }

// Union returns the warnings in either set.
func (s Set) Union(o Set) Set { return s | o }

// Empty reports whether no warning was found.
func (s Set) Empty() bool { return s == 0 }

// Len returns the number of warnings.
func (s Set) Len() int {
	n := 0
	for _, w := range allWarnings {
		if s.Has(w) {
			n++
		}
	}
	return n
}

// Warnings lists the members in declaration order.
func (s Set) Warnings() []Warning {
	var out []Warning
	for _, w := range allWarnings {
		if s.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, len(allWarnings))
	for _, w := range s.Warnings() {
		names = append(names, w.String())
	}
	return strings.Join(names, ",")
}

// Inspect checks an entry. Only the title is inspected; the explanation has
// already been whitespace-collapsed by the extractor.
func Inspect(entry apod.Entry) Set {
	return InspectTitle(entry.Title)
}

// InspectTitle runs the string checks plus the single-line check.
func InspectTitle(title string) Set {
	s := InspectString(title)
	if lineCount(title) > 1 {
		s = s.Add(TitleMultiline)
	}
	return s
}

// InspectString runs the checks shared by every text field.
func InspectString(value string) Set {
	var s Set
	if strings.ContainsAny(value, "<>") {
		s = s.Add(ContainsHTML)
	}
	if value == "" {
		return s.Add(EmptyField)
	}
	if first, _ := utf8.DecodeRuneInString(value); unicode.IsSpace(first) {
		s = s.Add(LeadingWhitespace)
	}
	if last, _ := utf8.DecodeLastRuneInString(value); unicode.IsSpace(last) {
		s = s.Add(TrailingWhitespace)
	}
	if hasConsecutiveSpace(value) {
		s = s.Add(MultiWhitespace)
	}
	return s
}

func hasConsecutiveSpace(value string) bool {
	prev := false
	for _, r := range value {
		space := unicode.IsSpace(r)
		if space && prev {
			return true
		}
		prev = space
	}
	return false
}

// lineCount counts lines the way a line scanner would: a single trailing
// newline does not start a new line.
func lineCount(value string) int {
	if value == "" {
		return 0
	}
	value = strings.TrimSuffix(value, "\n")
	return strings.Count(value, "\n") + 1
}
