package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/media"
	"github.com/JakeFAU/apodex/internal/quality"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func readPage(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractPages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		page        string
		title       string
		explanation string
		media       apod.MediaURL
		kind        media.Kind
	}{
		{
			page:  "ap240301.html",
			title: "Shooting Star over Temple",
			explanation: "A brief streak of light crossed the evening sky above an old temple roof. " +
				"The fireball, a grain of comet dust burning up high in the atmosphere, lasted less than a second. " +
				"Its green glow comes from excited oxygen atoms.",
			media: apod.MediaURL{
				URL:   "https://apod.nasa.gov/apod/image/2403/ShootingStarTemple_1024.jpg",
				HDURL: "https://apod.nasa.gov/apod/image/2403/ShootingStarTemple.jpg",
			},
			kind: media.KindJPEG,
		},
		{
			page:  "ap990115.html",
			title: "The Crab Nebula in X-Rays",
			explanation: "The Crab Nebula is the remains of a star that exploded nearly a thousand years ago. " +
				"At its heart spins a pulsar, a neutron star turning thirty times each second, " +
				"which powers the glowing cloud seen here in X-rays.",
			media: apod.MediaURL{
				URL:   "https://apod.nasa.gov/apod/image/9901/crabxray_small.gif",
				HDURL: "https://apod.nasa.gov/apod/image/9901/crabxray_big.gif",
			},
			kind: media.KindGIF,
		},
		{
			page:  "ap230704.html",
			title: "Fireworks and the Milky Way",
			explanation: "What's brighter: fireworks or the Milky Way? This time-lapse video answers " +
				"the question from a quiet hilltop far from city lights.",
			media: apod.MediaURL{URL: "https://www.youtube.com/embed/abcDEF12345?rel=0"},
			kind:  media.KindYouTube,
		},
		{
			page:  "ap950616.html",
			title: "Neutron Star Earth",
			explanation: "If the Earth were made of neutron star material it would be only a few hundred meters across. " +
				"This artist's illustration shows how tightly packed such matter would be.",
			media: apod.MediaURL{
				URL:   "https://apod.nasa.gov/apod/image/earthneutronstar_small.gif",
				HDURL: "https://apod.nasa.gov/apod/image/earthneutronstar.gif",
			},
			kind: media.KindGIF,
		},
		{
			page:        "ap230120.html",
			title:       "A Comet Tail in Motion",
			explanation: "Over three hours the ion tail of this comet twisted and broke as gusts in the solar wind swept past.",
			media:       apod.MediaURL{URL: "https://apod.nasa.gov/apod/image/2301/CometTail.mp4"},
			kind:        media.KindMP4,
		},
	}

	for _, tc := range cases {
		t.Run(tc.page, func(t *testing.T) {
			t.Parallel()

			d, err := day.ParseLayout(strings.TrimSuffix(strings.TrimPrefix(tc.page, "ap"), ".html"), "060102")
			require.NoError(t, err)

			entry, err := Extract(d, readPage(t, tc.page))
			require.NoError(t, err)
			require.Equal(t, d, entry.Index)
			require.Equal(t, tc.title, entry.Title)
			require.Equal(t, tc.explanation, entry.Explanation)
			require.Equal(t, tc.media, entry.Media)
			require.Equal(t, tc.kind, entry.Media.Kind())
		})
	}
}

func TestExtractBrokenPage(t *testing.T) {
	t.Parallel()

	_, err := Extract(0, readPage(t, "broken.html"))
	require.ErrorIs(t, err, ErrTitleNotFound)

	res := Verbose(0, readPage(t, "broken.html"))
	require.False(t, res.OK())
	require.True(t, res.Warnings.Empty())
	require.Equal(t, apod.Entry{}, res.Entry)
}

func TestTitleFromTitleTagWithoutCenters(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><head><title>APOD: 2020 May 1 - Shooting Star over Temple</title></head><body></body></html>`)
	title, err := Title(doc)
	require.NoError(t, err)
	require.Equal(t, "Shooting Star over Temple", title)
}

func TestTitleCenterSelection(t *testing.T) {
	t.Parallel()

	two := parse(t, `<center><b>Header</b></center><center><b>Second Of Two</b></center>`)
	title, err := Title(two)
	require.NoError(t, err)
	require.Equal(t, "Second Of Two", title)

	three := parse(t, `<center><b>First Of Three</b></center><center><b>b</b></center><center><b>c</b></center>`)
	title, err = Title(three)
	require.NoError(t, err)
	require.Equal(t, "First Of Three", title)
}

func TestTitleCleaning(t *testing.T) {
	t.Parallel()

	doc := parse(t, "<center><b>  Orion   Nebula  Credit: Someone\nsecond line</b></center>")
	title, err := Title(doc)
	require.NoError(t, err)
	require.Equal(t, "Orion Nebula", title)
}

func TestTitleFallsThroughBlankCenter(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<title>APOD - Fallback</title><center><b>   </b></center>`)
	title, err := Title(doc)
	require.NoError(t, err)
	require.Equal(t, "Fallback", title)
}

func TestExplanationExample(t *testing.T) {
	t.Parallel()

	raw := "Explanation:  Stars twinkle.   Tomorrow's picture: none."
	require.True(t, quality.InspectString(afterMarker(raw)).Has(quality.MultiWhitespace))

	doc := parse(t, "<title>APOD - Twinkle</title><p>"+raw+"</p>")
	explanation, err := Explanation(doc)
	require.NoError(t, err)
	require.Equal(t, "Stars twinkle.", explanation)
	require.False(t, quality.InspectString(explanation).Has(quality.MultiWhitespace))
}

func TestExplanationStrategies(t *testing.T) {
	t.Parallel()

	td := parse(t, `<table><tr><td>Explanation: from the cell.</td></tr></table><p>Explanation: from p.</p>`)
	got, err := Explanation(td)
	require.NoError(t, err)
	require.Equal(t, "from the cell.", got)

	p := parse(t, `<div>x</div><p>Explanation: from p. Authors & editors: someone</p>`)
	got, err = Explanation(p)
	require.NoError(t, err)
	require.Equal(t, "from p.", got)

	text := parse(t, `<div><b>Explanation:</b> loose text. Author: nobody</div>`)
	got, err = Explanation(text)
	require.NoError(t, err)
	require.Equal(t, "loose text.", got)

	none := parse(t, `<p>No marker here.</p>`)
	_, err = Explanation(none)
	require.ErrorIs(t, err, ErrExplanationNotFound)

	onlyTrailer := parse(t, `<p>Explanation: Tomorrow's picture: a nebula</p>`)
	_, err = Explanation(onlyTrailer)
	require.ErrorIs(t, err, ErrExplanationNotFound)
}

func TestTrailerOrder(t *testing.T) {
	t.Parallel()

	// "Author:" appears first in the text but "Tomorrow's picture" is checked first.
	require.Equal(t, "Body Author: x", cleanExplanation("Body   Author: x Tomorrow's picture: y"))
}

func TestMediaWithoutSources(t *testing.T) {
	t.Parallel()

	m := Media(parse(t, `<p>nothing to see</p>`))
	require.Equal(t, apod.MediaURL{}, m)
	_, ok := m.Best()
	require.False(t, ok)
}

func TestMediaVideoSrcAttribute(t *testing.T) {
	t.Parallel()

	m := Media(parse(t, `<video src="image/2301/loop.mp4"></video>`))
	require.Equal(t, "https://apod.nasa.gov/apod/image/2301/loop.mp4", m.URL)
	require.Empty(t, m.HDURL)
}

func TestFinalizeURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"image/2401/a.jpg":                  "https://apod.nasa.gov/apod/image/2401/a.jpg",
		"  image/2401/a.jpg\n":              "https://apod.nasa.gov/apod/image/2401/a.jpg",
		"https://x.org/a.png":               "https://x.org/a.png",
		"//www.youtube.com/embed/":          "https://www.youtube.com/embed/",
		"http://a/1.jpg https://b/2.jpg":    "https://b/2.jpg",
		"image/x.jpg http://old/y.gif junk": "http://old/y.gif",
	}
	for in, want := range cases {
		require.Equal(t, want, FinalizeURL(in), in)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	html := readPage(t, "ap240301.html")
	first := Verbose(42, html)
	second := Verbose(42, html)
	require.Equal(t, first, second)
	require.True(t, first.OK())
}
