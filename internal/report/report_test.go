package report

import (
	"bytes"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/extract"
	"github.com/JakeFAU/apodex/internal/quality"
)

func page(title string) string {
	return `<html><body><center><b>` + title + `</b></center>` +
		`<p><b>Explanation:</b> Light from distant stars.</p></body></html>`
}

func sampleDocs() map[day.Index]apod.Document {
	return map[day.Index]apod.Document{
		10: {Index: 10, HTML: page("Good Title")},
		11: {Index: 11, HTML: page("Math &lt;3 Stars")},
		12: {Index: 12, HTML: `<html><body><p>nothing here</p></body></html>`},
		13: {Index: 13, HTML: page("Another Clean One")},
	}
}

func ordered(docs map[day.Index]apod.Document) func(func(day.Index, apod.Document) bool) {
	return func(yield func(day.Index, apod.Document) bool) {
		for d := day.Index(0); d < 20; d++ {
			doc, ok := docs[d]
			if ok && !yield(d, doc) {
				return
			}
		}
	}
}

func TestBuildCounts(t *testing.T) {
	t.Parallel()

	rep := Build(ordered(sampleDocs()))
	require.Equal(t, 4, rep.Total())
	require.Equal(t, 2, rep.OK)
	require.Equal(t, 1, rep.Warned)
	require.Equal(t, 1, rep.Failed)

	require.Equal(t, StatusWarning, rep.Rows[1].Status)
	require.True(t, rep.Rows[1].Warnings.Has(quality.ContainsHTML))
	require.ErrorIs(t, rep.Rows[2].Err, extract.ErrTitleNotFound)
	require.Empty(t, rep.Rows[0].Detail())

	problems := rep.Problems()
	require.Len(t, problems, 2)
	require.Equal(t, day.Index(11), problems[0].Day)
	require.Equal(t, day.Index(12), problems[1].Day)
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	rep := Build(maps.All(map[day.Index]apod.Document{}))
	require.Zero(t, rep.Total())
	require.Empty(t, rep.Problems())
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	rep := Build(ordered(sampleDocs()))

	var problems bytes.Buffer
	rep.WriteTable(&problems, false)
	out := problems.String()
	require.Contains(t, out, "4 days: 2 ok, 1 warnings, 1 errors")
	require.Contains(t, out, day.Index(12).String())
	require.Contains(t, out, "title not found")
	require.NotContains(t, out, "Good Title")

	var all bytes.Buffer
	rep.WriteTable(&all, true)
	require.Contains(t, all.String(), "Good Title")
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	rep := Build(ordered(sampleDocs()))
	var buf bytes.Buffer
	require.NoError(t, rep.WriteHTML(&buf))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	require.Contains(t, out, `id="filter"`)
	require.Contains(t, out, `class="badge error"`)
	require.Contains(t, out, `class="badge warning"`)
	require.Equal(t, 2, strings.Count(out, `class="badge ok"`))
	require.Contains(t, out, "Math &lt;3 Stars", "titles are escaped")
	require.Contains(t, out, "contains_html")
}
