package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/extract"
)

func TestDocumentsDecode(t *testing.T) {
	t.Parallel()

	docs, err := Documents()
	require.NoError(t, err)
	require.Equal(t, 5, docs.Len())
	require.Positive(t, Size())

	latest, ok := docs.LatestDay()
	require.True(t, ok)
	require.Equal(t, day.FromDate(2024, time.March, 1), latest)

	first, ok := docs.Get(0)
	require.True(t, ok)
	require.Equal(t, day.Index(0), first.Index)
	require.True(t, strings.Contains(first.HTML, "Explanation:"))
}

func TestDocumentsAreIndependent(t *testing.T) {
	t.Parallel()

	a, err := Documents()
	require.NoError(t, err)
	a.Clear()

	b, err := Documents()
	require.NoError(t, err)
	require.Equal(t, 5, b.Len())
}

func TestBundledPagesExtract(t *testing.T) {
	t.Parallel()

	docs, err := Documents()
	require.NoError(t, err)
	for d, doc := range docs.All() {
		entry, err := extract.Extract(d, doc.HTML)
		require.NoError(t, err, "day %s", d)
		require.NotEmpty(t, entry.Title)
	}
}
