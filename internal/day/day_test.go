package day

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestEpochIsZero(t *testing.T) {
	t.Parallel()

	require.Equal(t, Index(0), FromDate(1995, time.June, 16))
	require.Equal(t, "1995-06-16", Index(0).String())
	require.Equal(t, "ap950616.html", Index(0).PageName())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, i := range []Index{-100000, -1, 0, 1, 365, 9000, 11161, 2000000} {
		require.Equal(t, i, FromTime(i.Time()), "round trip of %d", i)
	}
	for i := Index(-800); i < 20000; i += 7 {
		require.Equal(t, i, FromTime(i.Time()))
	}
}

func TestFromTimeUsesLocalCalendarDate(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-5", -5*60*60)
	late := time.Date(2024, time.March, 1, 23, 30, 0, 0, loc)
	require.Equal(t, FromDate(2024, time.March, 1), FromTime(late))
	require.Equal(t, FromDate(2024, time.March, 1), Today(fixedClock{t: late}))
}

func TestLeapDays(t *testing.T) {
	t.Parallel()

	feb28 := FromDate(2000, time.February, 28)
	require.Equal(t, "2000-02-29", feb28.Next().String())
	require.Equal(t, "2000-03-01", feb28.Add(2).String())
	require.Equal(t, "1900-03-01", FromDate(1900, time.February, 28).Next().String())
}

func TestParse(t *testing.T) {
	t.Parallel()

	got, err := Parse("2020-06-10")
	require.NoError(t, err)
	require.True(t, IsKnownMissing(got))

	got, err = ParseLayout("950617", pageLayout)
	require.NoError(t, err)
	require.Equal(t, Index(1), got)

	_, err = Parse("not-a-date")
	require.Error(t, err)
}

func TestSaturatingArithmetic(t *testing.T) {
	t.Parallel()

	require.Equal(t, Max, Max.Next())
	require.Equal(t, Max, Max.Add(10))
	require.Equal(t, Min, Min.Add(-1))
	require.Equal(t, Index(5), Index(3).Add(2))
}

func TestValidUpToSkipsKnownMissing(t *testing.T) {
	t.Parallel()

	seq := ValidUpTo(6)
	first := slices.Collect(seq)
	require.Equal(t, []Index{0, 4, 5, 6}, first)

	// restartable
	require.Equal(t, first, slices.Collect(seq))

	require.Empty(t, slices.Collect(ValidUpTo(-1)))
}

func TestValidUpToStopsEarly(t *testing.T) {
	t.Parallel()

	var got []Index
	for i := range ValidUpTo(Max) {
		got = append(got, i)
		if len(got) == 3 {
			break
		}
	}
	require.Equal(t, []Index{0, 4, 5}, got)
}

func TestTotalValidDays(t *testing.T) {
	t.Parallel()

	today := FromDate(2026, time.January, 12)
	count := 0
	for range ValidUpTo(today) {
		count++
	}
	require.Equal(t, uint32(count), TotalValidDays(today))
	require.Equal(t, uint32(0), TotalValidDays(-5))
}

func TestKnownMissingIsCopy(t *testing.T) {
	t.Parallel()

	missing := KnownMissing()
	require.Len(t, missing, 4)
	missing[0] = 42
	require.False(t, IsKnownMissing(42))
}

func TestLink(t *testing.T) {
	t.Parallel()

	link, ok := FromDate(2024, time.March, 1).Link()
	require.True(t, ok)
	require.Equal(t, "https://apod.nasa.gov/apod/ap240301.html", link)

	_, ok = Index(-1).Link()
	require.False(t, ok)
}
