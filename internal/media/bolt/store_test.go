package bolt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/media"
)

func openStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	s, err := Open(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreThenGet(t *testing.T) {
	t.Parallel()

	s := openStore(t, Config{})
	data := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}
	require.NoError(t, s.Store(1234, data, media.KindJPEG))

	blob, ok, err := s.Get(1234)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, media.Blob{Kind: media.KindJPEG, Data: data}, blob)

	_, ok, err = s.Get(1235)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreOverwritesAndDeletes(t *testing.T) {
	t.Parallel()

	s := openStore(t, Config{})
	require.NoError(t, s.Store(7, []byte("old"), media.KindPNG))
	require.NoError(t, s.Store(7, []byte("new"), media.KindGIF))

	blob, ok, err := s.Get(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, media.KindGIF, blob.Kind)
	require.Equal(t, []byte("new"), blob.Data)

	require.NoError(t, s.Delete(7))
	_, ok, err = s.Get(7)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(Config{Dir: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Store(-5, []byte("early"), media.KindMP4))
	require.NoError(t, s.Close())

	reopened := openStore(t, Config{Dir: dir})
	blob, ok, err := reopened.Get(-5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("early"), blob.Data)
}

func TestDaysAreOrdered(t *testing.T) {
	t.Parallel()

	s := openStore(t, Config{})
	for _, d := range []day.Index{300, -2, 0, day.Max, day.Min, 17} {
		require.NoError(t, s.Store(d, []byte{1}, media.KindPNG))
	}
	days, err := s.Days()
	require.NoError(t, err)
	require.Equal(t, []day.Index{day.Min, -2, 0, 17, 300, day.Max}, days)
}

func TestKeyOrderMatchesDayOrder(t *testing.T) {
	t.Parallel()

	prev := encodeKey(day.Min)
	for _, d := range []day.Index{-1000, -1, 0, 1, 1000, day.Max} {
		k := encodeKey(d)
		require.Equal(t, 1, bytes.Compare(k, prev), "key of %d", d)
		require.Equal(t, d, decodeKey(k))
		prev = k
	}
}

func TestStoreFull(t *testing.T) {
	t.Parallel()

	s := openStore(t, Config{MaxSizeMB: 1})
	require.NoError(t, s.Store(1, make([]byte, 1024), media.KindPNG))

	err := s.Store(2, make([]byte, 2<<20), media.KindPNG)
	require.ErrorIs(t, err, ErrStoreFull)

	_, ok, err := s.Get(2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreFullCountsCurrentFileSize(t *testing.T) {
	t.Parallel()

	s := openStore(t, Config{MaxSizeMB: 1})
	first := make([]byte, 600<<10)
	first[0] = 1
	require.NoError(t, s.Store(1, first, media.KindPNG))

	// Replacing the same key is still measured against the grown file.
	err := s.Store(1, make([]byte, 600<<10), media.KindJPEG)
	require.ErrorIs(t, err, ErrStoreFull)

	blob, ok, err := s.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, media.KindPNG, blob.Kind)
	require.Equal(t, first, blob.Data)
}

func TestCacheOverStore(t *testing.T) {
	t.Parallel()

	s := openStore(t, Config{})
	writer := media.NewCache[media.Blob](s, 1, media.Identity)
	_, err := writer.Put(42, media.Blob{Kind: media.KindPNG, Data: []byte("png")})
	require.NoError(t, err)

	// A fresh cache over the same store starts cold and fills from disk.
	reader := media.NewCache[media.Blob](s, 1, media.Identity)
	_, ok := reader.Peek(42)
	require.False(t, ok)
	blob, ok, err := reader.Get(42)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("png"), blob.Data)
}

func TestOpenRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{}, nil)
	require.Error(t, err)
}
