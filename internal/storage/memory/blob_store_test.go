package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "path/entries.apodz", "", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "memory://path/entries.apodz", uri)

	payload[0] = 'C'
	stored, ok := store.Object("path/entries.apodz")
	require.True(t, ok)
	require.Equal(t, "content", string(stored))

	stored[0] = 'X'
	again, _ := store.Object("path/entries.apodz")
	require.Equal(t, "content", string(again))
}

func TestBlobStorePaths(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	for _, p := range []string{"b", "a", "c"} {
		_, err := store.PutObject(context.Background(), p, "", bytes.NewReader(nil))
		require.NoError(t, err)
	}
	require.Equal(t, []string{"a", "b", "c"}, store.Paths())

	_, ok := store.Object("missing")
	require.False(t, ok)
}
