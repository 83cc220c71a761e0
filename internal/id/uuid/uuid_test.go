package uuid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsTimeOrderedV7(t *testing.T) {
	t.Parallel()

	gen := New()
	var prev string
	for range 5 {
		id, err := gen.NewID()
		require.NoError(t, err)

		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		require.Equal(t, uuid.Version(7), parsed.Version())
		require.Greater(t, id, prev)
		prev = id
	}
}
