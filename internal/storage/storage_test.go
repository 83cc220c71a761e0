package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/apodex/internal/day"
)

func TestObjectName(t *testing.T) {
	t.Parallel()

	latest := day.FromDate(2024, time.March, 1)
	require.Equal(t, "documents-2024-03-01.apodz", ObjectName("documents", latest))
	require.Equal(t, "archive-1995-06-16.apodz", ObjectName("  ", 0))
}
