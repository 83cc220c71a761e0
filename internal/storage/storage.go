// Package storage defines the export targets for finished archives.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/apodex/internal/day"
)

// ContentTypeArchive is the MIME type of a compressed archive object.
const ContentTypeArchive = "application/zstd"

// BlobStore writes named objects and returns a URI for the stored copy.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// ObjectName names an exported archive after its kind and the latest day it holds,
// e.g. documents-2024-03-01.apodz.
func ObjectName(kind string, latest day.Index) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "archive"
	}
	return fmt.Sprintf("%s-%s.apodz", kind, latest)
}
