// Package dataset ships a small document archive inside the binary so a fresh
// install has something to show before the first scrape.
package dataset

import (
	_ "embed"
	"fmt"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/archive"
)

//go:embed apod.zst
var bundled []byte

// Documents decodes the bundled document archive. Each call returns a fresh archive.
func Documents() (*archive.Archive[apod.Document, *apod.Document], error) {
	docs, err := archive.FromBytes[apod.Document](bundled)
	if err != nil {
		return nil, fmt.Errorf("decode bundled archive: %w", err)
	}
	return docs, nil
}

// Size is the compressed size of the bundled archive in bytes.
func Size() int {
	return len(bundled)
}
