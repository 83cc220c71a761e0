// Package uuid names task runs. Version 7 IDs sort by creation time, so log
// lines of consecutive runs on one handle stay in order.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator implements task.IDGenerator.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}
