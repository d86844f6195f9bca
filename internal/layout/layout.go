// Package layout validates the project's filesystem layout: the source
// entries the build pipeline reads must exist before derivation proceeds.
package layout

import (
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapforge/pkg/core"
)

// Checker implements core.LayoutValidator with plain stat checks.
type Checker struct{}

// Validate returns a ValidationError for the first missing entry.
func (Checker) Validate(root string, entries []string) error {
	for _, entry := range entries {
		path := entry
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, entry)
		}
		if _, err := os.Stat(path); err != nil {
			return &core.ValidationError{
				Field:   "layout",
				Value:   entry,
				Message: "required source file " + entry + " not found",
			}
		}
	}
	return nil
}
