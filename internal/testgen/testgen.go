// Package testgen generates EPUB fixtures with configurable metadata for
// testing the ingestion pipeline and its HTTP surface.
package testgen

import (
	"os"
	"testing"
)

// EPUBOptions configures the generated EPUB file.
type EPUBOptions struct {
	Title        string
	Author       string
	ChapterCount int // defaults to 1

	HasCover      bool
	CoverMimeType string // "image/jpeg" or "image/png", defaults to "image/jpeg"
	// CoverViaMeta references the cover with an EPUB2 <meta name="cover">
	// instead of an EPUB3 cover-image property.
	CoverViaMeta bool

	// InlineStyle is added as a <style> element to every chapter head.
	InlineStyle string
}

// TempDir creates a temporary directory for testing and registers cleanup.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}
