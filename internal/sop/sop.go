// Package sop defines SOP document summaries and the sources that list and
// fetch them.
package sop

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a source has no document at the given path.
var ErrNotFound = errors.New("document not found")

// Summary describes a known document and the tokens it may be referred by.
type Summary struct {
	Path        string   `json:"path"`               // Canonical path, required
	ID          string   `json:"id,omitempty"`       // Optional short identifier
	Filename    string   `json:"filename,omitempty"` // Raw filename, stem derived from it
	Aliases     []string `json:"aliases,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Stem returns the filename without a trailing ".md", or "" without a filename.
func (s Summary) Stem() string {
	return strings.TrimSuffix(s.Filename, ".md")
}

// DisplayName returns the title when set, otherwise the path.
func (s Summary) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Path
}

// Fetcher fetches the raw body of a document by canonical path.
type Fetcher interface {
	FetchRaw(ctx context.Context, path string) (string, error)
}

// Source lists known documents and fetches their raw bodies.
type Source interface {
	Fetcher
	Summaries(ctx context.Context) ([]Summary, error)
}
