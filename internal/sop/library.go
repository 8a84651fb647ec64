package sop

import (
	"context"
	"fmt"
	"os"
	"slices"
)

// Library is a Source backed by markdown files under a root directory.
// Summaries are parsed once; raw bodies are read from disk on every fetch so
// edits made outside the program are picked up.
type Library struct {
	root       string
	docs       map[string]string // canonical path -> file on disk
	summaries  []Summary
	Duplicates []Duplicate
}

var _ Source = (*Library)(nil)

func newLibrary(root string) *Library {
	return &Library{
		root: root,
		docs: make(map[string]string),
	}
}

func (l *Library) add(s Summary, file string) {
	if _, exists := l.docs[s.Path]; exists {
		return
	}
	l.docs[s.Path] = file
	l.summaries = append(l.summaries, s)
}

// Len returns the number of documents
func (l *Library) Len() int {
	return len(l.summaries)
}

// Summaries returns the parsed document summaries in walk order
func (l *Library) Summaries(_ context.Context) ([]Summary, error) {
	return slices.Clone(l.summaries), nil
}

// FilePath returns the file on disk for a canonical path
func (l *Library) FilePath(path string) (string, bool) {
	file, ok := l.docs[path]
	return file, ok
}

// FetchRaw reads the body of the document at path, without front matter
func (l *Library) FetchRaw(_ context.Context, path string) (string, error) {
	file, ok := l.docs[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return stripFrontMatter(string(data))
}

// findDuplicates records ids and aliases claimed by more than one document
func (l *Library) findDuplicates() {
	l.Duplicates = nil
	owner := make(map[string]string)

	claim := func(token, path string) {
		if token == "" {
			return
		}
		if first, ok := owner[token]; ok && first != path {
			l.Duplicates = append(l.Duplicates, Duplicate{Token: token, Path1: first, Path2: path})
			return
		}
		owner[token] = path
	}

	for _, s := range l.summaries {
		claim(s.ID, s.Path)
		for _, alias := range s.Aliases {
			claim(alias, s.Path)
		}
	}
}
