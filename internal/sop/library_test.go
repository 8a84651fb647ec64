package sop

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseDirectory(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "tools/bash.md", `---
id: sh
title: Bash tool
aliases: [bash, b]
---
# Ignored heading
> Runs shell commands

Use it carefully.
`)
	writeDoc(t, root, "tools/bash2.md", "# Bash two\n> Second shell\n")
	writeDoc(t, root, "notes.txt", "not markdown")
	writeDoc(t, root, "drafts/wip.md", "# Draft\n")

	lib, err := NewParser([]string{"drafts/**"}).ParseDirectory(root)
	require.NoError(t, err)

	got, err := lib.Summaries(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	byPath := map[string]Summary{}
	for _, s := range got {
		byPath[s.Path] = s
	}

	bash := byPath["tools/bash"]
	assert.Equal(t, "sh", bash.ID)
	assert.Equal(t, "Bash tool", bash.Title)
	assert.Equal(t, "bash.md", bash.Filename)
	assert.Equal(t, "bash", bash.Stem())
	assert.Equal(t, []string{"bash", "b"}, bash.Aliases)
	assert.Equal(t, "Runs shell commands", bash.Description)

	bash2 := byPath["tools/bash2"]
	assert.Equal(t, "Bash two", bash2.Title)
	assert.Equal(t, "Second shell", bash2.Description)
	assert.Empty(t, bash2.ID)
}

func TestParseDirectory_MalformedFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "bad.md", "---\naliases: [unclosed\n---\nbody\n")

	_, err := NewParser(nil).ParseDirectory(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.md")
}

func TestParseDirectory_Duplicates(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "---\naliases: [deploy]\n---\n")
	writeDoc(t, root, "b.md", "---\naliases: [deploy]\n---\n")

	lib, err := NewParser(nil).ParseDirectory(root)
	require.NoError(t, err)

	require.Len(t, lib.Duplicates, 1)
	assert.Equal(t, Duplicate{Token: "deploy", Path1: "a", Path2: "b"}, lib.Duplicates[0])
}

func TestLibrary_FetchRaw(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "tools/bash.md", "---\nid: sh\n---\n# Bash\nbody line\n")

	lib, err := NewParser(nil).ParseDirectory(root)
	require.NoError(t, err)

	content, err := lib.FetchRaw(context.Background(), "tools/bash")
	require.NoError(t, err)
	assert.Equal(t, "# Bash\nbody line\n", content)

	// Edits on disk are visible without reparsing
	writeDoc(t, root, "tools/bash.md", "changed")
	content, err = lib.FetchRaw(context.Background(), "tools/bash")
	require.NoError(t, err)
	assert.Equal(t, "changed", content)

	_, err = lib.FetchRaw(context.Background(), "tools/missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParseSingleFile(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "runbook.md", "# Runbook\n")

	lib, err := NewParser(nil).ParseSingleFile(filepath.Join(root, "runbook.md"))
	require.NoError(t, err)

	got, err := lib.Summaries(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "runbook", got[0].Path)
	assert.Equal(t, "Runbook", got[0].Title)

	file, ok := lib.FilePath("runbook")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "runbook.md"), file)
}
