package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/sopmd/internal/preview"
	"github.com/gubarz/sopmd/internal/sop"
)

type fakeSource struct {
	docs    []sop.Summary
	content map[string]string
	calls   []string
}

func (f *fakeSource) Summaries(context.Context) ([]sop.Summary, error) {
	return f.docs, nil
}

func (f *fakeSource) FetchRaw(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, path)
	c, ok := f.content[path]
	if !ok {
		return "", sop.ErrNotFound
	}
	return c, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		docs: []sop.Summary{
			{Path: "runbooks/deploy", Title: "Deploy"},
			{Path: "tools/bash", Aliases: []string{"bash", "b"}},
			{Path: "tools/bash2", Aliases: []string{"bash2"}},
		},
		content: map[string]string{
			"runbooks/deploy": "use bash2 or b",
			"tools/bash":      "# Bash\nX",
			"tools/bash2":     "Y",
		},
	}
}

func newTestModel(t *testing.T, src *fakeSource) mainModel {
	t.Helper()
	m := newMainModel(context.Background(), src.docs, src, Options{CacheSize: 8, Logger: zerolog.Nop()})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
}

// update applies msg and returns the resulting model, discarding commands
func update(t *testing.T, m mainModel, msg tea.Msg) mainModel {
	t.Helper()
	next, _ := updateCmd(t, m, msg)
	return next
}

func updateCmd(t *testing.T, m mainModel, msg tea.Msg) (mainModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(mainModel)
	require.True(t, ok)
	return mm, cmd
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// openFirst opens the document under the cursor
func openFirst(t *testing.T, m mainModel) mainModel {
	t.Helper()
	m, cmd := updateCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, bodyLoadedMsg{}, msg)
	return update(t, m, msg)
}

func TestMainModel_OpenDocument(t *testing.T) {
	src := newFakeSource()
	m := openFirst(t, newTestModel(t, src))

	assert.Equal(t, phasePreview, m.phase)
	require.NotNil(t, m.session)
	assert.True(t, m.session.Active())
	require.Len(t, m.markers, 2)
	assert.Equal(t, "tools/bash2", m.markers[0].Path)
	assert.Equal(t, "tools/bash", m.markers[1].Path)
	assert.Equal(t, 0, m.focus)

	view := stripANSI(m.View())
	assert.Contains(t, view, "Deploy")
	assert.Contains(t, view, "bash2")
}

func TestMainModel_ReferenceFetchedOnceThenCached(t *testing.T) {
	src := newFakeSource()
	m := openFirst(t, newTestModel(t, src))

	m = update(t, m, key(tea.KeyTab))
	assert.Equal(t, 1, m.focus)

	m, cmd := updateCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, preview.OverlayLoading, m.session.Overlay().State)
	assert.Contains(t, stripANSI(m.View()), preview.LoadingText)

	m = update(t, m, cmd())
	ov := m.session.Overlay()
	assert.Equal(t, preview.OverlayReady, ov.State)
	assert.Equal(t, "tools/bash", ov.Path)
	assert.Equal(t, "# Bash\nX", ov.Content)

	// esc closes the overlay but keeps the preview open
	m = update(t, m, key(tea.KeyEsc))
	assert.False(t, m.session.Overlay().Open())
	assert.Equal(t, phasePreview, m.phase)

	m, cmd = updateCmd(t, m, key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, preview.OverlayReady, m.session.Overlay().State)
	assert.Equal(t, []string{"runbooks/deploy", "tools/bash"}, src.calls)
}

func TestMainModel_FailedReference(t *testing.T) {
	src := newFakeSource()
	delete(src.content, "tools/bash2")
	m := openFirst(t, newTestModel(t, src))

	m, cmd := updateCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m = update(t, m, cmd())

	ov := m.session.Overlay()
	assert.Equal(t, preview.OverlayFailed, ov.State)
	assert.Equal(t, preview.FailedText, ov.Content)
	assert.Equal(t, 0, m.session.Cache().Len())
}

func TestMainModel_PreviewModeToggle(t *testing.T) {
	src := newFakeSource()
	m := openFirst(t, newTestModel(t, src))

	m = update(t, m, runes("p"))
	assert.False(t, m.session.Active())
	assert.Equal(t, -1, m.focus)

	m, cmd := updateCmd(t, m, key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.False(t, m.session.Overlay().Open())

	m = update(t, m, runes("p"))
	assert.True(t, m.session.Active())
	assert.Equal(t, 0, m.focus)
}

func TestMainModel_StaleFetchAfterClose(t *testing.T) {
	src := newFakeSource()
	m := openFirst(t, newTestModel(t, src))

	m, cmd := updateCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	old := m.session

	// leave the overlay and the preview before the fetch completes
	m = update(t, m, key(tea.KeyEsc))
	m = update(t, m, key(tea.KeyEsc))
	assert.Equal(t, phaseList, m.phase)
	assert.Nil(t, m.session)

	m = update(t, m, cmd())
	assert.Nil(t, m.session)
	assert.False(t, old.Overlay().Open())
}

func TestMainModel_NewSessionPerDocument(t *testing.T) {
	src := newFakeSource()
	m := openFirst(t, newTestModel(t, src))

	m, cmd := updateCmd(t, m, key(tea.KeyEnter))
	m = update(t, m, cmd())
	assert.Equal(t, 1, m.session.Cache().Len())

	m = update(t, m, key(tea.KeyEsc))
	m = update(t, m, key(tea.KeyEsc))
	m = openFirst(t, m)
	assert.Equal(t, 0, m.session.Cache().Len())
}

func TestMainModel_FilterDocs(t *testing.T) {
	m := newTestModel(t, newFakeSource())

	m.textInput.SetValue("bash2")
	m.filterDocs()
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "tools/bash2", m.filtered[0].summary.Path)

	m.textInput.SetValue("")
	m.filterDocs()
	assert.Len(t, m.filtered, 3)
}

func TestMainModel_OpenMissingDocument(t *testing.T) {
	src := newFakeSource()
	delete(src.content, "runbooks/deploy")
	m := newTestModel(t, src)

	m, cmd := updateCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m = update(t, m, cmd())

	assert.Equal(t, phaseList, m.phase)
	assert.Contains(t, m.status, "runbooks/deploy")
}
