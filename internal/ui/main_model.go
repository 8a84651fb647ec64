package ui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"

	"github.com/gubarz/sopmd/internal/preview"
	"github.com/gubarz/sopmd/internal/refs"
	"github.com/gubarz/sopmd/internal/sop"
)

// ============================================================================
// String Builder Pool - reduces GC pressure from rendering
// ============================================================================

var builderPool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

func getBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

func putBuilder(b *strings.Builder) {
	if b.Cap() < 64*1024 { // Don't pool huge builders
		builderPool.Put(b)
	}
}

// ============================================================================
// Document Item
// ============================================================================

// maxResults caps the filtered list to keep rendering fast
const maxResults = 1000

// docItem wraps a Summary with display metadata
type docItem struct {
	summary sop.Summary
	folder  string
	file    string
	search  string // text the fuzzy filter matches against
}

// newDocItem creates a docItem from a Summary
func newDocItem(s sop.Summary) docItem {
	folder := path.Dir(s.Path)
	if folder == "." {
		folder = ""
	}
	fields := append([]string{s.Path, s.ID, s.Title}, s.Aliases...)
	return docItem{
		summary: s,
		folder:  folder,
		file:    path.Base(s.Path),
		search:  strings.Join(fields, " "),
	}
}

// docSource adapts items for fuzzy.FindFrom
type docSource []docItem

func (d docSource) String(i int) string { return d[i].search }
func (d docSource) Len() int            { return len(d) }

// ============================================================================
// Debounce
// ============================================================================

// filterMsg triggers filtering after debounce
type filterMsg struct{}

// debounceFilter returns a command that triggers filtering after a delay
func debounceFilter() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return filterMsg{}
	})
}

// ============================================================================
// Main Model - Document List + Preview
// ============================================================================

// uiPhase represents which phase the TUI is in
type uiPhase int

const (
	phaseList    uiPhase = iota // Selecting a document
	phasePreview                // Previewing a document
)

// bodyLoadedMsg carries the body of the document being opened or reloaded
type bodyLoadedMsg struct {
	summary sop.Summary
	content string
	reload  bool
	err     error
}

// fetchResultMsg carries a referenced document back to the session that asked
type fetchResultMsg struct {
	session *preview.Session
	result  preview.FetchResult
}

// editorDoneMsg is sent when the external editor exits
type editorDoneMsg struct {
	err error
}

// filePather is implemented by sources whose documents live on disk
type filePather interface {
	FilePath(path string) (string, bool)
}

// Options configures the TUI
type Options struct {
	CacheSize int
	Editor    string
	Query     string
	Logger    zerolog.Logger
}

// mainModel is the Bubble Tea model for browsing and previewing documents
type mainModel struct {
	// Common state
	width     int
	height    int
	textInput textinput.Model
	quitting  bool
	status    string

	// Phase management
	phase uiPhase

	// List state
	summaries []sop.Summary
	docs      []docItem
	filtered  []docItem
	cursor    int
	offset    int // viewport scroll offset

	// Preview state (only used in phasePreview). The session lives exactly
	// as long as the document stays open.
	current  *sop.Summary
	session  *preview.Session
	viewport viewport.Model
	markers  []refs.Marker
	focus    int // focused marker, -1 for none
	overlay  overlayView

	// Dependencies
	ctx    context.Context
	source sop.Source
	opts   Options
}

// newMainModel creates a new mainModel over the given summaries
func newMainModel(ctx context.Context, summaries []sop.Summary, source sop.Source, opts Options) mainModel {
	ti := textinput.New()
	ti.Placeholder = "Type to search..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	items := make([]docItem, len(summaries))
	for i, s := range summaries {
		items[i] = newDocItem(s)
	}

	return mainModel{
		textInput: ti,
		phase:     phaseList,
		summaries: summaries,
		docs:      items,
		filtered:  items,
		focus:     -1,
		viewport:  viewport.New(80, 20),
		ctx:       ctx,
		source:    source,
		opts:      opts,
	}
}

// Init implements tea.Model
func (m mainModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 4
		m.resizePreview()
	case bodyLoadedMsg:
		return m.handleBodyLoaded(msg)
	case fetchResultMsg:
		// Results for a closed document only matter to its discarded cache
		if msg.session == m.session && m.session != nil {
			m.session.Resolve(msg.result)
			m.refreshOverlay()
		}
		return m, nil
	case editorDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("editor: %v", msg.err)
			return m, nil
		}
		if m.current != nil {
			return m, loadBody(m.ctx, m.source, *m.current, true)
		}
		return m, nil
	}

	switch m.phase {
	case phasePreview:
		return m.updatePreview(msg)
	default:
		return m.updateList(msg)
	}
}

// ============================================================================
// List Phase
// ============================================================================

// updateList handles updates during document selection
func (m mainModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd := m.handleListKey(msg); cmd != nil {
			return m, cmd
		}
	case filterMsg:
		m.filterDocs()
		return m, nil
	}

	prevQuery := m.textInput.Value()
	var tiCmd tea.Cmd
	m.textInput, tiCmd = m.textInput.Update(msg)
	cmds = append(cmds, tiCmd)

	// Only trigger debounced filter if query changed
	if m.textInput.Value() != prevQuery {
		cmds = append(cmds, debounceFilter())
	}

	return m, tea.Batch(cmds...)
}

// handleListKey processes keyboard input during document selection
func (m *mainModel) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return tea.Quit
	case "enter":
		if m.cursor < len(m.filtered) {
			m.status = ""
			return loadBody(m.ctx, m.source, m.filtered[m.cursor].summary, false)
		}
	case "up", "ctrl+p":
		m.moveCursor(-1)
	case "down", "ctrl+n":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-10)
	case "pgdown":
		m.moveCursor(10)
	case "home", "ctrl+a":
		m.cursor = 0
	case "end", "ctrl+e":
		m.cursor = max(0, len(m.filtered)-1)
	}
	return nil
}

// moveCursor moves the cursor by delta, clamping to valid range
func (m *mainModel) moveCursor(delta int) {
	m.cursor += delta
	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// adjustOffset ensures cursor is visible within viewport
func (m *mainModel) adjustOffset() {
	viewHeight := maxInt(m.height-10, 3) // approximate list height
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+viewHeight {
		m.offset = m.cursor - viewHeight + 1
	}
	maxOffset := max(0, len(m.filtered)-viewHeight)
	m.offset = clamp(m.offset, 0, maxOffset)
}

// filterDocs filters the document list with the fuzzy query, best first
func (m *mainModel) filterDocs() {
	query := strings.TrimSpace(m.textInput.Value())

	if query == "" {
		m.filtered = m.docs
	} else {
		matches := fuzzy.FindFrom(query, docSource(m.docs))
		m.filtered = make([]docItem, 0, min(len(matches), maxResults))
		for _, match := range matches {
			m.filtered = append(m.filtered, m.docs[match.Index])
			if len(m.filtered) >= maxResults {
				break
			}
		}
	}

	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// loadBody fetches a document body in the background
func loadBody(ctx context.Context, source sop.Fetcher, s sop.Summary, reload bool) tea.Cmd {
	return func() tea.Msg {
		content, err := source.FetchRaw(ctx, s.Path)
		return bodyLoadedMsg{summary: s, content: content, reload: reload, err: err}
	}
}

// handleBodyLoaded opens a new preview session, or refreshes the current one
func (m mainModel) handleBodyLoaded(msg bodyLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.opts.Logger.Error().Err(msg.err).Str("path", msg.summary.Path).Msg("load document")
		m.status = fmt.Sprintf("could not open %s: %v", msg.summary.Path, msg.err)
		return m, nil
	}

	if msg.reload && m.session != nil && m.current != nil && m.current.Path == msg.summary.Path {
		m.session.Load(msg.content)
		m.status = "reloaded"
		m.refreshPreview()
		return m, nil
	}

	summary := msg.summary
	m.current = &summary
	m.session = preview.NewSession(m.source, m.opts.CacheSize, m.opts.Logger)
	m.session.SetDocuments(m.summaries)
	m.session.Load(msg.content)
	m.session.Activate()
	m.phase = phasePreview
	m.focus = -1
	m.resizePreview()
	m.refreshPreview()
	if len(m.markers) > 0 {
		m.focus = 0
		m.refreshPreview()
	}
	m.viewport.GotoTop()
	return m, nil
}

// ============================================================================
// Preview Phase
// ============================================================================

// updatePreview handles updates while a document is open
func (m mainModel) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.session.Overlay().Open() {
				return m, m.click("")
			}
			m.closePreview()
			return m, nil
		case "x":
			// Activation outside any marker
			return m, m.click("")
		case "tab":
			m.moveFocus(1)
			return m, nil
		case "shift+tab":
			m.moveFocus(-1)
			return m, nil
		case "enter":
			return m, m.activateFocused()
		case "p":
			m.togglePreviewMode()
			return m, nil
		case "e":
			return m, m.editCurrent()
		}
	}

	if m.session.Overlay().Open() {
		return m, m.overlay.update(msg)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// click activates the element at path ("" for anything that is not a
// marker) and returns the fetch to run, if any
func (m *mainModel) click(path string) tea.Cmd {
	_, fetch := m.session.Click(path)
	m.refreshOverlay()
	if fetch == nil {
		return nil
	}

	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return fetchResultMsg{session: session, result: fetch(ctx)}
	}
}

// activateFocused clicks the focused marker
func (m *mainModel) activateFocused() tea.Cmd {
	if !m.session.Active() || m.focus < 0 || m.focus >= len(m.markers) {
		return nil
	}
	return m.click(m.markers[m.focus].Path)
}

// moveFocus cycles focus through the markers
func (m *mainModel) moveFocus(delta int) {
	if !m.session.Active() || len(m.markers) == 0 || m.session.Overlay().Open() {
		return
	}
	m.focus = (m.focus + delta + len(m.markers)) % len(m.markers)
	m.refreshPreview()
}

// togglePreviewMode switches between highlighted preview and raw body.
// Clicks are only handled while the preview is shown.
func (m *mainModel) togglePreviewMode() {
	if m.session.Active() {
		m.session.Deactivate()
		m.focus = -1
	} else {
		m.session.Activate()
		if len(m.session.Markers()) > 0 {
			m.focus = 0
		}
	}
	m.refreshOverlay()
	m.refreshPreview()
}

// closePreview discards the session and returns to the list
func (m *mainModel) closePreview() {
	m.session.Deactivate()
	m.session = nil
	m.current = nil
	m.markers = nil
	m.focus = -1
	m.phase = phaseList
}

// editCurrent opens the current document in the configured editor
func (m *mainModel) editCurrent() tea.Cmd {
	fp, ok := m.source.(filePather)
	if !ok || m.current == nil {
		m.status = "editing needs a local document path"
		return nil
	}
	file, ok := fp.FilePath(m.current.Path)
	if !ok {
		m.status = "no file for " + m.current.Path
		return nil
	}

	args := strings.Fields(m.opts.Editor)
	if len(args) == 0 {
		openFileInViewer(file)
		return nil
	}
	c := exec.Command(args[0], append(args[1:], file)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorDoneMsg{err: err}
	})
}

// resizePreview fits the preview viewport to the window
func (m *mainModel) resizePreview() {
	width := maxInt(m.width, 80)
	height := maxInt(m.height, 24)
	m.viewport.Width = width
	m.viewport.Height = maxInt(height-4, 3) // title, two dividers, help
	if m.session != nil {
		m.refreshPreview()
		m.refreshOverlay()
	}
}

// refreshPreview re-renders the viewport content from the session
func (m *mainModel) refreshPreview() {
	if m.session == nil {
		return
	}
	m.markers = m.session.Markers()
	if m.focus >= len(m.markers) {
		m.focus = len(m.markers) - 1
	}

	var content string
	if m.session.Active() {
		content = renderHTML(m.session.HTML(), m.focus)
	} else {
		content = m.session.Body()
	}
	m.viewport.SetContent(wrap(content, m.viewport.Width))
}

// refreshOverlay syncs the overlay view with the session
func (m *mainModel) refreshOverlay() {
	if m.session == nil {
		return
	}
	if ov := m.session.Overlay(); ov.Open() {
		m.overlay.set(ov, maxInt(m.width, 80), maxInt(m.height, 24), m.opts.Logger)
	}
}

// ============================================================================
// View
// ============================================================================

// View implements tea.Model
func (m mainModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case phasePreview:
		return m.renderPreviewPhase()
	default:
		return m.renderListPhase()
	}
}

// renderListPhase builds the document selection view
func (m mainModel) renderListPhase() string {
	width := maxInt(m.width, 80)
	height := maxInt(m.height, 24)

	summary := m.renderSummary(width)
	summaryLines := countLines(summary)

	inputLines := 3 // divider + info + input
	listHeight := maxInt(height-summaryLines-inputLines, 3)
	list := m.renderList(listHeight)
	listLines := countLines(list)

	padding := maxInt(height-summaryLines-listLines-inputLines, 0)

	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(summary)
	b.WriteString(list)
	b.WriteString(strings.Repeat("\n", padding))
	b.WriteString(m.renderInput(width))

	return b.String()
}

// renderSummary renders details of the selected document
func (m mainModel) renderSummary(width int) string {
	b := getBuilder()
	defer putBuilder(b)
	lines := 0
	const maxLines = 4

	if m.cursor < len(m.filtered) {
		s := m.filtered[m.cursor].summary
		b.WriteString(styles.Path.Render(s.Path))
		b.WriteString("\n")
		lines++

		b.WriteString(styles.Title.Render(s.DisplayName()))
		b.WriteString("\n")
		lines++

		if s.Description != "" {
			b.WriteString(styles.Desc.Render(truncateString(s.Description, width)))
			b.WriteString("\n")
			lines++
		}

		if refs := refNames(s); refs != "" {
			b.WriteString(styles.Dim.Render(truncateString("aka "+refs, width)))
			b.WriteString("\n")
			lines++
		}
	}

	// Pad to fixed height
	for lines < maxLines {
		b.WriteString("\n")
		lines++
	}

	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")

	return b.String()
}

// refNames lists the id and aliases a document can be referred by
func refNames(s sop.Summary) string {
	var names []string
	if s.ID != "" {
		names = append(names, s.ID)
	}
	names = append(names, s.Aliases...)
	return strings.Join(names, ", ")
}

// renderList renders the scrollable list of documents
func (m *mainModel) renderList(maxHeight int) string {
	if len(m.filtered) == 0 {
		return ""
	}

	start, end := scrollWindow(m.cursor, len(m.filtered), maxHeight, &m.offset)

	b := getBuilder()
	defer putBuilder(b)
	for i := start; i < end; i++ {
		b.WriteString(m.renderListItem(m.filtered[i], i == m.cursor))
		b.WriteString("\n")
	}

	return b.String()
}

// renderListItem renders a single list item
func (m mainModel) renderListItem(item docItem, selected bool) string {
	pStyle, tStyle, dStyle := styles.Path, styles.Title, styles.Desc
	if selected {
		pStyle = styles.WithSelection(pStyle)
		tStyle = styles.WithSelection(tStyle)
		dStyle = styles.WithSelection(dStyle)
	}

	pathPart := item.file
	if item.folder != "" {
		pathPart = item.folder + "/" + item.file
	}
	line := pStyle.Render(pathPart)
	if item.summary.Title != "" {
		line += tStyle.Render("  " + item.summary.Title)
	}
	if item.summary.Description != "" {
		line += dStyle.Render("  " + truncateString(item.summary.Description, 60))
	}

	if selected {
		return styles.Cursor.Render("▶ ") + line
	}
	return "  " + line
}

// renderInput renders the input section at the bottom
func (m mainModel) renderInput(width int) string {
	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %d/%d", len(m.filtered), len(m.docs))))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("Enter open"))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("ESC exit"))
	if m.status != "" {
		b.WriteString(" • ")
		b.WriteString(styles.Error.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	return b.String()
}

// renderPreviewPhase builds the preview view with the overlay on top
func (m mainModel) renderPreviewPhase() string {
	width := maxInt(m.width, 80)

	b := getBuilder()
	defer putBuilder(b)

	mode := "preview"
	if !m.session.Active() {
		mode = "source"
	}
	b.WriteString(styles.Title.Render(m.current.DisplayName()))
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %s • %s", m.current.Path, mode)))
	b.WriteString("\n")
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")

	if m.session.Overlay().Open() {
		b.WriteString(lipgloss.Place(width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.overlay.view()))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	help := "Tab next ref • Enter open ref • p source/preview • e edit • ESC back"
	if len(m.markers) > 0 && m.focus >= 0 {
		help = fmt.Sprintf("ref %d/%d → %s • ", m.focus+1, len(m.markers), m.markers[m.focus].Path) + help
	}
	b.WriteString(styles.Dim.Render(truncateString(help, width)))
	if m.status != "" {
		b.WriteString(" ")
		b.WriteString(styles.Error.Render(m.status))
	}
	return b.String()
}

// ============================================================================
// Run TUI
// ============================================================================

// getTTY returns file handles for TUI input/output
// Uses /dev/tty to bypass shell pipes and command substitution
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()

	// If stdout is not a terminal (piped or captured by $()), use /dev/tty
	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		out, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			out = os.Stderr // Last resort fallback
		} else {
			closers = append(closers, func() { out.Close() })
		}

		in, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			in = os.Stdin
		} else {
			closers = append(closers, func() { in.Close() })
		}

		// Tell lipgloss to use the TTY for color detection
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

		return in, out, func() {
			for _, c := range closers {
				c()
			}
		}
	}

	return os.Stdin, os.Stdout, func() {}
}

// RunTUI launches the Bubble Tea interface over the given documents
func RunTUI(ctx context.Context, summaries []sop.Summary, source sop.Source, opts Options) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no documents found")
	}

	m := newMainModel(ctx, summaries, source, opts)
	if opts.Query != "" {
		m.textInput.SetValue(opts.Query)
		m.filterDocs()
	}

	ttyIn, ttyOut, cleanup := getTTY()
	RefreshStyles() // Refresh after getTTY sets up the renderer
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithOutput(ttyOut),
		tea.WithInput(ttyIn),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	cleanup()

	return err
}

// ============================================================================
// Helpers
// ============================================================================

func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n")
}

// scrollWindow returns the visible [start, end) range keeping cursor in view
func scrollWindow(cursor, total, height int, offset *int) (start, end int) {
	if cursor < *offset {
		*offset = cursor
	}
	if cursor >= *offset+height {
		*offset = cursor - height + 1
	}
	start = *offset
	end = min(start+height, total)
	return start, end
}

// truncateString cuts s to maxLen terminal cells, ellipsis included
func truncateString(s string, maxLen int) string {
	if maxLen <= 1 || lipgloss.Width(s) <= maxLen {
		return s
	}
	return ansi.Truncate(s, maxLen, "…")
}

// openFileInViewer opens the file with the system default handler
func openFileInViewer(filePath string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", filePath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", filePath)
	default: // linux, freebsd, etc.
		cmd = exec.Command("xdg-open", filePath)
	}
	_ = cmd.Start()
}
