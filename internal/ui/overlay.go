package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/gubarz/sopmd/internal/preview"
)

const (
	overlayMaxWidth = 100
	overlayMargin   = 4
	overlayChrome   = 4 // border + title + help
)

// overlayView displays the referenced document over the preview
type overlayView struct {
	state    preview.Overlay
	viewport viewport.Model
	width    int
}

// set refreshes the overlay from the session's overlay state
func (o *overlayView) set(ov preview.Overlay, width, height int, logger zerolog.Logger) {
	width = min(width-overlayMargin, overlayMaxWidth)
	contentHeight := maxInt(height-overlayMargin-overlayChrome, 3)

	if o.state == ov && o.width == width && o.viewport.Height == contentHeight {
		return
	}
	o.state = ov
	o.width = width
	o.viewport = viewport.New(width-2, contentHeight)

	switch ov.State {
	case preview.OverlayReady:
		o.viewport.SetContent(renderMarkdown(ov.Content, width-4, logger))
	case preview.OverlayFailed:
		o.viewport.SetContent(styles.Error.Render(ov.Content))
	default:
		o.viewport.SetContent(styles.Dim.Render(ov.Content))
	}
}

// update forwards scroll keys to the overlay viewport
func (o *overlayView) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	o.viewport, cmd = o.viewport.Update(msg)
	return cmd
}

// view renders the overlay box
func (o overlayView) view() string {
	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(styles.Title.Render(o.state.Path))
	b.WriteString(styles.Dim.Render("  " + o.state.State.String()))
	b.WriteString("\n")
	b.WriteString(o.viewport.View())
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("↑/↓ scroll • esc close"))
	return styles.Border.Width(o.width).Render(b.String())
}

// renderMarkdown renders a raw document for the terminal, falling back to
// the raw text when glamour fails
func renderMarkdown(content string, width int, logger zerolog.Logger) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(maxInt(width, 20)),
	)
	if err != nil {
		logger.Debug().Err(err).Msg("create markdown renderer, showing raw content")
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		logger.Debug().Err(err).Msg("render markdown, showing raw content")
		return content
	}
	return strings.TrimSpace(rendered)
}
