package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"

	"github.com/gubarz/sopmd/internal/refs"
)

// textState tracks which inline styles apply to the current text run
type textState struct {
	bold    int
	italic  int
	code    int
	heading int
	marker  int // depth inside the current marker span, 0 outside
}

// renderHTML converts preview HTML to styled terminal text. The marker at
// index focus (in refs.Markers order) gets the focus style; pass -1 for none.
func renderHTML(src string, focus int) string {
	z := html.NewTokenizer(strings.NewReader(src))

	b := getBuilder()
	defer putBuilder(b)

	var st textState
	markerIdx := -1

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.WriteString(st.style(markerIdx == focus).Render(string(z.Text())))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "br":
				b.WriteString("\n")
			case "strong", "b":
				st.bold++
			case "em", "i":
				st.italic++
			case "code", "pre":
				st.code++
			case "h1", "h2", "h3", "h4", "h5", "h6":
				st.heading++
			case "span":
				switch {
				case st.marker > 0:
					st.marker++
				case hasAttr && hasPathAttr(z):
					st.marker = 1
					markerIdx++
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "strong", "b":
				st.bold = max(st.bold-1, 0)
			case "em", "i":
				st.italic = max(st.italic-1, 0)
			case "code", "pre":
				st.code = max(st.code-1, 0)
			case "h1", "h2", "h3", "h4", "h5", "h6":
				st.heading = max(st.heading-1, 0)
			case "span":
				st.marker = max(st.marker-1, 0)
			}
		}
	}
}

func (st textState) style(focused bool) lipgloss.Style {
	s := lipgloss.NewStyle()
	switch {
	case st.marker > 0 && focused:
		s = styles.RefFocus
	case st.marker > 0:
		s = styles.Ref
	case st.heading > 0:
		s = styles.Heading
	case st.code > 0:
		s = styles.Code
	}
	if st.bold > 0 {
		s = s.Bold(true)
	}
	if st.italic > 0 {
		s = s.Italic(true)
	}
	return s
}

func hasPathAttr(z *html.Tokenizer) bool {
	for {
		key, _, more := z.TagAttr()
		if string(key) == refs.PathAttr {
			return true
		}
		if !more {
			return false
		}
	}
}

// wrap soft-wraps styled text to width columns
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
