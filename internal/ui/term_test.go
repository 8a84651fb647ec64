package ui

import (
	"regexp"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text",
			in:   "hello",
			want: "hello",
		},
		{
			name: "line breaks",
			in:   "a<br>b<br>c",
			want: "a\nb\nc",
		},
		{
			name: "inline tags dropped",
			in:   "<h1>Deploy</h1><br><strong>run</strong> <em>now</em> <code>x</code>",
			want: "Deploy\nrun now x",
		},
		{
			name: "marker text kept",
			in:   `use <span class="doc-ref" data-doc-path="tools/bash">bash</span> here`,
			want: "use bash here",
		},
		{
			name: "entities decoded",
			in:   "a &lt;b&gt; &amp; c",
			want: "a <b> & c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripANSI(renderHTML(tt.in, -1)))
		})
	}
}

func TestRenderHTML_FocusDoesNotChangeText(t *testing.T) {
	in := `<span class="doc-ref" data-doc-path="a">x</span> and <span class="doc-ref" data-doc-path="b">y</span>`
	for focus := -1; focus < 3; focus++ {
		assert.Equal(t, "x and y", stripANSI(renderHTML(in, focus)))
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd…", truncateString("abcdefgh", 5))
	assert.Equal(t, "abc", truncateString("abc", 0))
}

func TestTruncateString_Multibyte(t *testing.T) {
	help := "ref 2/2 → tools/bash • Tab next ref • Enter open ref • p source/preview • e edit • ESC back"
	for width := 2; width <= lipgloss.Width(help); width++ {
		got := truncateString(help, width)
		require.True(t, utf8.ValidString(got), "width %d: %q", width, got)
		assert.LessOrEqual(t, lipgloss.Width(got), width, "width %d", width)
	}
	assert.Equal(t, "ref 2/2 →…", truncateString(help, 10))
	assert.Equal(t, "→→", truncateString("→→", 2))
}

func TestScrollWindow(t *testing.T) {
	offset := 0
	start, end := scrollWindow(0, 10, 3, &offset)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)

	start, end = scrollWindow(5, 10, 3, &offset)
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)

	start, end = scrollWindow(1, 10, 3, &offset)
	assert.Equal(t, 1, start)
	assert.Equal(t, 4, end)
}
