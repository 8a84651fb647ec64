package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "headings keep their level and order",
			in:   "# A\n## B",
			want: "<h1>A</h1><br><h2>B</h2>",
		},
		{
			name: "third level heading is plain text",
			in:   "### C",
			want: "### C",
		},
		{
			name: "heading marker must start the line",
			in:   "see # not a heading",
			want: "see # not a heading",
		},
		{
			name: "bold",
			in:   "run **now** please",
			want: "run <strong>now</strong> please",
		},
		{
			name: "bold is non-greedy",
			in:   "**a** and **b**",
			want: "<strong>a</strong> and <strong>b</strong>",
		},
		{
			name: "italic after bold",
			in:   "**bold** *soft*",
			want: "<strong>bold</strong> <em>soft</em>",
		},
		{
			name: "emphasis does not span lines",
			in:   "*a\nb*",
			want: "*a<br>b*",
		},
		{
			name: "fenced block drops the language tag",
			in:   "```bash\nls -la\n```",
			want: "<pre><code>ls -la<br></code></pre>",
		},
		{
			name: "language tag with symbols",
			in:   "```c++\nint x;\n```",
			want: "<pre><code>int x;<br></code></pre>",
		},
		{
			name: "hyphenated language tag",
			in:   "```objective-c\nx\n```",
			want: "<pre><code>x<br></code></pre>",
		},
		{
			name: "single line fence keeps all content",
			in:   "```ls -la```",
			want: "<pre><code>ls -la</code></pre>",
		},
		{
			name: "fence without tag",
			in:   "```\nls\n```",
			want: "<pre><code>ls<br></code></pre>",
		},
		{
			name: "inline code",
			in:   "call `deploy` first",
			want: "call <code>deploy</code> first",
		},
		{
			name: "raw html passes through",
			in:   "<b>x</b>",
			want: "<b>x</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
		})
	}
}

func TestRender_PlainTextOnlyGainsLineBreaks(t *testing.T) {
	inputs := []string{
		"just text",
		"line one\nline two\n",
		"\n\n",
		"numbers 1 2 3, punctuation: ok!",
		"tools/bash and bash2",
	}

	for _, in := range inputs {
		want := strings.ReplaceAll(in, "\n", "<br>")
		assert.Equal(t, want, Render(in), "input %q", in)
	}
}

func TestRender_HeadingCount(t *testing.T) {
	in := "# One\ntext\n## Two\n# Three\n## Four\n## Five"
	out := Render(in)

	assert.Equal(t, 2, strings.Count(out, "<h1>"))
	assert.Equal(t, 3, strings.Count(out, "<h2>"))
	assert.Less(t, strings.Index(out, "<h1>One"), strings.Index(out, "<h2>Two"))
}
