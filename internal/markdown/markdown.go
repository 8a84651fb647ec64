// Package markdown converts SOP document bodies to HTML for preview.
//
// The conversion is a fixed chain of whole-text substitutions, each applied to
// the output of the previous one. It understands headings, emphasis, fenced
// and inline code, and line breaks, and nothing else. Raw HTML in the source
// passes through untouched: documents are written by trusted operators.
package markdown

import "regexp"

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Order matters: "## " before "# ", bold before italic so "**" is not read
// as two "*", fenced blocks before inline code.
var rules = []rule{
	{regexp.MustCompile(`(?m)^## (.*)$`), "<h2>${1}</h2>"},
	{regexp.MustCompile(`(?m)^# (.*)$`), "<h1>${1}</h1>"},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "<strong>${1}</strong>"},
	{regexp.MustCompile(`\*(.+?)\*`), "<em>${1}</em>"},
	// The language tag runs to the end of the opening line
	{regexp.MustCompile("(?s)```[^\\n`]*\\n(.*?)```"), "<pre><code>${1}</code></pre>"},
	{regexp.MustCompile("(?s)```(.+?)```"), "<pre><code>${1}</code></pre>"},
	{regexp.MustCompile("`(.+?)`"), "<code>${1}</code>"},
	{regexp.MustCompile(`\n`), "<br>"},
}

// Render converts src to HTML. It never fails; empty input yields empty output.
func Render(src string) string {
	out := src
	for _, r := range rules {
		out = r.re.ReplaceAllString(out, r.repl)
	}
	return out
}
