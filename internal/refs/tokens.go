// Package refs finds mentions of known SOP documents in rendered HTML and
// wraps each one in a reference marker carrying the target document path.
package refs

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gubarz/sopmd/internal/sop"
)

// Token is a string by which a document may be referred to in free text.
type Token struct {
	Text string
	Path string
}

// Tokens builds the matching order for docs: every path, id, filename stem
// and alias, longest first, each literal string kept once. When two
// documents claim the same string the one listed first wins.
func Tokens(docs []sop.Summary) []Token {
	var candidates []Token
	for _, d := range docs {
		if d.Path == "" {
			continue
		}
		candidates = append(candidates, Token{Text: d.Path, Path: d.Path})
		if d.ID != "" && d.ID != d.Path {
			candidates = append(candidates, Token{Text: d.ID, Path: d.Path})
		}
		if stem := d.Stem(); stem != "" && stem != d.Path {
			candidates = append(candidates, Token{Text: stem, Path: d.Path})
		}
		for _, alias := range d.Aliases {
			if alias != "" {
				candidates = append(candidates, Token{Text: alias, Path: d.Path})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i].Text) > utf8.RuneCountInString(candidates[j].Text)
	})

	seen := make(map[string]bool, len(candidates))
	tokens := make([]Token, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		if !hasAlnum(c.Text) {
			continue
		}
		tokens = append(tokens, c)
	}
	return tokens
}

func hasAlnum(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// hasSeparator reports whether a token looks like a path. Word boundaries
// are not meaningful around separators, so such tokens match literally.
func hasSeparator(s string) bool {
	return strings.ContainsAny(s, `/\`)
}
