package refs

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/gubarz/sopmd/internal/sop"
)

const (
	// MarkerClass is the class attribute of every reference marker.
	MarkerClass = "doc-ref"
	// PathAttr holds the canonical path of the referenced document.
	PathAttr = "data-doc-path"
)

// Character references are opaque: a match inside "&amp;" would change the
// visible text once wrapped.
var charRefRe = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// Text inside these elements is not rendered as prose. The tokenizer reads
// all of them as raw text.
var rawTextTags = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"textarea":  true,
	"title":     true,
	"xmp":       true,
}

type matcher struct {
	token Token
	re    *regexp.Regexp
	// bounded matches must not touch a word character on either side
	bounded bool
}

// Index holds compiled matchers for a set of documents. Build a new Index
// whenever the document set changes.
type Index struct {
	tokens   []Token
	matchers []matcher
}

// NewIndex compiles the tokens of docs in matching order.
func NewIndex(docs []sop.Summary) *Index {
	tokens := Tokens(docs)
	ix := &Index{
		tokens:   tokens,
		matchers: make([]matcher, 0, len(tokens)),
	}
	for _, t := range tokens {
		ix.matchers = append(ix.matchers, matcher{
			token:   t,
			re:      regexp.MustCompile(regexp.QuoteMeta(t.Text)),
			bounded: !hasSeparator(t.Text),
		})
	}
	return ix
}

// Tokens returns the tokens in the order they are applied.
func (ix *Index) Tokens() []Token {
	return ix.tokens
}

// Highlight is shorthand for NewIndex(docs).Highlight(src).
func Highlight(src string, docs []sop.Summary) string {
	return NewIndex(docs).Highlight(src)
}

// piece is a run of the source. Tags and comments are opaque; text pieces
// may be matched unless they already belong to a marker.
type piece struct {
	raw  string
	text bool
	path string // set once wrapped by this pass
}

// Highlight wraps every occurrence of a known token in the text of src with
// a marker. Tokens are applied longest first, each over the result of the
// previous ones. Text already inside a marker, whether produced here or
// present in src, is never matched again, so markers never nest. Only text
// nodes are matched; tag names and attributes are left alone.
func (ix *Index) Highlight(src string) string {
	if len(ix.matchers) == 0 || src == "" {
		return src
	}

	pieces := split(src)
	for _, m := range ix.matchers {
		pieces = m.apply(pieces)
	}

	var b strings.Builder
	b.Grow(len(src))
	for _, p := range pieces {
		if p.path == "" {
			b.WriteString(p.raw)
			continue
		}
		b.WriteString(`<span class="` + MarkerClass + `" ` + PathAttr + `="`)
		b.WriteString(html.EscapeString(p.path))
		b.WriteString(`">`)
		b.WriteString(p.raw)
		b.WriteString(`</span>`)
	}
	return b.String()
}

// split tokenizes src into pieces whose concatenation is src.
func split(src string) []piece {
	z := html.NewTokenizer(strings.NewReader(src))

	var pieces []piece
	markerDepth := 0
	inRawText := false

	for {
		tt := z.Next()
		// Raw must be copied before TagName, which lower-cases in place.
		raw := string(z.Raw())

		switch tt {
		case html.ErrorToken:
			if raw != "" {
				pieces = append(pieces, piece{raw: raw})
			}
			return pieces
		case html.TextToken:
			pieces = append(pieces, piece{raw: raw, text: markerDepth == 0 && !inRawText})
			continue
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			switch {
			case tag == "span" && markerDepth > 0:
				markerDepth++
			case tag == "span" && hasAttr && isMarker(z):
				markerDepth = 1
			case rawTextTags[tag]:
				inRawText = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "span" && markerDepth > 0:
				markerDepth--
			case rawTextTags[tag]:
				inRawText = false
			}
		}
		pieces = append(pieces, piece{raw: raw})
	}
}

func isMarker(z *html.Tokenizer) bool {
	for {
		key, _, more := z.TagAttr()
		if string(key) == PathAttr {
			return true
		}
		if !more {
			return false
		}
	}
}

func (m matcher) apply(pieces []piece) []piece {
	out := make([]piece, 0, len(pieces))
	for _, p := range pieces {
		if !p.text || p.path != "" {
			out = append(out, p)
			continue
		}

		locs := m.find(p.raw)
		if locs == nil {
			out = append(out, p)
			continue
		}

		prev := 0
		for _, loc := range locs {
			if loc[0] > prev {
				out = append(out, piece{raw: p.raw[prev:loc[0]], text: true})
			}
			out = append(out, piece{raw: p.raw[loc[0]:loc[1]], text: true, path: m.token.Path})
			prev = loc[1]
		}
		if prev < len(p.raw) {
			out = append(out, piece{raw: p.raw[prev:], text: true})
		}
	}
	return out
}

// find returns the non-overlapping matches in s that respect word
// boundaries and do not cut into a character reference. A rejected match
// resumes the search one rune later, so an overlapping valid match is not
// lost.
func (m matcher) find(s string) [][]int {
	var refs [][]int
	if strings.IndexByte(s, '&') >= 0 {
		refs = charRefRe.FindAllStringIndex(s, -1)
	}

	var locs [][]int
	for pos := 0; pos < len(s); {
		loc := m.re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if (m.bounded && !atBoundary(s, start, end)) || overlapsAny([]int{start, end}, refs) {
			_, size := utf8.DecodeRuneInString(s[start:])
			pos = start + size
			continue
		}
		locs = append(locs, []int{start, end})
		pos = end
	}
	return locs
}

// atBoundary reports whether s[start:end] has no word character directly
// before or after it. Piece edges count as boundaries: they sit next to
// markup.
func atBoundary(s string, start, end int) bool {
	if r, _ := utf8.DecodeLastRuneInString(s[:start]); start > 0 && isWordRune(r) {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(s[end:]); end < len(s) && isWordRune(r) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func overlapsAny(loc []int, spans [][]int) bool {
	for _, s := range spans {
		if loc[0] < s[1] && s[0] < loc[1] {
			return true
		}
	}
	return false
}
