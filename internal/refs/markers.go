package refs

import (
	"strings"

	"golang.org/x/net/html"
)

// Marker is a reference marker found in highlighted HTML.
type Marker struct {
	Path string // target document
	Text string // visible text, character references decoded
}

// Markers lists the outermost reference markers of src in document order.
func Markers(src string) []Marker {
	z := html.NewTokenizer(strings.NewReader(src))

	var (
		markers []Marker
		current *Marker
		text    strings.Builder
		depth   int
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			return markers
		case html.TextToken:
			if depth > 0 {
				text.Write(z.Text())
			}
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "span" {
				continue
			}
			if depth > 0 {
				depth++
				continue
			}
			if !hasAttr {
				continue
			}
			if path, ok := markerPath(z); ok {
				current = &Marker{Path: path}
				text.Reset()
				depth = 1
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) != "span" || depth == 0 {
				continue
			}
			depth--
			if depth == 0 && current != nil {
				current.Text = text.String()
				markers = append(markers, *current)
				current = nil
			}
		}
	}
}

func markerPath(z *html.Tokenizer) (string, bool) {
	for {
		key, val, more := z.TagAttr()
		if string(key) == PathAttr {
			return string(val), true
		}
		if !more {
			return "", false
		}
	}
}
