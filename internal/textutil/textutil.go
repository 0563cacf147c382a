// Package textutil cleans markup out of extracted strings and
// collapses whitespace into the canonical stored form.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// CleanHTML strips all markup from an HTML fragment and returns its
// text content, with block boundaries joined by single spaces. The
// parser is best-effort: malformed input degrades to whatever text can
// be recovered, it never fails.
func CleanHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	// html.Parse repairs broken markup instead of erroring; the only
	// failure mode is a reader error, which strings.Reader never has.
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return Normalize(fragment)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return Normalize(strings.Join(parts, " "))
}

// Normalize collapses every run of whitespace (spaces, tabs, newlines)
// to a single space and trims the ends. Idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Preview returns the first n runes of s, for skip diagnostics.
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
