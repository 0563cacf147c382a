// Package source holds the per-site adapter profiles and the strategy
// engine that turns a fetched page into raw article fields. Adapters
// are data, not code: adding a site means registering a Profile.
package source

import "github.com/sesgocero/crawler/internal/dateparse"

// Field names used by extraction strategies and required-field
// policies.
const (
	FieldTitle    = "title"
	FieldSubtitle = "subtitle"
	FieldContent  = "content"
	FieldDate     = "date"
)

// Strategy kinds.
const (
	KindCSS   = "css"
	KindXPath = "xpath"
	KindRegex = "regex"
	KindMeta  = "meta"
)

// Strategy is one way to locate a field on a page. Strategies for a
// field are tried in order; the first non-empty match wins, and a
// failing strategy counts as a miss rather than an error.
type Strategy struct {
	// Kind is css, xpath, regex, or meta.
	Kind string

	// Selector is the CSS selector, XPath expression, or metadata
	// key (e.g. "og:title", "jsonld:datePublished").
	Selector string

	// Attr extracts an attribute value instead of text content
	// (css/xpath only).
	Attr string

	// Pattern is the regular expression for regex strategies; the
	// first capture group is the value.
	Pattern string
}

// CSS builds a css text strategy.
func CSS(selector string) Strategy { return Strategy{Kind: KindCSS, Selector: selector} }

// CSSAttr builds a css attribute strategy.
func CSSAttr(selector, attr string) Strategy {
	return Strategy{Kind: KindCSS, Selector: selector, Attr: attr}
}

// XPath builds an xpath text strategy.
func XPath(expr string) Strategy { return Strategy{Kind: KindXPath, Selector: expr} }

// Regex builds a raw-body regex strategy.
func Regex(pattern string) Strategy { return Strategy{Kind: KindRegex, Pattern: pattern} }

// Meta builds a page-metadata strategy (OpenGraph or JSON-LD).
func Meta(key string) Strategy { return Strategy{Kind: KindMeta, Selector: key} }

// Profile describes one news source: where its listing pages live,
// how to find article links, and how to pull each field out of an
// article page.
type Profile struct {
	// ID is the registry key ("el_espectador").
	ID string

	// Name is the human-readable publisher name stored on records.
	Name string

	// StartURLs are the listing pages that seed a crawl.
	StartURLs []string

	// Listing locates article links on a listing page. Each
	// strategy should yield href values.
	Listing []Strategy

	// Fields maps a field name to its ordered strategy list.
	Fields map[string][]Strategy

	// Required lists the fields that must be non-empty after
	// normalization for a record to be emitted.
	Required []string

	// DateConvention carries the source's date-string quirks.
	DateConvention dateparse.Convention

	// FetcherType overrides the configured fetcher ("browser" for
	// sources that render articles client-side). Empty = default.
	FetcherType string
}

// Requires reports whether the profile's policy lists the field.
func (p *Profile) Requires(field string) bool {
	for _, f := range p.Required {
		if f == field {
			return true
		}
	}
	return false
}

// RawFields carries the raw extractor output for one article page.
// Values are untrimmed and may still contain markup; normalization
// happens in the assembler.
type RawFields struct {
	Title    string
	Subtitle string
	Content  []string
	DateRaw  string
}
