package source

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// applyMeta resolves a metadata strategy key against the page's
// structured metadata. News sites that move their visible markup
// around usually keep OpenGraph tags and JSON-LD stable, so these
// serve as last-resort fallbacks.
//
// Key forms:
//
//	"og:title"              <meta property="og:title" content="...">
//	"name:description"      <meta name="description" content="...">
//	"jsonld:datePublished"  top-level field of an ld+json block
func applyMeta(page *pageContent, key string) []string {
	doc, err := page.goqueryDoc()
	if err != nil {
		return nil
	}

	if field, ok := strings.CutPrefix(key, "jsonld:"); ok {
		var vals []string
		doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
			if v := jsonLDField(sel.Text(), field); v != "" {
				vals = append(vals, v)
			}
		})
		return vals
	}

	attr := "property"
	name := key
	if n, ok := strings.CutPrefix(key, "name:"); ok {
		attr = "name"
		name = n
	}

	var vals []string
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		if v, _ := sel.Attr(attr); v == name {
			if content, ok := sel.Attr("content"); ok && strings.TrimSpace(content) != "" {
				vals = append(vals, content)
			}
		}
	})
	return vals
}

// jsonLDField pulls a top-level string field out of a JSON-LD block.
// Blocks may hold a single object, an array, or an @graph wrapper;
// malformed JSON is a miss.
func jsonLDField(raw, field string) string {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return ""
	}
	return jsonLDLookup(data, field)
}

func jsonLDLookup(data any, field string) string {
	switch v := data.(type) {
	case map[string]any:
		if s, ok := v[field].(string); ok && s != "" {
			return s
		}
		if graph, ok := v["@graph"]; ok {
			return jsonLDLookup(graph, field)
		}
	case []any:
		for _, entry := range v {
			if s := jsonLDLookup(entry, field); s != "" {
				return s
			}
		}
	}
	return ""
}
