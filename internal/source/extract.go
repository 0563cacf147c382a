package source

import (
	"bytes"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/sesgocero/crawler/internal/types"
)

// Extractor applies a profile's strategies to fetched pages.
type Extractor struct {
	logger *slog.Logger

	mu      sync.Mutex
	regexes map[string]*regexp.Regexp
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger:  logger.With("component", "extractor"),
		regexes: make(map[string]*regexp.Regexp),
	}
}

// Extract pulls the raw article fields out of a page using the
// profile's per-field strategy lists. Missing fields come back empty;
// the required-field policy is enforced later by the assembler.
func (e *Extractor) Extract(resp *types.Response, p *Profile) RawFields {
	page := e.newPage(resp)

	return RawFields{
		Title:    e.first(page, p, FieldTitle),
		Subtitle: e.first(page, p, FieldSubtitle),
		Content:  e.all(page, p, FieldContent),
		DateRaw:  e.first(page, p, FieldDate),
	}
}

// Discover extracts candidate article URLs from a listing page,
// resolved against the page's base URL. No deduplication happens
// here: the store's identity constraint is the final gate, and
// visiting a URL twice is harmless under idempotent upsert.
func (e *Extractor) Discover(resp *types.Response, p *Profile) []string {
	page := e.newPage(resp)

	base, err := url.Parse(resp.FinalURL)
	if err != nil {
		e.logger.Warn("unparseable base URL", "url", resp.FinalURL, "error", err)
		return nil
	}

	var links []string
	for _, strat := range p.Listing {
		hrefs := e.apply(page, p, "listing", strat, true)
		if len(hrefs) == 0 {
			continue
		}
		for _, href := range hrefs {
			if abs, ok := resolveLink(base, href); ok {
				links = append(links, abs)
			}
		}
		break
	}
	return links
}

// first returns the first non-empty match for the field.
func (e *Extractor) first(page *pageContent, p *Profile, field string) string {
	for _, strat := range p.Fields[field] {
		if vals := e.apply(page, p, field, strat, false); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// all returns every match of the first strategy that produces any.
// Content is assembled from all matched blocks in document order.
func (e *Extractor) all(page *pageContent, p *Profile, field string) []string {
	for _, strat := range p.Fields[field] {
		if vals := e.apply(page, p, field, strat, true); len(vals) > 0 {
			return vals
		}
	}
	return nil
}

// apply runs a single strategy. Any strategy failure is logged and
// treated as a miss for that strategy, never as a fatal page error.
func (e *Extractor) apply(page *pageContent, p *Profile, field string, strat Strategy, multi bool) []string {
	var (
		vals []string
		err  error
	)

	switch strat.Kind {
	case KindCSS, "":
		vals, err = e.applyCSS(page, strat, multi)
	case KindXPath:
		vals, err = e.applyXPath(page, strat, multi)
	case KindRegex:
		vals, err = e.applyRegex(page, strat, multi)
	case KindMeta:
		vals = applyMeta(page, strat.Selector)
	default:
		e.logger.Warn("unknown strategy kind", "kind", strat.Kind, "source", p.ID, "field", field)
		return nil
	}

	if err != nil {
		e.logger.Warn("strategy miss",
			"source", p.ID,
			"field", field,
			"kind", strat.Kind,
			"selector", strat.Selector,
			"error", err,
		)
		return nil
	}
	return vals
}

func (e *Extractor) applyCSS(page *pageContent, strat Strategy, multi bool) ([]string, error) {
	doc, err := page.goqueryDoc()
	if err != nil {
		return nil, err
	}

	var vals []string
	doc.Find(strat.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var val string
		switch strat.Attr {
		case "", "text":
			// Keep the inner HTML so the normalizer can join block
			// boundaries properly; goquery's Text() flattens them.
			val, _ = sel.Html()
		default:
			val, _ = sel.Attr(strat.Attr)
		}
		if strings.TrimSpace(val) != "" {
			vals = append(vals, val)
		}
		return multi || len(vals) == 0
	})
	return vals, nil
}

func (e *Extractor) applyXPath(page *pageContent, strat Strategy, multi bool) ([]string, error) {
	root, err := page.htmlNode()
	if err != nil {
		return nil, err
	}

	nodes, err := htmlquery.QueryAll(root, strat.Selector)
	if err != nil {
		return nil, err
	}

	var vals []string
	for _, node := range nodes {
		var val string
		switch strat.Attr {
		case "", "text":
			val = htmlquery.InnerText(node)
		default:
			val = htmlquery.SelectAttr(node, strat.Attr)
		}
		if strings.TrimSpace(val) != "" {
			vals = append(vals, val)
			if !multi {
				break
			}
		}
	}
	return vals, nil
}

func (e *Extractor) applyRegex(page *pageContent, strat Strategy, multi bool) ([]string, error) {
	re, err := e.compile(strat.Pattern)
	if err != nil {
		return nil, err
	}

	var vals []string
	for _, m := range re.FindAllSubmatch(page.body, -1) {
		if len(m) < 2 {
			continue
		}
		if val := string(m[1]); strings.TrimSpace(val) != "" {
			vals = append(vals, val)
			if !multi {
				break
			}
		}
	}
	return vals, nil
}

func (e *Extractor) compile(pattern string) (*regexp.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if re, ok := e.regexes[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	e.regexes[pattern] = re
	return re, nil
}

// resolveLink turns an href into an absolute crawlable URL.
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}

// pageContent caches the parsed views of one response so strategies
// of different kinds don't re-parse the body.
type pageContent struct {
	body []byte
	resp *types.Response

	node     *html.Node
	nodeErr  error
	nodeOnce sync.Once
}

func (e *Extractor) newPage(resp *types.Response) *pageContent {
	return &pageContent{body: resp.Body, resp: resp}
}

func (p *pageContent) goqueryDoc() (*goquery.Document, error) {
	return p.resp.Document()
}

func (p *pageContent) htmlNode() (*html.Node, error) {
	p.nodeOnce.Do(func() {
		p.node, p.nodeErr = htmlquery.Parse(bytes.NewReader(p.body))
	})
	return p.node, p.nodeErr
}
