package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Page kinds. Listing pages enumerate article links; article pages
// carry the record to extract.
const (
	KindListing = "listing"
	KindArticle = "article"
)

// Priority levels for request scheduling. Listing pages run first so
// the frontier fills with article targets early.
const (
	PriorityListing = 0
	PriorityArticle = 1
	PriorityRetry   = 2
)

// Request is a single page to fetch and process.
type Request struct {
	// URL is the target page URL.
	URL *url.URL

	// Kind is KindListing or KindArticle.
	Kind string

	// SourceID names the adapter profile that owns this page.
	SourceID string

	// Headers are extra HTTP headers for this request.
	Headers http.Header

	// Priority controls scheduling order (lower = sooner).
	Priority int

	// MaxRetries is the retry budget for transient fetch failures.
	MaxRetries int

	// RetryCount tracks the current retry attempt.
	RetryCount int

	// ParentURL is the listing page this request was discovered on.
	ParentURL string

	// FetcherType selects "http" or "browser". Empty uses the
	// profile or config default.
	FetcherType string

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a Request with defaults for the given page kind.
func NewRequest(rawURL, kind, sourceID string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	priority := PriorityArticle
	if kind == KindListing {
		priority = PriorityListing
	}

	return &Request{
		URL:        u,
		Kind:       kind,
		SourceID:   sourceID,
		Headers:    make(http.Header),
		Priority:   priority,
		MaxRetries: 3,
		CreatedAt:  time.Now(),
	}, nil
}

// URLString returns the string form of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
