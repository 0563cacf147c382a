// Package assemble turns raw extracted fields into candidate article
// records, enforcing each source's required-field policy. Failure is
// a value (Skip with a reason), never a panic or a swallowed error.
package assemble

import (
	"strings"

	"github.com/sesgocero/crawler/internal/dateparse"
	"github.com/sesgocero/crawler/internal/source"
	"github.com/sesgocero/crawler/internal/textutil"
	"github.com/sesgocero/crawler/internal/types"
)

// previewRunes bounds the content preview in skip diagnostics.
const previewRunes = 50

// Status of an assembly attempt.
type Status int

const (
	// StatusOK means the record passed policy and should be stored.
	StatusOK Status = iota

	// StatusSkip means required fields were missing; the record is
	// dropped with a diagnostic.
	StatusSkip
)

// Result is the outcome of assembling one page's fields.
type Result struct {
	Status  Status
	Article *types.Article

	// Skip diagnostics, populated when Status is StatusSkip.
	Missing []string
	Preview string
	DateRaw string
}

// Assembler builds article records according to source policy.
type Assembler struct{}

// New creates an Assembler.
func New() *Assembler {
	return &Assembler{}
}

// Assemble normalizes the raw fields, parses the date under the
// source's convention, and applies the required-field policy. The
// page URL becomes the record's identity.
func (a *Assembler) Assemble(fields source.RawFields, pageURL string, p *source.Profile) Result {
	title := textutil.CleanHTML(fields.Title)
	subtitle := textutil.CleanHTML(fields.Subtitle)

	blocks := make([]string, 0, len(fields.Content))
	for _, raw := range fields.Content {
		if text := textutil.CleanHTML(raw); text != "" {
			blocks = append(blocks, text)
		}
	}
	content := strings.Join(blocks, " ")

	date, dateOK := dateparse.Parse(fields.DateRaw, p.DateConvention)

	var missing []string
	if title == "" && p.Requires(source.FieldTitle) {
		missing = append(missing, source.FieldTitle)
	}
	if subtitle == "" && p.Requires(source.FieldSubtitle) {
		missing = append(missing, source.FieldSubtitle)
	}
	if content == "" && p.Requires(source.FieldContent) {
		missing = append(missing, source.FieldContent)
	}
	if !dateOK && p.Requires(source.FieldDate) {
		missing = append(missing, source.FieldDate)
	}

	if len(missing) > 0 {
		return Result{
			Status:  StatusSkip,
			Missing: missing,
			Preview: textutil.Preview(content, previewRunes),
			DateRaw: fields.DateRaw,
		}
	}

	article := &types.Article{
		Title:                title,
		Subtitle:             subtitle,
		Content:              content,
		URL:                  pageURL,
		Source:               p.Name,
		PoliticalOrientation: "unknown",
	}
	if dateOK {
		article.Date = &date
	}

	return Result{Status: StatusOK, Article: article}
}
