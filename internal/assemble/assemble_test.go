package assemble

import (
	"strings"
	"testing"
	"time"

	"github.com/sesgocero/crawler/internal/source"
)

func profile(required ...string) *source.Profile {
	return &source.Profile{
		ID:       "test_source",
		Name:     "Test Source",
		Required: required,
	}
}

func TestAssembleOK(t *testing.T) {
	a := New()
	fields := source.RawFields{
		Title:    "  <b>Titular</b>  ",
		Subtitle: "Bajada",
		Content:  []string{"<p>uno</p>", "<p>dos  tres</p>"},
		DateRaw:  "15 de marzo de 2024",
	}

	res := a.Assemble(fields, "https://example.com/a", profile(source.FieldTitle, source.FieldContent))
	if res.Status != StatusOK {
		t.Fatalf("status = %v, missing = %v", res.Status, res.Missing)
	}

	art := res.Article
	if art.Title != "Titular" {
		t.Errorf("title = %q", art.Title)
	}
	if art.Content != "uno dos tres" {
		t.Errorf("content = %q", art.Content)
	}
	if art.URL != "https://example.com/a" {
		t.Errorf("url = %q", art.URL)
	}
	if art.Source != "Test Source" {
		t.Errorf("source = %q", art.Source)
	}
	if art.PoliticalOrientation != "unknown" {
		t.Errorf("political_orientation = %q", art.PoliticalOrientation)
	}
	if art.Cleaned {
		t.Error("cleaned should default to false")
	}
	if art.Date == nil || !art.Date.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", art.Date)
	}
}

func TestAssembleMissingContentSkips(t *testing.T) {
	a := New()
	fields := source.RawFields{Title: "Titular"}

	res := a.Assemble(fields, "https://example.com/a", profile(source.FieldTitle, source.FieldContent))
	if res.Status != StatusSkip {
		t.Fatalf("expected skip, got article %+v", res.Article)
	}
	if len(res.Missing) != 1 || res.Missing[0] != source.FieldContent {
		t.Errorf("missing = %v", res.Missing)
	}
	if res.Article != nil {
		t.Error("skip result must not carry an article")
	}
}

func TestAssembleUnparseableDate(t *testing.T) {
	a := New()
	fields := source.RawFields{
		Title:   "Titular",
		Content: []string{"cuerpo"},
		DateRaw: "fecha ilegible",
	}

	// Date optional: record emitted with nil date.
	res := a.Assemble(fields, "https://example.com/a", profile(source.FieldTitle, source.FieldContent))
	if res.Status != StatusOK {
		t.Fatalf("expected ok, missing = %v", res.Missing)
	}
	if res.Article.Date != nil {
		t.Errorf("date = %v, want nil", res.Article.Date)
	}

	// Date required: record skipped and the raw string preserved.
	res = a.Assemble(fields, "https://example.com/a", profile(source.FieldTitle, source.FieldContent, source.FieldDate))
	if res.Status != StatusSkip {
		t.Fatal("expected skip when date is required")
	}
	if res.DateRaw != "fecha ilegible" {
		t.Errorf("raw date not preserved in diagnostic: %q", res.DateRaw)
	}
}

func TestAssembleSubtitlePolicy(t *testing.T) {
	a := New()
	fields := source.RawFields{Title: "Titular", Content: []string{"cuerpo"}, DateRaw: "2024-01-02"}

	res := a.Assemble(fields, "https://example.com/a",
		profile(source.FieldTitle, source.FieldSubtitle, source.FieldContent, source.FieldDate))
	if res.Status != StatusSkip {
		t.Fatal("expected skip for missing subtitle")
	}
	if len(res.Missing) != 1 || res.Missing[0] != source.FieldSubtitle {
		t.Errorf("missing = %v", res.Missing)
	}
}

func TestAssemblePreviewTruncated(t *testing.T) {
	a := New()
	long := strings.Repeat("palabra ", 40)
	fields := source.RawFields{Content: []string{long}}

	res := a.Assemble(fields, "https://example.com/a", profile(source.FieldTitle, source.FieldContent))
	if res.Status != StatusSkip {
		t.Fatal("expected skip")
	}
	if got := len([]rune(res.Preview)); got > 50 {
		t.Errorf("preview is %d runes, want <= 50", got)
	}
}

func TestAssembleWhitespaceOnlyFieldIsMissing(t *testing.T) {
	a := New()
	fields := source.RawFields{
		Title:   "   \n\t ",
		Content: []string{"cuerpo"},
	}

	res := a.Assemble(fields, "https://example.com/a", profile(source.FieldTitle, source.FieldContent))
	if res.Status != StatusSkip {
		t.Fatal("whitespace-only title must count as missing")
	}
	if len(res.Missing) != 1 || res.Missing[0] != source.FieldTitle {
		t.Errorf("missing = %v", res.Missing)
	}
}
