package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sesgocero/crawler/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func article(url string) *types.Article {
	return &types.Article{
		Title:   "Titular",
		Content: "cuerpo",
		URL:     url,
		Source:  "Test",
	}
}

func TestPipelineNormalize(t *testing.T) {
	p := New(testLogger)
	p.Use(&NormalizeMiddleware{})

	a := article("https://example.com/a")
	a.Title = "  Titular   con \n espacios  "

	got, err := p.Process(a)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got.Title != "Titular con espacios" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestPipelineDefaults(t *testing.T) {
	p := New(testLogger)
	p.Use(&DefaultsMiddleware{})

	a := article("https://example.com/a")
	a.PoliticalOrientation = ""

	got, err := p.Process(a)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got.PoliticalOrientation != "unknown" {
		t.Errorf("political_orientation = %q", got.PoliticalOrientation)
	}

	// An already-set value is left alone.
	a2 := article("https://example.com/b")
	a2.PoliticalOrientation = "izquierda"
	got, _ = p.Process(a2)
	if got.PoliticalOrientation != "izquierda" {
		t.Errorf("political_orientation overwritten: %q", got.PoliticalOrientation)
	}
}

func TestPipelineDedup(t *testing.T) {
	p := New(testLogger)
	p.Use(NewDedupMiddleware())

	first, err := p.Process(article("https://example.com/a"))
	if err != nil || first == nil {
		t.Fatalf("first pass: article=%v err=%v", first, err)
	}

	second, err := p.Process(article("https://example.com/a"))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second != nil {
		t.Error("duplicate URL should be dropped")
	}

	other, _ := p.Process(article("https://example.com/b"))
	if other == nil {
		t.Error("different URL should pass")
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }
func (failingMiddleware) Process(a *types.Article) (*types.Article, error) {
	return nil, errors.New("boom")
}

func TestPipelineErrorStopsChain(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})
	p.Use(&DefaultsMiddleware{})

	if _, err := p.Process(article("https://example.com/a")); err == nil {
		t.Error("expected error from failing middleware")
	}
}
