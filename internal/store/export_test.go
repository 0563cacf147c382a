package store

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sesgocero/crawler/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestExportStoreJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.jsonl")
	s, err := NewExportStore("jsonl", path, testLogger)
	if err != nil {
		t.Fatalf("new export store: %v", err)
	}

	ctx := context.Background()
	a := &types.Article{
		Title:   "Titular",
		Content: "cuerpo",
		URL:     "https://example.com/a",
		Source:  "Test",
		Date:    datePtr(2024, time.March, 15),
	}

	if outcome, err := s.Upsert(ctx, a); err != nil || outcome != OutcomeInserted {
		t.Fatalf("upsert: outcome=%v err=%v", outcome, err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("export file is empty")
	}
	var got types.Article
	if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if got.URL != a.URL || got.Title != a.Title {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestExportStoreCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.csv")
	s, err := NewExportStore("csv", path, testLogger)
	if err != nil {
		t.Fatalf("new export store: %v", err)
	}

	ctx := context.Background()
	if _, err := s.Upsert(ctx, &types.Article{Title: "Titular", URL: "https://example.com/a"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("csv export is empty")
	}
}

func TestExportStoreRejectsUnknownFormat(t *testing.T) {
	if _, err := NewExportStore("xml", filepath.Join(t.TempDir(), "x"), testLogger); err == nil {
		t.Error("expected error for unsupported format")
	}
}
