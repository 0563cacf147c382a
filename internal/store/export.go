package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sesgocero/crawler/internal/types"
)

// ExportStore writes articles to a local file for offline inspection.
// It is append-only: identity resolution stays with the MongoDB
// store, so every Upsert here reports Inserted.
type ExportStore struct {
	format string
	path   string
	file   *os.File
	csvW   *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewExportStore creates a jsonl or csv export store.
func NewExportStore(format, path string, logger *slog.Logger) (*ExportStore, error) {
	format = strings.ToLower(format)
	if format != "jsonl" && format != "csv" {
		return nil, fmt.Errorf("unsupported export format %q (valid: jsonl, csv)", format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}

	s := &ExportStore{
		format: format,
		path:   path,
		file:   f,
		logger: logger.With("component", "export_store"),
	}

	if format == "csv" {
		s.csvW = csv.NewWriter(f)
		if err := s.csvW.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}
	return s, nil
}

var csvHeader = []string{"url", "source", "title", "subtitle", "date", "content", "political_orientation", "cleaned"}

func (s *ExportStore) Name() string { return s.format }

func (s *ExportStore) Upsert(_ context.Context, a *types.Article) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "jsonl":
		line, err := json.Marshal(a)
		if err != nil {
			return OutcomeUnchanged, &types.StoreError{Op: "export", URL: a.URL, Err: err}
		}
		if _, err := s.file.Write(append(line, '\n')); err != nil {
			return OutcomeUnchanged, &types.StoreError{Op: "export", URL: a.URL, Err: err}
		}
	case "csv":
		date := ""
		if a.Date != nil {
			date = a.Date.Format("2006-01-02")
		}
		row := []string{a.URL, a.Source, a.Title, a.Subtitle, date, a.Content, a.PoliticalOrientation, fmt.Sprintf("%t", a.Cleaned)}
		if err := s.csvW.Write(row); err != nil {
			return OutcomeUnchanged, &types.StoreError{Op: "export", URL: a.URL, Err: err}
		}
	}

	s.count++
	return OutcomeInserted, nil
}

func (s *ExportStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.csvW != nil {
		s.csvW.Flush()
		if err := s.csvW.Error(); err != nil {
			s.file.Close()
			return fmt.Errorf("flush csv: %w", err)
		}
	}
	s.logger.Info("export complete", "path", s.path, "articles", s.count)
	return s.file.Close()
}

// MultiStore fans each upsert out to several backends. The first
// backend is authoritative for the outcome; failures elsewhere are
// logged and the first error reported.
type MultiStore struct {
	backends []Store
	logger   *slog.Logger
}

// NewMultiStore creates a fan-out store.
func NewMultiStore(backends []Store, logger *slog.Logger) *MultiStore {
	return &MultiStore{
		backends: backends,
		logger:   logger.With("component", "multi_store"),
	}
}

func (s *MultiStore) Name() string { return "multi" }

func (s *MultiStore) Upsert(ctx context.Context, a *types.Article) (Outcome, error) {
	var (
		outcome  Outcome
		firstErr error
	)
	for i, backend := range s.backends {
		o, err := backend.Upsert(ctx, a)
		if err != nil {
			s.logger.Error("backend upsert failed", "backend", backend.Name(), "url", a.URL, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if i == 0 {
			outcome = o
		}
	}
	return outcome, firstErr
}

func (s *MultiStore) Close(ctx context.Context) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
