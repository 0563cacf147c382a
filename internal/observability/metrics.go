// Package observability exposes crawl counters over HTTP in
// Prometheus text exposition format.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// metricDefs maps snapshot keys to exposition names, in output order.
var metricDefs = []struct {
	key   string
	name  string
	help  string
	gauge bool
}{
	{"requests_sent", "sesgocero_requests_total", "Total requests sent", false},
	{"requests_failed", "sesgocero_requests_failed_total", "Total failed requests", false},
	{"responses_ok", "sesgocero_responses_ok_total", "Total successful responses", false},
	{"responses_error", "sesgocero_responses_error_total", "Total error responses", false},
	{"listings_processed", "sesgocero_listings_processed_total", "Listing pages processed", false},
	{"articles_assembled", "sesgocero_articles_assembled_total", "Articles passing field policy", false},
	{"articles_skipped", "sesgocero_articles_skipped_total", "Articles skipped for missing fields", false},
	{"articles_dropped", "sesgocero_articles_dropped_total", "Articles dropped by the pipeline", false},
	{"articles_inserted", "sesgocero_articles_inserted_total", "Articles newly stored", false},
	{"articles_updated", "sesgocero_articles_updated_total", "Stored articles updated", false},
	{"articles_unchanged", "sesgocero_articles_unchanged_total", "Resubmissions with identical content", false},
	{"store_errors", "sesgocero_store_errors_total", "Failed store writes", false},
	{"urls_enqueued", "sesgocero_urls_enqueued_total", "URLs added to the frontier", false},
	{"urls_filtered", "sesgocero_urls_filtered_total", "URLs rejected by dedup or robots.txt", false},
	{"bytes_downloaded", "sesgocero_bytes_downloaded_total", "Total bytes downloaded", false},
	{"active_workers", "sesgocero_active_workers", "Workers currently processing a request", true},
}

// Exporter serves crawl counters for scraping. It reads from a
// snapshot function so it stays decoupled from the engine.
type Exporter struct {
	snapshot   func() map[string]int64
	queueDepth func() int
	logger     *slog.Logger
	server     *http.Server
}

// NewExporter creates an Exporter over the given snapshot sources.
func NewExporter(snapshot func() map[string]int64, queueDepth func() int, logger *slog.Logger) *Exporter {
	return &Exporter{
		snapshot:   snapshot,
		queueDepth: queueDepth,
		logger:     logger.With("component", "metrics"),
	}
}

// ServeHTTP writes the metrics in Prometheus text exposition format.
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	snap := e.snapshot()
	for _, def := range metricDefs {
		kind := "counter"
		if def.gauge {
			kind = "gauge"
		}
		fmt.Fprintf(w, "# HELP %s %s\n", def.name, def.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", def.name, kind)
		fmt.Fprintf(w, "%s %d\n", def.name, snap[def.key])
	}

	fmt.Fprintf(w, "# HELP sesgocero_queue_depth Requests waiting in the frontier\n")
	fmt.Fprintf(w, "# TYPE sesgocero_queue_depth gauge\n")
	fmt.Fprintf(w, "sesgocero_queue_depth %d\n", e.queueDepth())
}

// Start launches the metrics HTTP server in the background.
func (e *Exporter) Start(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, e)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	e.server = &http.Server{Addr: addr, Handler: mux}
	e.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Stop shuts the metrics server down.
func (e *Exporter) Stop() {
	if e.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = e.server.Shutdown(ctx)
}
