package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/sesgocero/crawler/internal/config"
	"github.com/sesgocero/crawler/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(config.DefaultConfig(), testLogger)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func mustRequest(t *testing.T, rawURL string) *types.Request {
	t.Helper()
	req, err := types.NewRequest(rawURL, types.KindArticle, "test")
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestFetchPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		io.WriteString(w, "<html><body>hola</body></html>")
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != "<html><body>hola</body></html>" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.FinalURL == "" {
		t.Error("FinalURL not set")
	}
}

func TestFetchGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		io.WriteString(gz, "comprimido")
		gz.Close()
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(resp.Body) != "comprimido" {
		t.Errorf("body = %q, want decompressed text", resp.Body)
	}
}

func TestFetchBrotliBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		br := brotli.NewWriter(w)
		io.WriteString(br, "comprimido br")
		br.Close()
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(resp.Body) != "comprimido br" {
		t.Errorf("body = %q, want decompressed text", resp.Body)
	}
}

func TestFetch429SetsRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T", err)
	}
	if !fe.Retryable {
		t.Error("429 must be retryable")
	}
	if fe.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", fe.RetryAfter)
	}
}

func TestFetch500Retryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v", err)
	}
	if !fe.Retryable || fe.StatusCode != 500 {
		t.Errorf("got retryable=%v status=%d", fe.Retryable, fe.StatusCode)
	}
}

func TestFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if !errors.Is(err, types.ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("10"); got != 10*time.Second {
		t.Errorf("seconds form = %v", got)
	}
	if got := parseRetryAfter("600"); got != 120*time.Second {
		t.Errorf("cap = %v, want 2m", got)
	}
	if got := parseRetryAfter(""); got != 5*time.Second {
		t.Errorf("default = %v", got)
	}
	if got := parseRetryAfter("not-a-date"); got != 5*time.Second {
		t.Errorf("garbage = %v", got)
	}
}

func TestIsRetryableError(t *testing.T) {
	if isRetryableError(context.Canceled) {
		t.Error("cancellation must not retry")
	}
	if !isRetryableError(io.ErrUnexpectedEOF) {
		t.Error("unexpected EOF should retry")
	}
	if isRetryableError(nil) {
		t.Error("nil is not retryable")
	}
}

func TestUserAgentRotation(t *testing.T) {
	f := newTestFetcher(t)
	first := f.nextUserAgent()
	second := f.nextUserAgent()
	if first == second {
		t.Error("expected rotation across calls")
	}
}
