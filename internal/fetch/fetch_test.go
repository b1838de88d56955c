package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
)

func TestGetJSON_Success(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"name":"pitlane","season":2025}`))
	}))
	defer srv.Close()

	c := New("test", WithUserAgent("pitlane/1.2.3"))
	var dest struct {
		Name   string `json:"name"`
		Season int    `json:"season"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.Name != "pitlane" || dest.Season != 2025 {
		t.Fatalf("unexpected result: %+v", dest)
	}
	if gotUA != "pitlane/1.2.3" {
		t.Errorf("expected user agent pitlane/1.2.3, got %q", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("expected Accept application/json, got %q", gotAccept)
	}
}

func TestGetJSON_ClientErrorIsHTTPError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("sportsdb", WithBackoff(time.Millisecond))
	err := c.GetJSON(context.Background(), srv.URL, &struct{}{})

	var httpErr *aggregator.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *aggregator.HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != 404 || httpErr.Provider != "sportsdb" {
		t.Errorf("unexpected error fields: %+v", httpErr)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx should not be retried, got %d calls", calls.Load())
	}
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("test", WithRetries(2), WithBackoff(time.Millisecond))
	if err := c.GetJSON(context.Background(), srv.URL, &struct{}{}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestGetJSON_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("test", WithRetries(1), WithBackoff(time.Millisecond))
	err := c.GetJSON(context.Background(), srv.URL, &struct{}{})

	var httpErr *aggregator.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 503 {
		t.Fatalf("expected HTTP 503 error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGetJSON_MalformedBodyIsDecodingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	err := New("ergast").GetJSON(context.Background(), srv.URL, &struct{}{})

	var decErr *aggregator.DecodingError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected *aggregator.DecodingError, got %T: %v", err, err)
	}
	if decErr.Provider != "ergast" {
		t.Errorf("expected provider ergast, got %q", decErr.Provider)
	}
}

func TestGetJSON_TransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New("openf1", WithRetries(0)).GetJSON(context.Background(), url, &struct{}{})
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	var httpErr *aggregator.HTTPError
	if errors.As(err, &httpErr) {
		t.Error("transport failure should not look like an HTTP status")
	}
}

func TestGetJSON_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	c := New("test", WithRetries(3), WithBackoff(10*time.Second))
	err := c.GetJSON(ctx, srv.URL, &struct{}{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestGetJSON_RateLimitSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("test", WithRateLimit(20, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := c.GetJSON(context.Background(), srv.URL, &struct{}{}); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected requests to be spaced by the limiter, took %s", elapsed)
	}
}

func TestBackoffDelay(t *testing.T) {
	c := New("test", WithBackoff(time.Second))

	if got := c.backoffDelay(1, ""); got != time.Second {
		t.Errorf("attempt 1: expected 1s, got %s", got)
	}
	if got := c.backoffDelay(3, ""); got != 4*time.Second {
		t.Errorf("attempt 3: expected 4s, got %s", got)
	}
	if got := c.backoffDelay(1, "7"); got != 7*time.Second {
		t.Errorf("Retry-After should win, got %s", got)
	}
	if got := c.backoffDelay(10, ""); got != maxBackoff {
		t.Errorf("attempt 10: expected cap %s, got %s", maxBackoff, got)
	}
	if got := c.backoffDelay(100, ""); got != maxBackoff {
		t.Errorf("attempt 100: expected cap %s, got %s", maxBackoff, got)
	}
	if got := c.backoffDelay(1, "86400"); got != maxBackoff {
		t.Errorf("Retry-After should be capped at %s, got %s", maxBackoff, got)
	}
}

// TestGetJSON_RetryAfterBeyondDeadline verifies a long Retry-After ends the
// call at once with the HTTP error instead of sleeping into a timeout.
func TestGetJSON_RetryAfterBeyondDeadline(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "3600")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := New("test", WithRetries(3))
	start := time.Now()
	err := c.GetJSON(ctx, srv.URL, &struct{}{})

	var httpErr *aggregator.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected HTTP 429 error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("should not wait for a retry the deadline cannot cover, took %s", elapsed)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
}
