package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2024-01-02,100,102,99,101,5000
2024-01-03,101,103,100,102,6000
`

func fastClient(endpoint string) *HTTPClient {
	return NewHTTPClient(
		WithEndpoint(endpoint),
		WithRetryDelay(time.Millisecond),
		WithMaxRetries(2),
	)
}

func TestFetchDaily_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("s"); got != "aapl" {
			t.Errorf("symbol = %q, want lowercase aapl", got)
		}
		if got := r.URL.Query().Get("i"); got != "d" {
			t.Errorf("interval = %q, want d", got)
		}
		if got := r.URL.Query().Get("d1"); got != "20240101" {
			t.Errorf("d1 = %q, want 20240101", got)
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := fastClient(srv.URL).FetchDaily(context.Background(), "AAPL", from, time.Time{})
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 101 {
		t.Errorf("bars[0].Close = %v, want 101", bars[0].Close)
	}
}

func TestFetchDaily_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	bars, err := fastClient(srv.URL).FetchDaily(context.Background(), "AAPL", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if len(bars) != 2 {
		t.Errorf("expected 2 bars after retries, got %d", len(bars))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchDaily_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	if _, err := fastClient(srv.URL).FetchDaily(context.Background(), "AAPL", time.Time{}, time.Time{}); err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestFetchDaily_MaxRetriesExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).FetchDaily(context.Background(), "AAPL", time.Time{}, time.Time{})
	if err == nil {
		t.Fatal("expected an error when every attempt fails")
	}
}

func TestFetchDaily_EmptyBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// 200 with no rows: the ticker does not exist upstream.
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).FetchDaily(context.Background(), "NOPE", time.Time{}, time.Time{})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("no-data responses must not be retried, got %d attempts", calls.Load())
	}
}

func TestFetchDaily_EmptyTicker(t *testing.T) {
	if _, err := NewHTTPClient().FetchDaily(context.Background(), "  ", time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected an error for a blank ticker")
	}
}

func TestFetchDaily_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(
		WithEndpoint(srv.URL),
		WithRetryDelay(time.Minute),
		WithMaxRetries(2),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FetchDaily(ctx, "AAPL", time.Time{}, time.Time{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}
