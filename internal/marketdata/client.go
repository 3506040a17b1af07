// Package marketdata fetches daily OHLCV history over HTTP. The default
// provider is the Stooq daily CSV endpoint, which serves the same column
// layout the ingest package parses.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/ingest"
)

// Default configuration values.
const (
	DefaultEndpoint    = "https://stooq.com/q/d/l/"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// ErrNoData is returned when the provider responds without any usable rows.
var ErrNoData = errors.New("provider returned no data")

// Provider fetches daily bars for one ticker.
type Provider interface {
	FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]domain.PriceBar, error)
}

// HTTPClient implements Provider against a CSV-over-HTTP quote endpoint.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithEndpoint sets the provider endpoint URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *HTTPClient) {
		c.endpoint = endpoint
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new market data HTTP client.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    DefaultEndpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Provider = (*HTTPClient)(nil)

// FetchDaily downloads the daily series for a ticker with retries and
// exponential backoff. Zero-value bounds are open-ended.
func (c *HTTPClient) FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]domain.PriceBar, error) {
	reqURL, err := c.buildURL(ticker, from, to)
	if err != nil {
		return nil, err
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		bars, err := ingest.ParseBars(strings.NewReader(string(body)))
		if err != nil {
			// A well-formed HTTP response with no rows is not retried.
			if errors.Is(err, ingest.ErrEmptyInput) || errors.Is(err, ingest.ErrMissingColumns) {
				return nil, fmt.Errorf("%w: %v", ErrNoData, err)
			}
			return nil, fmt.Errorf("parse provider response: %w", err)
		}

		return bars, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// buildURL assembles the provider query. Stooq expects lowercase symbols,
// d1/d2 date bounds as yyyymmdd and i=d for daily interval.
func (c *HTTPClient) buildURL(ticker string, from, to time.Time) (string, error) {
	if strings.TrimSpace(ticker) == "" {
		return "", errors.New("ticker is required")
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	q := u.Query()
	q.Set("s", strings.ToLower(ticker))
	q.Set("i", "d")
	if !from.IsZero() {
		q.Set("d1", from.Format("20060102"))
	}
	if !to.IsZero() {
		q.Set("d2", to.Format("20060102"))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
