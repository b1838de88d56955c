// Package fetch is the HTTP transport shared by the provider adapters.
//
// It turns provider responses into the aggregator error taxonomy:
// non-2xx statuses become *aggregator.HTTPError and payloads that do not
// decode become *aggregator.DecodingError.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
)

const (
	defaultUserAgent = "pitlane"
	defaultRetries   = 2
	defaultBackoff   = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
	maxBodyBytes     = 8 << 20
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit caps outgoing requests to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets how many times a 429 or 5xx response is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the base delay between retries. It doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// Client performs JSON GET requests on behalf of one provider.
// It is safe for concurrent use.
type Client struct {
	provider   string
	httpClient HTTPClient
	userAgent  string
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
}

// New creates a Client whose errors are attributed to provider.
func New(provider string, opts ...Option) *Client {
	c := &Client{
		provider:   provider,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  defaultUserAgent,
		retries:    defaultRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches url and decodes the JSON body into dest.
//
// 429 responses (honouring Retry-After) and 5xx responses are retried with
// exponential backoff. Transport failures are returned wrapped with the
// provider name.
func (c *Client) GetJSON(ctx context.Context, url string, dest any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &aggregator.DecodingError{Provider: c.provider, Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var (
		lastErr    *aggregator.HTTPError
		retryAfter string
	)
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt, retryAfter)
			// Waiting past the deadline only turns a useful HTTP error into a timeout.
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
				return nil, lastErr
			}
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, fmt.Errorf("%s: %w", c.provider, ctx.Err())
			case <-t.C:
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s: rate limit wait: %w", c.provider, err)
			}
		}

		body, status, header, err := c.doRequest(ctx, url)
		if err != nil {
			return nil, err
		}
		if status >= 200 && status < 300 {
			return body, nil
		}

		lastErr = &aggregator.HTTPError{Provider: c.provider, StatusCode: status}
		if status == http.StatusTooManyRequests || status >= 500 {
			retryAfter = header.Get("Retry-After")
			continue
		}
		return nil, lastErr
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%s: failed to create request: %w", c.provider, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%s: %w", c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%s: failed to read response: %w", c.provider, err)
	}
	return body, resp.StatusCode, resp.Header, nil
}

// backoffDelay is Retry-After when the server sent one in seconds, else the
// base backoff doubled per attempt. Both are capped at maxBackoff.
func (c *Client) backoffDelay(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return min(time.Duration(secs)*time.Second, maxBackoff)
		}
	}
	if attempt > 16 {
		return maxBackoff
	}
	return min(c.backoff<<(attempt-1), maxBackoff)
}
