package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Retry defaults for the catalog HTTP client.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 400 * time.Millisecond
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool { return e.Code == http.StatusTooManyRequests }

// ContentTypeError is returned for a successful response that is not JSON,
// such as a captive portal or an HTML error page. It is never retried.
type ContentTypeError struct {
	URL         string
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("GET %s: unexpected content type %q", e.URL, e.ContentType)
}

// retryable reports whether a failed attempt may succeed on its own:
// rate limiting and transport errors. Any other response is final.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var ce *ContentTypeError
	return !errors.As(err, &ce)
}

// Client reads products from a remote catalog API. Rate-limited (429) and
// transport failures are retried with doubling delays; other statuses and
// non-JSON bodies are not.
type Client struct {
	BaseURL     string
	HTTP        *http.Client
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *log.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewClient returns a Client with the default retry policy.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTP:        httpClient,
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Logger:      log.Default(),
		sleep:       sleepCtx,
	}
}

// FetchProducts GETs path (e.g. "/api/products?limit=200") and decodes the
// product payload.
func (c *Client) FetchProducts(ctx context.Context, path string) ([]Product, error) {
	body, err := c.getWithRetries(ctx, c.BaseURL+path)
	if err != nil {
		return nil, err
	}
	return DecodeProducts(body)
}

func (c *Client) getWithRetries(ctx context.Context, url string) ([]byte, error) {
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retryable(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		delay := c.BaseDelay * time.Duration(1<<(attempt-1))
		c.Logger.Printf("[catalog] %s failed (attempt %d), retrying in %s: %v", url, attempt, delay, err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, attempts, lastErr)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &ContentTypeError{URL: url, ContentType: ct}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
