package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Request is one fully resolved provider call.
type Request struct {
	URL        string
	Headers    map[string]string
	Query      map[string]string
	MaxRetries int
}

// Sender performs a request and returns the raw response body. Retry
// counting and backoff live behind this interface; callers treat each call
// as a single blocking operation.
type Sender interface {
	Send(ctx context.Context, req Request) (string, error)
}

// HTTPSender sends GET requests with exponential-backoff retries on
// connection errors and 5xx responses.
type HTTPSender struct {
	base    *http.Client
	waitMin time.Duration
	waitMax time.Duration
}

// NewHTTPSender builds a sender whose individual attempts time out after
// the given duration.
func NewHTTPSender(timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		base:    &http.Client{Timeout: timeout},
		waitMin: 500 * time.Millisecond,
		waitMax: 5 * time.Second,
	}
}

func (s *HTTPSender) Send(ctx context.Context, req Request) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("transport: parse url %q: %w", req.URL, err)
	}
	q := u.Query()
	for k, v := range req.Query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	client := retryablehttp.NewClient()
	client.HTTPClient = s.base
	client.RetryMax = req.MaxRetries
	client.RetryWaitMin = s.waitMin
	client.RetryWaitMax = s.waitMax
	client.Logger = nil

	hreq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("transport: build request: %w", err)
	}
	for k, v := range req.Headers {
		hreq.Header.Set(k, v)
	}

	resp, err := client.Do(hreq)
	if err != nil {
		return "", fmt.Errorf("transport: %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transport: read response from %s: %w", u.Host, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transport: %s returned status %d: %s", u.Host, resp.StatusCode, truncate(string(body), 256))
	}
	return string(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
