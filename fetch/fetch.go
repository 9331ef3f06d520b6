// Package fetch implements the fallback chain used by every data source:
// try an ordered list of endpoints, skip past transport errors, bad statuses
// and uninterpretable payloads, and return the first interpreted success.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnavailable is the terminal outcome of a fallback chain: every endpoint
// failed. Callers convert it into a fixed user-visible fallback string; it is
// never fatal.
var ErrUnavailable = errors.New("all endpoints unavailable")

// DefaultTimeout bounds each individual request so a hung remote cannot stall
// the display rotation.
const DefaultTimeout = 8 * time.Second

// Endpoint describes one alternative in a fallback chain.
type Endpoint struct {
	Name   string
	URL    string
	Method string // defaults to GET
	Header map[string]string
	Body   string
}

// Client issues the requests for one data source. Each source owns its own
// Client so its rate limit is independent of every other source's.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client with the given per-request timeout. rps may be
// fractional for slower than one request per second; burst is the largest
// spike the provider tolerates.
func NewClient(timeout time.Duration, rps float64, burst int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// get performs one rate-limited request and returns the body bytes. The
// response body is always fully read and closed before returning so the
// underlying connection goes back to the pool on every path.
func (c *Client) get(ctx context.Context, ep Endpoint) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if ep.Body != "" {
		body = strings.NewReader(ep.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, ep.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range ep.Header {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return payload, nil
}

// Try walks the chain in order. A transport error, non-2xx status or
// interpreter rejection each log and advance to the next endpoint; the first
// interpreter success returns immediately. When the chain is exhausted the
// zero value and ErrUnavailable are returned. The payload bytes are scoped to
// the attempt, so the decoded body is eligible for reclamation as soon as the
// interpreter has pulled out the fields it needs.
func Try[T any](ctx context.Context, c *Client, endpoints []Endpoint, interpret func([]byte) (T, error)) (T, error) {
	var zero T
	for _, ep := range endpoints {
		payload, err := c.get(ctx, ep)
		if err != nil {
			log.Printf("[fetch] %s: %v (trying next)", ep.Name, err)
			continue
		}
		result, err := interpret(payload)
		if err != nil {
			log.Printf("[fetch] %s: bad payload: %v (trying next)", ep.Name, err)
			continue
		}
		return result, nil
	}
	return zero, ErrUnavailable
}
