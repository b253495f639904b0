// Package rest is the small JSON-over-HTTP getter shared by the exchange
// REST clients. It owns the outbound timeout and retry policy so each venue
// client only deals with its own wire format.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/midpricebot/internal/domain"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Options is the explicit outbound policy. MaxRetries counts additional
// attempts after the first; zero means a single round trip.
type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultOptions matches the config defaults: 10s timeout and no retries.
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		MaxRetries:   0,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// Client issues GET requests and decodes JSON responses.
type Client struct {
	httpClient *http.Client
	opts       Options
}

// NewClient creates a Client with the given policy.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

// Options returns the policy the client was built with.
func (c *Client) Options() Options {
	return c.opts
}

// GetJSON requests endpoint with the given query parameters and decodes the
// body into out. Failures are wrapped with domain.ErrTransport (dial, timeout,
// non-2xx status, body read) or domain.ErrParse (malformed JSON). Only
// transport failures and 5xx responses are retried.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	fullURL, err := buildURL(endpoint, params)
	if err != nil {
		return err
	}

	var body []byte
	for attempt := 0; ; attempt++ {
		var retryable bool
		body, retryable, err = c.get(ctx, fullURL)
		if err == nil {
			break
		}
		if !retryable || attempt >= c.opts.MaxRetries || ctx.Err() != nil {
			return err
		}

		timer := time.NewTimer(c.opts.RetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", domain.ErrTransport, ctx.Err())
		case <-timer.C:
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrParse, err)
	}
	return nil
}

// get performs a single round trip. The bool result reports whether the
// failure is worth retrying.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: create request: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: http request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read response body: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode >= 500, &StatusError{StatusCode: resp.StatusCode, Body: truncate(body, 256)}
	}

	return body, false, nil
}

// StatusError is returned for non-2xx responses. It matches
// domain.ErrTransport under errors.Is.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: unexpected status %d: %s", domain.ErrTransport, e.StatusCode, e.Body)
}

// Is reports whether target is domain.ErrTransport.
func (e *StatusError) Is(target error) bool {
	return errors.Is(domain.ErrTransport, target)
}

func buildURL(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: parse endpoint %q: %w", domain.ErrTransport, endpoint, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
