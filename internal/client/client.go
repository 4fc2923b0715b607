// Package client builds the process-wide HTTP client shared by all crawl
// workers and implements the transport-level retry policy.
//
// The client is constructed once per run and passed down by reference.
// The connection pool is deliberately tight: the crawl touches thousands
// of distinct hosts exactly once each, so keeping connections alive per
// host would only hoard file descriptors against a long-tail address
// space that will never be revisited.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v3"
)

// UserAgent identifies the crawler in HTTP requests. A descriptive
// User-Agent lets instance operators recognize and allow the traffic.
const UserAgent = "fedistats-crawler (+https://github.com/fedistats/fedistats)"

// maxBodySize limits how much of any response body is read. The
// self-description documents are a few kilobytes; a multi-megabyte
// response is either misconfiguration or hostility.
const maxBodySize = 4 * 1024 * 1024

// maxRetries bounds the transport-level retry attempts per request.
// Retries apply to connection-level failures only, never to
// application-level rejections such as a non-2xx status.
const maxRetries = 3

// New creates the shared HTTP client for one crawl run.
//
// Redirects are disabled: a redirecting instance would defeat the
// identity check, since the body would describe a different host than
// the one the job claimed.
func New(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxConnsPerHost:       2,
		MaxIdleConnsPerHost:   1,
		IdleConnTimeout:       100 * time.Millisecond,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// StatusError is returned by Fetch for a non-2xx response. It is a
// permanent failure for the target URL; the retry policy never retries it.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Fetch performs a GET with bounded exponential-backoff retry for
// transport failures and returns the raw response body.
//
// The raw bytes are returned rather than a decoded value because the
// compatibility layer needs to attempt several schema decodes against
// the same payload.
func Fetch(ctx context.Context, c *http.Client, url string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.Do(req)
		if err != nil {
			// Connection, DNS, TLS, or timeout: transient, retry.
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(&StatusError{URL: url, StatusCode: resp.StatusCode})
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}
