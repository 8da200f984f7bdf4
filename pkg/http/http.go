// Package http is the outgoing client for the barcode lookup providers:
//
//	resp, err := http.Get("https://api.upcitemdb.com/prod/trial/lookup").
//	    Query("upc", barcode).
//	    Timeout(5 * time.Second).
//	    Retry(2, time.Second).
//	    WithContext(ctx).
//	    Send()
//
// Retries happen on transport errors and 502/503/504. Every other status,
// 429 included, is handed back as a Response. Bodies are capped at
// MaxResponseBytes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// UserAgent identifies the storefront to upstream APIs (Wikidata requires one).
var UserAgent = "storefront/1.0 (+https://github.com/shashiranjanraj/storefront)"

// MaxResponseBytes bounds how much of an upstream body is read.
var MaxResponseBytes int64 = 2 << 20

var errTooLarge = errors.New("http: response body too large")

var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// DefaultClient is shared by every outgoing request. Tests may swap its
// Transport and restore it with ResetTransport.
var DefaultClient = &gohttp.Client{Transport: defaultTransport}

// ResetTransport restores the production transport on DefaultClient.
func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

// Request is a fluent GET request builder.
type Request struct {
	url       string
	headers   map[string]string
	query     url.Values
	timeout   time.Duration
	retries   int
	retryWait time.Duration
	ctx       context.Context
}

// Get starts a GET request.
func Get(rawURL string) *Request {
	return &Request{
		url:       rawURL,
		headers:   map[string]string{"Accept": "application/json", "User-Agent": UserAgent},
		query:     url.Values{},
		timeout:   10 * time.Second,
		retries:   1,
		retryWait: 500 * time.Millisecond,
		ctx:       context.Background(),
	}
}

// Header sets a request header.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Query appends a query-string parameter.
func (r *Request) Query(key, value string) *Request {
	r.query.Add(key, value)
	return r
}

// Timeout sets the per-attempt timeout.
func (r *Request) Timeout(d time.Duration) *Request {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Retry sets the total number of attempts and the first backoff, which
// doubles on every retry.
func (r *Request) Retry(n int, wait time.Duration) *Request {
	if n < 1 {
		n = 1
	}
	r.retries = n
	r.retryWait = wait
	return r
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Send executes the request.
func (r *Request) Send() (*Response, error) {
	var (
		resp    *Response
		lastErr error
	)
	backoff := r.retryWait

	for attempt := 1; attempt <= r.retries; attempt++ {
		resp, lastErr = r.do()
		if lastErr == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if attempt == r.retries || errors.Is(lastErr, errTooLarge) {
			break
		}

		logger.WithCtx(r.ctx).Warn("http: retrying",
			"url", r.url, "attempt", attempt, "backoff", backoff, "error", lastErr)
		select {
		case <-time.After(backoff):
		case <-r.ctx.Done():
			return nil, r.ctx.Err()
		}
		backoff *= 2
	}

	if lastErr != nil {
		return nil, fmt.Errorf("http: GET %s failed after %d attempt(s): %w", r.url, r.retries, lastErr)
	}
	return resp, nil
}

func retryable(status int) bool {
	switch status {
	case gohttp.StatusBadGateway, gohttp.StatusServiceUnavailable, gohttp.StatusGatewayTimeout:
		return true
	}
	return false
}

func (r *Request) do() (*Response, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	target := r.url
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.query.Encode()
	}

	req, err := gohttp.NewRequestWithContext(ctx, gohttp.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	if int64(len(raw)) > MaxResponseBytes {
		return nil, errTooLarge
	}

	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}
