// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package transifex

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"codeberg.org/legaltools/txsync/core/audit"
)

const (
	contentTypeJSONAPI = "application/vnd.api+json"

	// clientSessionCacheSize defines the size of the TLS session cache.
	clientSessionCacheSize = 20

	// maxIdleConnsPerHost defines maximum idle connections to keep per host.
	maxIdleConnsPerHost = 20

	// bufferSize defines the read and write buffer size in bytes (32KB).
	bufferSize = 32 * 1024
)

var (
	errInvalidJSON      = errors.New("response contained invalid JSON")
	errAPIResponseError = errors.New("API response indicated error")
	errMissingLocation  = errors.New("redirect response without Location header")
)

// APIError represents an error returned from the Transifex API or internal request handling.
type APIError struct {
	// StatusCode is the HTTP status code from the response.
	// Always >= 400 for API errors.
	StatusCode int

	// Code is the JSON:API error code, for example "not_found".
	Code string

	// Message contains the error message from the API response.
	Message string

	// Err is the underlying error cause.
	Err error
}

// Error returns a formatted error message including the status code and API message if available.
func (e *APIError) Error() string {
	var b strings.Builder

	b.WriteString(e.Err.Error())

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	b.WriteString(fmt.Sprintf(" (status code: %d)", e.StatusCode))

	return b.String()
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Options configure an HTTPClient.
type Options struct {
	BaseURL           string
	Token             string
	Organization      string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	PollInterval      time.Duration
	PollTimeout       time.Duration

	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the organization in opts.
func NewHTTPClient(opts Options) *HTTPClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newTransportClient(opts.Timeout)
	} else {
		// Redirects of asynchronous downloads are followed by hand so the
		// bearer token never reaches the file host.
		c := *httpClient
		c.CheckRedirect = noRedirect
		httpClient = &c
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	burst := max(opts.Burst, 1)

	return &HTTPClient{
		opts:    opts,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		logger:  log.With().Str("sys", "transifex").Logger(),
	}
}

func newTransportClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: noRedirect,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				ClientSessionCache: tls.NewLRUClientSessionCache(clientSessionCacheSize),
				MinVersion:         tls.VersionTLS12,
			},
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        0,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			WriteBufferSize:     bufferSize,
			ReadBufferSize:      bufferSize,
		},
	}
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// requestOptions are parameters for do.
type requestOptions struct {
	Method string
	// Path is relative to the base URL, or an absolute URL for pagination links.
	Path    string
	Query   url.Values
	Payload any
}

// response is a fully read HTTP response.
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// do performs an authenticated API request and handles standard API error responses.
//
// Redirects are returned to the caller as is.
func (c *HTTPClient) do(ctx context.Context, opts requestOptions) (*response, error) {
	req, err := c.newRequest(ctx, opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.sendRequest(ctx, req, audit.ToTransifex)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newAPIError(resp)
	}

	if resp.StatusCode < http.StatusMultipleChoices && len(resp.Body) > 0 && !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("%w: %s", errInvalidJSON, string(resp.Body))
	}

	return resp, nil
}

// newAPIError extracts the first JSON:API error from a failed response.
func newAPIError(resp *response) *APIError {
	first := gjson.GetBytes(resp.Body, "errors.0")

	// Fall back to the HTTP status text if no JSON message is found.
	message := first.Get("detail").String()
	if message == "" {
		message = first.Get("title").String()
	}

	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	// As a final fallback for unknown status codes, use a generic error message.
	if message == "" {
		message = "An unknown API error occurred"
	}

	cause := errAPIResponseError
	if resp.StatusCode == http.StatusNotFound {
		cause = ErrNotFound
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       first.Get("code").String(),
		Message:    message,
		Err:        cause,
	}
}

// newRequest constructs an *http.Request from requestOptions.
func (c *HTTPClient) newRequest(ctx context.Context, opts requestOptions) (*http.Request, error) {
	target := opts.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.opts.BaseURL + "/" + strings.TrimPrefix(target, "/")
	}

	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var reqBody io.Reader

	if opts.Payload != nil {
		body, err := json.Marshal(opts.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request payload: %w", err)
		}

		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Accept", contentTypeJSONAPI)

	if reqBody != nil {
		req.Header.Set("Content-Type", contentTypeJSONAPI)
	}

	return req, nil
}

// sendRequest waits for the rate limiter, executes the HTTP request and
// reads the body for auditing.
func (c *HTTPClient) sendRequest(
	ctx context.Context,
	req *http.Request,
	destination audit.TrafficDestination,
) (_ *response, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	span := audit.Span{
		Destination: destination,
		Method:      req.Method,
		URL:         req.URL.String(),
	}

	defer func() { span.Error = err }()

	_ = span.Begin(ctx)
	defer span.End() // in case of error

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	span.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.Body = body

	span.End()
	span.LogTo(c.logger)

	return &response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// fetch downloads a redirect target without credentials. Relative
// locations are resolved against the base URL.
func (c *HTTPClient) fetch(ctx context.Context, location string) ([]byte, error) {
	base, err := url.Parse(c.opts.BaseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	target, err := base.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect location %q: %w", location, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.sendRequest(ctx, req, audit.ToStorage)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Err:        errAPIResponseError,
		}
	}

	return resp.Body, nil
}

// list follows links.next until every page of a listing has been read.
func (c *HTTPClient) list(ctx context.Context, path string, query url.Values) (data, included []gjson.Result, err error) {
	opts := requestOptions{Method: http.MethodGet, Path: path, Query: query}

	for {
		resp, err := c.do(ctx, opts)
		if err != nil {
			return nil, nil, err
		}

		page := gjson.ParseBytes(resp.Body)
		data = append(data, page.Get("data").Array()...)
		included = append(included, page.Get("included").Array()...)

		next := page.Get("links.next").String()
		if next == "" {
			return data, included, nil
		}

		opts = requestOptions{Method: http.MethodGet, Path: next}
	}
}
