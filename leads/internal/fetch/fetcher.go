// Package fetch performs the outbound HTTP calls of the pipeline: search
// API calls, feed pulls, website pages and webhook posts.
//
// Every request carries the configured User-Agent, is bounded by a per-call
// timeout and a body cap, and is vetted by a URL validator, including on
// redirects.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hazyhaar/leadscout/urlguard"
)

// ErrStatus is wrapped by Get when the server answers outside 2xx.
var ErrStatus = errors.New("fetch: unexpected status")

// Config configures a Fetcher.
type Config struct {
	Timeout   time.Duration // per call; default 20s
	MaxBytes  int64         // body cap; default 5MB
	UserAgent string
	// Validator vets every URL before it is requested. Default: urlguard.ValidateURL.
	Validator urlguard.Validator
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "leadscout/1.0"
	}
	if c.Validator == nil {
		c.Validator = urlguard.ValidateURL
	}
}

// Result is a successful response.
type Result struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher issues GET requests.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher that re-validates every redirect target.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.Validator
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Client exposes the underlying HTTP client, for callers that build their
// own requests (apifetch).
func (f *Fetcher) Client() *http.Client { return f.client }

// Validate applies the configured URL validator.
func (f *Fetcher) Validate(url string) error { return f.config.Validator(url) }

// Get fetches url with the given extra headers. Non-2xx answers, oversize
// bodies and blocked URLs are errors.
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) (*Result, error) {
	if err := f.config.Validator(url); err != nil {
		return nil, fmt.Errorf("fetch: URL blocked: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := urlguard.LimitedReadAll(resp.Body, f.config.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	return &Result{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// PostJSON sends v as a JSON body to url. Only the status is checked; the
// response body is drained and discarded.
func (f *Fetcher) PostJSON(ctx context.Context, url string, v any) error {
	if err := f.config.Validator(url); err != nil {
		return fmt.Errorf("fetch: URL blocked: %w", err)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("fetch: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("fetch: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: http post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return nil
}
