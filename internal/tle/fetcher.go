package tle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultMaxBytes caps a downloaded catalog. The full public catalog is a
// few MB.
const DefaultMaxBytes = 50 << 20

const userAgent = "groundtrack/1 (+catalog fetch)"

// Fetcher downloads a raw two-line catalog. Only the root unit of a run
// fetches; the bytes then go through the same parser as a local file.
type Fetcher struct {
	url      string
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default client (60 s timeout).
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) { f.maxBytes = n }
}

func NewFetcher(url string, logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		url:      url,
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: DefaultMaxBytes,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) URL() string {
	return f.url
}

// Fetch performs one GET. Any failure is returned as is; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", f.url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/plain")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: %s", f.url, resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("catalog from %s declares %d bytes, over the %d byte limit", f.url, resp.ContentLength, f.maxBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("catalog from %s exceeds the %d byte limit", f.url, f.maxBytes)
	}

	f.logger.Info("catalog fetched",
		"url", f.url,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}
