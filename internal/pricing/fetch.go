package pricing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/theirongolddev/burnline/internal/logging"

	"github.com/sirupsen/logrus"
)

const (
	defaultFetchTimeout = 5 * time.Second
	maxBodySize         = 4 << 20 // 4 MB
	userAgent           = "burnline"
)

// ErrRateLimited indicates the pricing host throttled the request.
var ErrRateLimited = errors.New("pricing: rate limited")

// Fetcher retrieves an authoritative pricing table.
type Fetcher interface {
	Fetch(ctx context.Context) (Table, error)
}

// HTTPFetcher downloads and validates the pricing document. It makes one
// attempt per call and never retries.
type HTTPFetcher struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
	Log     logrus.FieldLogger
}

// NewHTTPFetcher creates a fetcher for url.
func NewHTTPFetcher(url string, timeout time.Duration, log logrus.FieldLogger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPFetcher{
		URL:     url,
		Timeout: timeout,
		Client:  &http.Client{},
		Log:     logging.OrDiscard(log),
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) (Table, error) {
	body, err := f.get(ctx)
	if err != nil {
		return nil, err
	}

	table, updated, err := ParseDocument(body)
	if err != nil {
		return nil, err
	}

	if updated == "" {
		updated = "unknown"
	}
	logging.OrDiscard(f.Log).WithFields(logrus.Fields{
		"models":  len(table),
		"updated": updated,
	}).Debug("fetched pricing document")
	return table, nil
}

func (f *HTTPFetcher) get(ctx context.Context) ([]byte, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("pricing: creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricing: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pricing: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("pricing: reading response: %w", err)
	}
	return body, nil
}
