// Package fixtures loads the pre-computed research data files: scenario
// sweeps, cliff series, the uprating catalog, the reference list, and
// household microdata.
//
// A fixture source is either a local path or an http(s) URL. URLs are fetched
// exactly once with a client timeout; there is no retry, and a failed load is
// terminal for the view that asked for it.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rewired-gh/incomeshift/internal/logger"
)

// ErrUnexpectedStatus is returned when a fixture URL answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client opens fixture sources from disk or over HTTP.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a new fixture client
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Ext returns the lower-cased file extension of a path or URL.
func Ext(source string) string {
	if isURL(source) {
		if i := strings.IndexAny(source, "?#"); i >= 0 {
			source = source[:i]
		}
		return strings.ToLower(path.Ext(source))
	}
	return strings.ToLower(filepath.Ext(source))
}

// Open returns a reader for the source. The caller must close it.
func (c *Client) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if source == "" {
		return nil, errors.New("fixture source must not be empty")
	}
	if !isURL(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open fixture: %w", err)
		}
		return f, nil
	}
	return c.fetch(ctx, source)
}

// fetch performs a single GET request. Failures are not retried.
func (c *Client) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/csv, text/plain, */*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}
	logger.Debug("Fetched %s in %v (timeout %v)", url, time.Since(start), c.timeout)
	return resp.Body, nil
}
