package fts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type APIVersion int

const (
	V1 APIVersion = iota + 1
	V2
)

// Downloader fetches an FTS endpoint and returns the data member of the
// response envelope.
type Downloader interface {
	DownloadData(ctx context.Context, path string, version APIVersion) (json.RawMessage, error)
}

// {"status":"ok","data":[...]}
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type Client struct {
	baseURL   string
	v2BaseURL string
	http      *http.Client
}

func NewClient(baseURL, v2BaseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   ensureTrailingSlash(baseURL),
		v2BaseURL: ensureTrailingSlash(v2BaseURL),
		http:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) DownloadData(ctx context.Context, path string, version APIVersion) (json.RawMessage, error) {
	url := c.url(path, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	rs, err := c.http.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		return nil, &DownloadError{URL: url, StatusCode: rs.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if rs.StatusCode != http.StatusOK {
		return nil, &DownloadError{URL: url, StatusCode: rs.StatusCode, Err: fmt.Errorf("unexpected response: %s", truncate(string(body), 200))}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DownloadError{URL: url, StatusCode: rs.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if env.Status != "" && env.Status != "ok" {
		return nil, &DownloadError{URL: url, StatusCode: rs.StatusCode, Err: fmt.Errorf("%w: %s", ErrUpstreamStatus, env.Status)}
	}

	return env.Data, nil
}

func (c *Client) url(path string, version APIVersion) string {
	base := c.baseURL
	if version == V2 {
		base = c.v2BaseURL
	}
	return base + strings.TrimPrefix(path, "/")
}

// Download fetches path and decodes its data member into T.
func Download[T any](ctx context.Context, d Downloader, path string, version APIVersion) (T, error) {
	var v T

	data, err := d.DownloadData(ctx, path, version)
	if err != nil {
		return v, err
	}

	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, &DownloadError{URL: path, Err: fmt.Errorf("decoding data: %w", err)}
	}

	return v, nil
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
