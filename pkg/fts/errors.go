package fts

import (
	"errors"
	"fmt"
)

// ErrUpstreamStatus indicates the FTS envelope reported a non ok status.
var ErrUpstreamStatus = errors.New("fts returned non ok status")

// DownloadError is returned for any failed request or malformed response.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("download %s failed: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
