package ftsimporter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
	"github.com/bcaldwell/ftsimporter/pkg/locations"
	"github.com/bcaldwell/ftsimporter/pkg/requirementsfunding"
)

type fakeDownloader struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []string
}

func newFakeDownloader(responses map[string]string) *fakeDownloader {
	return &fakeDownloader{responses: responses}
}

func (f *fakeDownloader) DownloadData(ctx context.Context, path string, version fts.APIVersion) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, path)
	data, ok := f.responses[path]
	if !ok {
		return nil, &fts.DownloadError{URL: path, Err: errors.New("no fixture")}
	}
	return json.RawMessage(data), nil
}

func (f *fakeDownloader) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

type recordingWriter struct {
	mu     sync.Mutex
	runIDs []uuid.UUID
	rows   map[string][]requirementsfunding.Row
	err    error
	closed bool
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{rows: map[string][]requirementsfunding.Row{}}
}

func (w *recordingWriter) WriteRows(ctx context.Context, runID uuid.UUID, country locations.Country, rows []requirementsfunding.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	w.runIDs = append(w.runIDs, runID)
	w.rows[country.ISO3] = rows
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func values(rows []requirementsfunding.Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}
