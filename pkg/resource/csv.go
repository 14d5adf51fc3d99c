// Package resource writes tabular resources to disk.
package resource

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

type Metadata struct {
	Name        string
	Description string
	Format      string
}

type Resource struct {
	Metadata
	Path string
	Rows int
}

type Result struct {
	Success  bool
	Resource Resource
}

// CSVSink writes rows as a CSV file: a header row, an optional HXL row and
// the data rows.
type CSVSink struct{}

func NewCSVSink() *CSVSink {
	return &CSVSink{}
}

// GenerateFromRows writes folder/filename. hxlHints maps a header to its HXL
// tag; the HXL row is only written when at least one header has a tag. An
// empty rows slice is reported as an unsuccessful result without writing.
func (s *CSVSink) GenerateFromRows(headers []string, rows [][]string, hxlHints map[string]string, folder, filename string, metadata Metadata) (Result, error) {
	if len(rows) == 0 {
		return Result{Success: false}, nil
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create folder %s: %w", folder, err)
	}

	path := filepath.Join(folder, filename)
	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return Result{}, fmt.Errorf("failed to write header: %w", err)
	}

	if hxl, ok := hxlRow(headers, hxlHints); ok {
		if err := w.Write(hxl); err != nil {
			return Result{}, fmt.Errorf("failed to write hxl row: %w", err)
		}
	}

	for i, row := range rows {
		if len(row) != len(headers) {
			return Result{}, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), len(headers))
		}
		if err := w.Write(row); err != nil {
			return Result{}, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return Result{}, fmt.Errorf("failed to flush %s: %w", path, err)
	}

	return Result{
		Success: true,
		Resource: Resource{
			Metadata: metadata,
			Path:     path,
			Rows:     len(rows),
		},
	}, nil
}

func hxlRow(headers []string, hints map[string]string) ([]string, bool) {
	row := make([]string, len(headers))
	found := false
	for i, h := range headers {
		if tag, ok := hints[h]; ok {
			row[i] = tag
			found = true
		}
	}
	return row, found
}
