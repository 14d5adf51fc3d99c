package requirementsfunding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bcaldwell/ftsimporter/pkg/locations"
	"github.com/bcaldwell/ftsimporter/pkg/resource"
)

var ErrResourceNotGenerated = errors.New("resource sink reported failure")

type ResourceSink interface {
	GenerateFromRows(headers []string, rows [][]string, hxlHints map[string]string, folder, filename string, metadata resource.Metadata) (resource.Result, error)
}

func ResourceFilename(iso3 string) string {
	return fmt.Sprintf("fts_requirements_funding_%s.csv", strings.ToLower(iso3))
}

// GenerateResource hands rows to sink. It returns nil without calling the sink
// when there are no rows.
func GenerateResource(sink ResourceSink, folder string, country locations.Country, rows []Row) (*resource.Resource, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	values := make([][]string, len(rows))
	for i, row := range rows {
		values[i] = row.Values()
	}

	filename := ResourceFilename(country.ISO3)
	metadata := resource.Metadata{
		Name:        strings.ToLower(filename),
		Description: fmt.Sprintf("FTS Annual Requirements and Funding Data for %s", country.Name),
		Format:      "csv",
	}

	result, err := sink.GenerateFromRows(Headers, values, HXLHints, folder, filename, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", filename, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotGenerated, filename)
	}

	return &result.Resource, nil
}
