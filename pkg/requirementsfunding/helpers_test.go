package requirementsfunding

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
	"github.com/bcaldwell/ftsimporter/pkg/locations"
	"github.com/shopspring/decimal"
)

// fakeDownloader serves canned data members keyed by request path.
type fakeDownloader struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func newFakeDownloader(responses map[string]string) *fakeDownloader {
	return &fakeDownloader{responses: responses, errs: map[string]error{}}
}

func (f *fakeDownloader) DownloadData(ctx context.Context, path string, version fts.APIVersion) (json.RawMessage, error) {
	f.calls = append(f.calls, path)
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	data, ok := f.responses[path]
	if !ok {
		return nil, &fts.DownloadError{URL: path, Err: errors.New("no fixture")}
	}
	return json.RawMessage(data), nil
}

var (
	afg = locations.Country{ID: 1, ISO3: "AFG", Name: "Afghanistan"}
	alb = locations.Country{ID: 3, ISO3: "ALB", Name: "Albania"}
	cpv = locations.Country{ID: 41, ISO3: "CPV", Name: "Cape Verde"}
	pak = locations.Country{ID: 165, ISO3: "PAK", Name: "Pakistan"}
)

func testLocations() *locations.Locations {
	return locations.New([]locations.Country{afg, alb, cpv, pak})
}

func planCountry(c locations.Country) PlanCountry {
	return PlanCountry{ID: c.ID, ISO3: c.ISO3, Name: c.Name}
}

func amount(s string) fts.Amount {
	return fts.NewAmount(decimal.RequireFromString(s))
}

// resolvedWith builds a ResolvedPlan directly from figures.
func resolvedWith(plan Plan, figures ...CountryFigures) ResolvedPlan {
	return newResolvedPlan(plan, figures)
}

func figuresFor(c locations.Country, requirements, funding, percent fts.Amount) CountryFigures {
	return CountryFigures{
		PlanCountry:   planCountry(c),
		Requirements:  requirements,
		Funding:       funding,
		PercentFunded: percent,
	}
}
