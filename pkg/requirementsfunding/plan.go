// Package requirementsfunding computes per country requirements and funding
// for FTS plans, reconciles them against a country's yearly funding total and
// builds the rows of the annual requirements and funding resource.
package requirementsfunding

import (
	"log/slog"
	"strings"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
)

// PlanCountry is a country as listed by a plan.
type PlanCountry struct {
	ID   int
	ISO3 string
	Name string
}

type Plan struct {
	ID                 string
	Name               string
	Code               string
	StartDate          string
	EndDate            string
	CustomLocationCode string
	Requirements       *fts.Requirements
	Funding            *fts.Funding
	Countries          []PlanCountry
}

// CountryFigures are the requirements and funding attributed to one country of
// a plan. Unset amounts mean the figure is unknown, not zero.
type CountryFigures struct {
	PlanCountry
	Requirements  fts.Amount
	Funding       fts.Amount
	PercentFunded fts.Amount
}

// ResolvedPlan is a plan together with the figures of each of its countries.
// It is built once by PlanResolver and read only afterwards.
type ResolvedPlan struct {
	Plan      Plan
	Countries []CountryFigures
	byISO3    map[string]int
}

func newResolvedPlan(plan Plan, figures []CountryFigures) ResolvedPlan {
	rp := ResolvedPlan{
		Plan:      plan,
		Countries: figures,
		byISO3:    make(map[string]int, len(figures)),
	}
	for i, f := range figures {
		iso3 := strings.ToUpper(f.ISO3)
		if _, ok := rp.byISO3[iso3]; ok {
			// first entry wins
			slog.Warn("plan lists country more than once", "plan", plan.ID, "country", iso3)
			continue
		}
		rp.byISO3[iso3] = i
	}
	return rp
}

// Country returns the figures for iso3. A plan maps each ISO3 to at most one
// entry; when upstream lists a country twice the first listing is used.
func (p ResolvedPlan) Country(iso3 string) (CountryFigures, bool) {
	i, ok := p.byISO3[strings.ToUpper(iso3)]
	if !ok {
		return CountryFigures{}, false
	}
	return p.Countries[i], true
}
