package ftsimporter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
	"github.com/bcaldwell/ftsimporter/pkg/requirementsfunding"
)

type countryPlan struct {
	plan  requirementsfunding.Plan
	years []int
}

// listCountryPlans returns the plans FTS lists for iso3, in listing order and
// without duplicates. Each plan's details (requirements, funding, locations)
// come from the v2 plan endpoint, falling back to the listing when a member is
// missing there.
func listCountryPlans(ctx context.Context, d fts.Downloader, iso3 string) ([]countryPlan, error) {
	listed, err := fts.Download[[]fts.Plan](ctx, d, "plan/country/"+iso3, fts.V1)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans for %s: %w", iso3, err)
	}

	seen := map[fts.FlexID]bool{}
	plans := make([]countryPlan, 0, len(listed))

	for _, l := range listed {
		if l.ID == "" || seen[l.ID] {
			continue
		}
		seen[l.ID] = true

		detail, err := fts.Download[fts.Plan](ctx, d, "plan/"+l.ID.String(), fts.V2)
		if err != nil {
			return nil, fmt.Errorf("failed to get plan %s: %w", l.ID, err)
		}

		p := countryPlan{plan: planFromAPI(l, detail)}
		p.years = planYears(detail.Years)
		if len(p.years) == 0 {
			p.years = planYears(l.Years)
		}
		if len(p.years) == 0 {
			slog.Warn("skipping plan without years", "plan", l.ID, "country", iso3)
			continue
		}

		plans = append(plans, p)
	}

	return plans, nil
}

func planFromAPI(listed, detail fts.Plan) requirementsfunding.Plan {
	plan := requirementsfunding.Plan{
		ID:                 listed.ID.String(),
		Name:               firstNonEmpty(detail.Name, listed.Name),
		Code:               firstNonEmpty(detail.Code, listed.Code),
		StartDate:          formatDate(firstNonEmpty(detail.StartDate, listed.StartDate)),
		EndDate:            formatDate(firstNonEmpty(detail.EndDate, listed.EndDate)),
		CustomLocationCode: firstNonEmpty(detail.CustomLocationCode, listed.CustomLocationCode),
		Requirements:       detail.Requirements,
		Funding:            detail.Funding,
	}

	if plan.Requirements == nil && listed.RevisedRequirements.Valid {
		plan.Requirements = &fts.Requirements{RevisedRequirements: listed.RevisedRequirements}
	}

	locations := detail.Locations
	if len(locations) == 0 {
		locations = listed.Locations
	}
	plan.Countries = planCountries(locations)

	return plan
}

// planCountries keeps the admin level 0 locations of a plan in upstream order.
func planCountries(locations []fts.Location) []requirementsfunding.PlanCountry {
	countries := []requirementsfunding.PlanCountry{}
	for _, l := range locations {
		if l.AdminLevel != 0 || l.ISO3 == "" {
			continue
		}
		id, ok := l.ID.Int()
		if !ok {
			continue
		}
		countries = append(countries, requirementsfunding.PlanCountry{
			ID:   id,
			ISO3: strings.ToUpper(l.ISO3),
			Name: l.Name,
		})
	}
	return countries
}

func planYears(years []fts.PlanYear) []int {
	unique := map[int]bool{}
	for _, y := range years {
		if year, ok := y.Year.Int(); ok {
			unique[year] = true
		}
	}

	out := make([]int, 0, len(unique))
	for year := range unique {
		out = append(out, year)
	}
	sort.Ints(out)
	return out
}

// groupByYear files every resolved plan under each of its years. Years are
// ascending, plans keep listing order within a year.
func groupByYear(plans []countryPlan, resolved []requirementsfunding.ResolvedPlan) requirementsfunding.PlansByYear {
	byYear := map[int][]requirementsfunding.ResolvedPlan{}
	for i, p := range plans {
		for _, year := range p.years {
			byYear[year] = append(byYear[year], resolved[i])
		}
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	plansByYear := make(requirementsfunding.PlansByYear, 0, len(years))
	for _, year := range years {
		plansByYear = append(plansByYear, requirementsfunding.YearPlans{Year: year, Plans: byYear[year]})
	}
	return plansByYear
}

func formatDate(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
