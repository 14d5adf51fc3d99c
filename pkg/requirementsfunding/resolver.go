package requirementsfunding

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
	"github.com/shopspring/decimal"
)

// Plans tagged with one of these location codes are cross cutting (global,
// COVID-19) and are never attributed to their listed countries.
var excludedLocationCodes = map[string]bool{
	"GLBL": true,
	"COVD": true,
}

var hundred = decimal.NewFromInt(100)

// CountryResolver maps an upstream report object to a known country id.
type CountryResolver interface {
	CountryIDFromObject(obj fts.ReportObject) (int, bool)
}

type PlanResolver struct {
	downloader fts.Downloader
	locations  CountryResolver
}

func NewPlanResolver(downloader fts.Downloader, locations CountryResolver) *PlanResolver {
	return &PlanResolver{downloader: downloader, locations: locations}
}

// Resolve computes the figures of every country of plan. Single country plans
// copy the plan totals verbatim; multi country plans are distributed using the
// plan's funding grouped by location. Download errors are returned as is.
func (r *PlanResolver) Resolve(ctx context.Context, plan Plan) (ResolvedPlan, error) {
	figures := make([]CountryFigures, len(plan.Countries))
	for i, c := range plan.Countries {
		figures[i] = CountryFigures{PlanCountry: c}
	}

	switch {
	case len(figures) == 0:
		return newResolvedPlan(plan, figures), nil
	case len(figures) == 1:
		resolveSingleCountry(plan, &figures[0])
		return newResolvedPlan(plan, figures), nil
	}

	if excludedLocationCodes[plan.CustomLocationCode] {
		slog.Info("not attributing cross cutting plan", "plan", plan.ID, "locationCode", plan.CustomLocationCode, "countries", len(figures))
		return newResolvedPlan(plan, figures), nil
	}

	report, err := fts.Download[fts.LocationReport](ctx, r.downloader, locationReportPath(plan.ID), fts.V1)
	if err != nil {
		return ResolvedPlan{}, fmt.Errorf("failed to get funding by location for plan %s: %w", plan.ID, err)
	}

	countryRequirements := r.requirementsByCountry(report)
	countryFunding := r.fundingByCountry(plan, report)

	for i := range figures {
		f := &figures[i]
		f.Requirements = countryRequirements[f.ID]
		f.Funding = countryFunding[f.ID]
		f.PercentFunded = percentFunded(f.Funding, f.Requirements)
	}

	return newResolvedPlan(plan, figures), nil
}

func resolveSingleCountry(plan Plan, f *CountryFigures) {
	if plan.Requirements != nil {
		f.Requirements = plan.Requirements.RevisedRequirements
	}
	if plan.Funding != nil {
		f.Funding = plan.Funding.TotalFunding
		f.PercentFunded = plan.Funding.Progress
	}
}

func (r *PlanResolver) requirementsByCountry(report fts.LocationReport) map[int]fts.Amount {
	byCountry := map[int]fts.Amount{}
	if report.Requirements == nil {
		return byCountry
	}
	for _, obj := range report.Requirements.Objects {
		id, ok := r.locations.CountryIDFromObject(obj)
		if !ok || !obj.RevisedRequirements.Valid {
			continue
		}
		byCountry[id] = obj.RevisedRequirements
	}
	return byCountry
}

func (r *PlanResolver) fundingByCountry(plan Plan, report fts.LocationReport) map[int]fts.Amount {
	byCountry := map[int]fts.Amount{}
	totals := report.Report3.FundingTotals.Objects
	if len(totals) != 1 {
		if len(totals) > 1 {
			slog.Warn("leaving funding unattributed, ambiguous funding totals", "plan", plan.ID, "objects", len(totals))
		}
		return byCountry
	}
	for _, obj := range totals[0].ObjectsBreakdown {
		id, ok := r.locations.CountryIDFromObject(obj)
		if !ok || !obj.TotalFunding.Valid {
			continue
		}
		byCountry[id] = obj.TotalFunding
	}
	return byCountry
}

func percentFunded(funding, requirements fts.Amount) fts.Amount {
	if !funding.Valid || !requirements.Valid || requirements.Decimal.IsZero() {
		return fts.Amount{}
	}
	return fts.NewAmount(funding.Decimal.Div(requirements.Decimal).Mul(hundred))
}

func locationReportPath(planID string) string {
	q := url.Values{}
	q.Set("planid", planID)
	q.Set("groupby", "location")
	return "fts/flow?" + q.Encode()
}
