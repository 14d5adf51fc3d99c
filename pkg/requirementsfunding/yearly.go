package requirementsfunding

import (
	"context"
	"fmt"
	"time"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
)

const DefaultStartYear = 2010

// TrendYearStride is the number of years walked back between two trend
// requests. The trend endpoint returns a window of years ending at the
// requested one, so one request per stride covers the whole range.
const TrendYearStride = 11

// FundingByYear is a country's total funding per year. Years without upstream
// data are absent; a present but unset amount means upstream reported null.
type FundingByYear map[int]fts.Amount

type YearPlans struct {
	Year  int
	Plans []ResolvedPlan
}

// PlansByYear keeps years in the order they were grouped.
type PlansByYear []YearPlans

func (p PlansByYear) MinYear() (int, bool) {
	if len(p) == 0 {
		return 0, false
	}
	min := p[0].Year
	for _, yp := range p[1:] {
		if yp.Year < min {
			min = yp.Year
		}
	}
	return min, true
}

type FundingFetcher struct {
	downloader fts.Downloader
	today      time.Time
	startYear  int
}

func NewFundingFetcher(downloader fts.Downloader, today time.Time, startYear int) *FundingFetcher {
	if startYear == 0 {
		startYear = DefaultStartYear
	}
	return &FundingFetcher{downloader: downloader, today: today, startYear: startYear}
}

// FetchCountryFunding walks back from the current year to, but not including,
// the start year. The start year is the earliest year of plansByYear when it is
// not empty.
func (f *FundingFetcher) FetchCountryFunding(ctx context.Context, countryID int, plansByYear PlansByYear) (FundingByYear, error) {
	startYear := f.startYear
	if min, ok := plansByYear.MinYear(); ok {
		startYear = min
	}

	fundingByYear := FundingByYear{}
	for year := f.today.Year(); year > startYear; year -= TrendYearStride {
		path := fmt.Sprintf("country/%d/summary/trends/%d", countryID, year)
		points, err := fts.Download[[]fts.TrendPoint](ctx, f.downloader, path, fts.V2)
		if err != nil {
			return nil, fmt.Errorf("failed to get funding trends for country %d: %w", countryID, err)
		}

		for _, point := range points {
			pointYear, ok := point.Year.Int()
			if !ok || pointYear < startYear {
				continue
			}
			fundingByYear[pointYear] = point.TotalFunding
		}
	}

	return fundingByYear, nil
}
