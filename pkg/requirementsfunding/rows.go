package requirementsfunding

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
	"github.com/bcaldwell/ftsimporter/pkg/locations"
)

// ErrMissingYearFunding is returned when a year of plansByYear has no entry in
// the funding by year map.
var ErrMissingYearFunding = errors.New("no yearly funding total for year")

var Headers = []string{
	"countryCode", "id", "name", "code", "startDate", "endDate", "year",
	"requirements", "funding", "percentFunded",
}

var HXLHints = map[string]string{
	"countryCode":   "#country+code",
	"id":            "#activity+appeal+id+fts_internal",
	"name":          "#activity+appeal+name",
	"code":          "#activity+appeal+id+external",
	"startDate":     "#date+start",
	"endDate":       "#date+end",
	"year":          "#date+year",
	"requirements":  "#value+funding+required+usd",
	"funding":       "#value+funding+total+usd",
	"percentFunded": "#value+funding+pct",
}

// Row is one line of the requirements and funding resource. Residual rows
// carry the country's funding not attributed to any plan and have no plan
// identity.
type Row struct {
	CountryCode   string
	ID            string
	Name          string
	Code          string
	StartDate     string
	EndDate       string
	Year          int
	Requirements  fts.Amount
	Funding       fts.Amount
	PercentFunded fts.Amount
}

func (r Row) IsResidual() bool {
	return r.ID == ""
}

// Values returns the row in Headers order, unset amounts as "".
func (r Row) Values() []string {
	return []string{
		r.CountryCode, r.ID, r.Name, r.Code, r.StartDate, r.EndDate,
		strconv.Itoa(r.Year),
		r.Requirements.String(), r.Funding.String(), r.PercentFunded.String(),
	}
}

// BuildRows emits, for each year in order, one row per plan that lists country
// followed by one residual row. The residual is the year's total funding minus
// the funding of every plan row with known funding; it is not clamped.
func BuildRows(country locations.Country, plansByYear PlansByYear, fundingByYear FundingByYear) ([]Row, error) {
	rows := []Row{}

	for _, yp := range plansByYear {
		residual, ok := fundingByYear[yp.Year]
		if !ok {
			return nil, fmt.Errorf("%w %d (country %s)", ErrMissingYearFunding, yp.Year, country.ISO3)
		}

		for _, plan := range yp.Plans {
			figures, ok := plan.Country(country.ISO3)
			if !ok {
				continue
			}

			if figures.Funding.Valid && residual.Valid {
				residual = fts.NewAmount(residual.Decimal.Sub(figures.Funding.Decimal))
			}

			rows = append(rows, Row{
				CountryCode:   country.ISO3,
				ID:            plan.Plan.ID,
				Name:          plan.Plan.Name,
				Code:          plan.Plan.Code,
				StartDate:     plan.Plan.StartDate,
				EndDate:       plan.Plan.EndDate,
				Year:          yp.Year,
				Requirements:  figures.Requirements,
				Funding:       figures.Funding,
				PercentFunded: figures.PercentFunded,
			})
		}

		rows = append(rows, Row{
			CountryCode: country.ISO3,
			Year:        yp.Year,
			Funding:     residual,
		})
	}

	return rows, nil
}
