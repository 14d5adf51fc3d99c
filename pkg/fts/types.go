package fts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is an optional upstream figure. JSON null, blank strings and missing
// members all decode to an unset Amount, which is distinct from zero.
type Amount struct {
	decimal.NullDecimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{NullDecimal: decimal.NewNullDecimal(d)}
}

func NewAmountFromInt(v int64) Amount {
	return NewAmount(decimal.NewFromInt(v))
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if string(trimmed) == "null" || string(trimmed) == `""` {
		*a = Amount{}
		return nil
	}
	return a.NullDecimal.UnmarshalJSON(trimmed)
}

// String renders the amount, or "" when unset.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return a.Decimal.String()
}

// FlexID holds identifiers FTS sends either as JSON numbers or strings.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if string(trimmed) == "null" {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", trimmed, err)
	}
	*id = FlexID(n.String())
	return nil
}

// Int returns the id as an integer when it is a whole number.
func (id FlexID) Int() (int, bool) {
	if id == "" {
		return 0, false
	}
	v, err := strconv.Atoi(string(id))
	if err != nil {
		return 0, false
	}
	return v, true
}

func (id FlexID) String() string {
	return string(id)
}

// Location is a location reference embedded in plans and the location list.
type Location struct {
	ID         FlexID `json:"id"`
	ISO3       string `json:"iso3"`
	Name       string `json:"name"`
	AdminLevel int    `json:"adminLevel"`
}

type PlanYear struct {
	ID   FlexID `json:"id"`
	Year FlexID `json:"year"`
}

type Requirements struct {
	RevisedRequirements Amount `json:"revisedRequirements"`
}

type Funding struct {
	TotalFunding Amount `json:"totalFunding"`
	Progress     Amount `json:"progress"`
}

// Plan is a humanitarian response plan as FTS returns it.
type Plan struct {
	ID                 FlexID        `json:"id"`
	Name               string        `json:"name"`
	Code               string        `json:"code"`
	StartDate          string        `json:"startDate"`
	EndDate            string        `json:"endDate"`
	CustomLocationCode string        `json:"customLocationCode"`
	Requirements       *Requirements `json:"requirements"`
	Funding            *Funding      `json:"funding"`
	// only present on the v1 plan listing
	RevisedRequirements Amount     `json:"revisedRequirements"`
	Locations           []Location `json:"locations"`
	Years               []PlanYear `json:"years"`
}

// ReportObject is one entry of a grouped requirements or funding report.
type ReportObject struct {
	ID                  FlexID `json:"id"`
	Name                string `json:"name"`
	Type                string `json:"type"`
	RevisedRequirements Amount `json:"revisedRequirements"`
	TotalFunding        Amount `json:"totalFunding"`
}

type ReportObjects struct {
	Objects []ReportObject `json:"objects"`
}

type FundingTotal struct {
	TotalFunding     Amount         `json:"totalFunding"`
	ObjectsBreakdown []ReportObject `json:"objectsBreakdown"`
}

type FundingTotals struct {
	Objects []FundingTotal `json:"objects"`
}

// LocationReport is the response of fts/flow?planid=<id>&groupby=location.
type LocationReport struct {
	Requirements *ReportObjects `json:"requirements"`
	Report3      struct {
		FundingTotals FundingTotals `json:"fundingTotals"`
	} `json:"report3"`
}

// TrendPoint is one year of country/<id>/summary/trends/<year>.
type TrendPoint struct {
	Year         FlexID `json:"year"`
	TotalFunding Amount `json:"totalFunding"`
}
