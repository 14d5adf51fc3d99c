// Package locations holds the country reference table used to attribute FTS
// report objects to countries.
package locations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
)

type Country struct {
	ID   int
	ISO3 string
	Name string
}

type Locations struct {
	Countries []Country
	byID      map[int]Country
	byISO3    map[string]Country
}

func New(countries []Country) *Locations {
	l := &Locations{
		Countries: countries,
		byID:      make(map[int]Country, len(countries)),
		byISO3:    make(map[string]Country, len(countries)),
	}
	for _, c := range countries {
		l.byID[c.ID] = c
		l.byISO3[strings.ToUpper(c.ISO3)] = c
	}
	return l
}

// Load reads the FTS location list and keeps admin level 0 entries with an
// ISO3 code. A non empty filter restricts Countries to the given ISO3 codes;
// every country stays resolvable by id regardless of the filter.
func Load(ctx context.Context, d fts.Downloader, filter []string) (*Locations, error) {
	raw, err := fts.Download[[]fts.Location](ctx, d, "location", fts.V1)
	if err != nil {
		return nil, fmt.Errorf("failed to download locations: %w", err)
	}

	all := make([]Country, 0, len(raw))
	for _, location := range raw {
		if location.AdminLevel != 0 || location.ISO3 == "" {
			continue
		}
		id, ok := location.ID.Int()
		if !ok {
			slog.Warn("skipping location with non numeric id", "location", location.Name, "id", location.ID)
			continue
		}
		all = append(all, Country{ID: id, ISO3: strings.ToUpper(location.ISO3), Name: location.Name})
	}

	l := New(all)
	if len(filter) > 0 {
		wanted := make(map[string]bool, len(filter))
		for _, iso3 := range filter {
			wanted[strings.ToUpper(iso3)] = true
		}
		selected := []Country{}
		for _, c := range all {
			if wanted[c.ISO3] {
				selected = append(selected, c)
			}
		}
		l.Countries = selected
	}

	slog.Info("loaded locations", "countries", len(l.Countries), "known", len(all))
	return l, nil
}

// CountryIDFromObject resolves the location id embedded in a report object.
// Objects without an id, or with an id that is not a known country (regions,
// "Not specified" buckets), resolve to nothing.
func (l *Locations) CountryIDFromObject(obj fts.ReportObject) (int, bool) {
	id, ok := obj.ID.Int()
	if !ok {
		return 0, false
	}
	if _, ok := l.byID[id]; !ok {
		return 0, false
	}
	return id, true
}

func (l *Locations) CountryByID(id int) (Country, bool) {
	c, ok := l.byID[id]
	return c, ok
}

func (l *Locations) CountryByISO3(iso3 string) (Country, bool) {
	c, ok := l.byISO3[strings.ToUpper(iso3)]
	return c, ok
}
