// Package ftsimporter runs the FTS requirements and funding import: for each
// country it enumerates plans, resolves their per-country figures, fetches
// yearly funding totals and writes the resulting rows to a CSV resource and
// the configured stores.
package ftsimporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog"

	"github.com/bcaldwell/ftsimporter/pkg/config"
	"github.com/bcaldwell/ftsimporter/pkg/fts"
	"github.com/bcaldwell/ftsimporter/pkg/influxutils"
	"github.com/bcaldwell/ftsimporter/pkg/locations"
	"github.com/bcaldwell/ftsimporter/pkg/postgresutils"
	"github.com/bcaldwell/ftsimporter/pkg/requirementsfunding"
	"github.com/bcaldwell/ftsimporter/pkg/resource"
)

var ErrCountriesFailed = errors.New("countries failed to import")

// RowWriter stores the rows of one country.
type RowWriter interface {
	WriteRows(ctx context.Context, runID uuid.UUID, country locations.Country, rows []requirementsfunding.Row) error
	Close() error
}

type ImportFTSRunner struct {
	downloader fts.Downloader
	sink       requirementsfunding.ResourceSink
	writers    []RowWriter

	folder    string
	workers   int
	countries []string
	startYear int

	now   func() time.Time
	newID func() uuid.UUID
}

// run holds what is shared by every country of a single Run. Plans listed by
// several countries are resolved once.
type run struct {
	id       uuid.UUID
	resolver *requirementsfunding.PlanResolver
	fetcher  *requirementsfunding.FundingFetcher

	mu    sync.Mutex
	plans map[string]requirementsfunding.ResolvedPlan
}

func (r *run) resolve(ctx context.Context, plan requirementsfunding.Plan) (requirementsfunding.ResolvedPlan, error) {
	r.mu.Lock()
	cached, ok := r.plans[plan.ID]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	resolved, err := r.resolver.Resolve(ctx, plan)
	if err != nil {
		return requirementsfunding.ResolvedPlan{}, err
	}

	r.mu.Lock()
	r.plans[plan.ID] = resolved
	r.mu.Unlock()

	return resolved, nil
}

// NewImportFTSRunner builds a runner from the current config, connecting to
// the enabled stores.
func NewImportFTSRunner(ctx context.Context) (*ImportFTSRunner, error) {
	c := config.CurrentConfig()
	ftsConfig := config.CurrentFTSConfig()

	client := fts.NewClient(ftsConfig.BaseURL, ftsConfig.V2BaseURL, time.Duration(ftsConfig.TimeoutSeconds)*time.Second)

	writers := []RowWriter{}

	if sqlConfig := config.CurrentSQLConfig(); sqlConfig.Enabled {
		db, err := postgresutils.CreatePostgresClient(ctx, sqlConfig.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		writer := NewSQLRowWriter(db, sqlConfig.Table, sqlConfig.BatchSize)
		if err := writer.Migrate(ctx); err != nil {
			writer.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", sqlConfig.Table, err)
		}
		writers = append(writers, writer)
	}

	if influxConfig := config.CurrentInfluxConfig(); influxConfig.Enabled {
		influxClient, err := influxutils.CreateInfluxClient()
		if err != nil {
			closeWriters(writers)
			return nil, fmt.Errorf("failed to create influx client: %w", err)
		}

		if err := influxutils.CreateDatabase(influxClient, influxConfig.Database); err != nil {
			influxClient.Close()
			closeWriters(writers)
			return nil, fmt.Errorf("failed to create influx database %s: %w", influxConfig.Database, err)
		}
		writers = append(writers, NewInfluxRowWriter(influxClient, influxConfig.Database, influxConfig.Measurement))
	}

	return newImportFTSRunner(client, resource.NewCSVSink(), writers, c.Output.Folder, c.Workers, c.Countries, ftsConfig.StartYear), nil
}

func newImportFTSRunner(d fts.Downloader, sink requirementsfunding.ResourceSink, writers []RowWriter, folder string, workers int, countries []string, startYear int) *ImportFTSRunner {
	if workers <= 0 {
		workers = 1
	}
	if startYear == 0 {
		startYear = requirementsfunding.DefaultStartYear
	}

	return &ImportFTSRunner{
		downloader: d,
		sink:       sink,
		writers:    writers,
		folder:     folder,
		workers:    workers,
		countries:  countries,
		startYear:  startYear,
		now:        time.Now,
		newID:      uuid.New,
	}
}

func (importer *ImportFTSRunner) Run() error {
	return importer.RunContext(context.Background())
}

// RunContext imports every selected country. A failing country is logged and
// skipped; the returned error wraps ErrCountriesFailed when any country failed.
func (importer *ImportFTSRunner) RunContext(ctx context.Context) error {
	start := importer.now()

	locs, err := locations.Load(ctx, importer.downloader, importer.countries)
	if err != nil {
		return err
	}

	r := &run{
		id:       importer.newID(),
		resolver: requirementsfunding.NewPlanResolver(importer.downloader, locs),
		fetcher:  requirementsfunding.NewFundingFetcher(importer.downloader, start, importer.startYear),
		plans:    map[string]requirementsfunding.ResolvedPlan{},
	}

	slog.Info("starting fts import", "run", r.id, "countries", len(locs.Countries), "workers", importer.workers)

	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importer.workers)

	for _, country := range locs.Countries {
		country := country
		g.Go(func() error {
			if err := importer.importCountry(gctx, r, country); err != nil {
				failed.Add(1)
				slog.Error("failed to import country", "run", r.id, "country", country.ISO3, "error", err)
			}
			return nil
		})
	}

	// countries never return errors to the group
	_ = g.Wait()

	klog.Infof("Finished fts import %s in %s\n", r.id, importer.now().Sub(start).Round(time.Second))

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCountriesFailed, n, len(locs.Countries))
	}
	return ctx.Err()
}

func (importer *ImportFTSRunner) importCountry(ctx context.Context, r *run, country locations.Country) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	plans, err := listCountryPlans(ctx, importer.downloader, country.ISO3)
	if err != nil {
		return err
	}

	if len(plans) == 0 {
		slog.Info("no plans for country", "country", country.ISO3)
		return nil
	}

	resolved := make([]requirementsfunding.ResolvedPlan, len(plans))
	for i, p := range plans {
		resolved[i], err = r.resolve(ctx, p.plan)
		if err != nil {
			return err
		}
	}

	plansByYear := groupByYear(plans, resolved)

	fundingByYear, err := r.fetcher.FetchCountryFunding(ctx, country.ID, plansByYear)
	if err != nil {
		return err
	}

	rows, err := requirementsfunding.BuildRows(country, plansByYear, fundingByYear)
	if err != nil {
		return err
	}

	res, err := requirementsfunding.GenerateResource(importer.sink, importer.folder, country, rows)
	if err != nil {
		return err
	}

	for _, w := range importer.writers {
		if err := w.WriteRows(ctx, r.id, country, rows); err != nil {
			return err
		}
	}

	if res != nil {
		slog.Info("generated resource", "country", country.ISO3, "path", res.Path, "rows", res.Rows)
	}

	return nil
}

func (importer *ImportFTSRunner) Close() error {
	return closeWriters(importer.writers)
}

func closeWriters(writers []RowWriter) error {
	var errs []error
	for _, w := range writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
