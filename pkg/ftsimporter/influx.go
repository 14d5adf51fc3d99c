package ftsimporter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	influx "github.com/influxdata/influxdb/client/v2"
	"k8s.io/klog"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
	"github.com/bcaldwell/ftsimporter/pkg/influxutils"
	"github.com/bcaldwell/ftsimporter/pkg/locations"
	"github.com/bcaldwell/ftsimporter/pkg/requirementsfunding"
)

// InfluxRowWriter replaces a country's series with one point per row.
type InfluxRowWriter struct {
	client      influx.Client
	database    string
	measurement string
}

func NewInfluxRowWriter(client influx.Client, database, measurement string) *InfluxRowWriter {
	return &InfluxRowWriter{client: client, database: database, measurement: measurement}
}

func (w *InfluxRowWriter) WriteRows(ctx context.Context, runID uuid.UUID, country locations.Country, rows []requirementsfunding.Row) error {
	bp, err := rowsToBatchPoints(w.database, w.measurement, runID, rows)
	if err != nil {
		return err
	}

	err = influxutils.DropSeries(w.client, w.database, w.measurement, map[string]string{"country": country.ISO3})
	if err != nil {
		return fmt.Errorf("error dropping influx series for %s: %w", country.ISO3, err)
	}

	if err := w.client.Write(bp); err != nil {
		return fmt.Errorf("error writing influx points for %s: %w", country.ISO3, err)
	}

	klog.Infof("Wrote %v requirements and funding points for %s to influx\n", len(bp.Points()), country.ISO3)

	return nil
}

func (w *InfluxRowWriter) Close() error {
	return w.client.Close()
}

func rowsToBatchPoints(database, measurement string, runID uuid.UUID, rows []requirementsfunding.Row) (influx.BatchPoints, error) {
	bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{
		Database:  database,
		Precision: "h",
	})
	if err != nil {
		return nil, fmt.Errorf("error creating InfluxDB point batch: %w", err)
	}

	for _, row := range rows {
		tags := map[string]string{
			"country":  row.CountryCode,
			"plan":     planTag(row),
			"residual": fmt.Sprintf("%t", row.IsResidual()),
		}
		if row.Code != "" {
			tags["code"] = row.Code
		}

		fields := map[string]interface{}{
			"year": row.Year,
			"run":  runID.String(),
		}
		addAmountField(fields, "requirements", row.Requirements)
		addAmountField(fields, "funding", row.Funding)
		addAmountField(fields, "percentFunded", row.PercentFunded)
		if row.Name != "" {
			fields["name"] = row.Name
		}

		pt, err := influx.NewPoint(measurement, tags, fields, time.Date(row.Year, time.January, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			return nil, fmt.Errorf("error creating InfluxDB point: %w", err)
		}
		bp.AddPoint(pt)
	}

	return bp, nil
}

// addAmountField skips unset amounts so influx keeps them absent rather than zero.
func addAmountField(fields map[string]interface{}, name string, a fts.Amount) {
	if a.Valid {
		fields[name] = a.Decimal.InexactFloat64()
	}
}
