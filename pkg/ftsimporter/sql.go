package ftsimporter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"k8s.io/klog"

	"github.com/bcaldwell/ftsimporter/pkg/locations"
	"github.com/bcaldwell/ftsimporter/pkg/postgresutils"
	"github.com/bcaldwell/ftsimporter/pkg/requirementsfunding"
)

const notSpecified = "not-specified"

type SQLRequirementsFunding struct {
	bun.BaseModel `bun:"table:requirements_funding"`
	ID            int64  `bun:",pk,autoincrement"`
	Key           string `bun:",unique"`
	CountryCode   string
	PlanID        string
	PlanName      string
	PlanCode      string
	StartDate     string
	EndDate       string
	Year          int
	Requirements  decimal.NullDecimal `bun:"type:numeric"`
	Funding       decimal.NullDecimal `bun:"type:numeric"`
	PercentFunded decimal.NullDecimal `bun:"type:numeric"`
	RunID         uuid.UUID           `bun:"type:uuid"`
	UpdatedAt     time.Time
}

// SQLRowWriter upserts rows into a postgres table keyed by country, year and
// plan so reruns overwrite instead of duplicating.
type SQLRowWriter struct {
	db        *bun.DB
	table     string
	batchSize int
	now       func() time.Time
}

func NewSQLRowWriter(db *bun.DB, table string, batchSize int) *SQLRowWriter {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &SQLRowWriter{db: db, table: table, batchSize: batchSize, now: time.Now}
}

func (w *SQLRowWriter) Migrate(ctx context.Context) error {
	_, err := w.db.NewCreateTable().Model((*SQLRequirementsFunding)(nil)).ModelTableExpr(w.table).IfNotExists().Exec(ctx)
	return err
}

func (w *SQLRowWriter) WriteRows(ctx context.Context, runID uuid.UUID, country locations.Country, rows []requirementsfunding.Row) error {
	model := (*SQLRequirementsFunding)(nil)
	sqlRecords := toSQLRecords(runID, rows, w.now())

	for i := 0; i < len(sqlRecords); i += w.batchSize {
		endIndex := min(len(sqlRecords), i+w.batchSize)

		records := sqlRecords[i:endIndex]
		_, err := w.db.NewInsert().
			Model(&records).
			ModelTableExpr(w.table).
			On("CONFLICT (key) DO UPDATE").
			Set(postgresutils.TableSetString(w.db, model, "id", "key")).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error writing requirements and funding for %s: %w", country.ISO3, err)
		}
	}

	klog.Infof("Wrote %v requirements and funding rows for %s to sql\n", len(sqlRecords), country.ISO3)

	return nil
}

func (w *SQLRowWriter) Close() error {
	return w.db.Close()
}

func toSQLRecords(runID uuid.UUID, rows []requirementsfunding.Row, updatedAt time.Time) []SQLRequirementsFunding {
	records := make([]SQLRequirementsFunding, 0, len(rows))
	for _, row := range rows {
		records = append(records, SQLRequirementsFunding{
			Key:           sqlKey(row),
			CountryCode:   row.CountryCode,
			PlanID:        row.ID,
			PlanName:      row.Name,
			PlanCode:      row.Code,
			StartDate:     row.StartDate,
			EndDate:       row.EndDate,
			Year:          row.Year,
			Requirements:  row.Requirements.NullDecimal,
			Funding:       row.Funding.NullDecimal,
			PercentFunded: row.PercentFunded.NullDecimal,
			RunID:         runID,
			UpdatedAt:     updatedAt,
		})
	}
	return records
}

func sqlKey(row requirementsfunding.Row) string {
	return fmt.Sprintf("%s::%d::%s", row.CountryCode, row.Year, planTag(row))
}

func planTag(row requirementsfunding.Row) string {
	if row.IsResidual() {
		return notSpecified
	}
	return row.ID
}
