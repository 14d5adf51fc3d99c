package postgresutils

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"k8s.io/klog"

	"github.com/bcaldwell/ftsimporter/pkg/config"
)

const defaultPort = ":5432"

// CreatePostgresClient connects to dbname, creating it first when it does not
// exist. When DATABASE_URL is set it is used as is.
func CreatePostgresClient(ctx context.Context, dbname string) (*bun.DB, error) {
	var pgconn *pgdriver.Connector

	if config.CurrentSecrets().DatabaseURL == "" {
		sqlHost := withPort(config.CurrentSqlSecrets().SqlHost)

		err := ensureDBExistsInPostgres(ctx, sqlHost, dbname)
		if err != nil {
			return nil, err
		}

		pgconn = pgdriver.NewConnector(
			pgdriver.WithAddr(sqlHost),
			pgdriver.WithInsecure(true),
			pgdriver.WithUser(config.CurrentSqlSecrets().SqlUsername),
			pgdriver.WithPassword(config.CurrentSqlSecrets().SqlPassword),
			pgdriver.WithDatabase(dbname),
		)
	} else {
		// this panics if its invalid
		pgconn = pgdriver.NewConnector(pgdriver.WithDSN(config.CurrentSecrets().DatabaseURL))
	}

	db := sql.OpenDB(pgconn)
	err := db.PingContext(ctx)

	return bun.NewDB(db, pgdialect.New()), err
}

func withPort(host string) string {
	if host == "" || strings.Contains(host, ":") {
		return host
	}
	return host + defaultPort
}

func ensureDBExistsInPostgres(ctx context.Context, sqlHost, dbname string) error {
	pgconn := pgdriver.NewConnector(
		pgdriver.WithAddr(sqlHost),
		pgdriver.WithInsecure(true),
		pgdriver.WithUser(config.CurrentSqlSecrets().SqlUsername),
		pgdriver.WithPassword(config.CurrentSqlSecrets().SqlPassword),
		pgdriver.WithDatabase("postgres"),
	)

	db := sql.OpenDB(pgconn)
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT datname FROM pg_database WHERE datname = $1", dbname)
	if err != nil {
		return fmt.Errorf("failed to get list of databases: %w", err)
	}
	defer rows.Close()

	// next meaning there is a row, all we care about is if there is a row
	if !rows.Next() {
		klog.Infof("Creating database %s in postgres\n", dbname)
		_, err := db.ExecContext(ctx, `CREATE DATABASE "`+dbname+`"`)
		if err != nil {
			return fmt.Errorf("failed to create database %s: %w", dbname, err)
		}
	}

	return nil
}

// TableSetString builds the SET clause of an upsert that overwrites every
// column of model except exclude.
func TableSetString(db *bun.DB, model interface{}, exclude ...string) string {
	t := db.Dialect().Tables().Get(reflect.TypeOf(model).Elem())
	if t == nil {
		return ""
	}

	parts := []string{}

	for _, f := range t.FieldMap {
		if slices.Contains(exclude, f.Name) {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", f.Name, f.Name))
	}

	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
