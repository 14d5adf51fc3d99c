package influxutils

import (
	"fmt"
	"sort"
	"strings"

	influx "github.com/influxdata/influxdb/client/v2"

	"github.com/bcaldwell/ftsimporter/pkg/config"
)

func CreateInfluxClient() (influx.Client, error) {
	secrets := config.CurrentInfluxSecrets()
	return influx.NewHTTPClient(influx.HTTPConfig{
		Addr:     secrets.InfluxEndpoint,
		Username: secrets.InfluxUsername,
		Password: secrets.InfluxPassword,
	})
}

func CreateDatabase(influxClient influx.Client, name string) error {
	return runCommand(influxClient, fmt.Sprintf("CREATE DATABASE %s", databaseName(name)))
}

func DropDatabase(influxClient influx.Client, name string) error {
	return runCommand(influxClient, fmt.Sprintf("DROP DATABASE %s", databaseName(name)))
}

// DropSeries removes the series of measurement matching every tag in tags.
func DropSeries(influxClient influx.Client, database, measurement string, tags map[string]string) error {
	command := fmt.Sprintf("DROP SERIES FROM %q", measurement)
	if len(tags) > 0 {
		conditions := make([]string, 0, len(tags))
		for k, v := range tags {
			conditions = append(conditions, fmt.Sprintf("%q = '%s'", k, strings.ReplaceAll(v, "'", "\\'")))
		}
		sort.Strings(conditions)
		command += " WHERE " + strings.Join(conditions, " AND ")
	}
	return runQuery(influxClient, influx.NewQuery(command, database, ""))
}

func runCommand(influxClient influx.Client, command string) error {
	return runQuery(influxClient, influx.NewQuery(command, "", ""))
}

func runQuery(influxClient influx.Client, q influx.Query) error {
	response, err := influxClient.Query(q)
	if err != nil {
		return err
	}
	return response.Error()
}

// databaseName keeps the first word of name.
func databaseName(name string) string {
	return strings.Split(strings.TrimSpace(name), " ")[0]
}
