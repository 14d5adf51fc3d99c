package ftsimporter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/ftsimporter/pkg/requirementsfunding"
	"github.com/bcaldwell/ftsimporter/pkg/resource"
)

var (
	testRunID = uuid.MustParse("4f6b1f0e-6a55-4c3e-9d8f-2f0a8c1d7e11")
	today     = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
)

func importFixtures() map[string]string {
	return map[string]string{
		"location": `[
			{"id": 1, "iso3": "AFG", "name": "Afghanistan", "adminLevel": 0},
			{"id": 165, "iso3": "PAK", "name": "Pakistan", "adminLevel": 0},
			{"id": 41, "iso3": "CPV", "name": "Cape Verde", "adminLevel": 0},
			{"id": 9001, "name": "Kabul", "adminLevel": 1}
		]`,
		"plan/country/AFG": `[{"id": 544}, {"id": 645}]`,
		"plan/country/PAK": `[{"id": 645}]`,
		"plan/544": `{
			"id": 544, "name": "Afghanistan 2017", "code": "HAFG17",
			"startDate": "2017-01-01T00:00:00.000Z", "endDate": "2017-12-31T00:00:00.000Z",
			"locations": [{"id": 1, "iso3": "AFG", "name": "Afghanistan", "adminLevel": 0}],
			"years": [{"id": 38, "year": "2017"}],
			"requirements": {"revisedRequirements": 400},
			"funding": {"totalFunding": 300, "progress": 75}
		}`,
		"plan/645": `{
			"id": 645, "name": "Regional Refugee Response", "code": "RAFGPAK",
			"startDate": "2017-01-01T00:00:00.000Z", "endDate": "2018-12-31T00:00:00.000Z",
			"locations": [
				{"id": 1, "iso3": "AFG", "name": "Afghanistan", "adminLevel": 0},
				{"id": 165, "iso3": "PAK", "name": "Pakistan", "adminLevel": 0}
			],
			"years": [{"id": 38, "year": "2017"}, {"id": 39, "year": "2018"}]
		}`,
		"fts/flow?groupby=location&planid=645": `{
			"requirements": {"objects": [{"id": 1, "revisedRequirements": 200}, {"id": 165, "revisedRequirements": 100}]},
			"report3": {"fundingTotals": {"objects": [
				{"objectsBreakdown": [{"id": 1, "totalFunding": 50}, {"id": 165, "totalFunding": 25}]}
			]}}
		}`,
		"country/1/summary/trends/2026":   `[{"year": 2017, "totalFunding": 1000}, {"year": 2018, "totalFunding": 500}]`,
		"country/165/summary/trends/2026": `[{"year": 2017, "totalFunding": 100}]`,
	}
}

func newTestRunner(d *fakeDownloader, folder string, writers []RowWriter, countries ...string) *ImportFTSRunner {
	runner := newImportFTSRunner(d, resource.NewCSVSink(), writers, folder, 1, countries, 0)
	runner.now = func() time.Time { return today }
	runner.newID = func() uuid.UUID { return testRunID }
	return runner
}

func TestRunImportsCountries(t *testing.T) {
	d := newFakeDownloader(importFixtures())
	writer := newRecordingWriter()
	folder := t.TempDir()

	err := newTestRunner(d, folder, []RowWriter{writer}, "AFG", "PAK").Run()

	// PAK has no 2018 total so it fails, AFG is still imported
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCountriesFailed)
	assert.Contains(t, err.Error(), "1 of 2")

	require.Contains(t, writer.rows, "AFG")
	assert.NotContains(t, writer.rows, "PAK")
	assert.Equal(t, []uuid.UUID{testRunID}, writer.runIDs)

	assert.Equal(t, [][]string{
		{"AFG", "544", "Afghanistan 2017", "HAFG17", "2017-01-01", "2017-12-31", "2017", "400", "300", "75"},
		{"AFG", "645", "Regional Refugee Response", "RAFGPAK", "2017-01-01", "2018-12-31", "2017", "200", "50", "25"},
		{"AFG", "", "", "", "", "", "2017", "", "650", ""},
		{"AFG", "645", "Regional Refugee Response", "RAFGPAK", "2017-01-01", "2018-12-31", "2018", "200", "50", "25"},
		{"AFG", "", "", "", "", "", "2018", "", "450", ""},
	}, values(writer.rows["AFG"]))

	// the shared plan is resolved once per run
	assert.Equal(t, 1, d.count("fts/flow?groupby=location&planid=645"))

	content, err := os.ReadFile(filepath.Join(folder, requirementsfunding.ResourceFilename("AFG")))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, strings.Join(requirementsfunding.Headers, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "#country+code,"))

	_, err = os.Stat(filepath.Join(folder, requirementsfunding.ResourceFilename("PAK")))
	assert.True(t, os.IsNotExist(err))
}

func TestRunCountryWithoutPlans(t *testing.T) {
	fixtures := importFixtures()
	fixtures["plan/country/CPV"] = `[]`
	d := newFakeDownloader(fixtures)
	writer := newRecordingWriter()

	err := newTestRunner(d, t.TempDir(), []RowWriter{writer}, "CPV").Run()
	require.NoError(t, err)

	assert.Empty(t, writer.rows)
	assert.Zero(t, d.count("country/41/summary/trends/2026"))
}

func TestRunWriterFailure(t *testing.T) {
	d := newFakeDownloader(importFixtures())
	writer := newRecordingWriter()
	writer.err = errors.New("connection refused")

	err := newTestRunner(d, t.TempDir(), []RowWriter{writer}, "AFG").Run()
	assert.ErrorIs(t, err, ErrCountriesFailed)
}

func TestRunLocationsFailure(t *testing.T) {
	d := newFakeDownloader(map[string]string{})

	err := newTestRunner(d, t.TempDir(), nil).Run()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCountriesFailed)
}

func TestCloseClosesWriters(t *testing.T) {
	a, b := newRecordingWriter(), newRecordingWriter()
	runner := newTestRunner(newFakeDownloader(nil), t.TempDir(), []RowWriter{a, b})

	require.NoError(t, runner.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
