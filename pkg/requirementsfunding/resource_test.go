package requirementsfunding

import (
	"errors"
	"testing"

	"github.com/bcaldwell/ftsimporter/pkg/fts"
	"github.com/bcaldwell/ftsimporter/pkg/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	result   resource.Result
	err      error
	calls    int
	headers  []string
	rows     [][]string
	hints    map[string]string
	folder   string
	filename string
	metadata resource.Metadata
}

func (s *recordingSink) GenerateFromRows(headers []string, rows [][]string, hxlHints map[string]string, folder, filename string, metadata resource.Metadata) (resource.Result, error) {
	s.calls++
	s.headers, s.rows, s.hints = headers, rows, hxlHints
	s.folder, s.filename, s.metadata = folder, filename, metadata
	return s.result, s.err
}

func TestGenerateResource(t *testing.T) {
	sink := &recordingSink{result: resource.Result{Success: true, Resource: resource.Resource{Path: "out/x.csv", Rows: 1}}}
	rows := []Row{{CountryCode: "CPV", Year: 2007, Funding: amount("12")}}

	res, err := GenerateResource(sink, "out", cpv, rows)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "out/x.csv", res.Path)

	assert.Equal(t, "fts_requirements_funding_cpv.csv", sink.filename)
	assert.Equal(t, "out", sink.folder)
	assert.Equal(t, Headers, sink.headers)
	assert.Equal(t, HXLHints, sink.hints)
	assert.Equal(t, [][]string{{"CPV", "", "", "", "", "", "2007", "", "12", ""}}, sink.rows)
	assert.Equal(t, resource.Metadata{
		Name:        "fts_requirements_funding_cpv.csv",
		Description: "FTS Annual Requirements and Funding Data for Cape Verde",
		Format:      "csv",
	}, sink.metadata)
}

func TestGenerateResourceNoRows(t *testing.T) {
	sink := &recordingSink{}

	res, err := GenerateResource(sink, "out", cpv, nil)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Zero(t, sink.calls)
}

func TestGenerateResourceFailure(t *testing.T) {
	rows := []Row{{CountryCode: "AFG", Year: 2017, Funding: fts.Amount{}}}

	_, err := GenerateResource(&recordingSink{result: resource.Result{Success: false}}, "out", afg, rows)
	assert.ErrorIs(t, err, ErrResourceNotGenerated)

	boom := errors.New("disk full")
	_, err = GenerateResource(&recordingSink{err: boom}, "out", afg, rows)
	assert.ErrorIs(t, err, boom)
}

func TestHeadersMatchRowValues(t *testing.T) {
	assert.Len(t, Row{}.Values(), len(Headers))
	for _, h := range Headers {
		assert.Contains(t, HXLHints, h)
	}
}
