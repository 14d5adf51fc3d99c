package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFromRowsWritesHeaderHXLAndRows(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "afg")
	metadata := Metadata{Name: "test.csv", Description: "test", Format: "csv"}

	result, err := NewCSVSink().GenerateFromRows(
		[]string{"countryCode", "funding", "note"},
		[][]string{{"AFG", "100", "a,b"}, {"AFG", "", ""}},
		map[string]string{"countryCode": "#country+code", "funding": "#value+funding+total+usd"},
		folder, "test.csv", metadata,
	)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, filepath.Join(folder, "test.csv"), result.Resource.Path)
	assert.Equal(t, 2, result.Resource.Rows)
	assert.Equal(t, metadata, result.Resource.Metadata)

	contents, err := os.ReadFile(result.Resource.Path)
	require.NoError(t, err)
	assert.Equal(t, "countryCode,funding,note\n#country+code,#value+funding+total+usd,\nAFG,100,\"a,b\"\nAFG,,\n", string(contents))
}

func TestGenerateFromRowsWithoutHints(t *testing.T) {
	folder := t.TempDir()

	result, err := NewCSVSink().GenerateFromRows([]string{"a"}, [][]string{{"1"}}, nil, folder, "plain.csv", Metadata{})
	require.NoError(t, err)
	require.True(t, result.Success)

	contents, err := os.ReadFile(filepath.Join(folder, "plain.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(contents))
}

func TestGenerateFromRowsEmpty(t *testing.T) {
	folder := t.TempDir()

	result, err := NewCSVSink().GenerateFromRows([]string{"a"}, nil, nil, folder, "empty.csv", Metadata{})
	require.NoError(t, err)
	assert.False(t, result.Success)

	_, err = os.Stat(filepath.Join(folder, "empty.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateFromRowsColumnMismatch(t *testing.T) {
	_, err := NewCSVSink().GenerateFromRows([]string{"a", "b"}, [][]string{{"1"}}, nil, t.TempDir(), "bad.csv", Metadata{})
	assert.Error(t, err)
}
