package sheet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTable_CSV(t *testing.T) {
	path := writeFile(t, "wells.csv", "plate_id,sample_id\n\n20230601A,S1\n,\n20230601A,S2\n")

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, tbl.Source)
	assert.Equal(t, []string{"plate_id", "sample_id"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"20230601A", "S2"}, tbl.Rows[1])
	assert.Equal(t, 2, tbl.Line(0))
	assert.Equal(t, 4, tbl.Line(1), "blank record is counted")
}

func TestReadTable_TSV(t *testing.T) {
	path := writeFile(t, "masses.tsv", "sample_id\tmass_g\nS1\t2.5\n")

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "2.5"}, tbl.Rows[0])
}

func TestReadTable_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.xlsx")
	require.NoError(t, WriteXLSX(path, []Tab{{
		Name:   "Sheet1",
		Header: []string{"sample_id", "display_name"},
		Rows:   [][]string{{"S1", "North plot"}},
	}}))

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sample_id", "display_name"}, tbl.Header)
	assert.Equal(t, [][]string{{"S1", "North plot"}}, tbl.Rows)
}

func TestReadTable_Errors(t *testing.T) {
	_, err := ReadTable(context.Background(), writeFile(t, "wells.json", "{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	_, err = ReadTable(context.Background(), writeFile(t, "empty.csv", "\n\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")

	_, err = ReadTable(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet: open")
}
