package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/poxc-cli/internal/config"
)

const testWellsCSV = `plate_id,well_id,sample_id,absorbance,quality_flag
20230601A,A1,water,0.049,
20230601A,A2,water,0.051,
20230601A,B1,0uM,0.05,
20230601A,B2,0uM,0.05,
20230601A,B3,100uM,0.30,
20230601A,B4,100uM,0.30,
20230601A,B5,200uM,0.55,
20230601A,B6,200uM,0.55,
20230601A,B7,400uM,1.05,
20230601A,B8,400uM,1.05,
20230601A,C1,S1,0.34,
20230601A,C2,S1,0.36,
20230601A,C3,S2,0.20,
20230601A,C4,S2,0.90,
20230602A,A1,S1,0.40,
`

const testMassesCSV = `sample_id,run_date,mass_g
S1,2023-06-01,2.5
S2,20230601,2.0
`

const testSamplesCSV = `sample_id,display_name
S1,Plot 1 0-10cm
`

// testInputs writes the fixture tables to a temp dir.
func testInputs(t *testing.T) inputPaths {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	return inputPaths{
		Wells:   write("wells.csv", testWellsCSV),
		Masses:  write("masses.csv", testMassesCSV),
		Samples: write("samples.csv", testSamplesCSV),
	}
}

// loadTestConfig installs a default config whose store lives in a temp dir.
func loadTestConfig(t *testing.T) {
	t.Helper()
	t.Setenv("POXC_STORE_DATABASE_URL", filepath.Join(t.TempDir(), "poxc.db"))
	c, err := config.Load()
	require.NoError(t, err)
	cfg = c
}
