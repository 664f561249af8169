package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/poxc-cli/internal/model"
	"github.com/sells-group/poxc-cli/internal/sheet"
	"github.com/sells-group/poxc-cli/internal/store"
)

func TestRunCompute_JSONToStdout(t *testing.T) {
	loadTestConfig(t)
	var stdout, stderr bytes.Buffer

	err := runCompute(context.Background(), computeOptions{Paths: testInputs(t)}, &stdout, &stderr)
	require.NoError(t, err)

	var report model.Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))

	require.Len(t, report.Calibrations, 1)
	assert.Equal(t, "20230601A", report.Calibrations[0].PlateID)
	assert.InEpsilon(t, 400, report.Calibrations[0].Slope, 1e-9)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "20230602A", report.Skipped[0].PlateID)
	assert.Equal(t, "MissingBlankError", report.Skipped[0].Reason)

	require.Len(t, report.Results, 2)
	s1, s2 := report.Results[0], report.Results[1]
	assert.Equal(t, "S1", s1.SampleID)
	assert.Equal(t, "Plot 1 0-10cm", s1.DisplayName)
	assert.InDelta(t, 0.0025, s1.MassKg, 1e-15)
	want := (0.02 - 400*0.30) * 9000 * (0.02 / 0.0025)
	assert.InEpsilon(t, want, s1.PoxcMgPerKg.Float64(), 1e-6)
	assert.False(t, s1.HighCV)

	assert.Equal(t, "S2", s2.SampleID)
	assert.Empty(t, s2.DisplayName)
	assert.True(t, s2.HighCV, "replicates 0.15 and 0.85 are far apart")
	assert.Empty(t, stderr.String())
}

func TestRunCompute_CSVWithDiagnostics(t *testing.T) {
	loadTestConfig(t)
	dir := t.TempDir()
	opts := computeOptions{
		Paths:       testInputs(t),
		Output:      filepath.Join(dir, "results.csv"),
		Diagnostics: filepath.Join(dir, "calibration.csv"),
		Concurrency: 1,
	}

	require.NoError(t, runCompute(context.Background(), opts, &bytes.Buffer{}, &bytes.Buffer{}))

	results, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(results)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "plate_id,sample_id,display_name,run_date"))
	assert.True(t, strings.HasPrefix(lines[1], "20230601A,S1,Plot 1 0-10cm,20230601,2,"))

	diag, err := os.ReadFile(opts.Diagnostics)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(diag), "plate_id,blank_absorbance,slope,intercept,r_squared,n_levels,below_threshold\n20230601A,0.05,"))

	issues, err := os.ReadFile(filepath.Join(dir, "results.skipped.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(issues), "kind,plate_id,sample_id,reason,detail\n")
	assert.Contains(t, string(issues), "skipped,20230602A,,MissingBlankError,")
}

func TestRunCompute_SkippedFlag(t *testing.T) {
	loadTestConfig(t)
	dir := t.TempDir()
	opts := computeOptions{
		Paths:   testInputs(t),
		Output:  filepath.Join(dir, "results.csv"),
		Skipped: filepath.Join(dir, "issues.json"),
	}

	require.NoError(t, runCompute(context.Background(), opts, &bytes.Buffer{}, &bytes.Buffer{}))

	data, err := os.ReadFile(opts.Skipped)
	require.NoError(t, err)
	var got struct {
		Skipped []model.Skipped `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "MissingBlankError", got.Skipped[0].Reason)

	_, err = os.Stat(filepath.Join(dir, "results.skipped.csv"))
	assert.True(t, os.IsNotExist(err), "explicit --skipped replaces the derived file")
}

func TestRunCompute_XLSXWorkbook(t *testing.T) {
	loadTestConfig(t)
	out := filepath.Join(t.TempDir(), "results.xlsx")

	require.NoError(t, runCompute(context.Background(), computeOptions{Paths: testInputs(t), Output: out}, &bytes.Buffer{}, &bytes.Buffer{}))

	rows, err := sheet.ReadXLSX(out, sheet.XLSXOptions{SheetName: "results"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = sheet.ReadXLSX(out, sheet.XLSXOptions{SheetName: "skipped"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MissingBlankError", rows[1][2])
}

func TestRunCompute_Exclusions(t *testing.T) {
	loadTestConfig(t)
	paths := testInputs(t)
	paths.Exclusions = filepath.Join(t.TempDir(), "exclusions.yaml")
	require.NoError(t, os.WriteFile(paths.Exclusions, []byte("plates:\n  20230601A:\n    excluded: [C4]\n"), 0o644))

	var stdout bytes.Buffer
	require.NoError(t, runCompute(context.Background(), computeOptions{Paths: paths}, &stdout, &bytes.Buffer{}))

	var report model.Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.Len(t, report.Results, 2)
	s2 := report.Results[1]
	assert.Equal(t, 1, s2.Replicates)
	assert.InDelta(t, 0.15, s2.MeanAbsorbance.Float64(), 1e-12)
	assert.Nil(t, s2.CVPercent)
	assert.False(t, s2.HighCV)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "S2", report.Warnings[0].SampleID)
}

func TestRunCompute_Archive(t *testing.T) {
	loadTestConfig(t)
	paths := testInputs(t)
	var stderr bytes.Buffer

	require.NoError(t, runCompute(context.Background(), computeOptions{Paths: paths, Archive: true}, &bytes.Buffer{}, &stderr))
	assert.Contains(t, stderr.String(), "Archived run ")

	st, err := store.Open(context.Background(), cfg.Store)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Results)
	assert.Equal(t, 1, runs[0].Skipped)

	run, err := st.GetRun(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, paths.Wells, run.Inputs["wells"])
}

func TestRunCompute_InputErrors(t *testing.T) {
	loadTestConfig(t)

	paths := testInputs(t)
	paths.Masses = filepath.Join(t.TempDir(), "missing.csv")
	err := runCompute(context.Background(), computeOptions{Paths: paths}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load input")

	err = runCompute(context.Background(), computeOptions{Paths: testInputs(t), Format: "parquet"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestRunCalibrate_JSON(t *testing.T) {
	loadTestConfig(t)
	var stdout bytes.Buffer

	require.NoError(t, runCalibrate(context.Background(), calibrateOptions{Wells: testInputs(t).Wells}, &stdout))

	var doc struct {
		Calibrations []model.CalibrationDiagnostic `json:"calibrations"`
		Standards    []model.StandardLevel         `json:"standards"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	require.Len(t, doc.Calibrations, 1)
	assert.Equal(t, 4, doc.Calibrations[0].Levels)
	assert.Len(t, doc.Standards, 4)
}

func TestRunCalibrate_StandardsFile(t *testing.T) {
	loadTestConfig(t)
	dir := t.TempDir()
	opts := calibrateOptions{
		Wells:     testInputs(t).Wells,
		Output:    filepath.Join(dir, "calibration.csv"),
		Standards: filepath.Join(dir, "standards.csv"),
	}

	require.NoError(t, runCalibrate(context.Background(), opts, &bytes.Buffer{}))

	data, err := os.ReadFile(opts.Standards)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "20230601A,0,2,"))
}

func TestCalibrateCommand_Execute(t *testing.T) {
	t.Setenv("POXC_LOG_LEVEL", "error")
	t.Setenv("POXC_STORE_DATABASE_URL", filepath.Join(t.TempDir(), "poxc.db"))
	out := filepath.Join(t.TempDir(), "calibration.json")

	rootCmd.SetArgs([]string{"calibrate", "--wells", testInputs(t).Wells, "--output", out})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"calibrations"`)
}
