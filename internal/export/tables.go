// Package export renders pipeline reports as CSV, XLSX or JSON.
package export

import (
	"strconv"

	"github.com/sells-group/poxc-cli/internal/model"
)

// ResultsHeader is the column order of the computed-result table.
var ResultsHeader = []string{
	"plate_id", "sample_id", "display_name", "run_date", "n_replicates",
	"mean_absorbance", "stdev_absorbance", "cv_percent", "high_cv",
	"slope", "intercept", "mass_kg", "poxc_mg_per_kg",
}

// CalibrationHeader is the column order of the calibration diagnostics table.
var CalibrationHeader = []string{
	"plate_id", "blank_absorbance", "slope", "intercept", "r_squared", "n_levels", "below_threshold",
}

// StandardsHeader is the column order of the standard-level table.
var StandardsHeader = []string{
	"plate_id", "concentration", "n_replicates", "mean_absorbance", "stdev_absorbance", "cv_percent",
}

// SkippedHeader is the column order of the skipped and warnings tables.
var SkippedHeader = []string{"plate_id", "sample_id", "reason", "detail"}

// IssuesHeader is the column order of the combined skipped/warning table
// written alongside CSV results.
var IssuesHeader = []string{"kind", "plate_id", "sample_id", "reason", "detail"}

// Issue kinds in the combined table.
const (
	IssueSkipped = "skipped"
	IssueWarning = "warning"
)

func num(v float64) string { return model.FormatFloat(v) }

// ResultRows flattens results into string rows matching ResultsHeader.
func ResultRows(results []model.ComputedResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.PlateID,
			r.SampleID,
			r.DisplayName,
			r.RunDate,
			strconv.Itoa(r.Replicates),
			r.MeanAbsorbance.String(),
			r.StdevAbsorbance.String(),
			r.CVPercent.String(),
			strconv.FormatBool(r.HighCV),
			num(r.Slope),
			num(r.Intercept),
			num(r.MassKg),
			r.PoxcMgPerKg.String(),
		})
	}
	return rows
}

// CalibrationRows flattens diagnostics into rows matching CalibrationHeader.
func CalibrationRows(cals []model.CalibrationDiagnostic) [][]string {
	rows := make([][]string, 0, len(cals))
	for _, c := range cals {
		rows = append(rows, []string{
			c.PlateID,
			num(c.BlankAbsorbance),
			num(c.Slope),
			num(c.Intercept),
			num(c.RSquared),
			strconv.Itoa(c.Levels),
			strconv.FormatBool(c.BelowThreshold),
		})
	}
	return rows
}

// StandardRows flattens standard levels into rows matching StandardsHeader.
func StandardRows(levels []model.StandardLevel) [][]string {
	rows := make([][]string, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []string{
			l.PlateID,
			num(l.Concentration),
			strconv.Itoa(l.Replicates),
			num(l.MeanAbsorbance),
			l.StdevAbsorbance.String(),
			l.CVPercent.String(),
		})
	}
	return rows
}

// SkippedRows flattens skipped entries into rows matching SkippedHeader.
func SkippedRows(skipped []model.Skipped) [][]string {
	rows := make([][]string, 0, len(skipped))
	for _, s := range skipped {
		rows = append(rows, []string{s.PlateID, s.SampleID, s.Reason, s.Detail})
	}
	return rows
}

// WarningRows flattens warnings into rows matching SkippedHeader.
func WarningRows(warnings []model.Warning) [][]string {
	rows := make([][]string, 0, len(warnings))
	for _, w := range warnings {
		rows = append(rows, []string{w.PlateID, w.SampleID, w.Reason, w.Detail})
	}
	return rows
}

// IssueRows lists skipped entries then warnings as rows matching IssuesHeader.
func IssueRows(skipped []model.Skipped, warnings []model.Warning) [][]string {
	rows := make([][]string, 0, len(skipped)+len(warnings))
	for _, r := range SkippedRows(skipped) {
		rows = append(rows, append([]string{IssueSkipped}, r...))
	}
	for _, r := range WarningRows(warnings) {
		rows = append(rows, append([]string{IssueWarning}, r...))
	}
	return rows
}
