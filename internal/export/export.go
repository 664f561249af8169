package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/poxc-cli/internal/model"
	"github.com/sells-group/poxc-cli/internal/sheet"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	}
	return "", eris.Errorf("export: unknown format %q (want csv, xlsx or json)", s)
}

// Writer writes report tables to files, or to Stdout when the path is empty
// or "-".
type Writer struct {
	Format Format
	Stdout io.Writer
}

// Results writes the computed-result table. XLSX output is a workbook with
// results, calibration, skipped and warnings sheets; JSON output is the full
// report. CSV output carries results only; pair it with Issues.
func (w *Writer) Results(path string, r *model.Report) error {
	switch w.Format {
	case FormatCSV:
		return w.csv(path, ResultsHeader, ResultRows(r.Results))
	case FormatXLSX:
		return w.xlsx(path, []sheet.Tab{
			{Name: "results", Header: ResultsHeader, Rows: ResultRows(r.Results)},
			{Name: "calibration", Header: CalibrationHeader, Rows: CalibrationRows(r.Calibrations)},
			{Name: "skipped", Header: SkippedHeader, Rows: SkippedRows(r.Skipped)},
			{Name: "warnings", Header: SkippedHeader, Rows: WarningRows(r.Warnings)},
		})
	case FormatJSON:
		return w.json(path, r)
	}
	return eris.Errorf("export: unknown format %q", w.Format)
}

// Issues writes the skipped plates and samples together with data-quality
// warnings.
func (w *Writer) Issues(path string, r *model.Report) error {
	switch w.Format {
	case FormatCSV:
		return w.csv(path, IssuesHeader, IssueRows(r.Skipped, r.Warnings))
	case FormatXLSX:
		return w.xlsx(path, []sheet.Tab{
			{Name: "skipped", Header: SkippedHeader, Rows: SkippedRows(r.Skipped)},
			{Name: "warnings", Header: SkippedHeader, Rows: WarningRows(r.Warnings)},
		})
	case FormatJSON:
		return w.json(path, struct {
			Skipped  []model.Skipped `json:"skipped"`
			Warnings []model.Warning `json:"warnings"`
		}{r.Skipped, r.Warnings})
	}
	return eris.Errorf("export: unknown format %q", w.Format)
}

// IssuesPath derives the issues file written next to a CSV results file:
// results.csv becomes results.skipped.csv.
func IssuesPath(resultsPath string) string {
	if toStdout(resultsPath) {
		return ""
	}
	ext := filepath.Ext(resultsPath)
	return strings.TrimSuffix(resultsPath, ext) + ".skipped" + ext
}

// Diagnostics writes the calibration diagnostics. XLSX output adds a
// standards sheet; JSON output carries calibrations and standards.
func (w *Writer) Diagnostics(path string, r *model.Report) error {
	switch w.Format {
	case FormatCSV:
		return w.csv(path, CalibrationHeader, CalibrationRows(r.Calibrations))
	case FormatXLSX:
		return w.xlsx(path, []sheet.Tab{
			{Name: "calibration", Header: CalibrationHeader, Rows: CalibrationRows(r.Calibrations)},
			{Name: "standards", Header: StandardsHeader, Rows: StandardRows(r.Standards)},
		})
	case FormatJSON:
		return w.json(path, struct {
			Calibrations []model.CalibrationDiagnostic `json:"calibrations"`
			Standards    []model.StandardLevel         `json:"standards"`
		}{r.Calibrations, r.Standards})
	}
	return eris.Errorf("export: unknown format %q", w.Format)
}

// Standards writes the standard-level table.
func (w *Writer) Standards(path string, levels []model.StandardLevel) error {
	switch w.Format {
	case FormatCSV:
		return w.csv(path, StandardsHeader, StandardRows(levels))
	case FormatXLSX:
		return w.xlsx(path, []sheet.Tab{{Name: "standards", Header: StandardsHeader, Rows: StandardRows(levels)}})
	case FormatJSON:
		return w.json(path, levels)
	}
	return eris.Errorf("export: unknown format %q", w.Format)
}

func toStdout(path string) bool { return path == "" || path == "-" }

// open returns the destination and a close func that reports close errors.
func (w *Writer) open(path string) (io.Writer, func() error, error) {
	if toStdout(path) {
		out := w.Stdout
		if out == nil {
			out = os.Stdout
		}
		return out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "export: create %s", path)
	}
	return f, f.Close, nil
}

func (w *Writer) csv(path string, header []string, rows [][]string) error {
	out, closeFn, err := w.open(path)
	if err != nil {
		return err
	}
	if err := sheet.WriteCSV(out, header, rows); err != nil {
		_ = closeFn()
		return eris.Wrap(err, "export: write csv")
	}
	return closeFn()
}

func (w *Writer) json(path string, v any) error {
	out, closeFn, err := w.open(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = closeFn()
		return eris.Wrap(err, "export: encode json")
	}
	return closeFn()
}

func (w *Writer) xlsx(path string, tabs []sheet.Tab) error {
	if toStdout(path) {
		return eris.New("export: xlsx output requires a file path")
	}
	if err := sheet.WriteXLSX(path, tabs); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
