package sheet

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header plus data rows read from a file.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
	lines  []int
}

// Line returns the 1-based record number of data row i in the source file.
func (t *Table) Line(i int) int {
	if i < len(t.lines) {
		return t.lines[i]
	}
	return i + 2
}

// ReadTable reads a .csv, .tsv or .xlsx file. The first non-empty row is the
// header; blank rows are skipped.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	var raw [][]string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		rows, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "sheet: read %s", path)
		}
		raw = rows
	case ".csv", ".tsv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "sheet: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		opts := CSVOptions{TrimSpace: true}
		if ext == ".tsv" {
			opts.Delimiter = '\t'
		}
		rows, err := ReadCSV(ctx, f, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "sheet: read %s", path)
		}
		raw = rows
	default:
		return nil, eris.Errorf("sheet: unsupported file type %q (%s)", ext, path)
	}

	t := &Table{Source: path}
	for i, row := range raw {
		if blankRow(row) {
			continue
		}
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
		t.lines = append(t.lines, i+1)
	}
	if t.Header == nil {
		return nil, eris.Errorf("sheet: %s has no header row", path)
	}
	return t, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
