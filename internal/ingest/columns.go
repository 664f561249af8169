// Package ingest turns raw lab tables into pipeline inputs: well readings,
// soil masses, sample identities and reviewer well exclusions.
package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/poxc-cli/internal/sheet"
)

// normalizeCol lowercases a header and folds separators so "Sample ID",
// "sample-id" and "sample_id" all match. Parentheses are dropped:
// "Mass (g)" → "mass_g".
func normalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("(", " ", ")", " ", "-", " ", ".", " ").Replace(s)
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), "_")
}

// columns maps normalized header names to column indexes.
type columns map[string]int

func mapColumns(header []string) columns {
	m := make(columns, len(header))
	for i, col := range header {
		name := normalizeCol(col)
		if _, dup := m[name]; !dup {
			m[name] = i
		}
	}
	return m
}

// find returns the index of the first alias present in the header.
func (c columns) find(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if idx, ok := c[normalizeCol(a)]; ok {
			return idx, true
		}
	}
	return -1, false
}

// require is find that fails with the table name and accepted aliases.
func (c columns) require(t *sheet.Table, aliases ...string) (int, error) {
	idx, ok := c.find(aliases...)
	if !ok {
		return -1, eris.Errorf("ingest: %s: missing column %s (accepted: %s)", t.Source, aliases[0], strings.Join(aliases, ", "))
	}
	return idx, nil
}

// cell returns row[idx] trimmed, or "" when the row is short or idx < 0.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseFloat parses a numeric cell, accepting a decimal comma. NaN and
// infinities are rejected.
func parseFloat(t *sheet.Table, i int, column, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, eris.Errorf("ingest: %s line %d: column %s: invalid number %q", t.Source, t.Line(i), column, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("ingest: %s line %d: column %s: non-finite number %q", t.Source, t.Line(i), column, s)
	}
	return v, nil
}
