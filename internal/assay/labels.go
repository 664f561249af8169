package assay

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Default label conventions of the plate templates.
const (
	DefaultBlankMarker    = "water"
	DefaultStandardSuffix = "uM"
)

// Labels holds the sample-label conventions used to classify wells.
type Labels struct {
	// BlankMarker is matched case-sensitively as a substring of the label.
	BlankMarker string
	// StandardSuffix is the concentration unit that ends a standard label,
	// e.g. "100uM" or "STD 100 µM".
	StandardSuffix string
}

// DefaultLabels returns the stock label conventions.
func DefaultLabels() Labels {
	return Labels{BlankMarker: DefaultBlankMarker, StandardSuffix: DefaultStandardSuffix}
}

// IsBlank reports whether the label marks a water blank.
func (l Labels) IsBlank(label string) bool {
	return l.BlankMarker != "" && strings.Contains(label, l.BlankMarker)
}

// Concentration parses a standard label into its numeric concentration.
// ok is false when the label is not a standard.
func (l Labels) Concentration(label string) (float64, bool) {
	suffix := foldMicro(l.StandardSuffix)
	s := foldMicro(label)
	if suffix == "" || !strings.HasSuffix(s, suffix) {
		return 0, false
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	for _, prefix := range []string{"STD", "Std", "std"} {
		if rest, found := strings.CutPrefix(s, prefix); found {
			s = strings.TrimLeft(rest, " _-")
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// IsStandard reports whether the label encodes a standard concentration.
func (l Labels) IsStandard(label string) bool {
	_, ok := l.Concentration(label)
	return ok
}

// IsControl reports whether the label is a blank or a standard.
func (l Labels) IsControl(label string) bool {
	return l.IsBlank(label) || l.IsStandard(label)
}

// foldMicro applies NFKC (micro sign U+00B5 becomes Greek mu U+03BC) and then
// spells mu as "u", so "µM", "μM" and "uM" compare equal.
func foldMicro(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(norm.NFKC.String(s)), "μ", "u")
}
