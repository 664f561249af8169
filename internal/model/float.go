package model

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
)

// Float is a measured value that may be missing (nil *Float) or non-finite.
// Non-finite values are spelled "+Inf", "-Inf" and "NaN" in JSON so that a
// computed-but-implausible value survives encoding instead of failing it.
type Float float64

// NewFloat returns a pointer to v.
func NewFloat(v float64) *Float {
	f := Float(v)
	return &f
}

// Float64 returns the value, or NaN when f is missing.
func (f *Float) Float64() float64 {
	if f == nil {
		return math.NaN()
	}
	return float64(*f)
}

// Valid reports whether the value is present.
func (f *Float) Valid() bool {
	return f != nil
}

// String formats the value for tabular output. Missing values are empty.
func (f *Float) String() string {
	if f == nil {
		return ""
	}
	return FormatFloat(float64(*f))
}

// FormatFloat formats v with the shortest exact representation.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(FormatFloat(v))
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*f = Float(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return eris.Wrap(err, "model: decode float")
	}
	switch s {
	case "NaN":
		*f = Float(math.NaN())
	case "+Inf", "Inf":
		*f = Float(math.Inf(1))
	case "-Inf":
		*f = Float(math.Inf(-1))
	default:
		return eris.Errorf("model: invalid float %q", s)
	}
	return nil
}
