// Package model defines the data types that flow through the POXC pipeline,
// from raw plate-reader wells to computed per-sample concentrations.
package model

import (
	"encoding/json"
	"strings"
)

// QualityFlag is the externally supplied review status of a single well.
type QualityFlag string

const (
	QualityOK       QualityFlag = "OK"
	QualityExcluded QualityFlag = "EXCLUDED"
	QualityUnknown  QualityFlag = "UNKNOWN"
)

// ParseQualityFlag maps a free-form flag cell to a QualityFlag. Empty cells
// default to OK; unrecognised values are UNKNOWN so they stay visible.
func ParseQualityFlag(s string) QualityFlag {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ok", "good", "pass":
		return QualityOK
	case "excluded", "exclude", "bad", "x", "fail":
		return QualityExcluded
	default:
		return QualityUnknown
	}
}

// UnmarshalJSON accepts the same free-form spellings as ParseQualityFlag.
func (q *QualityFlag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*q = ParseQualityFlag(s)
	return nil
}

// WellObservation is one raw absorbance reading from a plate.
type WellObservation struct {
	PlateID       string      `json:"plate_id"`
	WellID        string      `json:"well_id"`
	SampleID      string      `json:"sample_id"`
	RawAbsorbance float64     `json:"raw_absorbance"`
	Quality       QualityFlag `json:"quality_flag,omitempty"`
}

// Excluded reports whether the well was marked bad during review.
func (w WellObservation) Excluded() bool {
	return w.Quality == QualityExcluded
}

// CorrectedObservation is a non-blank well after blank subtraction.
type CorrectedObservation struct {
	PlateID            string      `json:"plate_id"`
	WellID             string      `json:"well_id"`
	SampleID           string      `json:"sample_id"`
	AdjustedAbsorbance float64     `json:"adjusted_absorbance"`
	Quality            QualityFlag `json:"quality_flag"`
}

// StandardPoint is a corrected standard well with its parsed concentration.
type StandardPoint struct {
	PlateID            string  `json:"plate_id"`
	Concentration      float64 `json:"concentration"`
	AdjustedAbsorbance float64 `json:"adjusted_absorbance"`
}
