package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// SampleGroup aggregates the replicate wells of one sample on one plate.
// Mean is nil when every replicate was excluded; Stdev and CV are nil when
// fewer than two replicates remain.
type SampleGroup struct {
	PlateID         string `json:"plate_id"`
	SampleID        string `json:"sample_id"`
	Replicates      int    `json:"n_replicates"`
	MeanAbsorbance  *Float `json:"mean_absorbance"`
	StdevAbsorbance *Float `json:"stdev_absorbance"`
	CVPercent       *Float `json:"cv_percent"`
}

// SoilMassRecord is the oven-dry soil mass weighed for a sample on a run date.
type SoilMassRecord struct {
	SampleID string  `json:"sample_id"`
	RunDate  string  `json:"run_date"`
	MassKg   float64 `json:"mass_kg"`
}

// NormalizeRunDate accepts YYYYMMDD, YYYY-MM-DD or YYYY/MM/DD and returns
// YYYYMMDD.
func NormalizeRunDate(s string) (string, error) {
	d := strings.NewReplacer("-", "", "/", "").Replace(strings.TrimSpace(s))
	if len(d) != 8 {
		return "", eris.Errorf("invalid run date %q", s)
	}
	for _, r := range d {
		if r < '0' || r > '9' {
			return "", eris.Errorf("invalid run date %q", s)
		}
	}
	return d, nil
}

// MassKey identifies a SoilMassRecord.
type MassKey struct {
	SampleID string
	RunDate  string
}

// SampleIdentity maps a sample label to its human-readable name.
type SampleIdentity struct {
	SampleID    string `json:"sample_id"`
	DisplayName string `json:"display_name"`
}

// ComputedResult is one row of the final result table.
type ComputedResult struct {
	PlateID         string  `json:"plate_id"`
	SampleID        string  `json:"sample_id"`
	DisplayName     string  `json:"display_name,omitempty"`
	RunDate         string  `json:"run_date"`
	Replicates      int     `json:"n_replicates"`
	MeanAbsorbance  *Float  `json:"mean_absorbance"`
	StdevAbsorbance *Float  `json:"stdev_absorbance"`
	CVPercent       *Float  `json:"cv_percent"`
	HighCV          bool    `json:"high_cv"`
	Slope           float64 `json:"slope"`
	Intercept       float64 `json:"intercept"`
	MassKg          float64 `json:"mass_kg"`
	PoxcMgPerKg     *Float  `json:"poxc_mg_per_kg"`
}
