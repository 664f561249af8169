package model

// Skipped records a plate or sample the pipeline could not compute.
type Skipped struct {
	PlateID  string `json:"plate_id"`
	SampleID string `json:"sample_id,omitempty"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail"`
}

// Warning records a non-fatal data-quality condition attached to a row.
type Warning struct {
	PlateID  string `json:"plate_id"`
	SampleID string `json:"sample_id,omitempty"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail"`
}

// Report is the complete output of one pipeline run.
type Report struct {
	Results      []ComputedResult        `json:"results"`
	Calibrations []CalibrationDiagnostic `json:"calibrations"`
	Standards    []StandardLevel         `json:"standards"`
	Skipped      []Skipped               `json:"skipped"`
	Warnings     []Warning               `json:"warnings"`
}

// FlaggedPlates returns the plates whose calibration fell below the review
// threshold.
func (r *Report) FlaggedPlates() []string {
	var out []string
	for _, c := range r.Calibrations {
		if c.BelowThreshold {
			out = append(out, c.PlateID)
		}
	}
	return out
}

// SkippedByReason counts skipped entries per reason.
func (r *Report) SkippedByReason() map[string]int {
	out := make(map[string]int)
	for _, s := range r.Skipped {
		out[s.Reason]++
	}
	return out
}
