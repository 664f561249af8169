package model

import "time"

// Run is an archived pipeline execution.
type Run struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Inputs    map[string]string `json:"inputs,omitempty"`
	Report    *Report           `json:"report,omitempty"`
}

// RunSummary is the list view of a Run.
type RunSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Results      int       `json:"results"`
	Calibrations int       `json:"calibrations"`
	Skipped      int       `json:"skipped"`
}

// Summarize builds the list view of the run.
func (r *Run) Summarize() RunSummary {
	s := RunSummary{ID: r.ID, CreatedAt: r.CreatedAt}
	if r.Report != nil {
		s.Results = len(r.Report.Results)
		s.Calibrations = len(r.Report.Calibrations)
		s.Skipped = len(r.Report.Skipped)
	}
	return s
}
