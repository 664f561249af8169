package assay

import (
	"go.uber.org/zap"

	"github.com/sells-group/poxc-cli/internal/model"
)

// IndexIdentities builds a sample-id to display-name lookup. The first record
// for a sample wins.
func IndexIdentities(records []model.SampleIdentity) map[string]string {
	m := make(map[string]string, len(records))
	for _, r := range records {
		if _, ok := m[r.SampleID]; ok {
			continue
		}
		m[r.SampleID] = r.DisplayName
	}
	return m
}

// Enrich attaches display names to results. Samples without an identity pass
// through unnamed. Rows labelled as a blank or standard should never reach
// this stage; they are removed and reported so the upstream leak is visible.
// Pipeline classifies wells with the same Labels before aggregation, so the
// check only fires for callers that build results outside Pipeline.
func Enrich(results []model.ComputedResult, names map[string]string, labels Labels) ([]model.ComputedResult, []model.Skipped) {
	out := make([]model.ComputedResult, 0, len(results))
	var dropped []model.Skipped
	for _, r := range results {
		if labels.IsControl(r.SampleID) {
			zap.L().Warn("enrich: control row reached result table",
				zap.String("plate_id", r.PlateID),
				zap.String("sample_id", r.SampleID),
			)
			dropped = append(dropped, model.Skipped{
				PlateID:  r.PlateID,
				SampleID: r.SampleID,
				Reason:   ReasonControlLeak,
				Detail:   "blank or standard label in sample results",
			})
			continue
		}
		r.DisplayName = names[r.SampleID]
		out = append(out, r)
	}
	return out, dropped
}
