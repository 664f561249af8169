package assay

import (
	"github.com/sells-group/poxc-cli/internal/model"
)

// BlankPrecision is the number of decimals the blank mean is rounded to,
// matching the plate reader's reporting precision.
const BlankPrecision = 3

// ComputeBlank averages the raw absorbance of the plate's water-blank wells.
// Excluded blank wells do not contribute.
func ComputeBlank(plateID string, wells []model.WellObservation, labels Labels) (model.BlankValue, error) {
	var values []float64
	for _, w := range wells {
		if !labels.IsBlank(w.SampleID) || w.Excluded() {
			continue
		}
		values = append(values, w.RawAbsorbance)
	}
	if len(values) == 0 {
		return model.BlankValue{}, &MissingBlankError{PlateID: plateID}
	}
	return model.BlankValue{
		PlateID:             plateID,
		MeanBlankAbsorbance: roundTo(mean(values), BlankPrecision),
		Wells:               len(values),
	}, nil
}

// Correct subtracts the plate blank from every non-blank well. Blank wells are
// dropped; they only ever contribute to the BlankValue.
func Correct(wells []model.WellObservation, blank model.BlankValue, labels Labels) []model.CorrectedObservation {
	out := make([]model.CorrectedObservation, 0, len(wells))
	for _, w := range wells {
		if labels.IsBlank(w.SampleID) {
			continue
		}
		q := w.Quality
		if q == "" {
			q = model.QualityOK
		}
		out = append(out, model.CorrectedObservation{
			PlateID:            w.PlateID,
			WellID:             w.WellID,
			SampleID:           w.SampleID,
			AdjustedAbsorbance: w.RawAbsorbance - blank.MeanBlankAbsorbance,
			Quality:            q,
		})
	}
	return out
}
