package assay

import (
	"fmt"
	"sort"

	"github.com/sells-group/poxc-cli/internal/model"
)

// MinStandardLevels is the number of distinct standard concentrations a plate
// needs for a linear fit.
const MinStandardLevels = 2

// SplitStandards separates standard wells from sample wells. Excluded
// standard wells are dropped; sample wells keep their flags for the
// aggregator.
func SplitStandards(obs []model.CorrectedObservation, labels Labels) ([]model.StandardPoint, []model.CorrectedObservation) {
	var points []model.StandardPoint
	var samples []model.CorrectedObservation
	for _, o := range obs {
		conc, ok := labels.Concentration(o.SampleID)
		if !ok {
			samples = append(samples, o)
			continue
		}
		if o.Quality == model.QualityExcluded {
			continue
		}
		points = append(points, model.StandardPoint{
			PlateID:            o.PlateID,
			Concentration:      conc,
			AdjustedAbsorbance: o.AdjustedAbsorbance,
		})
	}
	return points, samples
}

// StandardLevels groups standard points by concentration, ascending.
func StandardLevels(plateID string, points []model.StandardPoint) []model.StandardLevel {
	byConc := make(map[float64][]float64)
	for _, p := range points {
		byConc[p.Concentration] = append(byConc[p.Concentration], p.AdjustedAbsorbance)
	}

	levels := make([]model.StandardLevel, 0, len(byConc))
	for conc, abs := range byConc {
		m := mean(abs)
		lvl := model.StandardLevel{
			PlateID:        plateID,
			Concentration:  conc,
			Replicates:     len(abs),
			MeanAbsorbance: m,
		}
		if sd, ok := sampleStdev(abs, m); ok {
			lvl.StdevAbsorbance = model.NewFloat(sd)
			lvl.CVPercent = model.NewFloat(cvPercent(sd, m))
		}
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Concentration < levels[j].Concentration })
	return levels
}

// Fit builds the plate calibration from its standard points.
//
// Concentration is the response and mean absorbance the predictor: the
// standards' concentrations are set by the analyst while absorbance is what
// the reader measures. The regression runs on one averaged point per
// concentration level, not on individual wells.
func Fit(plateID string, points []model.StandardPoint) (model.CalibrationModel, []model.StandardLevel, error) {
	levels := StandardLevels(plateID, points)
	for _, lvl := range levels {
		if !isFinite(lvl.MeanAbsorbance) || !isFinite(lvl.Concentration) {
			return model.CalibrationModel{}, nil, &InsufficientCalibrationDataError{
				PlateID: plateID,
				Levels:  len(levels),
				Detail:  fmt.Sprintf("standard level %g has a non-finite mean absorbance", lvl.Concentration),
			}
		}
	}
	if len(levels) < MinStandardLevels {
		return model.CalibrationModel{}, levels, &InsufficientCalibrationDataError{PlateID: plateID, Levels: len(levels)}
	}

	x := make([]float64, len(levels))
	y := make([]float64, len(levels))
	for i, lvl := range levels {
		x[i] = lvl.MeanAbsorbance
		y[i] = lvl.Concentration
	}

	slope, intercept, r2, ok := fitLine(x, y)
	if !ok {
		return model.CalibrationModel{}, levels, &InsufficientCalibrationDataError{
			PlateID: plateID,
			Levels:  len(levels),
			Detail:  "standard absorbances have zero variance",
		}
	}

	return model.CalibrationModel{
		PlateID:   plateID,
		Slope:     slope,
		Intercept: intercept,
		RSquared:  r2,
		Levels:    len(levels),
	}, levels, nil
}

// fitLine is closed-form ordinary least squares of y on x. ok is false when x
// has no spread.
func fitLine(x, y []float64) (slope, intercept, r2 float64, ok bool) {
	mx, my := mean(x), mean(y)
	var sxx, sxy, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return 0, 0, 0, false
	}

	slope = sxy / sxx
	intercept = my - slope*mx

	r2 = 1
	if syy > 0 {
		r2 = sxy * sxy / (sxx * syy)
	}
	r2 = min(max(r2, 0), 1)
	return slope, intercept, r2, true
}
