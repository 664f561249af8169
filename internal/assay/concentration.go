package assay

import (
	"regexp"

	"github.com/sells-group/poxc-cli/internal/model"
)

// Reaction constants of the permanganate oxidation assay.
const (
	// InitialOxidantMolPerL is the KMnO4 concentration before reaction.
	InitialOxidantMolPerL = 0.02
	// CarbonMgPerMolOxidant is the mg of carbon oxidised per mol of MnO4.
	CarbonMgPerMolOxidant = 9000
	// ReactionVolumeL is the oxidant volume added to each soil sample.
	ReactionVolumeL = 0.02
)

var runDatePattern = regexp.MustCompile(`[0-9]{8}`)

// RunDate extracts the first 8-digit date embedded in a plate ID.
func RunDate(plateID string) (string, error) {
	d := runDatePattern.FindString(plateID)
	if d == "" {
		return "", &MalformedPlateIDError{PlateID: plateID}
	}
	return d, nil
}

// PoxcMgPerKg converts a post-reaction oxidant concentration and soil mass
// into mg of permanganate-oxidizable carbon per kg soil. The result is not
// clamped; a zero mass yields an infinite value.
func PoxcMgPerKg(postReaction, massKg float64) float64 {
	return (InitialOxidantMolPerL - postReaction) * CarbonMgPerMolOxidant * (ReactionVolumeL / massKg)
}

// Masses indexes soil masses by (sample, run date).
type Masses map[model.MassKey]float64

// IndexMasses builds a Masses lookup. Later records replace earlier ones.
// Run dates are normalized to YYYYMMDD; a date that cannot be normalized is
// kept as given and will not match any plate.
func IndexMasses(records []model.SoilMassRecord) Masses {
	m := make(Masses, len(records))
	for _, r := range records {
		date := r.RunDate
		if d, err := model.NormalizeRunDate(date); err == nil {
			date = d
		}
		m[model.MassKey{SampleID: r.SampleID, RunDate: date}] = r.MassKg
	}
	return m
}

// Calculate joins a sample group with its plate calibration and soil mass and
// applies the POXC formula. A group with a missing mean yields a result with
// a missing concentration.
func Calculate(g model.SampleGroup, cal model.CalibrationModel, masses Masses) (model.ComputedResult, error) {
	runDate, err := RunDate(g.PlateID)
	if err != nil {
		return model.ComputedResult{}, err
	}
	mass, ok := masses[model.MassKey{SampleID: g.SampleID, RunDate: runDate}]
	if !ok {
		return model.ComputedResult{}, &MissingMassError{SampleID: g.SampleID, RunDate: runDate}
	}

	r := model.ComputedResult{
		PlateID:         g.PlateID,
		SampleID:        g.SampleID,
		RunDate:         runDate,
		Replicates:      g.Replicates,
		MeanAbsorbance:  g.MeanAbsorbance,
		StdevAbsorbance: g.StdevAbsorbance,
		CVPercent:       g.CVPercent,
		Slope:           cal.Slope,
		Intercept:       cal.Intercept,
		MassKg:          mass,
	}
	if g.MeanAbsorbance.Valid() {
		post := cal.Predict(g.MeanAbsorbance.Float64())
		r.PoxcMgPerKg = model.NewFloat(PoxcMgPerKg(post, mass))
	}
	return r, nil
}
