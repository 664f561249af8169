package model

// BlankValue is the mean water-blank absorbance of a plate, rounded to the
// instrument's three-decimal reporting precision.
type BlankValue struct {
	PlateID             string  `json:"plate_id"`
	MeanBlankAbsorbance float64 `json:"mean_blank_absorbance"`
	Wells               int     `json:"wells"`
}

// CalibrationModel maps blank-corrected absorbance to concentration for one
// plate: concentration = Intercept + Slope*absorbance.
type CalibrationModel struct {
	PlateID   string  `json:"plate_id"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	Levels    int     `json:"n_levels"`
}

// Predict returns the concentration the model assigns to an absorbance.
func (m CalibrationModel) Predict(absorbance float64) float64 {
	return m.Intercept + m.Slope*absorbance
}

// StandardLevel summarises the replicate wells of one standard concentration
// on one plate. Only Mean feeds the fit; the dispersion fields are diagnostic.
type StandardLevel struct {
	PlateID         string  `json:"plate_id"`
	Concentration   float64 `json:"concentration"`
	Replicates      int     `json:"n_replicates"`
	MeanAbsorbance  float64 `json:"mean_absorbance"`
	StdevAbsorbance *Float  `json:"stdev_absorbance"`
	CVPercent       *Float  `json:"cv_percent"`
}

// CalibrationDiagnostic is one row of the calibration review table.
type CalibrationDiagnostic struct {
	PlateID         string  `json:"plate_id"`
	BlankAbsorbance float64 `json:"blank_absorbance"`
	Slope           float64 `json:"slope"`
	Intercept       float64 `json:"intercept"`
	RSquared        float64 `json:"r_squared"`
	Levels          int     `json:"n_levels"`
	BelowThreshold  bool    `json:"below_threshold"`
}
