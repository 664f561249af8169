package assay

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/poxc-cli/internal/model"
)

func TestRunDate(t *testing.T) {
	tests := []struct {
		plate string
		want  string
		ok    bool
	}{
		{"20230601A", "20230601", true},
		{"POXC_20221115_plate2", "20221115", true},
		{"run-20240102-20240103", "20240102", true},
		{"plateA", "", false},
		{"2023-06-01", "", false},
		{"1234567", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.plate, func(t *testing.T) {
			got, err := RunDate(tt.plate)
			if !tt.ok {
				var mpe *MalformedPlateIDError
				require.True(t, errors.As(err, &mpe))
				assert.Equal(t, tt.plate, mpe.PlateID)
				assert.Equal(t, ReasonMalformedPlateID, ReasonOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPoxcMgPerKg_Formula(t *testing.T) {
	// post-reaction = 0 + 400*0.30
	post := 0 + 400*0.30
	assert.Equal(t, 120.0, post)
	want := (0.02 - 120) * 9000 * (0.02 / 0.0025)
	assert.InEpsilon(t, want, PoxcMgPerKg(post, 0.0025), 1e-12)

	// A realistic reading: 0.015 mol/L remaining, 2.5 g soil.
	assert.InDelta(t, 360.0, PoxcMgPerKg(0.015, 0.0025), 1e-9)
}

func TestPoxcMgPerKg_LinearInInverseMass(t *testing.T) {
	post := 0.0137
	base := PoxcMgPerKg(post, 0.0025)
	for _, k := range []float64{0.5, 2, 4, 10} {
		assert.InEpsilon(t, base*k, PoxcMgPerKg(post, 0.0025/k), 1e-12)
	}
}

func TestPoxcMgPerKg_ZeroMassIsInfinite(t *testing.T) {
	assert.NotPanics(t, func() {
		v := PoxcMgPerKg(0.01, 0)
		assert.True(t, math.IsInf(v, 1))
	})
	assert.Greater(t, PoxcMgPerKg(0.01, 1e-12), 1e9)
}

func TestCalculate(t *testing.T) {
	cal := model.CalibrationModel{PlateID: "20230601A", Slope: 400, Intercept: 0, RSquared: 1}
	masses := IndexMasses([]model.SoilMassRecord{
		{SampleID: "S1", RunDate: "20230601", MassKg: 0.0025},
		{SampleID: "S1", RunDate: "20230602", MassKg: 9},
	})
	g := model.SampleGroup{PlateID: "20230601A", SampleID: "S1", Replicates: 2, MeanAbsorbance: model.NewFloat(0.30)}

	r, err := Calculate(g, cal, masses)
	require.NoError(t, err)
	assert.Equal(t, "20230601", r.RunDate)
	assert.Equal(t, 0.0025, r.MassKg)
	assert.Equal(t, 400.0, r.Slope)
	require.NotNil(t, r.PoxcMgPerKg)
	assert.InEpsilon(t, (0.02-120)*9000*(0.02/0.0025), r.PoxcMgPerKg.Float64(), 1e-12)
}

func TestIndexMasses_NormalizesRunDate(t *testing.T) {
	masses := IndexMasses([]model.SoilMassRecord{
		{SampleID: "S1", RunDate: "2023-06-01", MassKg: 0.0025},
		{SampleID: "S2", RunDate: " 2023/06/01 ", MassKg: 0.003},
		{SampleID: "S3", RunDate: "June 1", MassKg: 0.004},
	})

	assert.Equal(t, 0.0025, masses[model.MassKey{SampleID: "S1", RunDate: "20230601"}])
	assert.Equal(t, 0.003, masses[model.MassKey{SampleID: "S2", RunDate: "20230601"}])
	assert.Equal(t, 0.004, masses[model.MassKey{SampleID: "S3", RunDate: "June 1"}])

	g := model.SampleGroup{PlateID: "20230601A", SampleID: "S1", Replicates: 1, MeanAbsorbance: model.NewFloat(0.3)}
	_, err := Calculate(g, model.CalibrationModel{Slope: 400}, masses)
	assert.NoError(t, err)
}

func TestCalculate_MissingMean(t *testing.T) {
	cal := model.CalibrationModel{Slope: 1}
	masses := IndexMasses([]model.SoilMassRecord{{SampleID: "S1", RunDate: "20230601", MassKg: 0.0025}})

	r, err := Calculate(model.SampleGroup{PlateID: "20230601A", SampleID: "S1"}, cal, masses)
	require.NoError(t, err)
	assert.Nil(t, r.PoxcMgPerKg)
	assert.Nil(t, r.MeanAbsorbance)
}

func TestCalculate_MissingMass(t *testing.T) {
	cal := model.CalibrationModel{Slope: 1}
	g := model.SampleGroup{PlateID: "20230601A", SampleID: "S7", MeanAbsorbance: model.NewFloat(0.2)}

	_, err := Calculate(g, cal, Masses{})
	var mme *MissingMassError
	require.True(t, errors.As(err, &mme))
	assert.Equal(t, "S7", mme.SampleID)
	assert.Equal(t, "20230601", mme.RunDate)
	assert.Equal(t, ReasonMissingMass, ReasonOf(err))
}

func TestCalculate_MalformedPlate(t *testing.T) {
	g := model.SampleGroup{PlateID: "plateA", SampleID: "S1", MeanAbsorbance: model.NewFloat(0.2)}
	_, err := Calculate(g, model.CalibrationModel{}, Masses{})
	assert.Equal(t, ReasonMalformedPlateID, ReasonOf(err))
}
