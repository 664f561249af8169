package assay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/poxc-cli/internal/model"
)

func corrected(plate, sample string, abs float64, q model.QualityFlag) model.CorrectedObservation {
	return model.CorrectedObservation{PlateID: plate, SampleID: sample, AdjustedAbsorbance: abs, Quality: q}
}

func TestAggregate_MeanStdevCV(t *testing.T) {
	obs := []model.CorrectedObservation{
		corrected("P1", "S1", 0.28, model.QualityOK),
		corrected("P1", "S1", 0.30, model.QualityOK),
		corrected("P1", "S1", 0.32, model.QualityUnknown),
	}

	groups, warnings := Aggregate(obs)
	require.Len(t, groups, 1)
	assert.Empty(t, warnings)

	g := groups[0]
	assert.Equal(t, 3, g.Replicates)
	assert.InDelta(t, 0.30, g.MeanAbsorbance.Float64(), 1e-12)
	// Bessel-corrected: sqrt((0.0004+0+0.0004)/2) = 0.02.
	assert.InDelta(t, 0.02, g.StdevAbsorbance.Float64(), 1e-12)
	assert.InDelta(t, 100*0.02/0.30, g.CVPercent.Float64(), 1e-9)
}

func TestAggregate_ExcludedWellsDropped(t *testing.T) {
	obs := []model.CorrectedObservation{
		corrected("P1", "S1", 0.30, model.QualityOK),
		corrected("P1", "S1", 0.34, model.QualityOK),
		corrected("P1", "S1", 5.00, model.QualityExcluded),
	}

	groups, _ := Aggregate(obs)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Replicates)
	assert.InDelta(t, 0.32, groups[0].MeanAbsorbance.Float64(), 1e-12)
}

func TestAggregate_AllExcludedPropagatesMissing(t *testing.T) {
	obs := []model.CorrectedObservation{
		corrected("P1", "S2", 0.30, model.QualityExcluded),
		corrected("P1", "S2", 0.31, model.QualityExcluded),
	}

	groups, warnings := Aggregate(obs)
	require.Len(t, groups, 1)
	assert.Nil(t, groups[0].MeanAbsorbance)
	assert.Nil(t, groups[0].StdevAbsorbance)
	assert.Nil(t, groups[0].CVPercent)
	assert.Equal(t, 0, groups[0].Replicates)

	require.Len(t, warnings, 1)
	assert.Equal(t, ReasonUndefinedAggregate, warnings[0].Reason)
	assert.Equal(t, "S2", warnings[0].SampleID)
	assert.Contains(t, warnings[0].Detail, "all 2 replicates excluded")
}

func TestAggregate_SingleReplicate(t *testing.T) {
	groups, warnings := Aggregate([]model.CorrectedObservation{corrected("P1", "S3", 0.4, model.QualityOK)})
	require.Len(t, groups, 1)
	assert.InDelta(t, 0.4, groups[0].MeanAbsorbance.Float64(), 1e-12)
	assert.Nil(t, groups[0].StdevAbsorbance)
	assert.Nil(t, groups[0].CVPercent)
	require.Len(t, warnings, 1)
	assert.Equal(t, ReasonUndefinedAggregate, warnings[0].Reason)
}

func TestAggregate_ZeroMeanCVNonFinite(t *testing.T) {
	groups, _ := Aggregate([]model.CorrectedObservation{
		corrected("P1", "S4", -0.01, model.QualityOK),
		corrected("P1", "S4", 0.01, model.QualityOK),
	})
	require.Len(t, groups, 1)
	require.NotNil(t, groups[0].CVPercent)
	assert.True(t, math.IsInf(groups[0].CVPercent.Float64(), 0) || math.IsNaN(groups[0].CVPercent.Float64()))
}

func TestAggregate_GroupsByPlateAndSample(t *testing.T) {
	obs := []model.CorrectedObservation{
		corrected("P2", "S1", 0.5, model.QualityOK),
		corrected("P1", "S2", 0.1, model.QualityOK),
		corrected("P1", "S1", 0.2, model.QualityOK),
		corrected("P1", "S1", 0.2, model.QualityOK),
	}

	groups, _ := Aggregate(obs)
	require.Len(t, groups, 3)
	assert.Equal(t, [2]string{"P1", "S1"}, [2]string{groups[0].PlateID, groups[0].SampleID})
	assert.Equal(t, [2]string{"P1", "S2"}, [2]string{groups[1].PlateID, groups[1].SampleID})
	assert.Equal(t, [2]string{"P2", "S1"}, [2]string{groups[2].PlateID, groups[2].SampleID})
	assert.Equal(t, 2, groups[0].Replicates)
}
