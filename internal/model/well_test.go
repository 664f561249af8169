package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityFlag_UnmarshalJSON(t *testing.T) {
	var wells []WellObservation
	require.NoError(t, json.Unmarshal([]byte(`[
		{"plate_id":"P1","well_id":"A1","sample_id":"S1","raw_absorbance":0.2,"quality_flag":"excluded"},
		{"plate_id":"P1","well_id":"A2","sample_id":"S1","raw_absorbance":0.2,"quality_flag":"ok"},
		{"plate_id":"P1","well_id":"A3","sample_id":"S1","raw_absorbance":0.2,"quality_flag":"bubble?"},
		{"plate_id":"P1","well_id":"A4","sample_id":"S1","raw_absorbance":0.2}
	]`), &wells))

	require.Len(t, wells, 4)
	assert.Equal(t, QualityExcluded, wells[0].Quality)
	assert.True(t, wells[0].Excluded())
	assert.Equal(t, QualityOK, wells[1].Quality)
	assert.Equal(t, QualityUnknown, wells[2].Quality)
	assert.False(t, wells[3].Excluded())
}

func TestQualityFlag_RoundTrip(t *testing.T) {
	for _, q := range []QualityFlag{QualityOK, QualityExcluded, QualityUnknown} {
		b, err := json.Marshal(q)
		require.NoError(t, err)
		var got QualityFlag
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, q, got)
	}
}

func TestQualityFlag_UnmarshalRejectsNonString(t *testing.T) {
	var q QualityFlag
	assert.Error(t, json.Unmarshal([]byte(`3`), &q))
}
