package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/poxc-cli/internal/model"
)

func testReport() *model.Report {
	return &model.Report{
		Results: []model.ComputedResult{{PlateID: "A", SampleID: "S1"}, {PlateID: "A", SampleID: "S2"}},
		Calibrations: []model.CalibrationDiagnostic{
			{PlateID: "A", RSquared: 0.999},
			{PlateID: "B", RSquared: 0.95, BelowThreshold: true},
		},
		Skipped: []model.Skipped{
			{PlateID: "C", Reason: "MissingBlankError"},
			{PlateID: "A", SampleID: "S3", Reason: "MissingMassError"},
			{PlateID: "A", SampleID: "S4", Reason: "MissingMassError"},
		},
	}
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	m.Observe(testReport())

	assert.Equal(t, 3.0, testutil.ToFloat64(m.platesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.platesFailed.WithLabelValues("MissingBlankError")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.results))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.skipped.WithLabelValues("MissingMassError")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("MissingBlankError")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.belowThreshold))
}

func TestMetrics_ObserveAccumulates(t *testing.T) {
	m := NewMetrics()
	m.Observe(testReport())
	m.Observe(&model.Report{Calibrations: []model.CalibrationDiagnostic{{PlateID: "D"}}})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.platesProcessed))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.belowThreshold), "gauge reflects the latest run")
}

func TestMetrics_ObserveNil(t *testing.T) {
	m := NewMetrics()
	m.Observe(nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.results))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.Observe(testReport())

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "poxc_results_total 2"))
	assert.Contains(t, string(body), `poxc_skipped_total{reason="MissingMassError"} 2`)
}
