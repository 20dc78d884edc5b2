//go:build integration

// Package integration contains integration tests for caliper.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measureOf(result schema.AnalysisResult, componentKey, metricKey string) (schema.MeasureRow, bool) {
	for _, r := range result.Measures {
		if r.ComponentKey == componentKey && r.MetricKey == metricKey {
			return r, true
		}
	}
	return schema.MeasureRow{}, false
}

// TestCaliperAnalyzeVerification analyzes the sample report twice on a fresh SQLite
// history and checks the JSON output of both runs.
func TestCaliperAnalyzeVerification(t *testing.T) {
	env := []string{
		"CALIPER_HISTORY_BACKEND=sqlite",
		"CALIPER_HISTORY_DB_CONNECT=" + filepath.Join(t.TempDir(), "history.db"),
	}

	out, err := runCaliper(t, env, "analyze", reportPath, "--output", "json", "--quality-gate", gatePath, "--color", "no")
	require.NoError(t, err)
	var first schema.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &first))

	assert.True(t, first.FirstRun)
	assert.Nil(t, first.Period)
	require.NotNil(t, first.Gate)
	assert.Equal(t, schema.ErrorStatus, first.Gate.Status)
	ncloc, ok := measureOf(first, "acme", "ncloc")
	require.True(t, ok)
	require.NotNil(t, ncloc.Value)
	assert.InDelta(t, 30.0, *ncloc.Value, 0.0001)

	out, err = runCaliper(t, env, "analyze", reportPath, "--output", "json", "--quality-gate", gatePath,
		"--color", "no", "--analysis-date", "2008-11-30")
	require.NoError(t, err)
	var second schema.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &second))

	assert.False(t, second.FirstRun)
	assert.NotEqual(t, first.AnalysisUUID, second.AnalysisUUID)
	require.NotNil(t, second.Period)
	assert.Equal(t, first.AnalysisUUID, second.Period.AnalysisUUID)

	status, err := runCaliper(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Analyses: 2")
}

// TestCaliperMetricsCatalog checks that the metric catalog is printed without a report.
func TestCaliperMetricsCatalog(t *testing.T) {
	out, err := runCaliper(t, []string{"CALIPER_HISTORY_BACKEND=none"}, "metrics", "--output", "json")
	require.NoError(t, err)
	var model schema.MetricsRenderModel
	require.NoError(t, json.Unmarshal([]byte(out), &model))
	assert.NotEmpty(t, model.Metrics)
}
