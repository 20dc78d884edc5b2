package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleResult() *schema.AnalysisResult {
	return &schema.AnalysisResult{
		AnalysisUUID: "a-1",
		ProjectKey:   "acme",
		Version:      "1.2",
		Period: &schema.Period{
			Mode:          schema.PreviousVersionMode,
			ModeParameter: ptr("1.1"),
			SnapshotDate:  1227934800000,
			AnalysisUUID:  "a-0",
		},
		Measures: []schema.MeasureRow{
			{ComponentKey: "acme", ComponentType: schema.ProjectType, MetricKey: "alert_status", TextValue: ptr("ERROR")},
			{ComponentKey: "acme", ComponentType: schema.ProjectType, MetricKey: "ncloc", Value: ptr(30.0), Alert: "ERROR"},
			{ComponentKey: "acme:core/src", ComponentType: schema.DirectoryType, Depth: 2, MetricKey: "coverage", Value: ptr(66.7)},
			{ComponentKey: "acme:core/src/Foo.java", ComponentType: schema.FileType, Depth: 3, MetricKey: "new_lines", Variation: ptr(2.0)},
		},
		Gate: &schema.GateResult{
			ProjectKey: "acme",
			GateName:   "Default Way",
			Status:     schema.ErrorStatus,
			Text:       "Lines of Code > 25",
			Conditions: []schema.EvaluatedCondition{
				{Condition: schema.Condition{MetricKey: "ncloc", Operator: schema.GreaterThanOp, ErrorThreshold: "25"}, Status: schema.ErrorStatus, Value: "30"},
				{Condition: schema.Condition{MetricKey: "new_coverage", Operator: schema.LessThanOp, ErrorThreshold: "80"}, Status: schema.OKStatus, Ignored: true},
			},
		},
		Events: []schema.Event{{Name: "1.2", Category: schema.VersionEvent}},
	}
}

func textConfig() *contract.Config {
	return &contract.Config{Output: schema.TextOut, Precision: 1, Width: 160, HistoryBackend: schema.SQLiteBackend}
}

func TestWriteAnalysisText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnalysisText(&buf, sampleResult(), textConfig(), 2*time.Second))
	out := buf.String()

	assert.Contains(t, out, "acme:core/src/Foo.java")
	assert.Contains(t, out, "66.7")
	assert.Contains(t, out, "+2")
	assert.Contains(t, out, "OK (ignored)")
	assert.Contains(t, out, "Quality gate 'Default Way': ERROR (Lines of Code > 25)")
	assert.Contains(t, out, "New code period: PREVIOUS_VERSION 1.1 since 2008-11-29")
	assert.Contains(t, out, "Event VERSION: 1.2")
	assert.Contains(t, out, "Analysis a-1 of acme (version 1.2) completed in 2s. History backend: sqlite")
}

func TestWriteAnalysisTextWithoutGateNorPeriod(t *testing.T) {
	result := sampleResult()
	result.Gate = nil
	result.Period = nil
	result.Events = nil

	var buf bytes.Buffer
	require.NoError(t, writeAnalysisText(&buf, result, textConfig(), time.Second))
	assert.NotContains(t, buf.String(), "Quality gate")
	assert.Contains(t, buf.String(), "New code period: none")
}

func TestWriteAnalysisCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnalysisCSV(&buf, sampleResult().Measures, 1))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"component_key", "component_type", "depth", "metric", "value", "variation", "text_value", "alert"}, records[0])
	assert.Equal(t, []string{"acme", "PROJECT", "0", "alert_status", "", "", "ERROR", ""}, records[1])
	assert.Equal(t, []string{"acme", "PROJECT", "0", "ncloc", "30", "", "", "ERROR"}, records[2])
	assert.Equal(t, []string{"acme:core/src/Foo.java", "FILE", "3", "new_lines", "", "2", "", ""}, records[4])
}

func TestPrintAnalysisResultJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	cfg := textConfig()
	cfg.Output = schema.JSONOut
	cfg.OutputFile = path
	require.NoError(t, PrintAnalysisResult(sampleResult(), cfg, time.Second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded schema.AnalysisResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "acme", decoded.ProjectKey)
	assert.Len(t, decoded.Measures, 4)
	require.NotNil(t, decoded.Gate)
	assert.Equal(t, schema.ErrorStatus, decoded.Gate.Status)
}

func TestPrintAnalysisResultParquetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.parquet")
	cfg := textConfig()
	cfg.Output = schema.ParquetOut
	cfg.OutputFile = path
	require.NoError(t, PrintAnalysisResult(sampleResult(), cfg, time.Second))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPrintAnalysisResultErrors(t *testing.T) {
	err := PrintAnalysisResult(nil, textConfig(), time.Second)
	assert.True(t, contract.IsArgumentError(err))

	cfg := textConfig()
	cfg.Output = schema.ParquetOut
	err = PrintAnalysisResult(sampleResult(), cfg, time.Second)
	assert.True(t, contract.IsArgumentError(err))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 10))
	assert.Equal(t, `{"level...`, truncateText(`{"level":"ERROR"}`, 10))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "", statusLabel("", true))
	assert.Equal(t, "OK", statusLabel(schema.OKStatus, false))
	assert.Contains(t, statusLabel(schema.OKStatus, true), "OK")
}
