// Package parquet provides data structures and functions for exporting caliper
// analysis data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"github.com/parquet-go/parquet-go"
)

// Snapshot represents one stored analysis.
// This struct maps to the caliper_snapshots database table.
type Snapshot struct {
	UUID           string    `parquet:"uuid,snappy"`
	ComponentUUID  string    `parquet:"component_uuid,snappy"`
	CreatedAt      time.Time `parquet:"created_at,snappy"`
	Status         string    `parquet:"status,snappy"`
	IsLast         bool      `parquet:"is_last,snappy"`
	ProjectVersion *string   `parquet:"project_version,optional,snappy"`
	PeriodMode     *string   `parquet:"period_mode,optional,snappy"`
	PeriodParam    *string   `parquet:"period_param,optional,snappy"`

	// PeriodDate is the baseline date of the new code period (nullable)
	PeriodDate *time.Time `parquet:"period_date,optional,snappy"`
}

// Measure represents one measure of a component in an analysis.
// This struct maps to the caliper_measures database table, optionally enriched with the component key.
type Measure struct {
	AnalysisUUID  string   `parquet:"analysis_uuid,snappy"`
	ComponentUUID string   `parquet:"component_uuid,snappy"`
	ComponentKey  *string  `parquet:"component_key,optional,snappy"`
	MetricKey     string   `parquet:"metric,snappy"`
	Value         *float64 `parquet:"value,optional,snappy"`
	TextValue     *string  `parquet:"text_value,optional,snappy"`
	Variation     *float64 `parquet:"variation,optional,snappy"`
	AlertStatus   *string  `parquet:"alert_status,optional,snappy"`
}

// writeParquet writes a slice of rows to a Parquet file, the schema being inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteSnapshotsParquet writes a slice of Snapshot structs to a Parquet file.
func WriteSnapshotsParquet(data []Snapshot, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteMeasuresParquet writes a slice of Measure structs to a Parquet file.
func WriteMeasuresParquet(data []Measure, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertSnapshots converts stored snapshots to Parquet rows.
func ConvertSnapshots(records []schema.Snapshot) []Snapshot {
	out := make([]Snapshot, 0, len(records))
	for _, r := range records {
		row := Snapshot{
			UUID:          r.UUID,
			ComponentUUID: r.ComponentUUID,
			CreatedAt:     contract.FromMillis(r.CreatedAt),
			Status:        string(r.Status),
			IsLast:        r.Last,
			PeriodParam:   r.PeriodParam,
		}
		if r.ProjectVersion != "" {
			v := r.ProjectVersion
			row.ProjectVersion = &v
		}
		if r.PeriodMode != nil {
			m := string(*r.PeriodMode)
			row.PeriodMode = &m
		}
		if r.PeriodDate != nil {
			d := contract.FromMillis(*r.PeriodDate)
			row.PeriodDate = &d
		}
		out = append(out, row)
	}
	return out
}

// ConvertMeasureRecords converts stored measures to Parquet rows.
func ConvertMeasureRecords(records []schema.MeasureRecord) []Measure {
	out := make([]Measure, 0, len(records))
	for _, r := range records {
		row := Measure{
			AnalysisUUID:  r.AnalysisUUID,
			ComponentUUID: r.ComponentUUID,
			MetricKey:     r.MetricKey,
			Value:         r.Value,
			TextValue:     r.TextValue,
			Variation:     r.Variation,
		}
		if r.Alert != nil {
			a := string(*r.Alert)
			row.AlertStatus = &a
		}
		out = append(out, row)
	}
	return out
}

// ConvertMeasureRows converts the measures of an analysis result to Parquet rows.
func ConvertMeasureRows(analysisUUID string, rows []schema.MeasureRow) []Measure {
	out := make([]Measure, 0, len(rows))
	for _, r := range rows {
		key := r.ComponentKey
		row := Measure{
			AnalysisUUID: analysisUUID,
			ComponentKey: &key,
			MetricKey:    r.MetricKey,
			Value:        r.Value,
			TextValue:    r.TextValue,
			Variation:    r.Variation,
		}
		if r.Alert != "" {
			a := r.Alert
			row.AlertStatus = &a
		}
		out = append(out, row)
	}
	return out
}
