package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"

	"github.com/olekukonko/tablewriter"
)

// PrintMetricDefinitions displays the metrics the analysis can compute or read from reports.
// This is a static display that does not require a report.
func PrintMetricDefinitions(defs []schema.MetricDefinition, cfg *contract.Config) error {
	model := &schema.MetricsRenderModel{
		Title:       "Caliper Metrics",
		Description: "Measures are read from the scanner report or aggregated from files up to the project",
		Metrics:     defs,
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsCSV(w, model.Metrics)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsText(w, model)
		}, "Wrote text")
	}
}

func bestValue(d schema.MetricDefinition) string {
	if d.BestValue == nil {
		return ""
	}
	return strconv.FormatFloat(*d.BestValue, 'f', -1, 64)
}

// writeMetricsText displays metrics in human-readable text format.
func writeMetricsText(w io.Writer, model *schema.MetricsRenderModel) error {
	if _, err := fmt.Fprintf(w, "📏 %s\n%s\n\n", model.Title, model.Description); err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Key", "Name", "Type", "Domain", "Best"})
	var data [][]string
	for _, d := range model.Metrics {
		data = append(data, []string{d.Key, d.Name, string(d.Type), d.Domain, bestValue(d)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeMetricsCSV(w io.Writer, defs []schema.MetricDefinition) error {
	header := []string{"key", "name", "type", "domain", "best_value", "optimized_best_value", "description"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, d := range defs {
			rec := []string{d.Key, d.Name, string(d.Type), d.Domain, bestValue(d), strconv.FormatBool(d.OptimizedBestValue), d.Description}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
