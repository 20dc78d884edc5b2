package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/parquet"
	"github.com/huangsam/caliper/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// maxTextValueWidth bounds STRING and DATA values in tables, quality gate details being JSON.
const maxTextValueWidth = 40

// PrintAnalysisResult outputs the result of an analysis, dispatching based on the output format configured.
func PrintAnalysisResult(result *schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	if result == nil {
		return contract.NewArgumentError("Nothing to print: analysis result is missing")
	}
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisCSV(w, result.Measures, cfg.Precision)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return contract.NewArgumentError("An output file is required for parquet output")
		}
		rows := parquet.ConvertMeasureRows(result.AnalysisUUID, result.Measures)
		if err := parquet.WriteMeasuresParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote parquet to %s\n", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisText(w, result, cfg, duration)
		}, "Wrote table")
	}
}

// writeAnalysisText writes the measures table, the gate table and a summary.
func writeAnalysisText(w io.Writer, result *schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	if err := writeMeasureTable(w, result.Measures, cfg); err != nil {
		return err
	}
	if result.Gate != nil {
		if err := writeGateTable(w, result.Gate, cfg); err != nil {
			return err
		}
	}
	return writeSummary(w, result, cfg, duration)
}

// writeMeasureTable renders one row per measure, components indented by depth.
func writeMeasureTable(w io.Writer, rows []schema.MeasureRow, cfg *contract.Config) error {
	fmtNumber, fmtDelta := createFormatters(cfg.Precision)
	keyWidth := getMaxTableKeyWidth(cfg)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Component", "Metric", "Value", "New Code", "Gate"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft}
	})

	var data [][]string
	previous := ""
	for _, r := range rows {
		component := ""
		if r.ComponentKey != previous {
			component = indentKey(r.ComponentKey, r.Depth, keyWidth)
			previous = r.ComponentKey
		}
		data = append(data, []string{
			component,
			r.MetricKey,
			rowValue(r, fmtNumber),
			optional(r.Variation, fmtDelta),
			statusLabel(schema.EvaluationStatus(r.Alert), cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func rowValue(r schema.MeasureRow, fmtNumber func(float64) string) string {
	if r.Value != nil {
		return fmtNumber(*r.Value)
	}
	if r.TextValue != nil {
		return truncateText(*r.TextValue, maxTextValueWidth)
	}
	return ""
}

// truncateText keeps the head of s, unlike paths whose tail matters.
func truncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) <= maxWidth || maxWidth <= 3 {
		return s
	}
	return string(runes[:maxWidth-3]) + "..."
}

// statusLabel renders a gate status, colored on demand.
func statusLabel(status schema.EvaluationStatus, useColors bool) string {
	if status == "" {
		return ""
	}
	if useColors {
		return contract.GetColorStatus(status)
	}
	return string(status)
}

// writeGateTable renders the evaluated conditions of the quality gate.
func writeGateTable(w io.Writer, gate *schema.GateResult, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Operator", "Threshold", "Value", "Status"})

	var data [][]string
	for _, c := range gate.Conditions {
		status := statusLabel(c.Status, cfg.UseColors)
		if c.Ignored {
			status += " (ignored)"
		}
		data = append(data, []string{
			c.Condition.MetricKey,
			c.Condition.Operator.Symbol(),
			c.Condition.ErrorThreshold,
			c.Value,
			status,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeSummary prints the gate verdict, the new code period and the run footer.
func writeSummary(w io.Writer, result *schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	if result.Gate != nil {
		verdict := statusLabel(result.Gate.Status, cfg.UseColors)
		if result.Gate.Text != "" {
			verdict += " (" + result.Gate.Text + ")"
		}
		if _, err := fmt.Fprintf(w, "Quality gate '%s': %s\n", result.Gate.GateName, verdict); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "New code period: %s\n", describePeriod(result.Period)); err != nil {
		return err
	}
	for _, e := range result.Events {
		if _, err := fmt.Fprintf(w, "Event %s: %s\n", e.Category, e.Name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Analysis %s of %s (version %s) completed in %v. History backend: %s\n",
		result.AnalysisUUID, result.ProjectKey, result.Version, duration, cfg.HistoryBackend)
	return err
}

func describePeriod(p *schema.Period) string {
	if p == nil {
		return "none"
	}
	text := string(p.Mode)
	if p.ModeParameter != nil {
		text += " " + *p.ModeParameter
	}
	return text + " since " + contract.FormatDate(p.SnapshotDate)
}

// writeAnalysisCSV writes one CSV record per measure.
func writeAnalysisCSV(w io.Writer, rows []schema.MeasureRow, precision int) error {
	fmtNumber, _ := createFormatters(precision)
	header := []string{"component_key", "component_type", "depth", "metric", "value", "variation", "text_value", "alert"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			text := ""
			if r.TextValue != nil {
				text = *r.TextValue
			}
			rec := []string{
				r.ComponentKey,
				string(r.ComponentType),
				strconv.Itoa(r.Depth),
				r.MetricKey,
				optional(r.Value, fmtNumber),
				optional(r.Variation, fmtNumber),
				text,
				r.Alert,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
