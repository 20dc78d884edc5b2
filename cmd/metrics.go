package cmd

import (
	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/outwriter"
	"github.com/spf13/cobra"
)

// metricsCmd displays the definitions of all metrics.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display the definitions of all metrics computed or loaded by an analysis",
	Long: `Show the key, name, value type, domain and best value of every metric.

Metrics read from the report are stored as-is; every other metric is
aggregated up the component tree by the analysis.

No report is read - this is purely informational.

Examples:
  # Show all metrics
  caliper metrics

  # Export the catalog as JSON
  caliper metrics --output json --output-file metrics.json`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return contract.ProcessStoreOnly(cfg, input)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.PrintMetricDefinitions(measure.DefaultMetricRepository().All(), cfg); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
