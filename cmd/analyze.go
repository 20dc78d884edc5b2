package cmd

import (
	"os"

	"github.com/huangsam/caliper/core"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/notify"
	"github.com/spf13/cobra"
)

// analyzeCmd computes the measures of a scanner report.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <report>",
	Short: "Compute measures, new code variations and the quality gate of a report",
	Long: `Read a scanner report and run the analysis pipeline on it:

- Build the tree of components, reusing the identities of previous analyses
- Resolve the new code period of the project or branch
- Aggregate size, coverage, duplication and test measures up the tree
- Compute variations of new code against the period
- Evaluate the quality gate and raise events when its status changes
- Store the analysis in the history backend

Examples:
  # Analyze a report with the default settings
  caliper analyze report.yaml

  # Evaluate a quality gate and compare with a fixed date
  caliper analyze report.yaml --quality-gate gate.yaml --new-code-period 2024-01-01

  # Analyze a pull request
  caliper analyze report.yaml --pull-request 42 --target-branch main`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		notifier := notify.NewConsole(os.Stderr, cfg.UseColors)
		if err := core.ExecuteAnalysis(rootCtx, cfg, storeManager, notifier); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}
