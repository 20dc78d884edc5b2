// Package cmd defines the command-line interface for caliper.
package cmd

import (
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log the steps of the analysis to stderr")
	rootCmd.PersistentFlags().String("history-backend", string(schema.SQLiteBackend), "History backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Analysis flags are shared by analyze and mcp
	for _, c := range []*cobra.Command{analyzeCmd, mcpCmd} {
		c.Flags().String("analysis-date", "", "Date of the analysis in RFC3339 or YYYY-MM-DD (defaults to the report date)")
		c.Flags().String("branch", "", "Name of the analyzed branch (defaults to the main branch)")
		c.Flags().String("branch-type", string(schema.BranchBranch), "Branch type: branch or long or short or pull_request")
		c.Flags().String("target-branch", "", "Branch a short-lived branch or pull request merges into")
		c.Flags().String("pull-request", "", "Key of the analyzed pull request")
		c.Flags().Bool("legacy-branch", false, "Store the branch as a standalone project")
		c.Flags().String("new-code-period", contract.DefaultNewCodePeriod, "New code period: previous_version, a number of days, a date or a version")
		c.Flags().String("quality-gate", "", "Path to the quality gate definition")
		c.Flags().Bool("cross-project-duplication", false, "Detect duplications with other projects")
		c.Flags().String("cpd-exclusions", "", "Comma-separated glob patterns of files excluded from duplication")
		c.Flags().Int("small-changeset-lines", contract.DefaultSmallChangesetLines, "New lines below which coverage and duplication conditions are ignored")
	}
	if err := viper.BindPFlags(analyzeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analyze flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
