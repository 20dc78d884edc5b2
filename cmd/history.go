package cmd

import (
	"fmt"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyCmd focused on analysis history management.
//
// Note: History subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by analyze. This avoids report validation.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the stored history of analyses",
	Long: `Manage the history used to resolve new code periods and detect changes.

Every analysis stores:
- Component identities, reused by the next analyses
- The analysis snapshot with its new code period
- Measures of every component
- Version and quality gate events
- Duplication blocks for cross-project detection

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations`,
}

// historyClearCmd clears the history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored analyses",
	Long: `Delete every stored analysis, measure and event.

WARNING: This action cannot be undone. The next analysis of each project
will be a first analysis, without new code period.

Examples:
  # Export before clearing
  caliper history export --output-file backup
  caliper history clear`,
	PreRunE: migrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show the backend, its connection status, the number of stored
analyses with their date range and the size of each table.

Examples:
  caliper history status --history-backend postgresql --history-db-connect "host=localhost dbname=caliper"`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetHistoryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(status)
	},
}

// historyExportCmd exports the history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analyses and measures to Parquet for BI tools",
	Long: `Export every stored analysis and its measures to Parquet files.

Requires: --output-file parameter, used as the prefix of the files.

Examples:
  caliper history export --output-file caliper
  duckdb -c "SELECT * FROM read_parquet('caliper.measures.parquet') LIMIT 10"`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(rootCtx, storeManager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  caliper history migrate

  # Rollback to initial state
  caliper history migrate --target-version 0`,
	PreRunE: migrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
