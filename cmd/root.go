package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/iocache"
	"github.com/huangsam/caliper/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// storeManager is the global persistence manager instance.
var storeManager contract.StoreManager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "caliper",
	Short:              "Compute code quality measures from scanner reports.",
	Long:               `Caliper turns a scanner report into aggregated measures, new code variations and a quality gate verdict, keeping the history of every analysis.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("CALIPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("history-backend", schema.SQLiteBackend)
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("new-code-period", contract.DefaultNewCodePeriod)
	viper.SetDefault("small-changeset-lines", contract.DefaultSmallChangesetLines)
	viper.SetDefault("branch-type", schema.BranchBranch)
}

// setConfigFile points viper at --config or the default .caliper.yaml locations.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".caliper") // Name of config file (without extension)
	viper.SetConfigType("yaml")     // We'll use YAML format
	viper.AddConfigPath(".")        // Look in the current directory
	viper.AddConfigPath("$HOME")    // Look in the home directory
}

// loadConfig merges defaults, file, env, and flags into the raw input.
func loadConfig(cmd *cobra.Command) error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// Flags of the running command win over flags bound by its siblings.
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return fmt.Errorf("unable to bind flags: %w", bindErr)
	}

	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return nil
}

// applyLogging turns on debug logging when requested.
func applyLogging() {
	if cfg.Debug {
		contract.SetLogger(os.Stderr, slog.LevelDebug)
	}
}

// initStores initializes the persistence layer with the validated config.
func initStores() error {
	connStr := cfg.HistoryDBConnect
	if cfg.HistoryBackend == schema.SQLiteBackend && connStr == "" {
		connStr = iocache.GetHistoryDBFilePath()
	}
	if err := iocache.InitStores(cfg.HistoryBackend, connStr); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetup unmarshals config and runs validation for commands analyzing a report.
func sharedSetup(_ context.Context, cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}

	// Handle positional arguments (which Viper doesn't do).
	input.ReportPathStr = ""
	if len(args) == 1 {
		input.ReportPathStr = args[0]
	}

	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	applyLogging()
	return initStores()
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// serveSetup validates the configuration of the MCP server, which gets reports per call.
func serveSetup(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	if err := contract.ProcessServe(cfg, input); err != nil {
		return err
	}
	applyLogging()
	return initStores()
}

// storeSetup loads the minimal configuration needed by history commands.
// It avoids report validation and complex config processing.
func storeSetup(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	if err := contract.ProcessStoreOnly(cfg, input); err != nil {
		return err
	}
	return initStores()
}

// migrateSetup is like storeSetup but does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func migrateSetup(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	if err := contract.ProcessStoreOnly(cfg, input); err != nil {
		return err
	}
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect == "" {
		cfg.HistoryDBConnect = iocache.GetHistoryDBFilePath()
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetStoreManager sets the global store manager.
func SetStoreManager(mgr contract.StoreManager) {
	storeManager = mgr
}
