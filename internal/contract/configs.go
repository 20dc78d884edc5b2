package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/caliper/schema"
)

// Default values for configuration.
const (
	DefaultSmallChangesetLines = 20
	DefaultPrecision           = 1
	DefaultNewCodePeriod       = "previous_version"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for an analysis.
// This struct is the "final, validated" config.
type Config struct {
	ReportPath   string
	AnalysisDate time.Time // zero means the report date, then now

	BranchName     string
	BranchType     schema.BranchType
	TargetBranch   string
	PullRequestKey string
	LegacyBranch   bool

	NewCodePeriod       string // global new code setting, overridden by stored project/branch settings
	QualityGateFile     string
	CrossProjectDup     bool
	CpdExclusions       []string
	SmallChangesetLines int

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Debug      bool

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	ReportPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	Debug            bool   `mapstructure:"debug"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from analyzeCmd.Flags() ---
	AnalysisDate        string `mapstructure:"analysis-date"`
	Branch              string `mapstructure:"branch"`
	BranchType          string `mapstructure:"branch-type"`
	TargetBranch        string `mapstructure:"target-branch"`
	PullRequest         string `mapstructure:"pull-request"`
	LegacyBranch        bool   `mapstructure:"legacy-branch"`
	NewCodePeriod       string `mapstructure:"new-code-period"`
	QualityGate         string `mapstructure:"quality-gate"`
	CrossProjectDup     bool   `mapstructure:"cross-project-duplication"`
	CpdExclusions       string `mapstructure:"cpd-exclusions"`
	SmallChangesetLines int    `mapstructure:"small-changeset-lines"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.CpdExclusions != nil {
		clone.CpdExclusions = make([]string, len(c.CpdExclusions))
		copy(clone.CpdExclusions, c.CpdExclusions)
	}
	return &clone
}

// IsMainBranch tells whether the analysis targets the main branch.
func (c *Config) IsMainBranch() bool {
	return c.BranchName == "" && c.PullRequestKey == ""
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processBranchInputs(cfg, input); err != nil {
		return err
	}
	cfg.ReportPath = input.ReportPathStr
	if cfg.ReportPath == "" {
		return fmt.Errorf("a report file is required")
	}
	return processAnalysisInputs(cfg, input)
}

// ProcessServe validates everything but the report, which MCP clients name per call.
func ProcessServe(cfg *Config, input *ConfigRawInput) error {
	if err := ProcessStoreOnly(cfg, input); err != nil {
		return err
	}
	if err := processBranchInputs(cfg, input); err != nil {
		return err
	}
	return processAnalysisInputs(cfg, input)
}

// ProcessStoreOnly validates the subset of inputs needed by history commands.
func ProcessStoreOnly(cfg *Config, input *ConfigRawInput) error {
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateOutputInputs processes the presentation flags.
func validateOutputInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Debug = input.Debug

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}
	return nil
}

// validateBackendConfigs validates the history backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// processBranchInputs resolves the branch being analyzed.
func processBranchInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.BranchName = strings.TrimSpace(input.Branch)
	cfg.TargetBranch = strings.TrimSpace(input.TargetBranch)
	cfg.PullRequestKey = strings.TrimSpace(input.PullRequest)
	cfg.LegacyBranch = input.LegacyBranch

	cfg.BranchType = schema.BranchType(strings.ToUpper(input.BranchType))
	if cfg.BranchType == "" {
		cfg.BranchType = schema.BranchBranch
	}
	if _, ok := schema.ValidBranchTypes[cfg.BranchType]; !ok {
		return fmt.Errorf("invalid branch type '%s'. must be branch, long, short, pull_request", input.BranchType)
	}
	if cfg.PullRequestKey != "" {
		cfg.BranchType = schema.PullRequestBranch
	}
	if cfg.BranchType == schema.PullRequestBranch && cfg.PullRequestKey == "" {
		return fmt.Errorf("--pull-request is required when branch type is pull_request")
	}
	if cfg.LegacyBranch && cfg.BranchName == "" {
		return fmt.Errorf("--legacy-branch requires --branch")
	}
	if cfg.BranchType.IsShortLived() && cfg.TargetBranch == "" && cfg.BranchName != "" {
		LogWarn("branch configuration", fmt.Errorf("short-lived branch %q has no target branch", cfg.BranchName))
	}
	return nil
}

// processAnalysisInputs handles the date, gate and duplication settings.
func processAnalysisInputs(cfg *Config, input *ConfigRawInput) error {
	if input.AnalysisDate != "" {
		t, err := parseAnalysisDate(input.AnalysisDate)
		if err != nil {
			return err
		}
		cfg.AnalysisDate = t
	}

	cfg.NewCodePeriod = strings.TrimSpace(input.NewCodePeriod)
	cfg.QualityGateFile = input.QualityGate
	cfg.CrossProjectDup = input.CrossProjectDup

	cfg.CpdExclusions = nil
	for p := range strings.SplitSeq(input.CpdExclusions, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.CpdExclusions = append(cfg.CpdExclusions, trimmed)
		}
	}

	if input.SmallChangesetLines < 0 {
		return fmt.Errorf("small-changeset-lines cannot be negative (received %d)", input.SmallChangesetLines)
	}
	cfg.SmallChangesetLines = input.SmallChangesetLines
	return nil
}

// parseAnalysisDate accepts RFC3339 timestamps and plain yyyy-MM-dd dates.
func parseAnalysisDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateTimeFormat, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid analysis date '%s'. expected RFC3339 or YYYY-MM-DD", value)
}
