package contract

import (
	"testing"
	"time"

	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		ReportPathStr:       "report.yaml",
		Output:              "text",
		Precision:           1,
		Color:               "yes",
		HistoryBackend:      "sqlite",
		SmallChangesetLines: DefaultSmallChangesetLines,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		check       func(*testing.T, *Config)
	}{
		{
			name: "valid minimal config",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "report.yaml", cfg.ReportPath)
				assert.Equal(t, schema.BranchBranch, cfg.BranchType)
				assert.True(t, cfg.IsMainBranch())
				assert.True(t, cfg.UseColors)
				assert.Equal(t, 20, cfg.SmallChangesetLines)
			},
		},
		{
			name:        "missing report",
			mutate:      func(in *ConfigRawInput) { in.ReportPathStr = "" },
			expectError: true,
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "parquet without file",
			mutate:      func(in *ConfigRawInput) { in.Output = "parquet" },
			expectError: true,
		},
		{
			name:        "invalid precision",
			mutate:      func(in *ConfigRawInput) { in.Precision = 5 },
			expectError: true,
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: true,
		},
		{
			name:        "invalid backend",
			mutate:      func(in *ConfigRawInput) { in.HistoryBackend = "oracle" },
			expectError: true,
		},
		{
			name:        "invalid branch type",
			mutate:      func(in *ConfigRawInput) { in.BranchType = "feature" },
			expectError: true,
		},
		{
			name: "pull request implies branch type",
			mutate: func(in *ConfigRawInput) {
				in.PullRequest = "42"
				in.TargetBranch = "main"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.PullRequestBranch, cfg.BranchType)
				assert.False(t, cfg.IsMainBranch())
			},
		},
		{
			name:        "pull request type without key",
			mutate:      func(in *ConfigRawInput) { in.BranchType = "pull_request" },
			expectError: true,
		},
		{
			name:        "legacy branch without name",
			mutate:      func(in *ConfigRawInput) { in.LegacyBranch = true },
			expectError: true,
		},
		{
			name: "short branch",
			mutate: func(in *ConfigRawInput) {
				in.Branch = "feature/x"
				in.BranchType = "short"
				in.TargetBranch = "main"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.ShortBranch, cfg.BranchType)
				assert.Equal(t, "feature/x", cfg.BranchName)
			},
		},
		{
			name:   "cpd exclusions are split",
			mutate: func(in *ConfigRawInput) { in.CpdExclusions = " **/gen/** , ,vendor/" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"**/gen/**", "vendor/"}, cfg.CpdExclusions)
			},
		},
		{
			name:   "analysis date as day",
			mutate: func(in *ConfigRawInput) { in.AnalysisDate = "2008-11-30" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, time.Date(2008, 11, 30, 0, 0, 0, 0, time.UTC), cfg.AnalysisDate)
			},
		},
		{
			name:        "analysis date invalid",
			mutate:      func(in *ConfigRawInput) { in.AnalysisDate = "yesterday" },
			expectError: true,
		},
		{
			name:        "negative small changeset",
			mutate:      func(in *ConfigRawInput) { in.SmallChangesetLines = -1 },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			if tt.mutate != nil {
				tt.mutate(input)
			}
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestProcessStoreOnly(t *testing.T) {
	input := validInput()
	input.ReportPathStr = ""
	cfg := &Config{}
	require.NoError(t, ProcessStoreOnly(cfg, input))
	assert.Equal(t, schema.SQLiteBackend, cfg.HistoryBackend)
}

func TestProcessServe(t *testing.T) {
	input := validInput()
	input.ReportPathStr = ""
	cfg := &Config{}
	require.NoError(t, ProcessServe(cfg, input))
	assert.Empty(t, cfg.ReportPath)
	assert.Equal(t, input.NewCodePeriod, cfg.NewCodePeriod)
	assert.Equal(t, input.SmallChangesetLines, cfg.SmallChangesetLines)

	input.SmallChangesetLines = -1
	require.Error(t, ProcessServe(&Config{}, input))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite needs nothing", schema.SQLiteBackend, "", false},
		{"none needs nothing", schema.NoneBackend, "", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql no tcp", schema.MySQLBackend, "user:pass@/db", true},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/caliper", false},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
		{"postgres no dbname", schema.PostgreSQLBackend, "host=localhost user=x", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost user=x dbname=caliper", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{CpdExclusions: []string{"a/"}, BranchName: "b"}
	clone := cfg.Clone()
	clone.CpdExclusions[0] = "z/"
	assert.Equal(t, "a/", cfg.CpdExclusions[0])
	assert.Equal(t, "b", clone.BranchName)
}
