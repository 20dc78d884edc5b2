// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"strings"
	"time"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAnalysis prints the result of an analysis using the configured output format.
func (ow *OutWriter) WriteAnalysis(result *schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	return PrintAnalysisResult(result, cfg, duration)
}

// WriteMetrics prints metric definitions using the configured output format.
func (ow *OutWriter) WriteMetrics(defs []schema.MetricDefinition, cfg *contract.Config) error {
	return PrintMetricDefinitions(defs, cfg)
}

// getMaxTableKeyWidth calculates the maximum width for component keys in table output
// based on terminal width and table configuration.
func getMaxTableKeyWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Metric + Value + New Code + Gate columns, with borders and padding
	baseWidth := 30 + 12 + 12 + 10 + 20

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 80 {
		return 80
	}
	return available
}

// indentKey renders a component key below its ancestors.
func indentKey(key string, depth, maxWidth int) string {
	indent := strings.Repeat("  ", depth)
	return indent + contract.TruncatePath(key, max(maxWidth-len(indent), 10))
}
