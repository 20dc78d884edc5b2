// Package measure holds metric definitions and the per-component measures of an analysis.
package measure

import (
	"slices"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// Metric keys known to the engine.
const (
	LinesKey          = "lines"
	NclocKey          = "ncloc"
	FilesKey          = "files"
	FunctionsKey      = "functions"
	StatementsKey     = "statements"
	ClassesKey        = "classes"
	GeneratedLinesKey = "generated_lines"
	GeneratedNclocKey = "generated_ncloc"
	CommentLinesKey   = "comment_lines"
	ComplexityKey     = "complexity"

	LinesToCoverKey        = "lines_to_cover"
	UncoveredLinesKey      = "uncovered_lines"
	ConditionsToCoverKey   = "conditions_to_cover"
	UncoveredConditionsKey = "uncovered_conditions"
	CoverageKey            = "coverage"
	LineCoverageKey        = "line_coverage"
	BranchCoverageKey      = "branch_coverage"

	NewLinesToCoverKey        = "new_lines_to_cover"
	NewUncoveredLinesKey      = "new_uncovered_lines"
	NewConditionsToCoverKey   = "new_conditions_to_cover"
	NewUncoveredConditionsKey = "new_uncovered_conditions"
	NewCoverageKey            = "new_coverage"
	NewLineCoverageKey        = "new_line_coverage"
	NewBranchCoverageKey      = "new_branch_coverage"

	DuplicatedLinesKey           = "duplicated_lines"
	DuplicatedBlocksKey          = "duplicated_blocks"
	DuplicatedFilesKey           = "duplicated_files"
	DuplicatedLinesDensityKey    = "duplicated_lines_density"
	NewLinesKey                  = "new_lines"
	NewDuplicatedLinesKey        = "new_duplicated_lines"
	NewBlocksDuplicatedKey       = "new_blocks_duplicated"
	NewDuplicatedLinesDensityKey = "new_duplicated_lines_density"

	TestsKey              = "tests"
	TestErrorsKey         = "test_errors"
	TestFailuresKey       = "test_failures"
	SkippedTestsKey       = "skipped_tests"
	TestExecutionTimeKey  = "test_execution_time"
	TestSuccessDensityKey = "test_success_density"

	AlertStatusKey        = "alert_status"
	QualityGateDetailsKey = "quality_gate_details"
)

func best(v float64) *float64 { return &v }

// CoreMetrics returns the definitions of every metric the engine reads or computes.
func CoreMetrics() []schema.MetricDefinition {
	return []schema.MetricDefinition{
		{Key: LinesKey, Name: "Lines", Type: schema.IntMetric, Domain: "Size", Description: "Physical lines"},
		{Key: NclocKey, Name: "Lines of Code", Type: schema.IntMetric, Domain: "Size", Description: "Non commenting lines of code"},
		{Key: FilesKey, Name: "Files", Type: schema.IntMetric, Domain: "Size", Description: "Number of files"},
		{Key: FunctionsKey, Name: "Functions", Type: schema.IntMetric, Domain: "Size"},
		{Key: StatementsKey, Name: "Statements", Type: schema.IntMetric, Domain: "Size"},
		{Key: ClassesKey, Name: "Classes", Type: schema.IntMetric, Domain: "Size"},
		{Key: GeneratedLinesKey, Name: "Generated Lines", Type: schema.IntMetric, Domain: "Size", BestValue: best(0)},
		{Key: GeneratedNclocKey, Name: "Generated Lines of Code", Type: schema.IntMetric, Domain: "Size", BestValue: best(0)},
		{Key: CommentLinesKey, Name: "Comment Lines", Type: schema.IntMetric, Domain: "Size"},
		{Key: ComplexityKey, Name: "Cyclomatic Complexity", Type: schema.IntMetric, Domain: "Complexity"},

		{Key: LinesToCoverKey, Name: "Lines to Cover", Type: schema.IntMetric, Domain: "Coverage"},
		{Key: UncoveredLinesKey, Name: "Uncovered Lines", Type: schema.IntMetric, Domain: "Coverage", BestValue: best(0), OptimizedBestValue: true},
		{Key: ConditionsToCoverKey, Name: "Conditions to Cover", Type: schema.IntMetric, Domain: "Coverage"},
		{Key: UncoveredConditionsKey, Name: "Uncovered Conditions", Type: schema.IntMetric, Domain: "Coverage", BestValue: best(0), OptimizedBestValue: true},
		{Key: CoverageKey, Name: "Coverage", Type: schema.PercentMetric, Domain: "Coverage", BestValue: best(100), Description: "Coverage by tests"},
		{Key: LineCoverageKey, Name: "Line Coverage", Type: schema.PercentMetric, Domain: "Coverage", BestValue: best(100)},
		{Key: BranchCoverageKey, Name: "Condition Coverage", Type: schema.PercentMetric, Domain: "Coverage", BestValue: best(100)},

		{Key: NewLinesToCoverKey, Name: "Lines to Cover on New Code", Type: schema.IntMetric, Domain: "Coverage"},
		{Key: NewUncoveredLinesKey, Name: "Uncovered Lines on New Code", Type: schema.IntMetric, Domain: "Coverage", BestValue: best(0)},
		{Key: NewConditionsToCoverKey, Name: "Conditions to Cover on New Code", Type: schema.IntMetric, Domain: "Coverage"},
		{Key: NewUncoveredConditionsKey, Name: "Uncovered Conditions on New Code", Type: schema.IntMetric, Domain: "Coverage", BestValue: best(0)},
		{Key: NewCoverageKey, Name: "Coverage on New Code", Type: schema.PercentMetric, Domain: "Coverage", BestValue: best(100)},
		{Key: NewLineCoverageKey, Name: "Line Coverage on New Code", Type: schema.PercentMetric, Domain: "Coverage", BestValue: best(100)},
		{Key: NewBranchCoverageKey, Name: "Condition Coverage on New Code", Type: schema.PercentMetric, Domain: "Coverage", BestValue: best(100)},

		{Key: DuplicatedLinesKey, Name: "Duplicated Lines", Type: schema.IntMetric, Domain: "Duplications", BestValue: best(0), OptimizedBestValue: true},
		{Key: DuplicatedBlocksKey, Name: "Duplicated Blocks", Type: schema.IntMetric, Domain: "Duplications", BestValue: best(0), OptimizedBestValue: true},
		{Key: DuplicatedFilesKey, Name: "Duplicated Files", Type: schema.IntMetric, Domain: "Duplications", BestValue: best(0), OptimizedBestValue: true},
		{Key: DuplicatedLinesDensityKey, Name: "Duplicated Lines (%)", Type: schema.PercentMetric, Domain: "Duplications", BestValue: best(0), OptimizedBestValue: true},
		{Key: NewLinesKey, Name: "New Lines", Type: schema.IntMetric, Domain: "Size"},
		{Key: NewDuplicatedLinesKey, Name: "Duplicated Lines on New Code", Type: schema.IntMetric, Domain: "Duplications", BestValue: best(0)},
		{Key: NewBlocksDuplicatedKey, Name: "Duplicated Blocks on New Code", Type: schema.IntMetric, Domain: "Duplications", BestValue: best(0)},
		{Key: NewDuplicatedLinesDensityKey, Name: "Duplicated Lines on New Code (%)", Type: schema.PercentMetric, Domain: "Duplications", BestValue: best(0)},

		{Key: TestsKey, Name: "Unit Tests", Type: schema.IntMetric, Domain: "Coverage"},
		{Key: TestErrorsKey, Name: "Unit Test Errors", Type: schema.IntMetric, Domain: "Coverage", BestValue: best(0)},
		{Key: TestFailuresKey, Name: "Unit Test Failures", Type: schema.IntMetric, Domain: "Coverage", BestValue: best(0)},
		{Key: SkippedTestsKey, Name: "Skipped Unit Tests", Type: schema.IntMetric, Domain: "Coverage", BestValue: best(0)},
		{Key: TestExecutionTimeKey, Name: "Unit Test Duration", Type: schema.MillisecMetric, Domain: "Coverage"},
		{Key: TestSuccessDensityKey, Name: "Unit Test Success (%)", Type: schema.PercentMetric, Domain: "Coverage", BestValue: best(100)},

		{Key: AlertStatusKey, Name: "Quality Gate Status", Type: schema.LevelMetric, Domain: "Releasability"},
		{Key: QualityGateDetailsKey, Name: "Quality Gate Details", Type: schema.DataMetric, Domain: "General"},
	}
}

// scannerMetrics are the metrics read from the report. Every other metric is computed.
var scannerMetrics = map[string]struct{}{
	NclocKey: {}, FunctionsKey: {}, StatementsKey: {}, ClassesKey: {}, GeneratedLinesKey: {},
	GeneratedNclocKey: {}, CommentLinesKey: {}, ComplexityKey: {}, TestsKey: {}, TestErrorsKey: {},
	TestFailuresKey: {}, SkippedTestsKey: {}, TestExecutionTimeKey: {},
}

// IsScannerMetric tells whether a metric is provided by the scanner report rather than computed.
func IsScannerMetric(key string) bool {
	_, ok := scannerMetrics[key]
	return ok
}

// MetricRepository gives access to metric definitions by key.
type MetricRepository struct {
	byKey map[string]schema.MetricDefinition
	order []string
}

// NewMetricRepository creates a repository. Keys must be unique.
func NewMetricRepository(defs ...schema.MetricDefinition) (*MetricRepository, error) {
	r := &MetricRepository{byKey: make(map[string]schema.MetricDefinition, len(defs))}
	for _, d := range defs {
		if d.Key == "" {
			return nil, contract.NewArgumentError("metric key can't be empty")
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, contract.NewArgumentError("metric '%s' is defined more than once", d.Key)
		}
		r.byKey[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r, nil
}

// DefaultMetricRepository returns a repository of CoreMetrics.
func DefaultMetricRepository() *MetricRepository {
	r, _ := NewMetricRepository(CoreMetrics()...)
	return r
}

// ByKey returns the metric with the given key.
func (r *MetricRepository) ByKey(key string) (schema.MetricDefinition, error) {
	d, ok := r.byKey[key]
	if !ok {
		return schema.MetricDefinition{}, contract.NewStateError("Metric with key '%s' does not exist", key)
	}
	return d, nil
}

// Lookup returns the metric with the given key, if defined.
func (r *MetricRepository) Lookup(key string) (schema.MetricDefinition, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// All returns every metric in definition order.
func (r *MetricRepository) All() []schema.MetricDefinition {
	out := make([]schema.MetricDefinition, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Keys returns the sorted metric keys.
func (r *MetricRepository) Keys() []string {
	keys := slices.Clone(r.order)
	slices.Sort(keys)
	return keys
}
