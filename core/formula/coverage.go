package formula

import (
	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

type coverageCounter struct {
	linesToCover, uncoveredLines, conditionsToCover, uncoveredConditions int64
	set                                                                  bool
}

func (c *coverageCounter) addLine(l schema.ReportCoverageLine) {
	if l.Hits != nil {
		c.linesToCover++
		if !*l.Hits {
			c.uncoveredLines++
		}
	}
	if l.Conditions > 0 {
		c.conditionsToCover += int64(l.Conditions)
		c.uncoveredConditions += int64(max(l.Conditions-l.CoveredConditions, 0))
	}
}

func (c *coverageCounter) Aggregate(o *coverageCounter) {
	if !o.set {
		return
	}
	c.linesToCover += o.linesToCover
	c.uncoveredLines += o.uncoveredLines
	c.conditionsToCover += o.conditionsToCover
	c.uncoveredConditions += o.uncoveredConditions
	c.set = true
}

func (c *coverageCounter) value(key string, keys coverageKeys) (int64, bool) {
	switch key {
	case keys.linesToCover:
		return c.linesToCover, true
	case keys.uncoveredLines:
		return c.uncoveredLines, true
	case keys.conditionsToCover:
		return c.conditionsToCover, true
	case keys.uncoveredConditions:
		return c.uncoveredConditions, true
	}
	return 0, false
}

func (c *coverageCounter) percentage(key string, keys coverageKeys) (float64, bool) {
	switch key {
	case keys.coverage:
		toCover := c.linesToCover + c.conditionsToCover
		return percent(toCover-c.uncoveredLines-c.uncoveredConditions, toCover)
	case keys.lineCoverage:
		return percent(c.linesToCover-c.uncoveredLines, c.linesToCover)
	case keys.branchCoverage:
		return percent(c.conditionsToCover-c.uncoveredConditions, c.conditionsToCover)
	}
	return 0, false
}

type coverageKeys struct {
	linesToCover, uncoveredLines, conditionsToCover, uncoveredConditions string
	coverage, lineCoverage, branchCoverage                               string
}

func (k coverageKeys) all() []string {
	return []string{
		k.linesToCover, k.uncoveredLines, k.conditionsToCover, k.uncoveredConditions,
		k.coverage, k.lineCoverage, k.branchCoverage,
	}
}

var (
	overallKeys = coverageKeys{
		linesToCover: measure.LinesToCoverKey, uncoveredLines: measure.UncoveredLinesKey,
		conditionsToCover: measure.ConditionsToCoverKey, uncoveredConditions: measure.UncoveredConditionsKey,
		coverage: measure.CoverageKey, lineCoverage: measure.LineCoverageKey, branchCoverage: measure.BranchCoverageKey,
	}
	newCodeKeys = coverageKeys{
		linesToCover: measure.NewLinesToCoverKey, uncoveredLines: measure.NewUncoveredLinesKey,
		conditionsToCover: measure.NewConditionsToCoverKey, uncoveredConditions: measure.NewUncoveredConditionsKey,
		coverage: measure.NewCoverageKey, lineCoverage: measure.NewLineCoverageKey, branchCoverage: measure.NewBranchCoverageKey,
	}
)

// coverageLines reads the coverage of a main (non test) FILE leaf. nil means no coverage data.
func coverageLines(reader contract.ReportReader, ctx *LeafContext) ([]schema.ReportCoverageLine, bool, error) {
	leaf := ctx.Leaf
	if leaf.Type() != schema.FileType || leaf.FileAttributes().IsTest {
		return nil, false, nil
	}
	ref, ok := leaf.Ref()
	if !ok {
		return nil, false, nil
	}
	lines, err := reader.Coverage(ref)
	if err != nil {
		return nil, false, err
	}
	return lines, true, nil
}

type overallCoverageCounter struct {
	coverageCounter
	reader contract.ReportReader
}

func (c *overallCoverageCounter) Initialize(ctx *LeafContext) error {
	lines, ok, err := coverageLines(c.reader, ctx)
	if err != nil || !ok || lines == nil {
		return err
	}
	c.set = true
	for _, l := range lines {
		c.addLine(l)
	}
	return nil
}

func (c *overallCoverageCounter) Aggregate(child Counter) {
	c.coverageCounter.Aggregate(&child.(*overallCoverageCounter).coverageCounter)
}

// Coverage computes line and condition coverage from the per-line coverage of the report.
type Coverage struct {
	reader contract.ReportReader
}

// NewCoverage creates the coverage formula.
func NewCoverage(reader contract.ReportReader) *Coverage { return &Coverage{reader: reader} }

// NewCounter implements the Formula interface.
func (f *Coverage) NewCounter() Counter { return &overallCoverageCounter{reader: f.reader} }

// OutputMetricKeys implements the Formula interface.
func (f *Coverage) OutputMetricKeys() []string { return overallKeys.all() }

// Compute implements the Formula interface.
func (f *Coverage) Compute(ctx Context, counter Counter) (measure.Measure, bool) {
	c := &counter.(*overallCoverageCounter).coverageCounter
	if !c.set {
		return measure.Measure{}, false
	}
	if v, ok := c.value(ctx.Metric.Key, overallKeys); ok {
		return measure.NewInt(int(v)), true
	}
	if v, ok := c.percentage(ctx.Metric.Key, overallKeys); ok {
		return measure.NewDouble(v, 1), true
	}
	return measure.Measure{}, false
}

type newCoverageCounter struct {
	coverageCounter
	reader contract.ReportReader
}

func (c *newCoverageCounter) Initialize(ctx *LeafContext) error {
	newLines, hasData, err := ctx.NewLines()
	if err != nil || !hasData {
		return err
	}
	lines, ok, err := coverageLines(c.reader, ctx)
	if err != nil || !ok {
		return err
	}
	c.set = true
	for _, l := range lines {
		if newLines[l.Line] {
			c.addLine(l)
		}
	}
	return nil
}

func (c *newCoverageCounter) Aggregate(child Counter) {
	c.coverageCounter.Aggregate(&child.(*newCoverageCounter).coverageCounter)
}

// NewCodeCoverage computes coverage restricted to new lines. Values are carried as variations.
type NewCodeCoverage struct {
	reader contract.ReportReader
}

// NewNewCoverage creates the new code coverage formula.
func NewNewCoverage(reader contract.ReportReader) *NewCodeCoverage {
	return &NewCodeCoverage{reader: reader}
}

// NewCounter implements the Formula interface.
func (f *NewCodeCoverage) NewCounter() Counter { return &newCoverageCounter{reader: f.reader} }

// OutputMetricKeys implements the Formula interface.
func (f *NewCodeCoverage) OutputMetricKeys() []string { return newCodeKeys.all() }

// Compute implements the Formula interface.
func (f *NewCodeCoverage) Compute(ctx Context, counter Counter) (measure.Measure, bool) {
	c := &counter.(*newCoverageCounter).coverageCounter
	if !c.set {
		return measure.Measure{}, false
	}
	if v, ok := c.value(ctx.Metric.Key, newCodeKeys); ok {
		return measure.NewNoValue().WithVariation(float64(v)), true
	}
	if v, ok := c.percentage(ctx.Metric.Key, newCodeKeys); ok {
		return measure.NewNoValue().WithVariation(measure.Round(v, 1)), true
	}
	return measure.Measure{}, false
}
