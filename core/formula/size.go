package formula

import (
	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/schema"
)

type sumCounter struct {
	value int64
	set   bool
}

func (c *sumCounter) add(v int64) {
	c.value += v
	c.set = true
}

func (c *sumCounter) Aggregate(o *sumCounter) {
	if o.set {
		c.add(o.value)
	}
}

type leafSumCounter struct {
	sumCounter
	metricKey string
}

func (c *leafSumCounter) Initialize(ctx *LeafContext) error {
	if v, ok := number(ctx.Measure(c.metricKey)); ok {
		c.add(v)
	}
	return nil
}

func (c *leafSumCounter) Aggregate(child Counter) {
	c.sumCounter.Aggregate(&child.(*leafSumCounter).sumCounter)
}

// IntSum sums the leaf measures of a metric. Leaves keep the measure they were given and
// a component without any contributing descendant gets no measure.
type IntSum struct {
	metricKey string
}

// NewIntSum creates a sum formula for metricKey.
func NewIntSum(metricKey string) *IntSum { return &IntSum{metricKey: metricKey} }

// NewCounter implements the Formula interface.
func (f *IntSum) NewCounter() Counter { return &leafSumCounter{metricKey: f.metricKey} }

// OutputMetricKeys implements the Formula interface.
func (f *IntSum) OutputMetricKeys() []string { return []string{f.metricKey} }

// Compute implements the Formula interface.
func (f *IntSum) Compute(ctx Context, counter Counter) (measure.Measure, bool) {
	c := counter.(*leafSumCounter)
	if ctx.Component.Type().IsLeafType() || !c.set {
		return measure.Measure{}, false
	}
	return measure.FromNumber(ctx.Metric.Type, float64(c.value)), true
}

type fileSizeCounter struct {
	lines sumCounter
	files sumCounter
}

func (c *fileSizeCounter) Initialize(ctx *LeafContext) error {
	if ctx.Leaf.Type() == schema.FileType {
		c.lines.add(int64(ctx.Leaf.FileAttributes().Lines))
		c.files.add(1)
	}
	return nil
}

func (c *fileSizeCounter) Aggregate(child Counter) {
	o := child.(*fileSizeCounter)
	c.lines.Aggregate(&o.lines)
	c.files.Aggregate(&o.files)
}

// FileSize computes LINES and FILES on every component, leaves included.
type FileSize struct{}

// NewCounter implements the Formula interface.
func (FileSize) NewCounter() Counter { return &fileSizeCounter{} }

// OutputMetricKeys implements the Formula interface.
func (FileSize) OutputMetricKeys() []string {
	return []string{measure.LinesKey, measure.FilesKey}
}

// Compute implements the Formula interface.
func (FileSize) Compute(ctx Context, counter Counter) (measure.Measure, bool) {
	c := counter.(*fileSizeCounter)
	switch ctx.Metric.Key {
	case measure.LinesKey:
		return measure.NewInt(int(c.lines.value)), true
	case measure.FilesKey:
		return measure.NewInt(int(c.files.value)), true
	}
	return measure.Measure{}, false
}

// SizeFormulas returns the formulas of the size step.
func SizeFormulas() []Formula {
	return []Formula{
		FileSize{},
		NewIntSum(measure.NclocKey),
		NewIntSum(measure.FunctionsKey),
		NewIntSum(measure.StatementsKey),
		NewIntSum(measure.ClassesKey),
		NewIntSum(measure.GeneratedLinesKey),
		NewIntSum(measure.GeneratedNclocKey),
		NewIntSum(measure.CommentLinesKey),
		NewIntSum(measure.ComplexityKey),
	}
}
