// Package formula aggregates measures bottom-up over the component tree.
//
// A Formula owns a Counter per component. Leaves initialize their counter from the report or
// from raw measures, each counter is merged into its parent's when the crawl leaves the
// component, and the formula turns the counter into measures on the way up.
package formula

import (
	"fmt"

	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/core/visit"
	"github.com/huangsam/caliper/schema"
)

// Counter accumulates the inputs of one formula for one component.
type Counter interface {
	// Initialize reads the inputs of a leaf.
	Initialize(ctx *LeafContext) error

	// Aggregate adds the counter of a child. child always comes from the same formula.
	Aggregate(child Counter)
}

// Formula computes measures from a Counter.
type Formula interface {
	NewCounter() Counter
	OutputMetricKeys() []string

	// Compute returns the measure of ctx.Metric, or false when there is none.
	Compute(ctx Context, counter Counter) (measure.Measure, bool)
}

// LeafContext gives a counter access to the inputs of a leaf.
type LeafContext struct {
	Leaf     *tree.Component
	measures *measure.Repository
	newLines NewLines
}

// Measure returns a raw measure of the leaf.
func (c *LeafContext) Measure(metricKey string) (measure.Measure, bool) {
	return c.measures.Raw(c.Leaf, metricKey)
}

// NewLines returns the lines of the leaf flagged as new. false means there is no data for it.
func (c *LeafContext) NewLines() (map[int]bool, bool, error) {
	if c.newLines == nil {
		return nil, false, nil
	}
	return c.newLines.Lines(c.Leaf)
}

// Context is the component and metric a measure is computed for.
type Context struct {
	Component *tree.Component
	Metric    schema.MetricDefinition
	measures  *measure.Repository
}

// Measure returns a raw measure of the component, typically one computed by an earlier step.
func (c Context) Measure(metricKey string) (measure.Measure, bool) {
	return c.measures.Raw(c.Component, metricKey)
}

// Executor runs formulas in a single post-order crawl.
type Executor struct {
	name     string
	measures *measure.Repository
	newLines NewLines
	formulas []Formula
}

// NewExecutor creates an executor. newLines may be nil when no formula needs it.
func NewExecutor(name string, measures *measure.Repository, newLines NewLines, formulas ...Formula) *Executor {
	return &Executor{name: name, measures: measures, newLines: newLines, formulas: formulas}
}

// Visitor returns the path-aware visitor computing the formulas.
func (e *Executor) Visitor() visit.Visitor {
	return visit.NewPathAware(e.name, visit.PostOrder, visit.FileLimit, e.newCounters, visit.PathFuncs[[]Counter]{
		Any: e.visitComponent,
		Merge: func(parent, child *[]Counter) {
			for i, c := range *child {
				(*parent)[i].Aggregate(c)
			}
		},
	})
}

// Execute crawls the tree from root.
func (e *Executor) Execute(root *tree.Component) error {
	return visit.NewCrawler(e.Visitor()).Visit(root)
}

func (e *Executor) newCounters(*tree.Component) []Counter {
	counters := make([]Counter, len(e.formulas))
	for i, f := range e.formulas {
		counters[i] = f.NewCounter()
	}
	return counters
}

func (e *Executor) visitComponent(c *tree.Component, path *visit.Path[[]Counter]) error {
	counters := *path.Current()
	if c.Type().IsLeafType() {
		leaf := &LeafContext{Leaf: c, measures: e.measures, newLines: e.newLines}
		for _, counter := range counters {
			if err := counter.Initialize(leaf); err != nil {
				return err
			}
		}
	}
	// measures of a PROJECT_VIEW are copies of the project's
	if c.Type() == schema.ProjectViewType {
		return nil
	}
	for i, f := range e.formulas {
		for _, key := range f.OutputMetricKeys() {
			def, err := e.measures.Metrics().ByKey(key)
			if err != nil {
				return err
			}
			m, ok := f.Compute(Context{Component: c, Metric: def, measures: e.measures}, counters[i])
			if !ok {
				continue
			}
			if err := e.measures.Add(c, key, m); err != nil {
				return fmt.Errorf("formula %s: %w", key, err)
			}
		}
	}
	return nil
}

// percent returns 100 * part / total, false when total is not positive.
func percent(part, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return 100 * float64(part) / float64(total), true
}

func number(m measure.Measure, ok bool) (int64, bool) {
	if !ok {
		return 0, false
	}
	v, ok := m.Number()
	return int64(v), ok
}
