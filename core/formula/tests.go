package formula

import "github.com/huangsam/caliper/core/measure"

type testsCounter struct {
	tests, errors, failures sumCounter
}

func (c *testsCounter) Initialize(ctx *LeafContext) error {
	if v, ok := number(ctx.Measure(measure.TestsKey)); ok {
		c.tests.add(v)
	}
	if v, ok := number(ctx.Measure(measure.TestErrorsKey)); ok {
		c.errors.add(v)
	}
	if v, ok := number(ctx.Measure(measure.TestFailuresKey)); ok {
		c.failures.add(v)
	}
	return nil
}

func (c *testsCounter) Aggregate(child Counter) {
	o := child.(*testsCounter)
	c.tests.Aggregate(&o.tests)
	c.errors.Aggregate(&o.errors)
	c.failures.Aggregate(&o.failures)
}

// TestSuccessDensity is 100 * (tests - errors - failures) / tests, absent without tests.
type TestSuccessDensity struct{}

// NewCounter implements the Formula interface.
func (TestSuccessDensity) NewCounter() Counter { return &testsCounter{} }

// OutputMetricKeys implements the Formula interface.
func (TestSuccessDensity) OutputMetricKeys() []string {
	return []string{measure.TestSuccessDensityKey}
}

// Compute implements the Formula interface.
func (TestSuccessDensity) Compute(_ Context, counter Counter) (measure.Measure, bool) {
	c := counter.(*testsCounter)
	v, ok := percent(c.tests.value-c.errors.value-c.failures.value, c.tests.value)
	if !ok {
		return measure.Measure{}, false
	}
	return measure.NewDouble(v, 1), true
}

// TestFormulas returns the formulas of the tests step.
func TestFormulas() []Formula {
	return []Formula{
		NewIntSum(measure.TestsKey),
		NewIntSum(measure.TestErrorsKey),
		NewIntSum(measure.TestFailuresKey),
		NewIntSum(measure.SkippedTestsKey),
		NewIntSum(measure.TestExecutionTimeKey),
		TestSuccessDensity{},
	}
}
