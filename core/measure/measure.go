package measure

import (
	"fmt"
	"math"
	"strconv"

	"github.com/huangsam/caliper/schema"
)

// ValueKind is the kind of value a Measure holds.
type ValueKind int

// All value kinds.
const (
	NoValue ValueKind = iota
	BoolValue
	IntValue
	LongValue
	DoubleValue
	StringValue
	LevelValue
)

// QualityGateStatus is the outcome of the quality gate conditions on a measure's metric.
type QualityGateStatus struct {
	Status schema.EvaluationStatus
	Text   string
}

// Measure is an immutable value of a metric on a component.
type Measure struct {
	kind      ValueKind
	number    float64
	text      string
	variation *float64
	gate      *QualityGateStatus
}

// NewNoValue returns a measure without value. It is only meaningful with a variation or a gate status.
func NewNoValue() Measure { return Measure{kind: NoValue} }

// NewBool returns a boolean measure.
func NewBool(v bool) Measure {
	m := Measure{kind: BoolValue}
	if v {
		m.number = 1
	}
	return m
}

// NewInt returns an integer measure.
func NewInt(v int) Measure { return Measure{kind: IntValue, number: float64(v)} }

// NewLong returns a long measure.
func NewLong(v int64) Measure { return Measure{kind: LongValue, number: float64(v)} }

// NewDouble returns a double measure rounded to scale decimals.
func NewDouble(v float64, scale int) Measure {
	return Measure{kind: DoubleValue, number: Round(v, scale)}
}

// NewString returns a string or data measure.
func NewString(v string) Measure { return Measure{kind: StringValue, text: v} }

// NewLevel returns a level measure.
func NewLevel(status schema.EvaluationStatus) Measure {
	return Measure{kind: LevelValue, text: string(status)}
}

// FromNumber returns the measure of the given metric type holding v.
func FromNumber(t schema.MetricType, v float64) Measure {
	switch t {
	case schema.IntMetric:
		return NewInt(int(v))
	case schema.WorkDurMetric, schema.MillisecMetric:
		return NewLong(int64(v))
	case schema.BoolMetric:
		return NewBool(v != 0)
	default:
		return NewDouble(v, 1)
	}
}

// Round rounds v half away from zero to scale decimals.
func Round(v float64, scale int) float64 {
	p := math.Pow10(scale)
	return math.Round(v*p) / p
}

// Kind returns the kind of value held.
func (m Measure) Kind() ValueKind { return m.kind }

// HasValue tells whether the measure holds a value.
func (m Measure) HasValue() bool { return m.kind != NoValue }

// Number returns the numeric value of a BOOL, INT, LONG or DOUBLE measure.
func (m Measure) Number() (float64, bool) {
	switch m.kind {
	case BoolValue, IntValue, LongValue, DoubleValue:
		return m.number, true
	default:
		return 0, false
	}
}

// Text returns the value of a STRING or LEVEL measure.
func (m Measure) Text() (string, bool) {
	switch m.kind {
	case StringValue, LevelValue:
		return m.text, true
	default:
		return "", false
	}
}

// Level returns the status of a LEVEL measure.
func (m Measure) Level() (schema.EvaluationStatus, bool) {
	if m.kind != LevelValue {
		return "", false
	}
	return schema.EvaluationStatus(m.text), true
}

// Variation returns the delta over the new code period.
func (m Measure) Variation() (float64, bool) {
	if m.variation == nil {
		return 0, false
	}
	return *m.variation, true
}

// WithVariation returns a copy of m carrying the variation.
func (m Measure) WithVariation(v float64) Measure {
	m.variation = &v
	return m
}

// QualityGateStatus returns the gate status attached to the measure.
func (m Measure) QualityGateStatus() (QualityGateStatus, bool) {
	if m.gate == nil {
		return QualityGateStatus{}, false
	}
	return *m.gate, true
}

// WithQualityGateStatus returns a copy of m carrying the gate status.
func (m Measure) WithQualityGateStatus(s QualityGateStatus) Measure {
	m.gate = &s
	return m
}

// Format renders the value with the given number of decimals for doubles.
func (m Measure) Format(precision int) string {
	switch m.kind {
	case NoValue:
		return ""
	case BoolValue:
		return strconv.FormatBool(m.number != 0)
	case IntValue, LongValue:
		return strconv.FormatInt(int64(m.number), 10)
	case DoubleValue:
		return strconv.FormatFloat(m.number, 'f', precision, 64)
	default:
		return m.text
	}
}

// String implements fmt.Stringer.
func (m Measure) String() string {
	s := m.Format(1)
	if v, ok := m.Variation(); ok {
		s += fmt.Sprintf(" (variation=%s)", strconv.FormatFloat(v, 'f', -1, 64))
	}
	if g, ok := m.QualityGateStatus(); ok {
		s += fmt.Sprintf(" [%s]", g.Status)
	}
	return s
}
