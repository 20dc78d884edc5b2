package qualitygate

import (
	"math"
	"strconv"

	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

type threshold struct {
	number  float64
	text    string
	numeric bool
}

func parseThreshold(def schema.MetricDefinition, c schema.Condition) (threshold, error) {
	switch def.Type {
	case schema.IntMetric, schema.WorkDurMetric, schema.MillisecMetric:
		v, err := strconv.ParseFloat(c.ErrorThreshold, 64)
		if err != nil {
			return threshold{}, thresholdError(def, c)
		}
		return threshold{number: math.Trunc(v), numeric: true}, nil
	case schema.FloatMetric, schema.PercentMetric:
		v, err := strconv.ParseFloat(c.ErrorThreshold, 64)
		if err != nil {
			return threshold{}, thresholdError(def, c)
		}
		return threshold{number: v, numeric: true}, nil
	case schema.BoolMetric:
		b, err := contract.ParseBoolString(c.ErrorThreshold)
		if err != nil {
			return threshold{}, thresholdError(def, c)
		}
		if b {
			return threshold{number: 1, numeric: true}, nil
		}
		return threshold{number: 0, numeric: true}, nil
	case schema.StringMetric, schema.DataMetric, schema.LevelMetric:
		if c.Operator != schema.EqualsOp && c.Operator != schema.NotEqualsOp {
			return threshold{}, contract.NewArgumentError("operator %s is not supported on %s metric %s", c.Operator, def.Type, def.Key)
		}
		return threshold{text: c.ErrorThreshold}, nil
	default:
		return threshold{}, contract.NewArgumentError("conditions are not supported on %s metric %s", def.Type, def.Key)
	}
}

func thresholdError(def schema.MetricDefinition, c schema.Condition) error {
	return contract.NewArgumentError("unable to parse threshold '%s' to compare against %s", c.ErrorThreshold, def.Key)
}

// EvaluateCondition checks a measure against a condition. The condition fails when the
// comparison holds, so "ncloc LT 4" fails on 3. Conditions on new code compare the variation.
// A missing measure, or a missing variation on new code, evaluates to NO_VALUE.
func EvaluateCondition(c schema.Condition, def schema.MetricDefinition, m measure.Measure, present bool) (schema.EvaluatedCondition, error) {
	t, err := parseThreshold(def, c)
	if err != nil {
		return schema.EvaluatedCondition{}, err
	}
	result := schema.EvaluatedCondition{Condition: c, Status: schema.NoValueStatus}
	if !present {
		return result, nil
	}

	if !t.numeric {
		text, ok := m.Text()
		if !ok {
			return result, nil
		}
		result.Value = text
		result.Status = statusOf(compareText(c.Operator, text, t.text))
		return result, nil
	}

	var value float64
	var ok bool
	if c.OnLeakPeriod() {
		value, ok = m.Variation()
	} else {
		value, ok = m.Number()
	}
	if !ok {
		return result, nil
	}
	result.Value = formatValue(def, value)
	result.Status = statusOf(compareNumber(c.Operator, value, t.number))
	return result, nil
}

func statusOf(failed bool) schema.EvaluationStatus {
	if failed {
		return schema.ErrorStatus
	}
	return schema.OKStatus
}

func compareNumber(op schema.Operator, value, threshold float64) bool {
	switch op {
	case schema.EqualsOp:
		return value == threshold
	case schema.NotEqualsOp:
		return value != threshold
	case schema.GreaterThanOp:
		return value > threshold
	case schema.LessThanOp:
		return value < threshold
	}
	return false
}

func compareText(op schema.Operator, value, threshold string) bool {
	if op == schema.NotEqualsOp {
		return value != threshold
	}
	return value == threshold
}

func formatValue(def schema.MetricDefinition, v float64) string {
	switch def.Type {
	case schema.IntMetric, schema.WorkDurMetric, schema.MillisecMetric, schema.BoolMetric:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
