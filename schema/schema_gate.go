package schema

import "strings"

// Condition is a single rule of a quality gate.
type Condition struct {
	MetricKey      string   `yaml:"metric" json:"metric"`
	Operator       Operator `yaml:"op" json:"op"`
	ErrorThreshold string   `yaml:"error" json:"error"`
}

// OnLeakPeriod tells whether the condition applies to new code.
func (c Condition) OnLeakPeriod() bool {
	return strings.HasPrefix(c.MetricKey, "new_")
}

// QualityGate is a named set of conditions.
type QualityGate struct {
	ID         string      `yaml:"id" json:"id"`
	Name       string      `yaml:"name" json:"name"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// EvaluatedCondition is a condition together with its outcome.
type EvaluatedCondition struct {
	Condition Condition        `json:"condition"`
	Status    EvaluationStatus `json:"status"`
	Value     string           `json:"value"`
	Ignored   bool             `json:"ignored,omitempty"`
}

// QualityGateDetails is the serialized breakdown stored in the quality_gate_details measure.
type QualityGateDetails struct {
	Level             EvaluationStatus         `json:"level"`
	Conditions        []QualityGateDetailEntry `json:"conditions"`
	IgnoredConditions bool                     `json:"ignoredConditions"`
}

// QualityGateDetailEntry is one condition of QualityGateDetails.
type QualityGateDetailEntry struct {
	Metric string           `json:"metric"`
	Op     Operator         `json:"op"`
	Period *int             `json:"period,omitempty"`
	Error  string           `json:"error"`
	Actual string           `json:"actual,omitempty"`
	Level  EvaluationStatus `json:"level"`
}
