package schema

// MeasureRow is a flattened measure used by the output writers and exporters.
type MeasureRow struct {
	ComponentKey  string        `json:"component_key"`
	ComponentType ComponentType `json:"component_type"`
	Depth         int           `json:"depth"`
	MetricKey     string        `json:"metric"`
	Value         *float64      `json:"value,omitempty"`
	TextValue     *string       `json:"text_value,omitempty"`
	Variation     *float64      `json:"variation,omitempty"`
	Alert         string        `json:"alert,omitempty"`
}

// GateResult summarizes the quality gate outcome of an analysis.
type GateResult struct {
	ProjectKey string               `json:"project_key"`
	GateName   string               `json:"gate_name"`
	Status     EvaluationStatus     `json:"status"`
	Text       string               `json:"text,omitempty"`
	Conditions []EvaluatedCondition `json:"conditions"`
}

// AnalysisResult is everything an analysis run exposes to callers.
type AnalysisResult struct {
	AnalysisUUID string       `json:"analysis_uuid"`
	ProjectKey   string       `json:"project_key"`
	Version      string       `json:"version"`
	FirstRun     bool         `json:"first_analysis"`
	Period       *Period      `json:"period,omitempty"`
	Measures     []MeasureRow `json:"measures"`
	Gate         *GateResult  `json:"quality_gate,omitempty"`
	Events       []Event      `json:"events,omitempty"`
}
