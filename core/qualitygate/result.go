package qualitygate

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// smallChangesetMetrics are the new code metrics whose failures are ignored on small changesets.
var smallChangesetMetrics = map[string]struct{}{
	measure.NewCoverageKey:               {},
	measure.NewLineCoverageKey:           {},
	measure.NewBranchCoverageKey:         {},
	measure.NewDuplicatedLinesKey:        {},
	measure.NewDuplicatedLinesDensityKey: {},
	measure.NewBlocksDuplicatedKey:       {},
}

// MetricStatus is the outcome of the conditions on one metric.
type MetricStatus struct {
	MetricKey string
	Status    measure.QualityGateStatus
}

// Result is the evaluated quality gate of an analysis.
type Result struct {
	Gate              string
	Status            schema.EvaluationStatus
	Text              string
	Conditions        []schema.EvaluatedCondition
	Metrics           []MetricStatus
	IgnoredConditions bool
}

// Details returns the condition by condition breakdown of the result.
func (r *Result) Details() schema.QualityGateDetails {
	details := schema.QualityGateDetails{
		Level:             r.Status,
		Conditions:        make([]schema.QualityGateDetailEntry, 0, len(r.Conditions)),
		IgnoredConditions: r.IgnoredConditions,
	}
	for _, c := range r.Conditions {
		entry := schema.QualityGateDetailEntry{
			Metric: c.Condition.MetricKey,
			Op:     c.Condition.Operator,
			Error:  c.Condition.ErrorThreshold,
			Actual: c.Value,
			Level:  c.Status,
		}
		if c.Condition.OnLeakPeriod() {
			period := 1
			entry.Period = &period
		}
		details.Conditions = append(details.Conditions, entry)
	}
	return details
}

// DetailsJSON returns Details serialized as stored in the quality_gate_details measure.
func (r *Result) DetailsJSON() (string, error) {
	data, err := json.Marshal(r.Details())
	if err != nil {
		return "", fmt.Errorf("failed to serialize quality gate details: %w", err)
	}
	return string(data), nil
}

type evaluated struct {
	schema.EvaluatedCondition
	metric schema.MetricDefinition
}

func (e evaluated) text() string {
	return fmt.Sprintf("%s %s %s", e.metric.Name, e.Condition.Operator.Symbol(), e.Condition.ErrorThreshold)
}

// ResultBuilder evaluates a gate on the root component using a builder pattern.
type ResultBuilder struct {
	gate                *schema.QualityGate
	root                *tree.Component
	measures            *measure.Repository
	smallChangesetLines int
	evaluated           []evaluated
	metrics             []MetricStatus
	result              *Result
}

// NewResultBuilder creates a builder for the result of gate on root.
func NewResultBuilder(gate *schema.QualityGate, root *tree.Component, measures *measure.Repository, smallChangesetLines int) *ResultBuilder {
	return &ResultBuilder{gate: gate, root: root, measures: measures, smallChangesetLines: smallChangesetLines}
}

// EvaluateConditions evaluates every condition against the raw measures of the root.
func (b *ResultBuilder) EvaluateConditions() (*ResultBuilder, error) {
	b.evaluated = make([]evaluated, 0, len(b.gate.Conditions))
	for _, c := range b.gate.Conditions {
		def, err := b.measures.Metrics().ByKey(c.MetricKey)
		if err != nil {
			return nil, err
		}
		m, ok := b.measures.Raw(b.root, c.MetricKey)
		ec, err := EvaluateCondition(c, def, m, ok)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate condition on %s: %w", c.MetricKey, err)
		}
		b.evaluated = append(b.evaluated, evaluated{EvaluatedCondition: ec, metric: def})
	}
	return b, nil
}

// ApplySmallChangeset turns failures on some new code metrics into ignored passes when
// fewer lines than the configured threshold are new.
func (b *ResultBuilder) ApplySmallChangeset() *ResultBuilder {
	m, ok := b.measures.Raw(b.root, measure.NewLinesKey)
	if !ok {
		return b
	}
	newLines, ok := m.Variation()
	if !ok || newLines >= float64(b.smallChangesetLines) {
		return b
	}
	for i, e := range b.evaluated {
		if _, special := smallChangesetMetrics[e.Condition.MetricKey]; !special || e.Status != schema.ErrorStatus {
			continue
		}
		b.evaluated[i].Status = schema.OKStatus
		b.evaluated[i].Ignored = true
	}
	return b
}

// AggregateByMetric keeps the worst status per metric. On a tie the first condition wins.
func (b *ResultBuilder) AggregateByMetric() *ResultBuilder {
	best := make(map[string]evaluated)
	var order []string
	for _, e := range b.evaluated {
		key := e.Condition.MetricKey
		current, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = e
			continue
		}
		if e.Status.Rank() > current.Status.Rank() {
			best[key] = e
		}
	}
	b.metrics = make([]MetricStatus, 0, len(order))
	for _, key := range order {
		e := best[key]
		status := measure.QualityGateStatus{Status: e.Status}
		if e.Status == schema.ErrorStatus {
			status.Text = e.text()
		}
		b.metrics = append(b.metrics, MetricStatus{MetricKey: key, Status: status})
	}
	return b
}

// BuildResult computes the overall status, the worst of the metric statuses and OK by default.
func (b *ResultBuilder) BuildResult() *ResultBuilder {
	res := &Result{
		Gate:       b.gate.Name,
		Status:     schema.OKStatus,
		Conditions: make([]schema.EvaluatedCondition, 0, len(b.evaluated)),
		Metrics:    b.metrics,
	}
	var texts []string
	for _, m := range b.metrics {
		if m.Status.Status.Rank() > res.Status.Rank() {
			res.Status = m.Status.Status
		}
		if m.Status.Status == schema.ErrorStatus {
			texts = append(texts, m.Status.Text)
		}
	}
	res.Text = strings.Join(texts, ", ")
	for _, e := range b.evaluated {
		res.Conditions = append(res.Conditions, e.EvaluatedCondition)
		res.IgnoredConditions = res.IgnoredConditions || e.Ignored
	}
	b.result = res
	return b
}

// GetResult returns the built Result.
func (b *ResultBuilder) GetResult() *Result {
	return b.result
}

// Evaluate runs every stage of the builder.
func Evaluate(gate *schema.QualityGate, root *tree.Component, measures *measure.Repository, smallChangesetLines int) (*Result, error) {
	b, err := NewResultBuilder(gate, root, measures, smallChangesetLines).EvaluateConditions()
	if err != nil {
		return nil, err
	}
	return b.ApplySmallChangeset().AggregateByMetric().BuildResult().GetResult(), nil
}

// Holder keeps the result of the analysis. It stays unset when no gate is configured.
type Holder struct {
	result *Result
}

// Set stores the result. It can be called only once.
func (h *Holder) Set(r *Result) error {
	if h.result != nil {
		return contract.NewStateError("Quality gate status has already been set")
	}
	if r == nil {
		return contract.NewArgumentError("quality gate result can't be nil")
	}
	h.result = r
	return nil
}

// IsSet tells whether a result was stored.
func (h *Holder) IsSet() bool { return h.result != nil }

// Result returns the stored result.
func (h *Holder) Result() (*Result, error) {
	if h.result == nil {
		return nil, contract.NewStateError("Quality gate status has not been set yet")
	}
	return h.result, nil
}

// ApplyMeasures attaches the metric statuses to the root measures and adds the
// alert_status and quality_gate_details measures.
func ApplyMeasures(r *Result, root *tree.Component, measures *measure.Repository) error {
	for _, ms := range r.Metrics {
		if ms.Status.Status == schema.NoValueStatus {
			continue
		}
		m, ok := measures.Raw(root, ms.MetricKey)
		if !ok {
			continue
		}
		if err := measures.Update(root, ms.MetricKey, m.WithQualityGateStatus(ms.Status)); err != nil {
			return err
		}
	}
	details, err := r.DetailsJSON()
	if err != nil {
		return err
	}
	alert := measure.NewLevel(r.Status).WithQualityGateStatus(measure.QualityGateStatus{Status: r.Status, Text: r.Text})
	if err := measures.Add(root, measure.AlertStatusKey, alert); err != nil {
		return err
	}
	return measures.Add(root, measure.QualityGateDetailsKey, measure.NewString(details))
}

// FailedMetrics returns the keys of the metrics in ERROR, sorted.
func (r *Result) FailedMetrics() []string {
	var keys []string
	for _, m := range r.Metrics {
		if m.Status.Status == schema.ErrorStatus {
			keys = append(keys, m.MetricKey)
		}
	}
	slices.Sort(keys)
	return keys
}
