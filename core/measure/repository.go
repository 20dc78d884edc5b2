package measure

import (
	"maps"
	"slices"

	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// Repository stores the raw measures of the current analysis and the base measures of the previous one.
type Repository struct {
	metrics *MetricRepository
	raw     plane
	base    plane
}

// plane maps component uuid, then metric key, to a measure.
type plane map[string]map[string]Measure

func (p plane) get(componentUUID, metricKey string) (Measure, bool) {
	m, ok := p[componentUUID][metricKey]
	return m, ok
}

func (p plane) set(componentUUID, metricKey string, m Measure) {
	byMetric, ok := p[componentUUID]
	if !ok {
		byMetric = make(map[string]Measure)
		p[componentUUID] = byMetric
	}
	byMetric[metricKey] = m
}

// NewRepository creates an empty repository over the given metrics.
func NewRepository(metrics *MetricRepository) *Repository {
	return &Repository{
		metrics: metrics,
		raw:     make(plane),
		base:    make(plane),
	}
}

// Metrics returns the metric repository.
func (r *Repository) Metrics() *MetricRepository { return r.metrics }

// Raw returns the measure of the current analysis.
func (r *Repository) Raw(c *tree.Component, metricKey string) (Measure, bool) {
	return r.raw.get(c.UUID(), metricKey)
}

// Base returns the measure of the previous analysis.
func (r *Repository) Base(c *tree.Component, metricKey string) (Measure, bool) {
	return r.base.get(c.UUID(), metricKey)
}

// RawByComponent returns every raw measure of the component keyed by metric.
func (r *Repository) RawByComponent(c *tree.Component) map[string]Measure {
	return maps.Clone(r.raw[c.UUID()])
}

// Add stores a new raw measure. Adding twice for the same component and metric is an error.
func (r *Repository) Add(c *tree.Component, metricKey string, m Measure) error {
	if _, err := r.metrics.ByKey(metricKey); err != nil {
		return err
	}
	if _, ok := r.raw.get(c.UUID(), metricKey); ok {
		return contract.NewStateError("a measure can be set only once for a specific Component (key=%s), Metric (key=%s)", c.DBKey(), metricKey)
	}
	r.raw.set(c.UUID(), metricKey, m)
	return nil
}

// Update replaces an existing raw measure.
func (r *Repository) Update(c *tree.Component, metricKey string, m Measure) error {
	if _, ok := r.raw.get(c.UUID(), metricKey); !ok {
		return contract.NewStateError("a measure can be updated only if one already exists for a specific Component (key=%s), Metric (key=%s)", c.DBKey(), metricKey)
	}
	r.raw.set(c.UUID(), metricKey, m)
	return nil
}

// SetBase stores a measure of the previous analysis.
func (r *Repository) SetBase(componentUUID, metricKey string, m Measure) {
	r.base.set(componentUUID, metricKey, m)
}

// LoadBase fills the base plane from persisted records. Records of unknown metrics are skipped.
func (r *Repository) LoadBase(records []schema.MeasureRecord) int {
	loaded := 0
	for _, rec := range records {
		def, ok := r.metrics.Lookup(rec.MetricKey)
		if !ok {
			continue
		}
		r.SetBase(rec.ComponentUUID, rec.MetricKey, FromRecord(def, rec))
		loaded++
	}
	return loaded
}

// FromRecord rebuilds a measure from its persisted form.
func FromRecord(def schema.MetricDefinition, rec schema.MeasureRecord) Measure {
	var m Measure
	switch {
	case rec.Value != nil:
		m = FromNumber(def.Type, *rec.Value)
	case rec.TextValue != nil && def.Type == schema.LevelMetric:
		m = NewLevel(schema.EvaluationStatus(*rec.TextValue))
	case rec.TextValue != nil:
		m = NewString(*rec.TextValue)
	default:
		m = NewNoValue()
	}
	if rec.Variation != nil {
		m = m.WithVariation(*rec.Variation)
	}
	if rec.Alert != nil {
		text := ""
		if rec.AlertText != nil {
			text = *rec.AlertText
		}
		m = m.WithQualityGateStatus(QualityGateStatus{Status: *rec.Alert, Text: text})
	}
	return m
}

// Persistable tells whether a raw measure is worth storing.
func Persistable(c *tree.Component, def schema.MetricDefinition, m Measure) bool {
	_, hasVariation := m.Variation()
	_, hasGate := m.QualityGateStatus()
	if !m.HasValue() && !hasVariation {
		return false
	}
	if c.Type() == schema.FileType && def.OptimizedBestValue && def.BestValue != nil && !hasVariation && !hasGate {
		if v, ok := m.Number(); ok && v == *def.BestValue {
			return false
		}
	}
	return true
}

// Records returns the persistable raw measures of every component of t, for the analysis.
func (r *Repository) Records(t *tree.Tree, analysisUUID string) []schema.MeasureRecord {
	var records []schema.MeasureRecord
	for _, c := range t.Components() {
		for _, key := range r.sortedKeys(c) {
			m := r.raw[c.UUID()][key]
			def, _ := r.metrics.Lookup(key)
			if !Persistable(c, def, m) {
				continue
			}
			records = append(records, toRecord(c.UUID(), analysisUUID, key, m))
		}
	}
	return records
}

// Rows returns every raw measure of t flattened for output, components in pre-order.
func (r *Repository) Rows(t *tree.Tree, precision int) []schema.MeasureRow {
	var rows []schema.MeasureRow
	for _, c := range t.Components() {
		for _, key := range r.sortedKeys(c) {
			m := r.raw[c.UUID()][key]
			rec := toRecord(c.UUID(), "", key, m)
			row := schema.MeasureRow{
				ComponentKey:  c.Key(),
				ComponentType: c.Type(),
				Depth:         t.Depth(c),
				MetricKey:     key,
				Value:         rec.Value,
				TextValue:     rec.TextValue,
				Variation:     rec.Variation,
			}
			if row.Value != nil {
				v := Round(*row.Value, precision)
				row.Value = &v
			}
			if row.Variation != nil {
				v := Round(*row.Variation, precision)
				row.Variation = &v
			}
			if rec.Alert != nil {
				row.Alert = string(*rec.Alert)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (r *Repository) sortedKeys(c *tree.Component) []string {
	return slices.Sorted(maps.Keys(r.raw[c.UUID()]))
}

func toRecord(componentUUID, analysisUUID, metricKey string, m Measure) schema.MeasureRecord {
	rec := schema.MeasureRecord{ComponentUUID: componentUUID, AnalysisUUID: analysisUUID, MetricKey: metricKey}
	if v, ok := m.Number(); ok {
		rec.Value = &v
	}
	if s, ok := m.Text(); ok {
		rec.TextValue = &s
	}
	if v, ok := m.Variation(); ok {
		rec.Variation = &v
	}
	if g, ok := m.QualityGateStatus(); ok {
		status, text := g.Status, g.Text
		rec.Alert = &status
		rec.AlertText = &text
	}
	return rec
}
