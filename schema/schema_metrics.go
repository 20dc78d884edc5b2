package schema

// MetricDefinition describes a metric for display purposes.
type MetricDefinition struct {
	Key                string     `json:"key"`
	Name               string     `json:"name"`
	Type               MetricType `json:"type"`
	Domain             string     `json:"domain"`
	BestValue          *float64   `json:"best_value,omitempty"`
	OptimizedBestValue bool       `json:"optimized_best_value"`
	Description        string     `json:"description,omitempty"`
}

// MetricsRenderModel contains all processed data needed for displaying metric definitions.
type MetricsRenderModel struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Metrics     []MetricDefinition `json:"metrics"`
}
