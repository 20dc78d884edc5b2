package schema

import "time"

// Period is the resolved new code baseline of an analysis.
type Period struct {
	Mode          PeriodMode `json:"mode"`
	ModeParameter *string    `json:"mode_parameter,omitempty"`
	SnapshotDate  int64      `json:"snapshot_date"` // epoch millis
	AnalysisUUID  string     `json:"analysis_uuid"`
}

// NewCodePeriodSetting is a configured new code definition. Scope precedence is branch > project > global.
type NewCodePeriodSetting struct {
	ProjectUUID string
	BranchUUID  string
	Mode        PeriodMode
	Value       string
}

// Snapshot is one stored analysis of a project or branch.
type Snapshot struct {
	UUID           string
	ComponentUUID  string
	CreatedAt      int64 // epoch millis
	BuildDate      int64
	Status         SnapshotStatus
	Last           bool
	ProjectVersion string
	BuildString    string
	PeriodMode     *PeriodMode
	PeriodParam    *string
	PeriodDate     *int64
}

// IsProcessed tells whether the analysis finished successfully.
func (s Snapshot) IsProcessed() bool {
	return s.Status == ProcessedSnapshot
}

// Event is a notable fact attached to an analysis (new version, quality gate change).
type Event struct {
	UUID          string        `json:"uuid"`
	AnalysisUUID  string        `json:"analysis_uuid"`
	ComponentUUID string        `json:"component_uuid"`
	Name          string        `json:"name"`
	Category      EventCategory `json:"category"`
	Description   string        `json:"description,omitempty"`
	Data          string        `json:"data,omitempty"`
	Date          int64         `json:"date"` // epoch millis
	CreatedAt     int64         `json:"created_at"`
}

// ComponentRecord is the persisted identity of a component.
type ComponentRecord struct {
	UUID        string
	Key         string // branch-qualified key
	PublicKey   string
	ProjectUUID string
	Type        ComponentType
	Name        string
	Path        string
	Language    string
	Enabled     bool
}

// MeasureRecord is a persisted measure of a component for one analysis.
type MeasureRecord struct {
	ComponentUUID string
	AnalysisUUID  string
	MetricKey     string
	Value         *float64
	TextValue     *string
	Variation     *float64
	Alert         *EvaluationStatus
	AlertText     *string
}

// CpdBlockRecord is a persisted duplication block, used for cross-project matching.
type CpdBlockRecord struct {
	ProjectUUID   string
	ComponentUUID string
	ComponentKey  string
	AnalysisUUID  string
	Hash          string
	IndexInFile   int
	StartLine     int
	EndLine       int
	StartUnit     int
	EndUnit       int
}

// AnalysisRecord is everything one analysis writes to history, stored all or nothing.
type AnalysisRecord struct {
	Components []ComponentRecord
	Snapshot   Snapshot
	Measures   []MeasureRecord
	Events     []Event

	// CpdProjectUUID, when set, replaces the duplication blocks of that project with CpdBlocks.
	CpdProjectUUID string
	CpdBlocks      []CpdBlockRecord
}

// Notification is a typed payload handed to the notification service.
type Notification struct {
	Type       string
	ProjectKey string
	Fields     map[string]string
	CreatedAt  time.Time
}

// HistoryStatus represents the status of the analysis history store.
type HistoryStatus struct {
	Backend         string           `json:"backend"`
	Connected       bool             `json:"connected"`
	TotalSnapshots  int              `json:"total_snapshots"`
	LastSnapshotAt  time.Time        `json:"last_snapshot_at"`
	FirstSnapshotAt time.Time        `json:"first_snapshot_at"`
	TableSizes      map[string]int64 `json:"table_sizes"`
}
