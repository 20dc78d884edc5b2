// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/caliper/schema"
)

// ReportReader exposes the content of a scanner report.
// This allows the pipeline to be tested without a report file on disk.
type ReportReader interface {
	// Metadata returns the analysis-wide facts of the report.
	Metadata() schema.ReportMetadata

	// Component returns the component with the given ref.
	Component(ref int) (schema.ReportComponent, error)

	// Duplications returns the duplications detected by the scanner on a file.
	Duplications(fileRef int) ([]schema.ReportDuplication, error)

	// CpdTextBlocks returns the hashed blocks of a file for cross-project detection.
	CpdTextBlocks(fileRef int) ([]schema.ReportCpdBlock, error)

	// Coverage returns the per-line coverage of a file. Nil means no coverage data.
	Coverage(fileRef int) ([]schema.ReportCoverageLine, error)

	// Changesets returns the per-line change dates of a file. Nil means no SCM data.
	Changesets(fileRef int) ([]schema.ReportChangesetLine, error)

	// Measures returns the raw measures computed by the scanner on a component.
	Measures(ref int) ([]schema.ReportMeasure, error)
}

// ComponentStore gives access to persisted component identities.
type ComponentStore interface {
	// ComponentsByProject returns the components of a project keyed by their branch-qualified key.
	ComponentsByProject(ctx context.Context, projectUUID string) (map[string]schema.ComponentRecord, error)

	// ComponentByKey returns the component with the given branch-qualified key.
	ComponentByKey(ctx context.Context, key string) (schema.ComponentRecord, bool, error)

	// UpsertComponents inserts or updates component identities.
	UpsertComponents(ctx context.Context, records []schema.ComponentRecord) error
}

// SnapshotStore gives access to the analysis history of a component.
type SnapshotStore interface {
	// LastSnapshot returns the snapshot flagged as last for the component.
	LastSnapshot(ctx context.Context, componentUUID string) (schema.Snapshot, bool, error)

	// Snapshots returns all snapshots of the component ordered by creation date, oldest first.
	Snapshots(ctx context.Context, componentUUID string) ([]schema.Snapshot, error)

	// SnapshotByUUID returns a snapshot by its uuid.
	SnapshotByUUID(ctx context.Context, uuid string) (schema.Snapshot, bool, error)

	// InsertSnapshot stores a new snapshot.
	InsertSnapshot(ctx context.Context, snapshot schema.Snapshot) error

	// MarkLast flags a snapshot as processed and last, and unflags the previous last one.
	MarkLast(ctx context.Context, componentUUID, snapshotUUID string) error

	// AllSnapshots returns every stored snapshot, used by exports.
	AllSnapshots(ctx context.Context) ([]schema.Snapshot, error)

	// SaveAnalysis stores an analysis in one transaction and marks its snapshot as processed and last.
	SaveAnalysis(ctx context.Context, analysis schema.AnalysisRecord) error
}

// EventStore gives access to analysis events.
type EventStore interface {
	// Events returns the events of a component in a category, most recent first.
	Events(ctx context.Context, componentUUID string, category schema.EventCategory) ([]schema.Event, error)

	// InsertEvent stores an event.
	InsertEvent(ctx context.Context, event schema.Event) error
}

// PeriodSettingStore gives access to new code period definitions.
type PeriodSettingStore interface {
	// NewCodePeriodSetting resolves the setting with precedence branch > project > global.
	NewCodePeriodSetting(ctx context.Context, projectUUID, branchUUID string) (schema.NewCodePeriodSetting, bool, error)

	// SaveNewCodePeriodSetting stores a setting; empty uuids denote the wider scopes.
	SaveNewCodePeriodSetting(ctx context.Context, setting schema.NewCodePeriodSetting) error
}

// CpdIndexStore gives access to the cross-project duplication index.
type CpdIndexStore interface {
	// ReplaceCpdBlocks replaces every block of a project with blocks.
	ReplaceCpdBlocks(ctx context.Context, projectUUID string, blocks []schema.CpdBlockRecord) error

	// CpdBlocksByHashes returns blocks with one of the hashes that belong to the last processed
	// analyses of other projects.
	CpdBlocksByHashes(ctx context.Context, hashes []string, excludedProjectUUID string) ([]schema.CpdBlockRecord, error)
}

// MeasureStore gives access to persisted measures.
type MeasureStore interface {
	// InsertMeasures stores measures of an analysis.
	InsertMeasures(ctx context.Context, records []schema.MeasureRecord) error

	// MeasuresByAnalysis returns all measures stored for an analysis.
	MeasuresByAnalysis(ctx context.Context, analysisUUID string) ([]schema.MeasureRecord, error)
}

// HistoryStore is the whole persistence boundary of the analysis pipeline.
type HistoryStore interface {
	ComponentStore
	SnapshotStore
	EventStore
	PeriodSettingStore
	CpdIndexStore
	MeasureStore

	// GetStatus returns status information about the store.
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetHistoryStore() HistoryStore
}

// NotificationService delivers notifications. Failures are not retried by callers.
type NotificationService interface {
	Deliver(ctx context.Context, notification schema.Notification) error
}
