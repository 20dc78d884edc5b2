package iocache

import (
	"context"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// ComponentsByProject implements the ComponentStore interface.
func (m *MockHistoryStore) ComponentsByProject(ctx context.Context, projectUUID string) (map[string]schema.ComponentRecord, error) {
	args := m.Called(ctx, projectUUID)
	out, _ := args.Get(0).(map[string]schema.ComponentRecord)
	return out, args.Error(1)
}

// ComponentByKey implements the ComponentStore interface.
func (m *MockHistoryStore) ComponentByKey(ctx context.Context, key string) (schema.ComponentRecord, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(schema.ComponentRecord), args.Bool(1), args.Error(2)
}

// UpsertComponents implements the ComponentStore interface.
func (m *MockHistoryStore) UpsertComponents(ctx context.Context, records []schema.ComponentRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// LastSnapshot implements the SnapshotStore interface.
func (m *MockHistoryStore) LastSnapshot(ctx context.Context, componentUUID string) (schema.Snapshot, bool, error) {
	args := m.Called(ctx, componentUUID)
	return args.Get(0).(schema.Snapshot), args.Bool(1), args.Error(2)
}

// Snapshots implements the SnapshotStore interface.
func (m *MockHistoryStore) Snapshots(ctx context.Context, componentUUID string) ([]schema.Snapshot, error) {
	args := m.Called(ctx, componentUUID)
	out, _ := args.Get(0).([]schema.Snapshot)
	return out, args.Error(1)
}

// SnapshotByUUID implements the SnapshotStore interface.
func (m *MockHistoryStore) SnapshotByUUID(ctx context.Context, uuid string) (schema.Snapshot, bool, error) {
	args := m.Called(ctx, uuid)
	return args.Get(0).(schema.Snapshot), args.Bool(1), args.Error(2)
}

// InsertSnapshot implements the SnapshotStore interface.
func (m *MockHistoryStore) InsertSnapshot(ctx context.Context, snapshot schema.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// MarkLast implements the SnapshotStore interface.
func (m *MockHistoryStore) MarkLast(ctx context.Context, componentUUID, snapshotUUID string) error {
	args := m.Called(ctx, componentUUID, snapshotUUID)
	return args.Error(0)
}

// AllSnapshots implements the SnapshotStore interface.
func (m *MockHistoryStore) AllSnapshots(ctx context.Context) ([]schema.Snapshot, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]schema.Snapshot)
	return out, args.Error(1)
}

// SaveAnalysis implements the SnapshotStore interface.
func (m *MockHistoryStore) SaveAnalysis(ctx context.Context, analysis schema.AnalysisRecord) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

// Events implements the EventStore interface.
func (m *MockHistoryStore) Events(ctx context.Context, componentUUID string, category schema.EventCategory) ([]schema.Event, error) {
	args := m.Called(ctx, componentUUID, category)
	out, _ := args.Get(0).([]schema.Event)
	return out, args.Error(1)
}

// InsertEvent implements the EventStore interface.
func (m *MockHistoryStore) InsertEvent(ctx context.Context, event schema.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// NewCodePeriodSetting implements the PeriodSettingStore interface.
func (m *MockHistoryStore) NewCodePeriodSetting(ctx context.Context, projectUUID, branchUUID string) (schema.NewCodePeriodSetting, bool, error) {
	args := m.Called(ctx, projectUUID, branchUUID)
	return args.Get(0).(schema.NewCodePeriodSetting), args.Bool(1), args.Error(2)
}

// SaveNewCodePeriodSetting implements the PeriodSettingStore interface.
func (m *MockHistoryStore) SaveNewCodePeriodSetting(ctx context.Context, setting schema.NewCodePeriodSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

// ReplaceCpdBlocks implements the CpdIndexStore interface.
func (m *MockHistoryStore) ReplaceCpdBlocks(ctx context.Context, projectUUID string, blocks []schema.CpdBlockRecord) error {
	args := m.Called(ctx, projectUUID, blocks)
	return args.Error(0)
}

// CpdBlocksByHashes implements the CpdIndexStore interface.
func (m *MockHistoryStore) CpdBlocksByHashes(ctx context.Context, hashes []string, excludedProjectUUID string) ([]schema.CpdBlockRecord, error) {
	args := m.Called(ctx, hashes, excludedProjectUUID)
	out, _ := args.Get(0).([]schema.CpdBlockRecord)
	return out, args.Error(1)
}

// InsertMeasures implements the MeasureStore interface.
func (m *MockHistoryStore) InsertMeasures(ctx context.Context, records []schema.MeasureRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// MeasuresByAnalysis implements the MeasureStore interface.
func (m *MockHistoryStore) MeasuresByAnalysis(ctx context.Context, analysisUUID string) ([]schema.MeasureRecord, error) {
	args := m.Called(ctx, analysisUUID)
	out, _ := args.Get(0).([]schema.MeasureRecord)
	return out, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
