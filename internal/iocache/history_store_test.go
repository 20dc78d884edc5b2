package iocache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func TestHistoryStore_NoneBackend(t *testing.T) {
	ctx := context.Background()
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	_, found, err := store.ComponentByKey(ctx, "acme")
	assert.NoError(t, err)
	assert.False(t, found)

	components, err := store.ComponentsByProject(ctx, "p1")
	assert.NoError(t, err)
	assert.Empty(t, components)

	assert.NoError(t, store.InsertSnapshot(ctx, schema.Snapshot{UUID: "a1"}))
	assert.NoError(t, store.MarkLast(ctx, "p1", "a1"))
	assert.NoError(t, store.InsertMeasures(ctx, []schema.MeasureRecord{{MetricKey: "ncloc"}}))
	assert.NoError(t, store.SaveAnalysis(ctx, schema.AnalysisRecord{Snapshot: schema.Snapshot{UUID: "a1"}}))
	assert.NoError(t, store.ReplaceCpdBlocks(ctx, "p1", nil))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestHistoryStore_UnsupportedBackend(t *testing.T) {
	_, err := NewHistoryStore(schema.DatabaseBackend("oracle"), "")
	assert.Error(t, err)
}

func TestHistoryStore_Components(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	records := []schema.ComponentRecord{
		{UUID: "p1", Key: "acme", PublicKey: "acme", ProjectUUID: "p1", Type: schema.ProjectType, Name: "Acme", Enabled: true},
		{UUID: "f1", Key: "acme:src/Foo.java", PublicKey: "acme:src/Foo.java", ProjectUUID: "p1", Type: schema.FileType,
			Name: "src/Foo.java", Path: "src/Foo.java", Language: "java", Enabled: true},
	}
	require.NoError(t, store.UpsertComponents(ctx, records))

	rec, found, err := store.ComponentByKey(ctx, "acme:src/Foo.java")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "f1", rec.UUID)
	assert.Equal(t, "java", rec.Language)
	assert.True(t, rec.Enabled)

	// Upserting again updates in place
	records[1].Name = "Foo.java"
	require.NoError(t, store.UpsertComponents(ctx, records))

	byKey, err := store.ComponentsByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byKey, 2)
	assert.Equal(t, "Foo.java", byKey["acme:src/Foo.java"].Name)
}

func TestHistoryStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	mode := schema.NumberOfDaysMode
	require.NoError(t, store.InsertSnapshot(ctx, schema.Snapshot{
		UUID: "a1", ComponentUUID: "p1", CreatedAt: 1226379600000, BuildDate: 1226379600000,
		Status: schema.UnprocessedSnapshot, ProjectVersion: "0.9",
	}))
	require.NoError(t, store.MarkLast(ctx, "p1", "a1"))
	require.NoError(t, store.InsertSnapshot(ctx, schema.Snapshot{
		UUID: "a2", ComponentUUID: "p1", CreatedAt: 1226494680000, BuildDate: 1226494680000,
		Status: schema.UnprocessedSnapshot, ProjectVersion: "1.0",
		PeriodMode: &mode, PeriodParam: ptr("30"), PeriodDate: ptr(int64(1226379600000)),
	}))

	last, found, err := store.LastSnapshot(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a1", last.UUID)
	assert.True(t, last.IsProcessed())

	require.NoError(t, store.MarkLast(ctx, "p1", "a2"))
	last, _, err = store.LastSnapshot(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "a2", last.UUID)
	require.NotNil(t, last.PeriodMode)
	assert.Equal(t, schema.NumberOfDaysMode, *last.PeriodMode)
	assert.Equal(t, "30", *last.PeriodParam)

	all, err := store.Snapshots(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].UUID, "oldest first")
	assert.False(t, all[0].Last)

	s, found, err := store.SnapshotByUUID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0.9", s.ProjectVersion)

	_, found, err = store.SnapshotByUUID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalSnapshots)
	assert.Equal(t, int64(2), status.TableSizes[snapshotsTable])
	assert.Equal(t, "2008-11-11", status.FirstSnapshotAt.Format("2006-01-02"))
}

func TestHistoryStore_Events(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	for i, v := range []string{"0.9", "1.0", "1.1"} {
		require.NoError(t, store.InsertEvent(ctx, schema.Event{
			UUID: "e" + v, AnalysisUUID: "a" + v, ComponentUUID: "p1", Name: v,
			Category: schema.VersionEvent, Date: int64(1000 * (i + 1)), CreatedAt: int64(1000 * (i + 1)),
		}))
	}
	require.NoError(t, store.InsertEvent(ctx, schema.Event{
		UUID: "alert", AnalysisUUID: "a1.1", ComponentUUID: "p1", Name: "Failed",
		Category: schema.AlertEvent, Date: 5000, CreatedAt: 5000,
	}))

	events, err := store.Events(ctx, "p1", schema.VersionEvent)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "1.1", events[0].Name, "most recent first")
	assert.Equal(t, "0.9", events[2].Name)
}

func TestHistoryStore_NewCodePeriodPrecedence(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	_, found, err := store.NewCodePeriodSetting(ctx, "p1", "b1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveNewCodePeriodSetting(ctx, schema.NewCodePeriodSetting{Mode: schema.PreviousVersionMode}))
	s, found, err := store.NewCodePeriodSetting(ctx, "p1", "b1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.PreviousVersionMode, s.Mode)

	require.NoError(t, store.SaveNewCodePeriodSetting(ctx, schema.NewCodePeriodSetting{ProjectUUID: "p1", Mode: schema.NumberOfDaysMode, Value: "30"}))
	s, _, err = store.NewCodePeriodSetting(ctx, "p1", "b1")
	require.NoError(t, err)
	assert.Equal(t, schema.NumberOfDaysMode, s.Mode)

	require.NoError(t, store.SaveNewCodePeriodSetting(ctx, schema.NewCodePeriodSetting{ProjectUUID: "p1", BranchUUID: "b1", Mode: schema.SpecificAnalysisMode, Value: "a1"}))
	s, _, err = store.NewCodePeriodSetting(ctx, "p1", "b1")
	require.NoError(t, err)
	assert.Equal(t, schema.SpecificAnalysisMode, s.Mode)
	assert.Equal(t, "a1", s.Value)

	// Replacing a scope keeps a single row
	require.NoError(t, store.SaveNewCodePeriodSetting(ctx, schema.NewCodePeriodSetting{ProjectUUID: "p1", Mode: schema.NumberOfDaysMode, Value: "15"}))
	s, _, err = store.NewCodePeriodSetting(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, "15", s.Value)

	assert.Error(t, store.SaveNewCodePeriodSetting(ctx, schema.NewCodePeriodSetting{BranchUUID: "b1", Mode: schema.DateMode}))
}

// processedLast stores a processed analysis of a project and flags it as last.
func processedLast(t *testing.T, store *HistoryStoreImpl, projectUUID, analysisUUID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.InsertSnapshot(ctx, schema.Snapshot{UUID: analysisUUID, ComponentUUID: projectUUID, Status: schema.UnprocessedSnapshot}))
	require.NoError(t, store.MarkLast(ctx, projectUUID, analysisUUID))
}

func TestHistoryStore_CpdBlocks(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	processedLast(t, store, "other", "x1")
	processedLast(t, store, "p1", "a1")
	require.NoError(t, store.ReplaceCpdBlocks(ctx, "other", []schema.CpdBlockRecord{
		{ProjectUUID: "other", ComponentUUID: "of1", ComponentKey: "other:src/A.java", AnalysisUUID: "x1", Hash: "h1", IndexInFile: 0, StartLine: 1, EndLine: 10, StartUnit: 1, EndUnit: 40},
		{ProjectUUID: "other", ComponentUUID: "of1", ComponentKey: "other:src/A.java", AnalysisUUID: "x1", Hash: "h2", IndexInFile: 1, StartLine: 11, EndLine: 20},
	}))
	require.NoError(t, store.ReplaceCpdBlocks(ctx, "p1", []schema.CpdBlockRecord{
		{ProjectUUID: "p1", ComponentUUID: "f1", ComponentKey: "acme:src/Foo.java", AnalysisUUID: "a1", Hash: "h1", IndexInFile: 0, StartLine: 5, EndLine: 14},
	}))

	blocks, err := store.CpdBlocksByHashes(ctx, []string{"h1", "h3"}, "p1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "other:src/A.java", blocks[0].ComponentKey)
	assert.Equal(t, 40, blocks[0].EndUnit)

	blocks, err = store.CpdBlocksByHashes(ctx, nil, "p1")
	require.NoError(t, err)
	assert.Empty(t, blocks)

	assert.Error(t, store.ReplaceCpdBlocks(ctx, "p1", []schema.CpdBlockRecord{{ProjectUUID: "other", ComponentKey: "other:src/A.java"}}))
}

func TestHistoryStore_CpdBlocksOfRemovedFiles(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	processedLast(t, store, "b", "b1")
	require.NoError(t, store.ReplaceCpdBlocks(ctx, "b", []schema.CpdBlockRecord{
		{ProjectUUID: "b", ComponentUUID: "x", ComponentKey: "b:X.java", AnalysisUUID: "b1", Hash: "h1", StartLine: 1, EndLine: 10},
	}))

	// The next analysis of b only indexes another file
	processedLast(t, store, "b", "b2")
	require.NoError(t, store.ReplaceCpdBlocks(ctx, "b", []schema.CpdBlockRecord{
		{ProjectUUID: "b", ComponentUUID: "y", ComponentKey: "b:Y.java", AnalysisUUID: "b2", Hash: "h2", StartLine: 1, EndLine: 10},
	}))

	blocks, err := store.CpdBlocksByHashes(ctx, []string{"h1"}, "a")
	require.NoError(t, err)
	assert.Empty(t, blocks)

	blocks, err = store.CpdBlocksByHashes(ctx, []string{"h2"}, "a")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "b2", blocks[0].AnalysisUUID)

	// Clearing the index of b leaves nothing to match
	require.NoError(t, store.ReplaceCpdBlocks(ctx, "b", nil))
	blocks, err = store.CpdBlocksByHashes(ctx, []string{"h2"}, "a")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestHistoryStore_CpdBlocksOnlyFromLastProcessedAnalysis(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	// Blocks of an analysis never marked as last
	require.NoError(t, store.InsertSnapshot(ctx, schema.Snapshot{UUID: "b1", ComponentUUID: "b", Status: schema.UnprocessedSnapshot}))
	require.NoError(t, store.ReplaceCpdBlocks(ctx, "b", []schema.CpdBlockRecord{
		{ProjectUUID: "b", ComponentUUID: "x", ComponentKey: "b:X.java", AnalysisUUID: "b1", Hash: "h1", StartLine: 1, EndLine: 10},
	}))
	blocks, err := store.CpdBlocksByHashes(ctx, []string{"h1"}, "a")
	require.NoError(t, err)
	assert.Empty(t, blocks)

	require.NoError(t, store.MarkLast(ctx, "b", "b1"))
	blocks, err = store.CpdBlocksByHashes(ctx, []string{"h1"}, "a")
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestHistoryStore_SaveAnalysis(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	analysis := schema.AnalysisRecord{
		Components: []schema.ComponentRecord{
			{UUID: "p1", Key: "acme", PublicKey: "acme", ProjectUUID: "p1", Type: schema.ProjectType, Enabled: true},
		},
		Snapshot: schema.Snapshot{UUID: "a1", ComponentUUID: "p1", CreatedAt: 1226379600000, Status: schema.UnprocessedSnapshot, ProjectVersion: "1.0"},
		Measures: []schema.MeasureRecord{{AnalysisUUID: "a1", ComponentUUID: "p1", MetricKey: "ncloc", Value: ptr(30.0)}},
		Events: []schema.Event{
			{UUID: "e1", AnalysisUUID: "a1", ComponentUUID: "p1", Name: "1.0", Category: schema.VersionEvent, Date: 1226379600000},
		},
		CpdProjectUUID: "p1",
		CpdBlocks: []schema.CpdBlockRecord{
			{ProjectUUID: "p1", ComponentUUID: "f1", ComponentKey: "acme:Foo.java", AnalysisUUID: "a1", Hash: "h1", StartLine: 1, EndLine: 10},
		},
	}
	require.NoError(t, store.SaveAnalysis(ctx, analysis))

	last, found, err := store.LastSnapshot(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a1", last.UUID)
	assert.True(t, last.IsProcessed())

	events, err := store.Events(ctx, "p1", schema.VersionEvent)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	blocks, err := store.CpdBlocksByHashes(ctx, []string{"h1"}, "other")
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestHistoryStore_SaveAnalysisIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	require.NoError(t, store.InsertEvent(ctx, schema.Event{UUID: "e1", AnalysisUUID: "a0", ComponentUUID: "p1", Category: schema.AlertEvent}))

	// The event uuid is already taken, so the write fails after components, snapshot and measures
	err := store.SaveAnalysis(ctx, schema.AnalysisRecord{
		Components: []schema.ComponentRecord{{UUID: "p1", Key: "acme", PublicKey: "acme", ProjectUUID: "p1", Type: schema.ProjectType, Enabled: true}},
		Snapshot:   schema.Snapshot{UUID: "a1", ComponentUUID: "p1", Status: schema.UnprocessedSnapshot},
		Measures:   []schema.MeasureRecord{{AnalysisUUID: "a1", ComponentUUID: "p1", MetricKey: "ncloc", Value: ptr(30.0)}},
		Events:     []schema.Event{{UUID: "e1", AnalysisUUID: "a1", ComponentUUID: "p1", Category: schema.VersionEvent}},
	})
	require.Error(t, err)

	_, found, err := store.ComponentByKey(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.SnapshotByUUID(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, found)

	records, err := store.MeasuresByAnalysis(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryStore_Measures(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	alert := schema.ErrorStatus
	require.NoError(t, store.InsertMeasures(ctx, []schema.MeasureRecord{
		{AnalysisUUID: "a1", ComponentUUID: "d1", MetricKey: "ncloc", Value: ptr(30.0)},
		{AnalysisUUID: "a1", ComponentUUID: "p1", MetricKey: "alert_status", TextValue: ptr("ERROR"), Alert: &alert, AlertText: ptr("Lines of Code < 4")},
		{AnalysisUUID: "a1", ComponentUUID: "f1", MetricKey: "new_lines", Variation: ptr(3.0)},
		{AnalysisUUID: "a2", ComponentUUID: "d1", MetricKey: "ncloc", Value: ptr(31.0)},
	}))

	records, err := store.MeasuresByAnalysis(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, records, 3)

	byMetric := map[string]schema.MeasureRecord{}
	for _, r := range records {
		byMetric[r.MetricKey] = r
	}
	assert.Equal(t, 30.0, *byMetric["ncloc"].Value)
	assert.Nil(t, byMetric["ncloc"].Variation)
	assert.Equal(t, schema.ErrorStatus, *byMetric["alert_status"].Alert)
	assert.Equal(t, "ERROR", *byMetric["alert_status"].TextValue)
	assert.Nil(t, byMetric["new_lines"].Value)
	assert.Equal(t, 3.0, *byMetric["new_lines"].Variation)
}

func TestHistoryStore_FileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.InsertSnapshot(ctx, schema.Snapshot{UUID: "a1", ComponentUUID: "p1", Status: schema.ProcessedSnapshot}))
	require.NoError(t, store.Close())

	// Reopening runs migrations again without changes
	store, err = NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	all, err := store.AllSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRebind(t *testing.T) {
	pg := &HistoryStoreImpl{backend: schema.PostgreSQLBackend}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)", pg.rebind("SELECT a FROM t WHERE x = ? AND y IN (?, ?)"))
	lite := &HistoryStoreImpl{backend: schema.SQLiteBackend}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestWithMultiStatements(t *testing.T) {
	assert.Equal(t, "u:p@tcp(h:3306)/db?multiStatements=true", withMultiStatements("u:p@tcp(h:3306)/db"))
	assert.Equal(t, "u:p@tcp(h:3306)/db?parseTime=true&multiStatements=true", withMultiStatements("u:p@tcp(h:3306)/db?parseTime=true"))
	assert.Equal(t, "u:p@tcp(h:3306)/db?multiStatements=false", withMultiStatements("u:p@tcp(h:3306)/db?multiStatements=false"))
}
