package period

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/iocache"
	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	nov11 int64 = 1226379600000
	nov12 int64 = 1226494680000
	nov20 int64 = 1227157200000
	nov22 int64 = 1227358680000
	nov29 int64 = 1227934800000
)

var november30th2008 = time.Date(2008, 11, 30, 0, 0, 0, 0, time.UTC)

type fixture struct {
	ctx   context.Context
	store *iocache.HistoryStoreImpl
	logs  *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := iocache.NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logs := &bytes.Buffer{}
	contract.SetLogger(logs, slog.LevelDebug)
	t.Cleanup(func() { contract.SetLogger(os.Stderr, slog.LevelInfo) })
	return &fixture{ctx: context.Background(), store: store, logs: logs}
}

func (fx *fixture) snapshot(t *testing.T, uuid string, createdAt int64, version string, last bool) schema.Snapshot {
	t.Helper()
	s := schema.Snapshot{UUID: uuid, ComponentUUID: "p", CreatedAt: createdAt, BuildDate: createdAt,
		Status: schema.ProcessedSnapshot, Last: last, ProjectVersion: version}
	require.NoError(t, fx.store.InsertSnapshot(fx.ctx, s))
	return s
}

func (fx *fixture) version(t *testing.T, analysis schema.Snapshot, name string, date int64) {
	t.Helper()
	require.NoError(t, fx.store.InsertEvent(fx.ctx, schema.Event{
		UUID: fmt.Sprintf("e-%s-%s-%d", analysis.UUID, name, date), AnalysisUUID: analysis.UUID, ComponentUUID: "p",
		Name: name, Category: schema.VersionEvent, Date: date, CreatedAt: date,
	}))
}

// fiveAnalyses mirrors a project analyzed on 11, 12, 20, 22 and 29 November 2008
// with versions 0.9, 1.0 and 1.1.
func (fx *fixture) fiveAnalyses(t *testing.T) []schema.Snapshot {
	t.Helper()
	out := []schema.Snapshot{
		fx.snapshot(t, "a1", nov11, "0.9", false),
		fx.snapshot(t, "a2", nov12, "1.0", false),
		fx.snapshot(t, "a3", nov20, "1.1", false),
		fx.snapshot(t, "a4", nov22, "1.1", false),
		fx.snapshot(t, "a5", nov29, "1.1", true),
	}
	fx.version(t, out[0], "0.9", nov11)
	fx.version(t, out[1], "1.0", nov12)
	fx.version(t, out[4], "1.1", nov22)
	return out
}

func (fx *fixture) resolve(setting, version string) (*schema.Period, error) {
	return NewResolver(fx.store).Resolve(fx.ctx, Request{
		ProjectUUID: "p", BranchUUID: "p", ComponentUUID: "p", BranchType: schema.BranchBranch,
		AnalysisDate: november30th2008, Version: version, Setting: setting,
	})
}

func TestNoPeriodOnFirstAnalysis(t *testing.T) {
	fx := newFixture(t)
	p, err := fx.resolve("previous_version", "1.0")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNoPeriodOnShortLivedBranches(t *testing.T) {
	store := &iocache.MockHistoryStore{}
	r := NewResolver(store)
	for _, bt := range []schema.BranchType{schema.ShortBranch, schema.PullRequestBranch} {
		p, err := r.Resolve(context.Background(), Request{ComponentUUID: "p", BranchType: bt, Setting: "30"})
		require.NoError(t, err)
		assert.Nil(t, p)
	}
	store.AssertNotCalled(t, "LastSnapshot", mock.Anything, mock.Anything)
}

func TestPeriodByDate(t *testing.T) {
	fx := newFixture(t)
	analyses := fx.fiveAnalyses(t)

	p, err := fx.resolve("2008-11-22", "1.1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, schema.DateMode, p.Mode)
	assert.Equal(t, "2008-11-22", *p.ModeParameter)
	assert.Equal(t, analyses[3].CreatedAt, p.SnapshotDate)
	assert.Equal(t, "a4", p.AnalysisUUID)
}

func TestPeriodByDateReturnsNearestLaterAnalysis(t *testing.T) {
	fx := newFixture(t)
	fx.fiveAnalyses(t)

	p, err := fx.resolve("2008-11-13", "1.1")
	require.NoError(t, err)
	assert.Equal(t, "a3", p.AnalysisUUID)
	assert.Contains(t, fx.logs.String(), "Resolving new code period by date: 2008-11-13")
}

func TestPeriodByDateErrors(t *testing.T) {
	tests := []struct {
		value  string
		reason string
	}{
		{"2008-12-01", "Invalid code period '2008-12-01': date is in the future (now: '2008-11-30')"},
		{"2008-11-31", "Invalid code period '2008-11-31': Invalid date"},
		{"2008-11-30", "Invalid code period '2008-11-30': No analysis found created after date '2008-11-30'"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			fx := newFixture(t)
			fx.snapshot(t, "a1", nov29, "1.0", true)

			_, err := fx.resolve(tt.value, "1.0")
			require.Error(t, err)
			assert.True(t, contract.IsMessageError(err))
			assert.Contains(t, err.Error(), "Invalid new code period. '"+tt.value+"' is not one of")
			assert.Contains(t, err.Error(), tt.reason)
			assert.Contains(t, fx.logs.String(), tt.reason)
		})
	}
}

func TestPeriodByDays(t *testing.T) {
	fx := newFixture(t)
	fx.fiveAnalyses(t)

	p, err := fx.resolve("10", "1.1")
	require.NoError(t, err)
	assert.Equal(t, schema.NumberOfDaysMode, p.Mode)
	assert.Equal(t, "10", *p.ModeParameter)
	assert.Equal(t, nov20, p.SnapshotDate)
	assert.Contains(t, fx.logs.String(), "Resolving new code period by 10 days: 2008-11-20")
}

func TestPeriodByDaysIgnoresUnprocessedAnalyses(t *testing.T) {
	fx := newFixture(t)
	fx.snapshot(t, "a1", nov11, "1.0", false)
	require.NoError(t, fx.store.InsertSnapshot(fx.ctx, schema.Snapshot{UUID: "a2", ComponentUUID: "p", CreatedAt: nov12, Status: schema.UnprocessedSnapshot}))
	fx.snapshot(t, "a3", nov29, "1.0", true)

	p, err := fx.resolve("17", "1.0")
	require.NoError(t, err)
	assert.Equal(t, "a1", p.AnalysisUUID, "a2 is closer but not processed")
}

func TestPeriodByDaysWithoutEarlierAnalysis(t *testing.T) {
	fx := newFixture(t)
	fx.fiveAnalyses(t)

	_, err := fx.resolve("100", "1.1")
	require.Error(t, err)
	assert.True(t, contract.IsStateError(err))
}

func TestPeriodByDaysMustBePositive(t *testing.T) {
	for _, value := range []string{"0", "-12"} {
		t.Run(value, func(t *testing.T) {
			fx := newFixture(t)
			fx.snapshot(t, "a1", nov29, "1.0", true)

			_, err := fx.resolve(value, "1.0")
			require.Error(t, err)
			assert.True(t, contract.IsMessageError(err))
			assert.Contains(t, fx.logs.String(), "Invalid code period '"+value+"': number of days is <= 0")
		})
	}
}

func TestPeriodWithoutProcessedAnalysis(t *testing.T) {
	for _, value := range []string{"previous_version", "abc"} {
		t.Run(value, func(t *testing.T) {
			fx := newFixture(t)
			require.NoError(t, fx.store.InsertSnapshot(fx.ctx, schema.Snapshot{UUID: "a1", ComponentUUID: "p", CreatedAt: nov29, Last: true, Status: schema.UnprocessedSnapshot}))

			_, err := fx.resolve(value, "1.0")
			require.Error(t, err)
			assert.True(t, contract.IsStateError(err))
			assert.Contains(t, err.Error(), "Attempting to resolve period while no analysis exist")
		})
	}
}

func TestPeriodByPreviousVersion(t *testing.T) {
	fx := newFixture(t)
	fx.fiveAnalyses(t)

	p, err := fx.resolve("previous_version", "1.1")
	require.NoError(t, err)
	assert.Equal(t, schema.PreviousVersionMode, p.Mode)
	assert.Equal(t, "1.0", *p.ModeParameter)
	assert.Equal(t, nov12, p.SnapshotDate)
	assert.Equal(t, "a2", p.AnalysisUUID)
	assert.Contains(t, fx.logs.String(), "Resolving new code period by previous version: 1.0")
}

func TestPeriodByPreviousVersionOnNewVersion(t *testing.T) {
	fx := newFixture(t)
	fx.fiveAnalyses(t)

	p, err := fx.resolve("previous_version", "1.2")
	require.NoError(t, err)
	assert.Equal(t, "1.1", *p.ModeParameter)
	assert.Equal(t, "a5", p.AnalysisUUID)
}

func TestPeriodByPreviousVersionWithDeletedVersion(t *testing.T) {
	fx := newFixture(t)
	a1 := fx.snapshot(t, "a1", nov11, "0.9", false)
	fx.snapshot(t, "a2", nov12, "1.0", false)
	a3 := fx.snapshot(t, "a3", nov20, "1.1", true)
	fx.version(t, a1, "0.9", nov11)
	fx.version(t, a3, "1.1", nov20)

	p, err := fx.resolve("previous_version", "1.1")
	require.NoError(t, err)
	assert.Equal(t, "0.9", *p.ModeParameter)
	assert.Equal(t, "a1", p.AnalysisUUID)
}

func TestPeriodByPreviousVersionFallsBackToFirstAnalysis(t *testing.T) {
	fx := newFixture(t)
	fx.snapshot(t, "a1", nov11, "1.1", false)
	a2 := fx.snapshot(t, "a2", nov29, "1.1", true)
	fx.version(t, a2, "1.1", nov29)
	fx.version(t, a2, "1.1", nov29+1)

	p, err := fx.resolve("previous_version", "1.1")
	require.NoError(t, err)
	assert.Equal(t, schema.PreviousVersionMode, p.Mode)
	assert.Nil(t, p.ModeParameter)
	assert.Equal(t, "a1", p.AnalysisUUID)
	assert.Contains(t, fx.logs.String(), "Resolving first analysis as new code period as there is only one existing version")
}

func TestPeriodByPreviousVersionWithSingleOlderVersion(t *testing.T) {
	fx := newFixture(t)
	fx.snapshot(t, "a1", nov11, "", false)
	a2 := fx.snapshot(t, "a2", nov12, "1.0", true)
	fx.version(t, a2, "1.0", nov12)

	p, err := fx.resolve("previous_version", "1.1")
	require.NoError(t, err)
	assert.Equal(t, schema.PreviousVersionMode, p.Mode)
	assert.Nil(t, p.ModeParameter)
	assert.Equal(t, "a1", p.AnalysisUUID)
	assert.Equal(t, nov11, p.SnapshotDate)
	assert.Contains(t, fx.logs.String(), "Resolving first analysis as new code period as there is only one existing version")
}

func TestPeriodByVersion(t *testing.T) {
	fx := newFixture(t)
	fx.fiveAnalyses(t)

	p, err := fx.resolve("1.0", "1.1")
	require.NoError(t, err)
	assert.Equal(t, schema.VersionMode, p.Mode)
	assert.Equal(t, "1.0", *p.ModeParameter)
	assert.Equal(t, "a2", p.AnalysisUUID)
	assert.Contains(t, fx.logs.String(), "Resolving new code period by version: 1.0")
}

func TestPeriodByUnknownVersion(t *testing.T) {
	for _, value := range []string{"1,3", "1.3", "0 1", "1-SNAPSHOT", "01-12-2018"} {
		t.Run(value, func(t *testing.T) {
			fx := newFixture(t)
			fx.fiveAnalyses(t)

			_, err := fx.resolve(value, "1.1")
			require.Error(t, err)
			assert.True(t, contract.IsMessageError(err))
			assert.Contains(t, fx.logs.String(), "Invalid code period '"+value+"': version is none of the existing ones: [1.1, 1.0, 0.9]")
		})
	}
}

func TestPeriodWithEmptySetting(t *testing.T) {
	fx := newFixture(t)
	fx.snapshot(t, "a1", nov29, "1.0", true)

	_, err := fx.resolve("  ", "1.0")
	require.Error(t, err)
	assert.True(t, contract.IsMessageError(err))
	assert.Contains(t, err.Error(), "property is undefined or value is empty")
}

func TestStoredSettingWinsOverConfiguration(t *testing.T) {
	fx := newFixture(t)
	fx.fiveAnalyses(t)
	require.NoError(t, fx.store.SaveNewCodePeriodSetting(fx.ctx, schema.NewCodePeriodSetting{Mode: schema.NumberOfDaysMode, Value: "10"}))

	p, err := fx.resolve("previous_version", "1.1")
	require.NoError(t, err)
	assert.Equal(t, schema.NumberOfDaysMode, p.Mode, "global setting")

	require.NoError(t, fx.store.SaveNewCodePeriodSetting(fx.ctx, schema.NewCodePeriodSetting{ProjectUUID: "p", BranchUUID: "p", Mode: schema.SpecificAnalysisMode, Value: "a4"}))
	p, err = fx.resolve("previous_version", "1.1")
	require.NoError(t, err)
	assert.Equal(t, schema.SpecificAnalysisMode, p.Mode, "branch setting")
	assert.Equal(t, "a4", p.AnalysisUUID)
	assert.Equal(t, nov22, p.SnapshotDate)
}

func TestSpecificAnalysisMustBelongToProject(t *testing.T) {
	fx := newFixture(t)
	fx.snapshot(t, "a1", nov29, "1.0", true)
	require.NoError(t, fx.store.InsertSnapshot(fx.ctx, schema.Snapshot{UUID: "other", ComponentUUID: "q", CreatedAt: nov12, Status: schema.ProcessedSnapshot}))

	for _, analysis := range []string{"other", "missing"} {
		require.NoError(t, fx.store.SaveNewCodePeriodSetting(fx.ctx, schema.NewCodePeriodSetting{ProjectUUID: "p", Mode: schema.SpecificAnalysisMode, Value: analysis}))
		_, err := fx.resolve("previous_version", "1.0")
		require.Error(t, err)
		assert.True(t, contract.IsStateError(err))
		assert.Contains(t, err.Error(), "defined as the baseline does not exist")
	}
}

func TestResolveStoreErrors(t *testing.T) {
	store := &iocache.MockHistoryStore{}
	store.On("LastSnapshot", mock.Anything, "p").Return(schema.Snapshot{}, false, errors.New("boom"))

	_, err := NewResolver(store).Resolve(context.Background(), Request{ComponentUUID: "p", BranchType: schema.BranchBranch})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	store.AssertExpectations(t)
}

func TestParseSetting(t *testing.T) {
	tests := []struct {
		value string
		mode  schema.PeriodMode
	}{
		{"30", schema.NumberOfDaysMode},
		{"-1", schema.NumberOfDaysMode},
		{"2008-11-22", schema.DateMode},
		{"2008-11-31", schema.DateMode},
		{"previous_version", schema.PreviousVersionMode},
		{"PREVIOUS_VERSION", schema.PreviousVersionMode},
		{"1.0-SNAPSHOT", schema.VersionMode},
		{"01-12-2018", schema.VersionMode},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			s, err := ParseSetting(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, s.Mode)
		})
	}
}

func TestHolder(t *testing.T) {
	var h Holder
	_, err := h.Period()
	assert.True(t, contract.IsStateError(err))
	_, err = h.HasPeriod()
	assert.True(t, contract.IsStateError(err))

	require.NoError(t, h.Set(nil))
	has, err := h.HasPeriod()
	require.NoError(t, err)
	assert.False(t, has)

	err = h.Set(&schema.Period{})
	assert.True(t, contract.IsStateError(err))
}
