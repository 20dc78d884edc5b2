// Package period resolves the baseline analysis that new code is measured against.
package period

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// PreviousVersionSetting is the legacy string value of the PREVIOUS_VERSION mode.
const PreviousVersionSetting = "previous_version"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Store is the part of the history the resolver reads.
type Store interface {
	contract.SnapshotStore
	contract.EventStore
	contract.PeriodSettingStore
}

// Request describes the analysis a period is resolved for.
type Request struct {
	ProjectUUID   string
	BranchUUID    string
	ComponentUUID string // root component, owner of the snapshots and events
	BranchType    schema.BranchType
	AnalysisDate  time.Time
	Version       string // version of the analysis being computed
	Setting       string // configured value, used when no setting is stored
}

// Resolver finds the new code period of an analysis.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver reading store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the period of req, or nil when the analysis has none: on the first analysis
// and on short-lived branches and pull requests.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*schema.Period, error) {
	if req.BranchType.IsShortLived() {
		contract.LogDebug("No new code period on %s branch", req.BranchType)
		return nil, nil
	}
	_, found, err := r.store.LastSnapshot(ctx, req.ComponentUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last analysis: %w", err)
	}
	if !found {
		contract.LogDebug("No new code period on first analysis")
		return nil, nil
	}

	setting, err := r.setting(ctx, req)
	if err != nil {
		return nil, err
	}
	switch setting.Mode {
	case schema.NumberOfDaysMode:
		return r.byDays(ctx, req, setting.Value)
	case schema.DateMode:
		return r.byDate(ctx, req, setting.Value)
	case schema.PreviousVersionMode:
		return r.byPreviousVersion(ctx, req)
	case schema.VersionMode:
		return r.byVersion(ctx, req, setting.Value)
	case schema.SpecificAnalysisMode:
		return r.bySpecificAnalysis(ctx, req, setting.Value)
	}
	return nil, contract.NewStateError("Unsupported new code period mode '%s'", setting.Mode)
}

// setting returns the stored setting, branch first, or else parses the configured value.
func (r *Resolver) setting(ctx context.Context, req Request) (schema.NewCodePeriodSetting, error) {
	stored, found, err := r.store.NewCodePeriodSetting(ctx, req.ProjectUUID, req.BranchUUID)
	if err != nil {
		return schema.NewCodePeriodSetting{}, fmt.Errorf("failed to load new code period setting: %w", err)
	}
	if found {
		return stored, nil
	}
	return ParseSetting(req.Setting)
}

// ParseSetting reads a configured value: a number of days, a yyyy-MM-dd date,
// "previous_version" or else a version.
func ParseSetting(value string) (schema.NewCodePeriodSetting, error) {
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		return schema.NewCodePeriodSetting{}, invalid(value, "property is undefined or value is empty")
	case strings.EqualFold(trimmed, PreviousVersionSetting):
		return schema.NewCodePeriodSetting{Mode: schema.PreviousVersionMode}, nil
	case datePattern.MatchString(trimmed):
		return schema.NewCodePeriodSetting{Mode: schema.DateMode, Value: trimmed}, nil
	}
	if _, err := strconv.Atoi(trimmed); err == nil {
		return schema.NewCodePeriodSetting{Mode: schema.NumberOfDaysMode, Value: trimmed}, nil
	}
	return schema.NewCodePeriodSetting{Mode: schema.VersionMode, Value: trimmed}, nil
}

// invalid logs the reason at debug level and returns the message shown to the user.
func invalid(value, format string, args ...any) error {
	reason := fmt.Sprintf("Invalid code period '%s': ", value) + fmt.Sprintf(format, args...)
	contract.LogDebug("%s", reason)
	return contract.NewMessageError("Invalid new code period. '%s' is not one of: integer > 0, date before current analysis, "+
		"\"previous_version\", or version string that exists in the project\nPlease contact a project administrator to correct this setting",
		value).Wrap(errors.New(reason))
}

// processedSnapshots returns the processed snapshots of the component, oldest first.
func (r *Resolver) processedSnapshots(ctx context.Context, req Request) ([]schema.Snapshot, error) {
	all, err := r.store.Snapshots(ctx, req.ComponentUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analyses: %w", err)
	}
	out := make([]schema.Snapshot, 0, len(all))
	for _, s := range all {
		if s.IsProcessed() {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, contract.NewStateError("Attempting to resolve period while no analysis exist for project")
	}
	return out, nil
}

func newPeriod(mode schema.PeriodMode, param *string, s schema.Snapshot) *schema.Period {
	return &schema.Period{Mode: mode, ModeParameter: param, SnapshotDate: s.CreatedAt, AnalysisUUID: s.UUID}
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *Resolver) byDays(ctx context.Context, req Request, value string) (*schema.Period, error) {
	days, err := strconv.Atoi(value)
	if err != nil {
		return nil, invalid(value, "number of days is not an integer")
	}
	if days <= 0 {
		return nil, invalid(value, "number of days is <= 0")
	}
	snapshots, err := r.processedSnapshots(ctx, req)
	if err != nil {
		return nil, err
	}
	target := day(req.AnalysisDate.AddDate(0, 0, -days))
	contract.LogDebug("Resolving new code period by %d days: %s", days, target.Format(time.DateOnly))

	for i := len(snapshots) - 1; i >= 0; i-- {
		if !day(contract.FromMillis(snapshots[i].CreatedAt)).After(target) {
			return newPeriod(schema.NumberOfDaysMode, &value, snapshots[i]), nil
		}
	}
	return nil, contract.NewStateError("No analysis found created before %d days (%s)", days, target.Format(time.DateOnly))
}

func (r *Resolver) byDate(ctx context.Context, req Request, value string) (*schema.Period, error) {
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, invalid(value, "Invalid date")
	}
	now := day(req.AnalysisDate)
	if date.After(now) {
		return nil, invalid(value, "date is in the future (now: '%s')", now.Format(time.DateOnly))
	}
	snapshots, err := r.processedSnapshots(ctx, req)
	if err != nil {
		return nil, err
	}
	contract.LogDebug("Resolving new code period by date: %s", value)
	for _, s := range snapshots {
		if s.CreatedAt >= contract.Millis(date) {
			return newPeriod(schema.DateMode, &value, s), nil
		}
	}
	return nil, invalid(value, "No analysis found created after date '%s'", value)
}

// versions returns the distinct VERSION events, most recent first.
func (r *Resolver) versions(ctx context.Context, req Request) ([]schema.Event, error) {
	events, err := r.store.Events(ctx, req.ComponentUUID, schema.VersionEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to load version events: %w", err)
	}
	seen := make(map[string]struct{}, len(events))
	out := make([]schema.Event, 0, len(events))
	for _, e := range events {
		if _, dup := seen[e.Name]; dup {
			continue
		}
		seen[e.Name] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

func (r *Resolver) analysisOf(ctx context.Context, e schema.Event) (schema.Snapshot, error) {
	s, found, err := r.store.SnapshotByUUID(ctx, e.AnalysisUUID)
	if err != nil {
		return schema.Snapshot{}, fmt.Errorf("failed to load analysis %s: %w", e.AnalysisUUID, err)
	}
	if !found || !s.IsProcessed() {
		return schema.Snapshot{}, contract.NewStateError("Analysis '%s' of version %s can't be found", e.AnalysisUUID, e.Name)
	}
	return s, nil
}

func (r *Resolver) byPreviousVersion(ctx context.Context, req Request) (*schema.Period, error) {
	snapshots, err := r.processedSnapshots(ctx, req)
	if err != nil {
		return nil, err
	}
	versions, err := r.versions(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(versions) <= 1 {
		contract.LogDebug("Resolving first analysis as new code period as there is only one existing version")
		return newPeriod(schema.PreviousVersionMode, nil, snapshots[0]), nil
	}

	e := versions[0]
	if e.Name == req.Version {
		e = versions[1]
	}
	contract.LogDebug("Resolving new code period by previous version: %s", e.Name)
	s, err := r.analysisOf(ctx, e)
	if err != nil {
		return nil, err
	}
	name := e.Name
	return newPeriod(schema.PreviousVersionMode, &name, s), nil
}

func (r *Resolver) byVersion(ctx context.Context, req Request, value string) (*schema.Period, error) {
	if _, err := r.processedSnapshots(ctx, req); err != nil {
		return nil, err
	}
	versions, err := r.versions(ctx, req)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(versions))
	for _, e := range versions {
		if e.Name != value {
			names = append(names, e.Name)
			continue
		}
		contract.LogDebug("Resolving new code period by version: %s", value)
		s, err := r.analysisOf(ctx, e)
		if err != nil {
			return nil, err
		}
		return newPeriod(schema.VersionMode, &value, s), nil
	}
	return nil, invalid(value, "version is none of the existing ones: [%s]", strings.Join(names, ", "))
}

func (r *Resolver) bySpecificAnalysis(ctx context.Context, req Request, analysisUUID string) (*schema.Period, error) {
	contract.LogDebug("Resolving new code period with a specific analysis")
	s, found, err := r.store.SnapshotByUUID(ctx, analysisUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", analysisUUID, err)
	}
	if !found || !s.IsProcessed() || s.ComponentUUID != req.ComponentUUID {
		return nil, contract.NewStateError("Analysis '%s' of project '%s' defined as the baseline does not exist", analysisUUID, req.ComponentUUID)
	}
	return newPeriod(schema.SpecificAnalysisMode, &analysisUUID, s), nil
}

// Holder keeps the period of the analysis. It can be set once, possibly to nil.
type Holder struct {
	period *schema.Period
	set    bool
}

// Set stores the period.
func (h *Holder) Set(p *schema.Period) error {
	if h.set {
		return contract.NewStateError("Period has already been initialized")
	}
	h.period, h.set = p, true
	return nil
}

// HasPeriod tells whether a period was resolved.
func (h *Holder) HasPeriod() (bool, error) {
	if !h.set {
		return false, contract.NewStateError("Period have not been initialized yet")
	}
	return h.period != nil, nil
}

// Period returns the resolved period, nil when the analysis has none.
func (h *Holder) Period() (*schema.Period, error) {
	if !h.set {
		return nil, contract.NewStateError("Period have not been initialized yet")
	}
	return h.period, nil
}
