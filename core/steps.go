package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/huangsam/caliper/core/cpd"
	"github.com/huangsam/caliper/core/formula"
	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/core/period"
	"github.com/huangsam/caliper/core/qualitygate"
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// stepFunc adapts a function to the Step interface.
type stepFunc struct {
	name string
	fn   func(ctx context.Context, run *Run) error
}

func (s stepFunc) Name() string { return s.name }

func (s stepFunc) Execute(ctx context.Context, run *Run) error { return s.fn(ctx, run) }

// formulaStep crawls the tree with an executor over the given formulas.
func formulaStep(name string, formulas func(run *Run) []formula.Formula) Step {
	return stepFunc{name: name, fn: func(_ context.Context, run *Run) error {
		newLines, err := run.newLines()
		if err != nil {
			return err
		}
		return formula.NewExecutor(name, run.Measures, newLines, formulas(run)...).Execute(run.Tree.Root())
	}}
}

// DefaultSteps returns the steps of a complete analysis in execution order.
func DefaultSteps() []Step {
	return []Step{
		stepFunc{name: "Build tree of components", fn: buildTree},
		stepFunc{name: "Load new code period", fn: loadPeriod},
		stepFunc{name: "Load measures from report", fn: loadReportMeasures},
		stepFunc{name: "Load measures of previous analysis", fn: loadBaseMeasures},
		stepFunc{name: "Load duplications", fn: loadDuplications},
		stepFunc{name: "Detect cross project duplications", fn: crossProjectDuplications},
		formulaStep("Compute size measures", func(*Run) []formula.Formula { return formula.SizeFormulas() }),
		formulaStep("Compute coverage measures", func(run *Run) []formula.Formula {
			return []formula.Formula{formula.NewCoverage(run.Report)}
		}),
		formulaStep("Compute new coverage measures", func(run *Run) []formula.Formula {
			return []formula.Formula{formula.NewNewCoverage(run.Report)}
		}),
		formulaStep("Compute duplication measures", func(run *Run) []formula.Formula {
			return []formula.Formula{formula.NewDuplication(run.Duplications)}
		}),
		formulaStep("Compute new size measures", func(run *Run) []formula.Formula {
			return []formula.Formula{formula.NewNewSize(run.Duplications)}
		}),
		formulaStep("Compute test measures", func(*Run) []formula.Formula { return formula.TestFormulas() }),
		stepFunc{name: "Compute quality gate status", fn: evaluateQualityGate},
		stepFunc{name: "Generate quality gate events", fn: qualityGateEvents},
		stepFunc{name: "Persist analysis", fn: persist},
		stepFunc{name: "Send notifications", fn: sendNotifications},
	}
}

func buildTree(ctx context.Context, run *Run) error {
	res, err := tree.NewBuilder(run.Report, run.Store, run.Branch).Build(ctx)
	if err != nil {
		return err
	}
	run.Tree = res.Tree
	run.FirstAnalysis = res.FirstAnalysis
	run.LastSnapshot = res.LastSnapshot

	root := run.Tree.Root()
	run.ProjectUUID = root.UUID()
	if !run.Branch.IsMain() {
		main, found, err := run.Store.ComponentByKey(ctx, root.Key())
		if err != nil {
			return fmt.Errorf("failed to load main branch of %s: %w", root.Key(), err)
		}
		if found {
			run.ProjectUUID = main.UUID
		}
	}
	contract.LogDebug("Built tree of %d components for %s (first analysis: %t)", run.Tree.Size(), root.Key(), run.FirstAnalysis)
	return nil
}

func loadPeriod(ctx context.Context, run *Run) error {
	root := run.Tree.Root()
	p, err := period.NewResolver(run.Store).Resolve(ctx, period.Request{
		ProjectUUID:   run.ProjectUUID,
		BranchUUID:    root.UUID(),
		ComponentUUID: root.UUID(),
		BranchType:    run.Branch.Type,
		AnalysisDate:  run.AnalysisDate,
		Version:       root.ProjectAttributes().Version,
		Setting:       run.Config.NewCodePeriod,
	})
	if err != nil {
		return err
	}
	if p != nil {
		contract.LogInfo("New code period %s since analysis %s", p.Mode, p.AnalysisUUID)
	}
	return run.Periods.Set(p)
}

// reportMeasure converts a scanner measure to the type of its metric.
func reportMeasure(def schema.MetricDefinition, rm schema.ReportMeasure) measure.Measure {
	switch {
	case rm.IntValue != nil:
		return measure.FromNumber(def.Type, float64(*rm.IntValue))
	case rm.DoubleValue != nil:
		return measure.FromNumber(def.Type, *rm.DoubleValue)
	case rm.BoolValue != nil:
		return measure.NewBool(*rm.BoolValue)
	case rm.StringValue != nil:
		return measure.NewString(*rm.StringValue)
	}
	return measure.NewNoValue()
}

func loadReportMeasures(_ context.Context, run *Run) error {
	count := 0
	for _, c := range run.Tree.Components() {
		ref, ok := c.Ref()
		if !ok {
			continue
		}
		rms, err := run.Report.Measures(ref)
		if err != nil {
			return fmt.Errorf("failed to read measures of %s: %w", c.Key(), err)
		}
		for _, rm := range rms {
			if !measure.IsScannerMetric(rm.MetricKey) {
				contract.LogDebug("Ignoring measure of metric '%s' on %s, it is computed by the analysis", rm.MetricKey, c.Key())
				continue
			}
			def, err := run.Metrics.ByKey(rm.MetricKey)
			if err != nil {
				return err
			}
			if err := run.Measures.Add(c, def.Key, reportMeasure(def, rm)); err != nil {
				return err
			}
			count++
		}
	}
	contract.LogDebug("Loaded %d measures from report", count)
	return nil
}

func loadBaseMeasures(ctx context.Context, run *Run) error {
	if run.LastSnapshot == nil {
		return nil
	}
	records, err := run.Store.MeasuresByAnalysis(ctx, run.LastSnapshot.UUID)
	if err != nil {
		return fmt.Errorf("failed to load measures of analysis %s: %w", run.LastSnapshot.UUID, err)
	}
	n := run.Measures.LoadBase(records)
	contract.LogDebug("Loaded %d measures of analysis %s", n, run.LastSnapshot.UUID)
	return nil
}

func loadDuplications(_ context.Context, run *Run) error {
	n, err := cpd.LoadReportDuplications(run.Report, run.Tree, run.Duplications, run.Config.CpdExclusions)
	if err != nil {
		return err
	}
	contract.LogDebug("Loaded %d duplications from report", n)
	return nil
}

// crossProjectDuplications indexes the blocks of the report and matches them against other projects.
// It only runs on the main branch when enabled by the configuration or the scanner.
func crossProjectDuplications(ctx context.Context, run *Run) error {
	enabled := run.Config.CrossProjectDup || run.Report.Metadata().CrossProjectDup
	if !enabled || !run.Branch.IsMain() {
		contract.LogDebug("Cross project duplication is disabled")
		return nil
	}
	idx, err := cpd.IndexReportBlocks(run.Report, run.Tree, run.Config.CpdExclusions)
	if err != nil {
		return err
	}
	run.Blocks = idx
	n, err := cpd.MatchCrossProject(ctx, run.Store, idx, run.ProjectUUID, run.Duplications)
	if err != nil {
		return err
	}
	contract.LogDebug("Found %d cross project duplications among %d blocks", n, idx.Len())
	return nil
}

func evaluateQualityGate(_ context.Context, run *Run) error {
	if run.Config.QualityGateFile == "" {
		contract.LogDebug("No quality gate is configured")
		return nil
	}
	gate, err := qualitygate.LoadFile(run.Config.QualityGateFile)
	if err != nil {
		return err
	}
	if err := qualitygate.Validate(gate, run.Metrics); err != nil {
		return err
	}
	root := run.Tree.Root()
	res, err := qualitygate.Evaluate(gate, root, run.Measures, run.Config.SmallChangesetLines)
	if err != nil {
		return err
	}
	if err := run.Gate.Set(res); err != nil {
		return err
	}
	return qualitygate.ApplyMeasures(res, root, run.Measures)
}

// qualityGateEvents raises an alert event when the gate status changed since the last analysis.
func qualityGateEvents(_ context.Context, run *Run) error {
	if !run.Gate.IsSet() || run.Branch.IsPullRequest() {
		return nil
	}
	res, err := run.Gate.Result()
	if err != nil {
		return err
	}
	root := run.Tree.Root()
	previous, hasPrevious := run.Measures.Base(root, measure.AlertStatusKey)
	transition, ok := qualitygate.DetectTransition(previous, hasPrevious, res)
	if !ok {
		return nil
	}
	now := run.Now()
	run.Events = append(run.Events, transition.Event(run.AnalysisUUID, root.UUID(), contract.Millis(run.AnalysisDate), now))
	run.Notifications = append(run.Notifications, transition.Notification(root.Key(), root.Name(), run.Branch.Name, now))
	return nil
}

func persist(ctx context.Context, run *Run) error {
	root := run.Tree.Root()
	project := root.ProjectAttributes()
	snapshot := schema.Snapshot{
		UUID:           run.AnalysisUUID,
		ComponentUUID:  root.UUID(),
		CreatedAt:      contract.Millis(run.AnalysisDate),
		BuildDate:      contract.Millis(run.Now()),
		Status:         schema.UnprocessedSnapshot,
		ProjectVersion: project.Version,
		BuildString:    project.BuildString,
	}
	if p, err := run.Periods.Period(); err != nil {
		return err
	} else if p != nil {
		mode, date := p.Mode, p.SnapshotDate
		snapshot.PeriodMode = &mode
		snapshot.PeriodParam = p.ModeParameter
		snapshot.PeriodDate = &date
	}

	if versionChanged(run.LastSnapshot, project.Version) {
		run.Events = append([]schema.Event{{
			UUID:          uuid.NewString(),
			AnalysisUUID:  run.AnalysisUUID,
			ComponentUUID: root.UUID(),
			Name:          project.Version,
			Category:      schema.VersionEvent,
			Date:          snapshot.CreatedAt,
			CreatedAt:     snapshot.BuildDate,
		}}, run.Events...)
	}

	analysis := schema.AnalysisRecord{
		Components: run.Tree.Records(),
		Snapshot:   snapshot,
		Measures:   run.Measures.Records(run.Tree, run.AnalysisUUID),
		Events:     run.Events,
	}
	// The main branch owns the cross project index, cleared when it no longer yields blocks.
	if run.Branch.IsMain() {
		analysis.CpdProjectUUID = run.ProjectUUID
		analysis.CpdBlocks = run.Blocks.Records(run.ProjectUUID, run.AnalysisUUID)
	}
	if err := run.Store.SaveAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("failed to persist analysis: %w", err)
	}
	return nil
}

func versionChanged(last *schema.Snapshot, version string) bool {
	if version == "" || version == schema.NotProvidedVersion {
		return false
	}
	return last == nil || last.ProjectVersion != version
}

// sendNotifications delivers what the run produced. Delivery failures are only reported.
func sendNotifications(ctx context.Context, run *Run) error {
	if run.Notifier == nil {
		return nil
	}
	for _, n := range run.Notifications {
		if err := run.Notifier.Deliver(ctx, n); err != nil {
			contract.LogWarn("Failed to deliver notification", err)
		}
	}
	return nil
}
