// Package core runs the measure computation pipeline over a scanner report.
package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/caliper/core/cpd"
	"github.com/huangsam/caliper/core/formula"
	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/core/period"
	"github.com/huangsam/caliper/core/qualitygate"
	"github.com/huangsam/caliper/core/tree"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/internal/outwriter"
	"github.com/huangsam/caliper/internal/report"
	"github.com/huangsam/caliper/schema"
)

// Run holds the state shared by the steps of one analysis.
// Steps read and write it one after the other, so nothing here is locked.
type Run struct {
	Config   *contract.Config
	Report   contract.ReportReader
	Store    contract.HistoryStore
	Notifier contract.NotificationService
	Now      func() time.Time

	AnalysisUUID string
	AnalysisDate time.Time
	Branch       tree.Branch

	Tree          *tree.Tree
	FirstAnalysis bool
	LastSnapshot  *schema.Snapshot
	ProjectUUID   string

	Metrics      *measure.MetricRepository
	Measures     *measure.Repository
	Duplications *cpd.Repository
	Blocks       *cpd.BlockIndex
	Periods      *period.Holder
	Gate         *qualitygate.Holder

	Events        []schema.Event
	Notifications []schema.Notification
}

// NewRun prepares an analysis of reader. The notifier may be nil.
func NewRun(cfg *contract.Config, reader contract.ReportReader, store contract.HistoryStore, notifier contract.NotificationService) (*Run, error) {
	if cfg == nil || reader == nil {
		return nil, contract.NewArgumentError("Configuration and report are required")
	}
	if store == nil {
		return nil, contract.NewStateError("History store is not initialized")
	}
	metrics := measure.DefaultMetricRepository()
	run := &Run{
		Config:       cfg,
		Report:       reader,
		Store:        store,
		Notifier:     notifier,
		Now:          time.Now,
		AnalysisUUID: uuid.NewString(),
		Metrics:      metrics,
		Measures:     measure.NewRepository(metrics),
		Duplications: cpd.NewRepository(),
		Blocks:       cpd.NewBlockIndex(),
		Periods:      &period.Holder{},
		Gate:         &qualitygate.Holder{},
	}
	md := reader.Metadata()
	run.AnalysisDate = analysisDate(cfg, md, run.Now)
	run.Branch = branchOf(cfg, md)
	return run, nil
}

// analysisDate prefers the configured date, then the report date, then now.
func analysisDate(cfg *contract.Config, md schema.ReportMetadata, now func() time.Time) time.Time {
	switch {
	case !cfg.AnalysisDate.IsZero():
		return cfg.AnalysisDate
	case md.AnalysisDate > 0:
		return contract.FromMillis(md.AnalysisDate)
	}
	return now().UTC()
}

// branchOf takes the branch from the configuration, falling back to what the scanner recorded.
func branchOf(cfg *contract.Config, md schema.ReportMetadata) tree.Branch {
	if cfg.BranchName != "" || cfg.PullRequestKey != "" {
		return tree.Branch{
			Name:           cfg.BranchName,
			Type:           cfg.BranchType,
			PullRequestKey: cfg.PullRequestKey,
			TargetBranch:   cfg.TargetBranch,
			Legacy:         cfg.LegacyBranch,
		}
	}
	b := tree.Branch{
		Name:           md.Branch,
		Type:           md.BranchType,
		PullRequestKey: md.PullRequestKey,
		TargetBranch:   md.TargetBranch,
	}
	if b.Type == "" {
		b.Type = schema.BranchBranch
	}
	if b.PullRequestKey != "" {
		b.Type = schema.PullRequestBranch
	}
	return b
}

// newLines returns the new lines oracle of the resolved period.
func (r *Run) newLines() (formula.NewLines, error) {
	p, err := r.Periods.Period()
	if err != nil {
		return nil, err
	}
	return formula.NewChangesetNewLines(r.Report, p), nil
}

func (r *Run) precision() int {
	if r.Config.Precision < 1 {
		return contract.DefaultPrecision
	}
	return r.Config.Precision
}

// Result summarizes a finished run for the output writers and the MCP tools.
func (r *Run) Result() (*schema.AnalysisResult, error) {
	if r.Tree == nil {
		return nil, contract.NewStateError("Analysis has not been executed")
	}
	root := r.Tree.Root()
	p, err := r.Periods.Period()
	if err != nil {
		return nil, err
	}
	out := &schema.AnalysisResult{
		AnalysisUUID: r.AnalysisUUID,
		ProjectKey:   root.Key(),
		Version:      root.ProjectAttributes().Version,
		FirstRun:     r.FirstAnalysis,
		Period:       p,
		Measures:     r.Measures.Rows(r.Tree, r.precision()),
		Events:       r.Events,
	}
	if r.Gate.IsSet() {
		res, err := r.Gate.Result()
		if err != nil {
			return nil, err
		}
		out.Gate = &schema.GateResult{
			ProjectKey: root.Key(),
			GateName:   res.Gate,
			Status:     res.Status,
			Text:       res.Text,
			Conditions: res.Conditions,
		}
	}
	return out, nil
}

// Step is one unit of the pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context, run *Run) error
}

// Execute runs the steps in order and stops at the first failure.
func Execute(ctx context.Context, run *Run, steps ...Step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := s.Execute(ctx, run); err != nil {
			contract.LogDebug("%s | failed after %dms", s.Name(), time.Since(start).Milliseconds())
			return err
		}
		contract.LogDebug("%s | time=%dms", s.Name(), time.Since(start).Milliseconds())
	}
	return nil
}

// RunAnalysis loads the report named by cfg, computes its measures and stores the analysis.
func RunAnalysis(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, notifier contract.NotificationService) (*schema.AnalysisResult, error) {
	rep, err := report.Load(cfg.ReportPath)
	if err != nil {
		return nil, contract.NewMessageError("Unable to read report '%s'", cfg.ReportPath).Wrap(err)
	}
	run, err := NewRun(cfg, rep, mgr.GetHistoryStore(), notifier)
	if err != nil {
		return nil, err
	}
	if err := Execute(ctx, run, DefaultSteps()...); err != nil {
		return nil, err
	}
	return run.Result()
}

// ExecuteAnalysis runs the analysis and prints its results.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalysis(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, notifier contract.NotificationService) error {
	start := time.Now()
	result, err := RunAnalysis(ctx, cfg, mgr, notifier)
	if err != nil {
		return err
	}
	return outwriter.PrintAnalysisResult(result, cfg, time.Since(start))
}
