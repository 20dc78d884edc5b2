package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/caliper/core"
	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// projectStatus is the payload of get_project_status.
type projectStatus struct {
	ProjectKey   string          `json:"project_key"`
	AnalysisUUID string          `json:"analysis_uuid"`
	Version      string          `json:"version"`
	Date         string          `json:"date"`
	Status       string          `json:"status,omitempty"`
	Details      json.RawMessage `json:"quality_gate_details,omitempty"`
}

// analysisSummary is one entry of list_analyses.
type analysisSummary struct {
	UUID        string  `json:"uuid"`
	Date        string  `json:"date"`
	Version     string  `json:"version"`
	Last        bool    `json:"last"`
	Processed   bool    `json:"processed"`
	PeriodMode  *string `json:"period_mode,omitempty"`
	PeriodParam *string `json:"period_parameter,omitempty"`
}

func (h *toolHandler) handleAnalyzeReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.ReportPath = request.GetString("report_path", "")
	if cfg.ReportPath == "" {
		return mcp.NewToolResultError("report_path is required"), nil
	}
	if g := request.GetString("quality_gate", ""); g != "" {
		cfg.QualityGateFile = g
	}
	if p := request.GetString("new_code_period", ""); p != "" {
		cfg.NewCodePeriod = p
	}

	result, err := core.RunAnalysis(ctx, cfg, h.mgr, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// lastAnalysis finds the project and its last analysis.
func (h *toolHandler) lastAnalysis(ctx context.Context, key string) (schema.ComponentRecord, schema.Snapshot, error) {
	store := h.mgr.GetHistoryStore()
	if store == nil {
		return schema.ComponentRecord{}, schema.Snapshot{}, contract.NewStateError("History store is not initialized")
	}
	project, found, err := store.ComponentByKey(ctx, key)
	if err != nil {
		return schema.ComponentRecord{}, schema.Snapshot{}, err
	}
	if !found {
		return schema.ComponentRecord{}, schema.Snapshot{}, contract.NewMessageError("Project '%s' has never been analyzed", key)
	}
	snapshot, found, err := store.LastSnapshot(ctx, project.UUID)
	if err != nil {
		return schema.ComponentRecord{}, schema.Snapshot{}, err
	}
	if !found {
		return schema.ComponentRecord{}, schema.Snapshot{}, contract.NewMessageError("Project '%s' has no completed analysis", key)
	}
	return project, snapshot, nil
}

func (h *toolHandler) handleGetProjectStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("project_key", "")
	if key == "" {
		return mcp.NewToolResultError("project_key is required"), nil
	}
	project, snapshot, err := h.lastAnalysis(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status lookup failed: %v", err)), nil
	}
	records, err := h.mgr.GetHistoryStore().MeasuresByAnalysis(ctx, snapshot.UUID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status lookup failed: %v", err)), nil
	}

	out := projectStatus{
		ProjectKey:   key,
		AnalysisUUID: snapshot.UUID,
		Version:      snapshot.ProjectVersion,
		Date:         contract.FormatDate(snapshot.CreatedAt),
	}
	for _, r := range records {
		if r.ComponentUUID != project.UUID || r.TextValue == nil {
			continue
		}
		switch r.MetricKey {
		case measure.AlertStatusKey:
			out.Status = *r.TextValue
		case measure.QualityGateDetailsKey:
			out.Details = json.RawMessage(*r.TextValue)
		}
	}

	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListAnalyses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("project_key", "")
	if key == "" {
		return mcp.NewToolResultError("project_key is required"), nil
	}
	limit := request.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}
	project, _, err := h.lastAnalysis(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
	}
	snapshots, err := h.mgr.GetHistoryStore().Snapshots(ctx, project.UUID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
	}
	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[len(snapshots)-limit:]
	}

	out := make([]analysisSummary, 0, len(snapshots))
	for _, s := range snapshots {
		entry := analysisSummary{
			UUID:        s.UUID,
			Date:        contract.FormatDate(s.CreatedAt),
			Version:     s.ProjectVersion,
			Last:        s.Last,
			Processed:   s.IsProcessed(),
			PeriodParam: s.PeriodParam,
		}
		if s.PeriodMode != nil {
			mode := string(*s.PeriodMode)
			entry.PeriodMode = &mode
		}
		out = append(out, entry)
	}

	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
