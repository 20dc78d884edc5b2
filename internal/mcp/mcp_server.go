// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Caliper MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Caliper Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: analyze_report ---
	s.AddTool(mcp.NewTool("analyze_report",
		mcp.WithDescription("Compute the measures of a scanner report, evaluate its quality gate and store the analysis."),
		mcp.WithString("report_path", mcp.Description("Path to the scanner report (YAML)."), mcp.Required()),
		mcp.WithString("quality_gate", mcp.Description("Path to a quality gate definition (YAML).")),
		mcp.WithString("new_code_period", mcp.Description("New code period: previous_version, a number of days, a date (yyyy-MM-dd) or a version.")),
	), h.handleAnalyzeReport)

	// --- 2. Tool: get_project_status ---
	s.AddTool(mcp.NewTool("get_project_status",
		mcp.WithDescription("Return the quality gate status of the last analysis of a project."),
		mcp.WithString("project_key", mcp.Description("Key of the project, qualified by branch when not the main one."), mcp.Required()),
	), h.handleGetProjectStatus)

	// --- 3. Tool: list_analyses ---
	s.AddTool(mcp.NewTool("list_analyses",
		mcp.WithDescription("List the stored analyses of a project, oldest first."),
		mcp.WithString("project_key", mcp.Description("Key of the project, qualified by branch when not the main one."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Only return the most recent analyses.")),
	), h.handleListAnalyses)

	return s
}

// StartMCPServer starts the Caliper MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
