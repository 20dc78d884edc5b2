package cmd

import (
	"github.com/huangsam/caliper/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Caliper MCP server",
	Long: `Launch an MCP server that allows AI agents to analyze reports and query
the quality gate status of projects via standard tools.

The analysis flags set the defaults of every analyze_report call.`,
	PreRunE: serveSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
