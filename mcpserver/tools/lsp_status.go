package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sharpbridge/mcp-csharp-bridge/interfaces"
)

// LSPStatusTool reports the current bridge and language server state.
func LSPStatusTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("lsp_status",
			mcp.WithDescription(`Report the language server session state: connection status, workspace root, solution, open documents and last error.

USAGE:
- lsp_status (no parameters)

OUTPUT: Status report as JSON`),
			mcp.WithDestructiveHintAnnotation(false),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			report := bridge.StatusReport()
			raw, err := json.Marshal(report)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(string(raw)), nil
		}
}

func RegisterLSPStatusTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(LSPStatusTool(bridge))
}
