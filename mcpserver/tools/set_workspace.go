package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/logger"
)

// SetWorkspaceTool connects (or reconnects) the language server to a workspace.
func SetWorkspaceTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("set_workspace",
			mcp.WithDescription(`Point the C# language server at a workspace root and initialize it.

USAGE:
- set_workspace: root="/path/to/solution/dir"

Replaces any previous workspace. Solutions containing non-C# projects are
filtered automatically before the server sees them.

PARAMETERS: root (required, absolute path)
OUTPUT: Status summary for the new session`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("root", mcp.Description("Absolute path to the workspace root"), mcp.Required()),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			root, err := request.RequireString("root")
			if err != nil {
				logger.Error("set_workspace: root parsing failed", err)
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := bridge.SetWorkspace(ctx, root); err != nil {
				logger.Error("set_workspace: connect failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("set_workspace failed: %v", err)), nil
			}

			report := bridge.StatusReport()
			out := fmt.Sprintf("WORKSPACE:\nRoot: %s\nStatus: %s\n", report.WorkspaceRoot, report.Status)
			if report.SolutionPath != "" {
				out += fmt.Sprintf("Solution: %s\n", report.SolutionPath)
			}
			if report.EffectiveRoot != "" && report.EffectiveRoot != report.WorkspaceRoot {
				out += fmt.Sprintf("Effective root (filtered): %s\n", report.EffectiveRoot)
			}
			return mcp.NewToolResultText(out), nil
		}
}

func RegisterSetWorkspaceTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(SetWorkspaceTool(bridge))
}
