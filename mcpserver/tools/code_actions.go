package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/logger"
)

// CodeActionsTool exposes textDocument/codeAction for a range.
func CodeActionsTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("code_actions",
			mcp.WithDescription(`List available quick fixes and refactorings for a range using LSP textDocument/codeAction.

USAGE:
- code_actions: file_path="/path/Program.cs", start_line=10, start_character=0, end_line=10, end_character=20

PARAMETERS: file_path (required), start_line/start_character/end_line/end_character (required, 0-based)
OUTPUT: Action titles with kind, in server preference order`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("file_path", mcp.Description("Path to the file"), mcp.Required()),
			mcp.WithNumber("start_line", mcp.Description("Range start line (0-based)"), mcp.Required(), mcp.Min(0)),
			mcp.WithNumber("start_character", mcp.Description("Range start character (0-based)"), mcp.Required(), mcp.Min(0)),
			mcp.WithNumber("end_line", mcp.Description("Range end line (0-based)"), mcp.Required(), mcp.Min(0)),
			mcp.WithNumber("end_character", mcp.Description("Range end character (0-based)"), mcp.Required(), mcp.Min(0)),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, err := request.RequireString("file_path")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			coords := make([]uint32, 4)
			for i, name := range []string{"start_line", "start_character", "end_line", "end_character"} {
				v, err := request.RequireInt(name)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				u, err := safeUint32(v)
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("Invalid %s: %v", name, err)), nil
				}
				coords[i] = u
			}

			if result, ok := CheckReadyOrReturn(bridge); !ok {
				return result, nil
			}

			actions, err := bridge.CodeActions(ctx, path, coords[0], coords[1], coords[2], coords[3])
			if err != nil {
				logger.Error("code_actions: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("code actions request failed: %v", err)), nil
			}
			return mcp.NewToolResultText(formatCodeActions(actions)), nil
		}
}

func RegisterCodeActionsTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(CodeActionsTool(bridge))
}

func formatCodeActions(actions []protocol.CodeAction) string {
	if len(actions) == 0 {
		return "CODE ACTIONS:\nNo actions available for this range."
	}
	var b strings.Builder
	b.WriteString("CODE ACTIONS:\n")
	fmt.Fprintf(&b, "Count: %d\n\n", len(actions))
	for i, action := range actions {
		fmt.Fprintf(&b, "%d. %s", i+1, action.Title)
		if action.Kind != nil {
			fmt.Fprintf(&b, " [%s]", *action.Kind)
		}
		b.WriteString("\n")
	}
	return b.String()
}
