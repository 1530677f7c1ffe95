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

// CompletionTool exposes textDocument/completion at a cursor position.
func CompletionTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("completion",
			mcp.WithDescription(`Get code completion candidates at a cursor position using LSP textDocument/completion.

USAGE:
- completion: file_path="/path/Program.cs", line=20, character=8

PARAMETERS: file_path (required), line/character (required, 0-based)
OUTPUT: Candidate list with kind and detail, truncated to the first 50`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("file_path", mcp.Description("Path to the file"), mcp.Required()),
			mcp.WithNumber("line", mcp.Description("Line number (0-based)"), mcp.Required(), mcp.Min(0)),
			mcp.WithNumber("character", mcp.Description("Character position (0-based)"), mcp.Required(), mcp.Min(0)),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, line, character, errResult := requirePosition(request)
			if errResult != nil {
				return errResult, nil
			}
			if result, ok := CheckReadyOrReturn(bridge); !ok {
				return result, nil
			}

			items, err := bridge.Completion(ctx, path, line, character)
			if err != nil {
				logger.Error("completion: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("completion request failed: %v", err)), nil
			}
			return mcp.NewToolResultText(formatCompletionItems(items)), nil
		}
}

func RegisterCompletionTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(CompletionTool(bridge))
}

func formatCompletionItems(items []protocol.CompletionItem) string {
	if len(items) == 0 {
		return "COMPLETION:\nNo candidates at this position."
	}

	var b strings.Builder
	b.WriteString("COMPLETION:\n")
	fmt.Fprintf(&b, "Count: %d\n\n", len(items))

	limit := len(items)
	if limit > 50 {
		limit = 50
	}
	for i := 0; i < limit; i++ {
		item := items[i]
		fmt.Fprintf(&b, "%d. %s", i+1, item.Label)
		if item.Kind != nil {
			fmt.Fprintf(&b, " [%v]", *item.Kind)
		}
		if item.Detail != "" {
			fmt.Fprintf(&b, " - %s", item.Detail)
		}
		b.WriteString("\n")
	}
	if len(items) > limit {
		fmt.Fprintf(&b, "\n(Showing first %d of %d)\n", limit, len(items))
	}
	return b.String()
}
