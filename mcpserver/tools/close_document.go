package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/logger"
)

// CloseDocumentTool releases a document on the language server and drops its
// cached diagnostics.
func CloseDocumentTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("close_document",
			mcp.WithDescription(`Close a previously opened document on the language server.

USAGE:
- close_document: file_path="/path/Program.cs"

Frees server-side state and discards cached diagnostics for the file.
Closing a file that was never opened is a no-op.

PARAMETERS: file_path (required)
OUTPUT: Confirmation`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("file_path", mcp.Description("Path to the file"), mcp.Required()),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, err := request.RequireString("file_path")
			if err != nil {
				logger.Error("close_document: file_path parsing failed", err)
				return mcp.NewToolResultError(err.Error()), nil
			}

			if result, ok := CheckReadyOrReturn(bridge); !ok {
				return result, nil
			}

			if err := bridge.CloseDocument(ctx, path); err != nil {
				logger.Error("close_document: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("close_document failed: %v", err)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("CLOSED:\n%s\n", path)), nil
		}
}

func RegisterCloseDocumentTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(CloseDocumentTool(bridge))
}
