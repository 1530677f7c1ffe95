package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/logger"
)

// ReferencesTool exposes textDocument/references for a cursor position.
func ReferencesTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("references",
			mcp.WithDescription(`Find all references to the symbol at a cursor position using LSP textDocument/references.

USAGE:
- references: file_path="/path/Program.cs", line=15, character=10
- exclude the declaration itself: include_declaration=false

PARAMETERS: file_path (required), line/character (required, 0-based), include_declaration (optional, default true)
OUTPUT: Reference locations across the workspace`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("file_path", mcp.Description("Path to the file"), mcp.Required()),
			mcp.WithNumber("line", mcp.Description("Line number (0-based)"), mcp.Required(), mcp.Min(0)),
			mcp.WithNumber("character", mcp.Description("Character position (0-based)"), mcp.Required(), mcp.Min(0)),
			mcp.WithBoolean("include_declaration", mcp.Description("Include the declaration in the results")),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, line, character, errResult := requirePosition(request)
			if errResult != nil {
				return errResult, nil
			}
			includeDeclaration := request.GetBool("include_declaration", true)

			if result, ok := CheckReadyOrReturn(bridge); !ok {
				return result, nil
			}

			locations, err := bridge.References(ctx, path, line, character, includeDeclaration)
			if err != nil {
				logger.Error("references: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("references request failed: %v", err)), nil
			}
			return mcp.NewToolResultText(formatLocations("REFERENCES", locations)), nil
		}
}

func RegisterReferencesTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(ReferencesTool(bridge))
}
