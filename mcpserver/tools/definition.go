package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/logger"
)

// DefinitionTool exposes textDocument/definition for a specific (file, line, character).
func DefinitionTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("definition",
			mcp.WithDescription(`Get definition location(s) for the symbol at a cursor position using LSP textDocument/definition.

USAGE:
- definition: file_path="/path/Program.cs", line=15, character=10

PARAMETERS: file_path (required), line/character (required, 0-based)
OUTPUT: One or more target locations (file + range)`),
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

			locations, err := bridge.Definition(ctx, path, line, character)
			if err != nil {
				logger.Error("definition: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("definition request failed: %v", err)), nil
			}
			return mcp.NewToolResultText(formatLocations("DEFINITION", locations)), nil
		}
}

func RegisterDefinitionTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(DefinitionTool(bridge))
}
