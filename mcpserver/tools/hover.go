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

// HoverTool exposes textDocument/hover for a specific (file, line, character).
func HoverTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("hover",
			mcp.WithDescription(`Get type and documentation info for the symbol at a cursor position using LSP textDocument/hover.

USAGE:
- hover: file_path="/path/Program.cs", line=15, character=10

PARAMETERS: file_path (required), line/character (required, 0-based)
OUTPUT: Symbol signature and documentation as markdown`),
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

			hover, err := bridge.Hover(ctx, path, line, character)
			if err != nil {
				logger.Error("hover: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("hover request failed: %v", err)), nil
			}
			if hover == nil {
				return mcp.NewToolResultText("HOVER:\nNo information available at this position."), nil
			}
			return mcp.NewToolResultText("HOVER:\n" + extractHoverContent(hover.Contents)), nil
		}
}

func RegisterHoverTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(HoverTool(bridge))
}

func extractHoverContent(contents protocol.Or3[protocol.MarkupContent, protocol.MarkedString, []protocol.MarkedString]) string {
	switch v := contents.Value.(type) {
	case protocol.MarkupContent:
		return v.Value
	case protocol.MarkedString:
		return markedStringText(v)
	case []protocol.MarkedString:
		parts := make([]string, 0, len(v))
		for _, ms := range v {
			parts = append(parts, markedStringText(ms))
		}
		return strings.Join(parts, "\n\n")
	default:
		return fmt.Sprintf("%v", contents.Value)
	}
}

func markedStringText(ms protocol.MarkedString) string {
	switch v := ms.Value.(type) {
	case string:
		return v
	case protocol.MarkedStringWithLanguage:
		return fmt.Sprintf("```%s\n%s\n```", v.Language, v.Value)
	default:
		return fmt.Sprintf("%v", ms.Value)
	}
}
