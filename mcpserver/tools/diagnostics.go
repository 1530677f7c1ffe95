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
	"sharpbridge/mcp-csharp-bridge/lsp"
)

// DiagnosticsTool returns compiler diagnostics the server has published for a file.
func DiagnosticsTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("diagnostics",
			mcp.WithDescription(`Get compiler errors and warnings for a file from the language server's published diagnostics.

USAGE:
- diagnostics: file_path="/path/Program.cs"
- open the file and wait for fresh results: wait=true

PARAMETERS: file_path (required), wait (optional, default false)
OUTPUT: Diagnostics with severity, position and message`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("file_path", mcp.Description("Path to the file"), mcp.Required()),
			mcp.WithBoolean("wait", mcp.Description("Open the document and wait for the server to publish")),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, err := request.RequireString("file_path")
			if err != nil {
				logger.Error("diagnostics: file_path parsing failed", err)
				return mcp.NewToolResultError(err.Error()), nil
			}
			wait := request.GetBool("wait", false)

			if result, ok := CheckReadyOrReturn(bridge); !ok {
				return result, nil
			}

			snap, err := bridge.Diagnostics(ctx, path, wait)
			if err != nil {
				logger.Error("diagnostics: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("diagnostics request failed: %v", err)), nil
			}
			return mcp.NewToolResultText(formatDiagnostics(path, snap)), nil
		}
}

func RegisterDiagnosticsTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(DiagnosticsTool(bridge))
}

func formatDiagnostics(path string, snap *lsp.DiagnosticSnapshot) string {
	if snap == nil {
		return fmt.Sprintf("DIAGNOSTICS:\nNo diagnostics published for %s (try wait=true).", path)
	}
	if len(snap.Diagnostics) == 0 {
		return fmt.Sprintf("DIAGNOSTICS:\nNo issues in %s.", path)
	}

	var b strings.Builder
	b.WriteString("DIAGNOSTICS:\n")
	fmt.Fprintf(&b, "Count: %d\n\n", len(snap.Diagnostics))
	for i, diag := range snap.Diagnostics {
		fmt.Fprintf(&b, "%d. [%s] %d:%d %s\n", i+1,
			severityToString(diag.Severity),
			diag.Range.Start.Line, diag.Range.Start.Character,
			diag.Message,
		)
	}
	return b.String()
}

func severityToString(severity *protocol.DiagnosticSeverity) string {
	if severity == nil {
		return "unknown"
	}
	switch *severity {
	case protocol.DiagnosticSeverityError:
		return "error"
	case protocol.DiagnosticSeverityWarning:
		return "warning"
	case protocol.DiagnosticSeverityInformation:
		return "info"
	case protocol.DiagnosticSeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}
