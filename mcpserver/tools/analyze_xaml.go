package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/logger"
	"sharpbridge/mcp-csharp-bridge/xaml"
)

// AnalyzeXAMLTool runs the built-in XAML analyzer. Unlike the LSP-backed
// tools, it works without a workspace session.
func AnalyzeXAMLTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("analyze_xaml",
			mcp.WithDescription(`Analyze a XAML file for markup problems: malformed XML, duplicate x:Name declarations, suspicious bindings and unresolved resource references.

USAGE:
- analyze_xaml: file_path="/path/MainWindow.xaml"

PARAMETERS: file_path (required)
OUTPUT: Findings with severity, position, code and message`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("file_path", mcp.Description("Path to the XAML file"), mcp.Required()),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, err := request.RequireString("file_path")
			if err != nil {
				logger.Error("analyze_xaml: file_path parsing failed", err)
				return mcp.NewToolResultError(err.Error()), nil
			}

			findings, err := bridge.AnalyzeXAML(path)
			if err != nil {
				logger.Error("analyze_xaml: analysis failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("xaml analysis failed: %v", err)), nil
			}
			return mcp.NewToolResultText(formatXAMLFindings(path, findings)), nil
		}
}

func RegisterAnalyzeXAMLTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(AnalyzeXAMLTool(bridge))
}

func formatXAMLFindings(path string, findings []xaml.Finding) string {
	if len(findings) == 0 {
		return fmt.Sprintf("XAML ANALYSIS:\nNo issues in %s.", path)
	}
	var b strings.Builder
	b.WriteString("XAML ANALYSIS:\n")
	fmt.Fprintf(&b, "Count: %d\n\n", len(findings))
	for i, f := range findings {
		fmt.Fprintf(&b, "%d. [%s] %s %d:%d %s\n", i+1, f.Severity, f.Code, f.Line, f.Column, f.Message)
	}
	return b.String()
}
