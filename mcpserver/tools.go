// Package mcpserver registers the bridge's MCP tool surface.
package mcpserver

import (
	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/mcpserver/tools"
)

// RegisterAllTools registers every tool with the server.
func RegisterAllTools(mcpServer tools.ToolServer, bridge interfaces.BridgeInterface) {
	// Workspace lifecycle
	tools.RegisterSetWorkspaceTool(mcpServer, bridge)

	// Code intelligence
	tools.RegisterHoverTool(mcpServer, bridge)
	tools.RegisterCompletionTool(mcpServer, bridge)
	tools.RegisterDefinitionTool(mcpServer, bridge)
	tools.RegisterReferencesTool(mcpServer, bridge)
	tools.RegisterDocumentSymbolsTool(mcpServer, bridge)

	// Code improvement
	tools.RegisterCodeActionsTool(mcpServer, bridge)
	tools.RegisterRenameTool(mcpServer, bridge)

	// Diagnostics
	tools.RegisterDiagnosticsTool(mcpServer, bridge)

	// Document lifecycle
	tools.RegisterCloseDocumentTool(mcpServer, bridge)

	// Markup analysis (local, no LSP session required)
	tools.RegisterAnalyzeXAMLTool(mcpServer, bridge)

	// Server/session status
	tools.RegisterLSPStatusTool(mcpServer, bridge)
}
