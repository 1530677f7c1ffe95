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

// RenameTool exposes textDocument/rename. It returns the workspace edit the
// server proposes; applying it is the caller's decision.
func RenameTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("rename",
			mcp.WithDescription(`Compute the workspace-wide edit for renaming the symbol at a cursor position using LSP textDocument/rename.

USAGE:
- rename: file_path="/path/Program.cs", line=15, character=10, new_name="OrderService"

The edit is returned as a preview; nothing is written to disk.

PARAMETERS: file_path (required), line/character (required, 0-based), new_name (required)
OUTPUT: Per-file edit summary`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("file_path", mcp.Description("Path to the file"), mcp.Required()),
			mcp.WithNumber("line", mcp.Description("Line number (0-based)"), mcp.Required(), mcp.Min(0)),
			mcp.WithNumber("character", mcp.Description("Character position (0-based)"), mcp.Required(), mcp.Min(0)),
			mcp.WithString("new_name", mcp.Description("New symbol name"), mcp.Required()),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, line, character, errResult := requirePosition(request)
			if errResult != nil {
				return errResult, nil
			}
			newName, err := request.RequireString("new_name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if result, ok := CheckReadyOrReturn(bridge); !ok {
				return result, nil
			}

			edit, err := bridge.Rename(ctx, path, line, character, newName)
			if err != nil {
				logger.Error("rename: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("rename request failed: %v", err)), nil
			}
			if edit == nil {
				return mcp.NewToolResultText("RENAME:\nSymbol cannot be renamed at this position."), nil
			}
			return mcp.NewToolResultText(formatWorkspaceEdit(edit)), nil
		}
}

func RegisterRenameTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(RenameTool(bridge))
}

func formatWorkspaceEdit(edit *protocol.WorkspaceEdit) string {
	var b strings.Builder
	b.WriteString("RENAME:\n")

	totalFiles := 0
	totalEdits := 0
	for uri, edits := range edit.Changes {
		totalFiles++
		totalEdits += len(edits)
		fmt.Fprintf(&b, "- %s: %d edit(s)\n", shortName(string(uri)), len(edits))
	}
	for _, change := range edit.DocumentChanges {
		docEdit, ok := change.Value.(protocol.TextDocumentEdit)
		if !ok {
			continue
		}
		totalFiles++
		totalEdits += len(docEdit.Edits)
		fmt.Fprintf(&b, "- %s: %d edit(s)\n", shortName(string(docEdit.TextDocument.Uri)), len(docEdit.Edits))
	}

	if totalFiles == 0 {
		return "RENAME:\nServer returned an empty edit."
	}
	fmt.Fprintf(&b, "\nTotal: %d edit(s) across %d file(s)\n", totalEdits, totalFiles)
	return b.String()
}
