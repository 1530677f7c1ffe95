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

// DocumentSymbolsTool exposes textDocument/documentSymbol for a file.
func DocumentSymbolsTool(bridge interfaces.BridgeInterface) (mcp.Tool, server.ToolHandlerFunc) {
	return mcp.NewTool("document_symbols",
			mcp.WithDescription(`List all symbols in a file (types, methods, properties) using LSP textDocument/documentSymbol.

USAGE:
- document_symbols: file_path="/path/Program.cs"

PARAMETERS: file_path (required)
OUTPUT: Symbol tree with kind and range per symbol`),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("file_path", mcp.Description("Path to the file"), mcp.Required()),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, err := request.RequireString("file_path")
			if err != nil {
				logger.Error("document_symbols: file_path parsing failed", err)
				return mcp.NewToolResultError(err.Error()), nil
			}
			if result, ok := CheckReadyOrReturn(bridge); !ok {
				return result, nil
			}

			symbols, err := bridge.DocumentSymbols(ctx, path)
			if err != nil {
				logger.Error("document_symbols: request failed", err)
				return mcp.NewToolResultError(fmt.Sprintf("document symbols request failed: %v", err)), nil
			}
			return mcp.NewToolResultText(formatDocumentSymbols(symbols)), nil
		}
}

func RegisterDocumentSymbolsTool(mcpServer ToolServer, bridge interfaces.BridgeInterface) {
	mcpServer.AddTool(DocumentSymbolsTool(bridge))
}

func formatDocumentSymbols(symbols []protocol.DocumentSymbol) string {
	if len(symbols) == 0 {
		return "SYMBOLS:\nNo symbols found."
	}
	var b strings.Builder
	b.WriteString("SYMBOLS:\n")
	fmt.Fprintf(&b, "Count: %d\n\n", len(symbols))
	for i := range symbols {
		writeSymbolTree(&b, &symbols[i], 0)
	}
	return b.String()
}

func writeSymbolTree(b *strings.Builder, sym *protocol.DocumentSymbol, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s- %s [%s] %d:%d-%d:%d\n",
		indent, sym.Name, symbolKindToString(sym.Kind),
		sym.Range.Start.Line, sym.Range.Start.Character,
		sym.Range.End.Line, sym.Range.End.Character,
	)
	for i := range sym.Children {
		writeSymbolTree(b, &sym.Children[i], depth+1)
	}
}

func symbolKindToString(kind protocol.SymbolKind) string {
	names := map[protocol.SymbolKind]string{
		protocol.SymbolKindFile:          "File",
		protocol.SymbolKindModule:        "Module",
		protocol.SymbolKindNamespace:     "Namespace",
		protocol.SymbolKindPackage:       "Package",
		protocol.SymbolKindClass:         "Class",
		protocol.SymbolKindMethod:        "Method",
		protocol.SymbolKindProperty:      "Property",
		protocol.SymbolKindField:         "Field",
		protocol.SymbolKindConstructor:   "Constructor",
		protocol.SymbolKindEnum:          "Enum",
		protocol.SymbolKindInterface:     "Interface",
		protocol.SymbolKindFunction:      "Function",
		protocol.SymbolKindVariable:      "Variable",
		protocol.SymbolKindConstant:      "Constant",
		protocol.SymbolKindString:        "String",
		protocol.SymbolKindNumber:        "Number",
		protocol.SymbolKindBoolean:       "Boolean",
		protocol.SymbolKindArray:         "Array",
		protocol.SymbolKindObject:        "Object",
		protocol.SymbolKindKey:           "Key",
		protocol.SymbolKindNull:          "Null",
		protocol.SymbolKindEnumMember:    "EnumMember",
		protocol.SymbolKindStruct:        "Struct",
		protocol.SymbolKindEvent:         "Event",
		protocol.SymbolKindOperator:      "Operator",
		protocol.SymbolKindTypeParameter: "TypeParameter",
	}
	if name, ok := names[kind]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", kind)
}
