// Package interfaces declares the bridge surface consumed by the MCP tool
// layer, so tools can be tested against a mock instead of a live server.
package interfaces

import (
	"context"

	protocol "github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/lsp"
	"sharpbridge/mcp-csharp-bridge/xaml"
)

// StatusReport is a point-in-time snapshot of the bridge for the status tool.
type StatusReport struct {
	Status         string `json:"status"`
	WorkspaceRoot  string `json:"workspaceRoot,omitempty"`
	EffectiveRoot  string `json:"effectiveRoot,omitempty"`
	SolutionPath   string `json:"solutionPath,omitempty"`
	OpenDocuments  int    `json:"openDocuments"`
	DiagnosticURIs int    `json:"diagnosticUris"`
	LastError      string `json:"lastError,omitempty"`
}

// BridgeInterface is everything a tool handler may do with the bridge.
type BridgeInterface interface {
	// SetWorkspace tears down any existing session and connects the
	// language server to the given workspace root.
	SetWorkspace(ctx context.Context, root string) error
	WorkspaceRoot() string
	Ready() bool
	StatusReport() StatusReport

	Hover(ctx context.Context, path string, line, character uint32) (*protocol.Hover, error)
	Completion(ctx context.Context, path string, line, character uint32) ([]protocol.CompletionItem, error)
	Definition(ctx context.Context, path string, line, character uint32) ([]protocol.Location, error)
	References(ctx context.Context, path string, line, character uint32, includeDeclaration bool) ([]protocol.Location, error)
	DocumentSymbols(ctx context.Context, path string) ([]protocol.DocumentSymbol, error)
	CodeActions(ctx context.Context, path string, startLine, startChar, endLine, endChar uint32) ([]protocol.CodeAction, error)
	Rename(ctx context.Context, path string, line, character uint32, newName string) (*protocol.WorkspaceEdit, error)
	Diagnostics(ctx context.Context, path string, wait bool) (*lsp.DiagnosticSnapshot, error)
	CloseDocument(ctx context.Context, path string) error
	AnalyzeXAML(path string) ([]xaml.Finding, error)

	Shutdown(ctx context.Context) error
}
