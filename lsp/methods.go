package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/logger"
)

// clientCapabilitiesJSON declares what this client handles: full-document
// sync, hover, completion, published diagnostics and workspace folders.
// Built from the wire form so the declaration stays in one readable place.
const clientCapabilitiesJSON = `{
	"textDocument": {
		"synchronization": {"didSave": true},
		"hover": {"contentFormat": ["markdown", "plaintext"]},
		"completion": {"completionItem": {"snippetSupport": false}},
		"definition": {"linkSupport": true},
		"documentSymbol": {"hierarchicalDocumentSymbolSupport": true},
		"publishDiagnostics": {"versionSupport": true}
	},
	"workspace": {
		"workspaceFolders": true,
		"didChangeWatchedFiles": {"dynamicRegistration": false}
	}
}`

func defaultClientCapabilities() protocol.ClientCapabilities {
	var caps protocol.ClientCapabilities
	if err := json.Unmarshal([]byte(clientCapabilitiesJSON), &caps); err != nil {
		logger.Error("Failed to build client capabilities", err)
	}
	return caps
}

// Initialize performs the handshake: capability negotiation against the
// workspace root. Must complete before any other operation is issued.
func (lc *LanguageClient) Initialize(ctx context.Context, rootURI string) (*protocol.InitializeResult, error) {
	pid := int32(os.Getpid())
	folders := []protocol.WorkspaceFolder{{
		Uri:  protocol.URI(rootURI),
		Name: filepath.Base(rootURI),
	}}

	params := protocol.InitializeParams{
		ProcessId: &pid,
		ClientInfo: &protocol.ClientInfo{
			Name:    "mcp-csharp-bridge",
			Version: "1.0.0",
		},
		Capabilities:     defaultClientCapabilities(),
		WorkspaceFolders: &folders,
	}
	if lc.config.InitializationOptions != nil {
		params.InitializationOptions = lc.config.InitializationOptions
	}

	var result protocol.InitializeResult
	// Roslyn loads the whole solution during initialize; give it room.
	if err := lc.SendRequest(ctx, "initialize", params, &result, initializeTimeout); err != nil {
		return nil, err
	}

	lc.capsMu.Lock()
	lc.serverCapabilities = result.Capabilities
	lc.capsMu.Unlock()

	return &result, nil
}

// Initialized sends the fire-and-forget ready notification that completes
// the handshake.
func (lc *LanguageClient) Initialized() error {
	if err := lc.SendNotification("initialized", struct{}{}); err != nil {
		return err
	}
	lc.status.Store(int32(StatusInitialized))
	return nil
}

// DidOpen announces a document to the server.
func (lc *LanguageClient) DidOpen(uri string, text string, version int32) error {
	return lc.SendNotification("textDocument/didOpen", protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			Uri:        protocol.DocumentUri(uri),
			LanguageId: protocol.LanguageKindCSharp,
			Version:    version,
			Text:       text,
		},
	})
}

// DidChange sends a whole-document change. The bridge only uses full sync:
// agents hand us complete file contents, not deltas.
func (lc *LanguageClient) DidChange(uri string, version int32, text string) error {
	params := map[string]any{
		"textDocument": map[string]any{
			"uri":     uri,
			"version": version,
		},
		"contentChanges": []map[string]any{
			{"text": text},
		},
	}
	return lc.SendNotification("textDocument/didChange", params)
}

// DidClose withdraws a document.
func (lc *LanguageClient) DidClose(uri string) error {
	return lc.SendNotification("textDocument/didClose", protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{
			Uri: protocol.DocumentUri(uri),
		},
	})
}

// DidChangeWatchedFiles reports filesystem changes observed by the watcher.
func (lc *LanguageClient) DidChangeWatchedFiles(changes []protocol.FileEvent) error {
	if len(changes) == 0 {
		return nil
	}
	return lc.SendNotification("workspace/didChangeWatchedFiles", protocol.DidChangeWatchedFilesParams{
		Changes: changes,
	})
}

// Hover returns hover information at a position, or nil when the server has
// nothing to say there.
func (lc *LanguageClient) Hover(ctx context.Context, uri string, line, character uint32) (*protocol.Hover, error) {
	params := protocol.HoverParams{
		TextDocument: protocol.TextDocumentIdentifier{Uri: protocol.DocumentUri(uri)},
		Position:     protocol.Position{Line: line, Character: character},
	}

	var raw json.RawMessage
	if err := lc.SendRequest(ctx, "textDocument/hover", params, &raw, 10*time.Second); err != nil {
		return nil, err
	}
	if isNullResult(raw) {
		return nil, nil
	}

	var result protocol.Hover
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode hover response: %w", err)
	}
	return &result, nil
}

// Completion returns completion items at a position. The response may be a
// bare item array or a CompletionList; both decode to a flat item slice.
func (lc *LanguageClient) Completion(ctx context.Context, uri string, line, character uint32) ([]protocol.CompletionItem, error) {
	params := protocol.CompletionParams{
		TextDocument: protocol.TextDocumentIdentifier{Uri: protocol.DocumentUri(uri)},
		Position:     protocol.Position{Line: line, Character: character},
	}

	var raw json.RawMessage
	if err := lc.SendRequest(ctx, "textDocument/completion", params, &raw, 30*time.Second); err != nil {
		return nil, err
	}
	return decodeCompletionResult(raw)
}

func decodeCompletionResult(raw json.RawMessage) ([]protocol.CompletionItem, error) {
	if isNullResult(raw) {
		return nil, nil
	}

	// Shape check: array => CompletionItem[], object => CompletionList.
	if len(raw) > 0 && raw[0] == '[' {
		var items []protocol.CompletionItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode completion items: %w", err)
		}
		return items, nil
	}

	var list protocol.CompletionList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode completion list: %w", err)
	}
	return list.Items, nil
}

// Definition requests definition locations for the symbol at a position.
// Servers answer with Location, Location[] or LocationLink[]; the tagged
// union absorbs the element-level ambiguity and a shape check handles the
// single-object form.
func (lc *LanguageClient) Definition(ctx context.Context, uri string, line, character uint32) ([]protocol.Or2[protocol.LocationLink, protocol.Location], error) {
	params := protocol.DefinitionParams{
		TextDocument: protocol.TextDocumentIdentifier{Uri: protocol.DocumentUri(uri)},
		Position:     protocol.Position{Line: line, Character: character},
	}

	var raw json.RawMessage
	if err := lc.SendRequest(ctx, "textDocument/definition", params, &raw, 30*time.Second); err != nil {
		return nil, err
	}
	return decodeDefinitionResult(raw)
}

func decodeDefinitionResult(raw json.RawMessage) ([]protocol.Or2[protocol.LocationLink, protocol.Location], error) {
	if isNullResult(raw) {
		return nil, nil
	}

	if len(raw) > 0 && raw[0] == '{' {
		// Single bare Location.
		var single protocol.Location
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("decode definition response: %w", err)
		}
		return []protocol.Or2[protocol.LocationLink, protocol.Location]{{Value: single}}, nil
	}

	var links []protocol.Or2[protocol.LocationLink, protocol.Location]
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("decode definition response: %w", err)
	}
	return links, nil
}

// References finds all references to the symbol at a position.
func (lc *LanguageClient) References(ctx context.Context, uri string, line, character uint32, includeDeclaration bool) ([]protocol.Location, error) {
	params := protocol.ReferenceParams{
		TextDocument: protocol.TextDocumentIdentifier{Uri: protocol.DocumentUri(uri)},
		Position:     protocol.Position{Line: line, Character: character},
		Context: protocol.ReferenceContext{
			IncludeDeclaration: includeDeclaration,
		},
	}

	var result []protocol.Location
	if err := lc.SendRequest(ctx, "textDocument/references", params, &result, 60*time.Second); err != nil {
		return nil, err
	}
	return result, nil
}

// DocumentSymbols returns all symbols in a document. Servers answer either
// with hierarchical DocumentSymbol[] or flat SymbolInformation[]; the flat
// form is lifted into the hierarchical one.
func (lc *LanguageClient) DocumentSymbols(ctx context.Context, uri string) ([]protocol.DocumentSymbol, error) {
	params := protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{Uri: protocol.DocumentUri(uri)},
	}

	var raw json.RawMessage
	if err := lc.SendRequest(ctx, "textDocument/documentSymbol", params, &raw, 60*time.Second); err != nil {
		return nil, err
	}
	return decodeDocumentSymbols(raw)
}

func decodeDocumentSymbols(raw json.RawMessage) ([]protocol.DocumentSymbol, error) {
	if isNullResult(raw) {
		return nil, nil
	}

	// Hierarchical symbols carry selectionRange; probe the first element.
	var probe []struct {
		SelectionRange *protocol.Range `json:"selectionRange"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode documentSymbol response: %w", err)
	}
	if len(probe) == 0 {
		return nil, nil
	}

	if probe[0].SelectionRange != nil {
		var symbols []protocol.DocumentSymbol
		if err := json.Unmarshal(raw, &symbols); err != nil {
			return nil, fmt.Errorf("decode document symbols: %w", err)
		}
		return symbols, nil
	}

	var infos []protocol.SymbolInformation
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, fmt.Errorf("decode symbol information: %w", err)
	}

	symbols := make([]protocol.DocumentSymbol, len(infos))
	for i, info := range infos {
		symbols[i] = protocol.DocumentSymbol{
			Name:           info.Name,
			Kind:           info.Kind,
			Range:          info.Location.Range,
			SelectionRange: info.Location.Range,
		}
	}
	return symbols, nil
}

// CodeActions returns available actions for a range.
func (lc *LanguageClient) CodeActions(ctx context.Context, uri string, startLine, startCharacter, endLine, endCharacter uint32) ([]protocol.CodeAction, error) {
	params := protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{Uri: protocol.DocumentUri(uri)},
		Range: protocol.Range{
			Start: protocol.Position{Line: startLine, Character: startCharacter},
			End:   protocol.Position{Line: endLine, Character: endCharacter},
		},
		Context: protocol.CodeActionContext{},
	}

	var result []protocol.CodeAction
	if err := lc.SendRequest(ctx, "textDocument/codeAction", params, &result, 15*time.Second); err != nil {
		return nil, fmt.Errorf("code action request failed: %w", err)
	}
	return result, nil
}

// Rename computes the workspace-wide edit for renaming the symbol at a
// position.
func (lc *LanguageClient) Rename(ctx context.Context, uri string, line, character uint32, newName string) (*protocol.WorkspaceEdit, error) {
	params := protocol.RenameParams{
		TextDocument: protocol.TextDocumentIdentifier{Uri: protocol.DocumentUri(uri)},
		Position:     protocol.Position{Line: line, Character: character},
		NewName:      newName,
	}

	var raw json.RawMessage
	if err := lc.SendRequest(ctx, "textDocument/rename", params, &raw, 60*time.Second); err != nil {
		return nil, fmt.Errorf("rename request failed: %w", err)
	}
	if isNullResult(raw) {
		return nil, nil
	}

	var result protocol.WorkspaceEdit
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode rename response: %w", err)
	}
	return &result, nil
}

func isNullResult(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
