// Package bridge owns the language server session: workspace preparation,
// process lifecycle, document synchronization, and the typed operations the
// MCP tools expose.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	protocol "github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/logger"
	"sharpbridge/mcp-csharp-bridge/lsp"
	"sharpbridge/mcp-csharp-bridge/utils"
	"sharpbridge/mcp-csharp-bridge/workspace"
	"sharpbridge/mcp-csharp-bridge/xaml"
)

const diagnosticsWaitTimeout = 10 * time.Second

// Bridge wires the MCP tool surface to a LanguageClient. A bridge holds at
// most one session; SetWorkspace replaces the previous one wholesale.
type Bridge struct {
	cfg Config

	mu      sync.Mutex
	client  *lsp.LanguageClient
	docs    *documentStore
	filter  *workspace.FilterResult
	watcher *workspace.Watcher
	root    string
}

var _ interfaces.BridgeInterface = (*Bridge)(nil)

func New(cfg Config) *Bridge {
	return &Bridge{cfg: cfg}
}

// SetWorkspace prepares the workspace, spawns the server against it, and
// runs the initialize handshake. Any previous session is shut down first.
func (b *Bridge) SetWorkspace(ctx context.Context, root string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.teardownLocked(ctx)

	filter, err := workspace.FilterSolution(root, workspace.FilterOptions{Denylist: b.cfg.SolutionDenylist})
	if err != nil {
		return fmt.Errorf("prepare workspace: %w", err)
	}

	client := lsp.NewLanguageClient(b.cfg.Server)
	if err := client.Start(ctx, filter.EffectiveRoot); err != nil {
		filter.Cleanup()
		return err
	}
	if _, err := client.Initialize(ctx, utils.PathToFileURI(filter.EffectiveRoot)); err != nil {
		client.Stop()
		filter.Cleanup()
		return fmt.Errorf("initialize: %w", err)
	}
	if err := client.Initialized(); err != nil {
		client.Stop()
		filter.Cleanup()
		return err
	}

	// Watch the real root, not the filtered copy: edits happen there.
	watcher, err := workspace.NewWatcher(root, client.DidChangeWatchedFiles)
	if err != nil {
		logger.Warn("file watcher unavailable:", err.Error())
		watcher = nil
	}

	b.client = client
	b.docs = newDocumentStore()
	b.filter = filter
	b.watcher = watcher
	b.root = root
	logger.Info("workspace ready:", root)
	return nil
}

// AutoConnect connects to the configured workspace root in the background.
// Failures are logged, not fatal: the user can retry via the tool.
func (b *Bridge) AutoConnect(ctx context.Context) {
	root := b.cfg.WorkspaceRoot
	if root == "" {
		return
	}
	go func() {
		if err := b.SetWorkspace(ctx, root); err != nil {
			logger.Error("auto-connect failed:", err.Error())
		}
	}()
}

func (b *Bridge) WorkspaceRoot() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.root
}

func (b *Bridge) Ready() bool {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()
	return client != nil && client.Status() == lsp.StatusInitialized
}

func (b *Bridge) StatusReport() interfaces.StatusReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := interfaces.StatusReport{Status: lsp.StatusStopped.String()}
	if b.client == nil {
		return report
	}
	report.Status = b.client.Status().String()
	report.WorkspaceRoot = b.root
	report.OpenDocuments = b.docs.count()
	report.DiagnosticURIs = len(b.client.Diagnostics().URIs())
	if b.filter != nil {
		report.EffectiveRoot = b.filter.EffectiveRoot
		report.SolutionPath = b.filter.SolutionPath
	}
	if err := b.client.LastError(); err != nil {
		report.LastError = err.Error()
	}
	return report
}

// session returns the current client and document store, or an error when no
// initialized session exists.
func (b *Bridge) session() (*lsp.LanguageClient, *documentStore, error) {
	b.mu.Lock()
	client, docs := b.client, b.docs
	b.mu.Unlock()
	if client == nil || client.Status() != lsp.StatusInitialized {
		return nil, nil, lsp.ErrNotConnected
	}
	return client, docs, nil
}

func (b *Bridge) Hover(ctx context.Context, path string, line, character uint32) (*protocol.Hover, error) {
	client, docs, err := b.session()
	if err != nil {
		return nil, err
	}
	uri, err := docs.ensureOpen(client, path)
	if err != nil {
		return nil, err
	}
	return client.Hover(ctx, uri, line, character)
}

func (b *Bridge) Completion(ctx context.Context, path string, line, character uint32) ([]protocol.CompletionItem, error) {
	client, docs, err := b.session()
	if err != nil {
		return nil, err
	}
	uri, err := docs.ensureOpen(client, path)
	if err != nil {
		return nil, err
	}
	return client.Completion(ctx, uri, line, character)
}

func (b *Bridge) Definition(ctx context.Context, path string, line, character uint32) ([]protocol.Location, error) {
	client, docs, err := b.session()
	if err != nil {
		return nil, err
	}
	uri, err := docs.ensureOpen(client, path)
	if err != nil {
		return nil, err
	}
	targets, err := client.Definition(ctx, uri, line, character)
	if err != nil {
		return nil, err
	}
	return flattenDefinitions(targets), nil
}

// flattenDefinitions reduces the location-or-link union to plain locations,
// keeping the link's target selection range when present.
func flattenDefinitions(targets []protocol.Or2[protocol.LocationLink, protocol.Location]) []protocol.Location {
	locations := make([]protocol.Location, 0, len(targets))
	for _, target := range targets {
		switch v := target.Value.(type) {
		case protocol.Location:
			locations = append(locations, v)
		case protocol.LocationLink:
			locations = append(locations, protocol.Location{
				Uri:   v.TargetUri,
				Range: v.TargetSelectionRange,
			})
		}
	}
	return locations
}

func (b *Bridge) References(ctx context.Context, path string, line, character uint32, includeDeclaration bool) ([]protocol.Location, error) {
	client, docs, err := b.session()
	if err != nil {
		return nil, err
	}
	uri, err := docs.ensureOpen(client, path)
	if err != nil {
		return nil, err
	}
	return client.References(ctx, uri, line, character, includeDeclaration)
}

func (b *Bridge) DocumentSymbols(ctx context.Context, path string) ([]protocol.DocumentSymbol, error) {
	client, docs, err := b.session()
	if err != nil {
		return nil, err
	}
	uri, err := docs.ensureOpen(client, path)
	if err != nil {
		return nil, err
	}
	return client.DocumentSymbols(ctx, uri)
}

func (b *Bridge) CodeActions(ctx context.Context, path string, startLine, startChar, endLine, endChar uint32) ([]protocol.CodeAction, error) {
	client, docs, err := b.session()
	if err != nil {
		return nil, err
	}
	uri, err := docs.ensureOpen(client, path)
	if err != nil {
		return nil, err
	}
	return client.CodeActions(ctx, uri, startLine, startChar, endLine, endChar)
}

func (b *Bridge) Rename(ctx context.Context, path string, line, character uint32, newName string) (*protocol.WorkspaceEdit, error) {
	client, docs, err := b.session()
	if err != nil {
		return nil, err
	}
	uri, err := docs.ensureOpen(client, path)
	if err != nil {
		return nil, err
	}
	return client.Rename(ctx, uri, line, character, newName)
}

// Diagnostics returns the cached diagnostics for a file. With wait set, it
// opens the document first and blocks until the server publishes for it.
// A nil snapshot with nil error means nothing has been published.
func (b *Bridge) Diagnostics(ctx context.Context, path string, wait bool) (*lsp.DiagnosticSnapshot, error) {
	client, docs, err := b.session()
	if err != nil {
		return nil, err
	}
	uri := utils.NormalizeURI(path)
	if wait {
		if uri, err = docs.ensureOpen(client, path); err != nil {
			return nil, err
		}
		snap, ok := client.Diagnostics().WaitFor(ctx, uri, diagnosticsWaitTimeout)
		if !ok {
			return nil, nil
		}
		return &snap, nil
	}
	snap, ok := client.Diagnostics().Get(uri)
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// CloseDocument tells the server to drop a previously opened document and
// evicts its cached diagnostics. Closing a document that was never opened is
// a no-op.
func (b *Bridge) CloseDocument(ctx context.Context, path string) error {
	client, docs, err := b.session()
	if err != nil {
		return err
	}
	return docs.close(client, utils.PathToFileURI(path))
}

// AnalyzeXAML runs the built-in markup analyzer. It needs no session:
// XAML analysis is local to this process.
func (b *Bridge) AnalyzeXAML(path string) ([]xaml.Finding, error) {
	return xaml.AnalyzeFile(path)
}

// Shutdown tears down the active session. Safe to call with none.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardownLocked(ctx)
	return nil
}

func (b *Bridge) teardownLocked(ctx context.Context) {
	if b.watcher != nil {
		if err := b.watcher.Close(); err != nil {
			logger.Warn("closing watcher:", err.Error())
		}
		b.watcher = nil
	}
	if b.client != nil {
		// Close open documents while the session can still carry didClose.
		if b.docs != nil {
			b.docs.closeAll(b.client)
		}
		if err := b.client.Stop(); err != nil {
			logger.Warn("stopping language server:", err.Error())
		}
		b.client = nil
	}
	if b.filter != nil {
		b.filter.Cleanup()
		b.filter = nil
	}
	b.docs = nil
	b.root = ""
}
