// Package mocks provides a testify mock of the bridge for tool tests.
package mocks

import (
	"context"

	protocol "github.com/myleshyson/lsprotocol-go/protocol"
	"github.com/stretchr/testify/mock"

	"sharpbridge/mcp-csharp-bridge/interfaces"
	"sharpbridge/mcp-csharp-bridge/lsp"
	"sharpbridge/mcp-csharp-bridge/xaml"
)

type MockBridge struct {
	mock.Mock
}

var _ interfaces.BridgeInterface = (*MockBridge)(nil)

func (m *MockBridge) SetWorkspace(ctx context.Context, root string) error {
	args := m.Called(ctx, root)
	return args.Error(0)
}

func (m *MockBridge) WorkspaceRoot() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBridge) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockBridge) StatusReport() interfaces.StatusReport {
	args := m.Called()
	return args.Get(0).(interfaces.StatusReport)
}

func (m *MockBridge) Hover(ctx context.Context, path string, line, character uint32) (*protocol.Hover, error) {
	args := m.Called(ctx, path, line, character)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*protocol.Hover), args.Error(1)
}

func (m *MockBridge) Completion(ctx context.Context, path string, line, character uint32) ([]protocol.CompletionItem, error) {
	args := m.Called(ctx, path, line, character)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]protocol.CompletionItem), args.Error(1)
}

func (m *MockBridge) Definition(ctx context.Context, path string, line, character uint32) ([]protocol.Location, error) {
	args := m.Called(ctx, path, line, character)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]protocol.Location), args.Error(1)
}

func (m *MockBridge) References(ctx context.Context, path string, line, character uint32, includeDeclaration bool) ([]protocol.Location, error) {
	args := m.Called(ctx, path, line, character, includeDeclaration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]protocol.Location), args.Error(1)
}

func (m *MockBridge) DocumentSymbols(ctx context.Context, path string) ([]protocol.DocumentSymbol, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]protocol.DocumentSymbol), args.Error(1)
}

func (m *MockBridge) CodeActions(ctx context.Context, path string, startLine, startChar, endLine, endChar uint32) ([]protocol.CodeAction, error) {
	args := m.Called(ctx, path, startLine, startChar, endLine, endChar)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]protocol.CodeAction), args.Error(1)
}

func (m *MockBridge) Rename(ctx context.Context, path string, line, character uint32, newName string) (*protocol.WorkspaceEdit, error) {
	args := m.Called(ctx, path, line, character, newName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*protocol.WorkspaceEdit), args.Error(1)
}

func (m *MockBridge) Diagnostics(ctx context.Context, path string, wait bool) (*lsp.DiagnosticSnapshot, error) {
	args := m.Called(ctx, path, wait)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lsp.DiagnosticSnapshot), args.Error(1)
}

func (m *MockBridge) CloseDocument(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockBridge) AnalyzeXAML(path string) ([]xaml.Finding, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]xaml.Finding), args.Error(1)
}

func (m *MockBridge) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
