// Package tools implements the MCP tool handlers exposed by the bridge.
package tools

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/interfaces"
)

// ToolServer is the subset of server.MCPServer the registration funcs need.
type ToolServer interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
}

// CheckReadyOrReturn gates tools that need a live language server session.
// Returns (nil, true) when the tool may proceed.
func CheckReadyOrReturn(bridge interfaces.BridgeInterface) (*mcp.CallToolResult, bool) {
	if bridge.Ready() {
		return nil, true
	}
	report := bridge.StatusReport()
	msg := fmt.Sprintf("language server not ready (status: %s); call set_workspace first", report.Status)
	if report.LastError != "" {
		msg += "\nlast error: " + report.LastError
	}
	return mcp.NewToolResultError(msg), false
}

func safeUint32(v int) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("value %d out of range", v)
	}
	return uint32(v), nil
}

// requirePosition extracts the file_path/line/character triple shared by the
// positional tools. A non-nil result means the request was malformed.
func requirePosition(request mcp.CallToolRequest) (path string, line, character uint32, errResult *mcp.CallToolResult) {
	path, err := request.RequireString("file_path")
	if err != nil {
		return "", 0, 0, mcp.NewToolResultError(err.Error())
	}
	lineInt, err := request.RequireInt("line")
	if err != nil {
		return "", 0, 0, mcp.NewToolResultError(err.Error())
	}
	charInt, err := request.RequireInt("character")
	if err != nil {
		return "", 0, 0, mcp.NewToolResultError(err.Error())
	}
	if line, err = safeUint32(lineInt); err != nil {
		return "", 0, 0, mcp.NewToolResultError(fmt.Sprintf("Invalid line number: %v", err))
	}
	if character, err = safeUint32(charInt); err != nil {
		return "", 0, 0, mcp.NewToolResultError(fmt.Sprintf("Invalid character position: %v", err))
	}
	return path, line, character, nil
}

func shortName(uri string) string {
	return filepath.Base(strings.TrimPrefix(uri, "file://"))
}

func formatLocations(header string, locations []protocol.Location) string {
	if len(locations) == 0 {
		return header + ":\nNo results found."
	}

	var b strings.Builder
	b.WriteString(header + ":\n")
	fmt.Fprintf(&b, "Count: %d\n\n", len(locations))

	limit := len(locations)
	if limit > 50 {
		limit = 50
	}
	for i := 0; i < limit; i++ {
		loc := locations[i]
		fmt.Fprintf(&b, "%d. %s:%d:%d-%d:%d\n", i+1,
			shortName(string(loc.Uri)),
			loc.Range.Start.Line, loc.Range.Start.Character,
			loc.Range.End.Line, loc.Range.End.Character,
		)
		fmt.Fprintf(&b, "   URI: %s\n", loc.Uri)
	}
	if len(locations) > limit {
		fmt.Fprintf(&b, "\n(Showing first %d of %d)\n", limit, len(locations))
	}
	return b.String()
}
