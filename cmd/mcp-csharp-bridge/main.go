// mcp-csharp-bridge is an MCP server that exposes C# code intelligence by
// bridging to the csharp-ls language server over stdio.
package main

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"

	bridgepkg "sharpbridge/mcp-csharp-bridge/bridge"
	"sharpbridge/mcp-csharp-bridge/logger"
	"sharpbridge/mcp-csharp-bridge/mcpserver"
)

var version = "dev"

func main() {
	cfg := bridgepkg.DefaultConfig()
	cfg.ApplyEnvOverrides()

	if err := logger.Init(cfg.Log); err != nil {
		// stderr only: stdout belongs to the MCP transport.
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
	}
	defer logger.Sync()

	b := bridgepkg.New(cfg)
	defer func() {
		if err := b.Shutdown(context.Background()); err != nil {
			logger.Warn("shutdown:", err.Error())
		}
	}()

	// Connect in the background when WORKSPACE_ROOT is configured, so the
	// first tool call does not pay the full startup cost.
	b.AutoConnect(context.Background())

	s := server.NewMCPServer(
		"mcp-csharp-bridge",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	mcpserver.RegisterAllTools(s, b)

	logger.Info("mcp-csharp-bridge starting on stdio, version", version)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("server exited:", err.Error())
		os.Exit(1)
	}
}
