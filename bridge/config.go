package bridge

import (
	"os"
	"strconv"
	"strings"

	"sharpbridge/mcp-csharp-bridge/logger"
	"sharpbridge/mcp-csharp-bridge/lsp"
	"sharpbridge/mcp-csharp-bridge/workspace"
)

// Config gathers everything the bridge needs at startup. Values come from
// defaults, then environment overrides, in that order.
type Config struct {
	Server           lsp.ServerConfig
	Log              logger.Config
	WorkspaceRoot    string
	SolutionDenylist []string
}

func DefaultConfig() Config {
	return Config{
		Server: lsp.ServerConfig{
			CandidatePaths: lsp.DefaultCandidatePaths(),
			Mode:           "stdio",
		},
		Log: logger.Config{
			Level: "info",
		},
		SolutionDenylist: workspace.DefaultProjectDenylist(),
	}
}

// ApplyEnvOverrides layers environment configuration over the config.
// Path values may reference other variables with ${VAR} syntax.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("WORKSPACE_ROOT"); v != "" {
		c.WorkspaceRoot = os.ExpandEnv(v)
	}
	if v := os.Getenv("MCP_CSHARP_LS_PATH"); v != "" {
		c.Server.Command = os.ExpandEnv(v)
	}
	if v := os.Getenv("MCP_CSHARP_LS_ARGS"); v != "" {
		c.Server.Args = strings.Fields(v)
	}
	if v := os.Getenv("MCP_LSP_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("MCP_LSP_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("MCP_LSP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			logger.Warn("ignoring non-numeric MCP_LSP_PORT:", v)
		}
	}
	if v := os.Getenv("MCP_LOG_PATH"); v != "" {
		c.Log.Path = os.ExpandEnv(v)
	}
	if v := os.Getenv("MCP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MCP_SLN_DENYLIST"); v != "" {
		c.SolutionDenylist = splitDenylist(v)
	}
}

// splitDenylist parses a comma-separated extension list, normalizing
// entries to a leading dot. An unset or empty variable leaves the default
// denylist in place; filtering cannot be disabled from the environment.
func splitDenylist(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, strings.ToLower(part))
	}
	return out
}
