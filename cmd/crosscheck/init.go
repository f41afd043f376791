package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// crosscheckMCPEntry is the MCP server configuration for the crosscheck binary.
var crosscheckMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "crosscheck"
}`)

// starterConfig is written as crosscheck.yml when none exists. Keys left
// empty fall back to OPENAI_API_KEY / GEMINI_API_KEY in the environment.
const starterConfig = `# crosscheck configuration
#
# API keys may live here or in the environment (OPENAI_API_KEY,
# GEMINI_API_KEY). A backend with no key anywhere stays disabled.

openai:
  model: gpt-4o
  queue:
    concurrency: 2
    requestsPerMinute: 60

gemini:
  model: gemini-2.0-flash
  queue:
    concurrency: 2
    requestsPerMinute: 60

cache:
  capacity: 1000
  ttlSeconds: 3600

status:
  ttlSeconds: 3600
  sweepIntervalSeconds: 300

# Uncomment to persist cache and status across restarts.
# dbPath: .crosscheck/crosscheck.db
`

// runInit writes a starter crosscheck.yml and registers the crosscheck MCP
// server in the project's .mcp.json.
func runInit(dir string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving config dir: %w", err)
	}

	configPath := filepath.Join(abs, "crosscheck.yml")
	mcpPath := filepath.Join(abs, ".mcp.json")

	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Printf("  skipped %s (exists, use -force to overwrite)\n", dotRelative(abs, configPath))
	} else {
		if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", configPath, err)
		}
		fmt.Printf("  created %s\n", dotRelative(abs, configPath))
	}

	if err := mergeMCPConfig(mcpPath, force); err != nil {
		return err
	}

	fmt.Println("\nSetup complete. The crosscheck MCP server is ready.")
	return nil
}

// mergeMCPConfig creates or merges the crosscheck entry into .mcp.json.
func mergeMCPConfig(mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["crosscheck"]; exists && !force {
		fmt.Printf("  skipped .mcp.json crosscheck entry (exists, use -force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["crosscheck"] = crosscheckMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Printf("  %s .mcp.json with crosscheck MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the base directory, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
