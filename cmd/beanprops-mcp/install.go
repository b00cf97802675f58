package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

// installConfig holds settings for the install/uninstall commands.
type installConfig struct {
	dryRun bool
	out    io.Writer
}

const mcpServerKey = "beanprops-mcp"

// editor is an MCP client configured through a JSON file with an mcpServers map.
type editor struct {
	name string
	path func() string
}

var editors = []editor{
	{name: "Cursor", path: cursorConfigPath},
	{name: "Windsurf", path: windsurfConfigPath},
}

func newInstallCommand() *cobra.Command {
	cfg := installConfig{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register the MCP server in Cursor and Windsurf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.out = cmd.OutOrStdout()
			binaryPath, err := detectBinaryPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cfg.out, "beanprops-mcp %s install\nBinary: %s\n\n", version, binaryPath)
			for _, e := range editors {
				installEditorMCP(binaryPath, e.path(), e.name, cfg)
			}
			fmt.Fprintln(cfg.out, "\nDone. Restart your editor to activate.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.dryRun, "dry-run", false, "print what would change without writing")
	return cmd
}

func newUninstallCommand() *cobra.Command {
	cfg := installConfig{}
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the MCP server from Cursor and Windsurf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.out = cmd.OutOrStdout()
			for _, e := range editors {
				removeEditorMCP(e.path(), e.name, cfg)
			}
			fmt.Fprintln(cfg.out, "\nDone. Binary and databases were NOT removed.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.dryRun, "dry-run", false, "print what would change without writing")
	return cmd
}

// detectBinaryPath resolves the current binary's real path.
func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", zerr.Wrap(err, "detect binary")
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", zerr.Wrap(err, "resolve symlink")
	}
	return resolved, nil
}

// cursorConfigPath returns the Cursor MCP config path.
func cursorConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cursor", "mcp.json")
}

// windsurfConfigPath returns the Windsurf MCP config path.
func windsurfConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codeium", "windsurf", "mcp_config.json")
}

// installEditorMCP upserts our MCP server entry in an editor's JSON config file.
func installEditorMCP(binaryPath, configPath, editorName string, cfg installConfig) {
	if configPath == "" {
		return
	}

	fmt.Fprintf(cfg.out, "[%s] MCP config: %s\n", editorName, configPath)

	if cfg.dryRun {
		fmt.Fprintf(cfg.out, "  [dry-run] Would upsert %s in %s\n", mcpServerKey, configPath)
		return
	}

	root := make(map[string]any)
	if data, err := os.ReadFile(configPath); err == nil {
		if jsonErr := json.Unmarshal(data, &root); jsonErr != nil {
			fmt.Fprintf(cfg.out, "  ! Invalid JSON in %s, overwriting\n", configPath)
			root = make(map[string]any)
		}
	}

	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	servers[mcpServerKey] = map[string]any{
		"command": binaryPath,
		"args":    []string{"serve"},
	}
	root["mcpServers"] = servers

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		fmt.Fprintf(cfg.out, "  ! mkdir %s: %v\n", filepath.Dir(configPath), err)
		return
	}
	if err := writeJSON(configPath, root); err != nil {
		fmt.Fprintf(cfg.out, "  ! %v\n", err)
		return
	}
	fmt.Fprintf(cfg.out, "  MCP server registered in %s\n", configPath)
}

// removeEditorMCP removes our MCP server entry from an editor's JSON config file.
func removeEditorMCP(configPath, editorName string, cfg installConfig) {
	if configPath == "" {
		return
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return // no config file, nothing to remove
	}

	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return
	}

	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		return
	}
	if _, exists := servers[mcpServerKey]; !exists {
		return
	}

	fmt.Fprintf(cfg.out, "[%s] MCP config: %s\n", editorName, configPath)

	if cfg.dryRun {
		fmt.Fprintf(cfg.out, "  [dry-run] Would remove %s from %s\n", mcpServerKey, configPath)
		return
	}

	delete(servers, mcpServerKey)
	root["mcpServers"] = servers
	if err := writeJSON(configPath, root); err != nil {
		fmt.Fprintf(cfg.out, "  ! %v\n", err)
		return
	}
	fmt.Fprintf(cfg.out, "  Removed %s from %s\n", mcpServerKey, configPath)
}

func writeJSON(path string, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "marshal JSON")
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o600); err != nil {
		return zerr.With(zerr.Wrap(err, "write config"), "path", path)
	}
	return nil
}
