package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readServers(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var root map[string]any
	require.NoError(t, json.Unmarshal(data, &root))
	servers, _ := root["mcpServers"].(map[string]any)
	return servers
}

func TestInstallEditorMCPPreservesOtherServers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"other": {"command": "x"}}, "theme": "dark"}`), 0o600))

	var out bytes.Buffer
	installEditorMCP("/usr/local/bin/beanprops-mcp", path, "Cursor", installConfig{out: &out})

	servers := readServers(t, path)
	assert.Contains(t, servers, "other")
	entry, ok := servers[mcpServerKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/beanprops-mcp", entry["command"])

	// Idempotent
	installEditorMCP("/usr/local/bin/beanprops-mcp", path, "Cursor", installConfig{out: &out})
	assert.Len(t, readServers(t, path), 2)

	removeEditorMCP(path, "Cursor", installConfig{out: &out})
	servers = readServers(t, path)
	assert.NotContains(t, servers, mcpServerKey)
	assert.Contains(t, servers, "other")
}

func TestInstallEditorMCPInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mcp.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	var out bytes.Buffer
	installEditorMCP("/bin/beanprops-mcp", path, "Windsurf", installConfig{out: &out})
	assert.Contains(t, out.String(), "Invalid JSON")
	assert.Contains(t, readServers(t, path), mcpServerKey)
}

func TestInstallDryRunWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	var out bytes.Buffer
	installEditorMCP("/bin/beanprops-mcp", path, "Cursor", installConfig{dryRun: true, out: &out})
	assert.Contains(t, out.String(), "[dry-run]")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_InstallAndUninstall(t *testing.T) {
	home := t.TempDir()
	setTestHome(t, home)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"install"})
	require.NoError(t, cmd.Execute())

	cursor := filepath.Join(home, ".cursor", "mcp.json")
	windsurf := filepath.Join(home, ".codeium", "windsurf", "mcp_config.json")
	assert.Contains(t, readServers(t, cursor), mcpServerKey)
	assert.Contains(t, readServers(t, windsurf), mcpServerKey)

	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"uninstall"})
	require.NoError(t, cmd.Execute())
	assert.NotContains(t, readServers(t, cursor), mcpServerKey)
	assert.NotContains(t, readServers(t, windsurf), mcpServerKey)
}
