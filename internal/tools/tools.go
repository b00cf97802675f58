// Package tools exposes the bean property service as MCP tools.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/beanprops-mcp/internal/service"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp *mcp.Server
	svc *service.Service
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(svc *service.Service, version string) *Server {
	srv := &Server{
		svc: svc,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "beanprops-mcp",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. register_project
	s.mcp.AddTool(&mcp.Tool{
		Name:        "register_project",
		Description: "Register a Java project so its bean properties can be queried. Indexes the .java files under the project's source roots (src/main/java, src/test/java, src, or as set in .beanprops.yaml) and imports the binary type catalogs listed there. Re-registering a project drops its cached properties.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name used in later queries. Defaults to the root directory's base name."
				},
				"root_path": {
					"type": "string",
					"description": "Absolute path to the project root"
				}
			},
			"required": ["root_path"]
		}`),
	}, s.handleRegisterProject)

	// 2. list_projects
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List registered projects with their root path, source roots, number of source and catalog types, and cache statistics.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListProjects)

	// 3. close_project
	s.mcp.AddTool(&mcp.Tool{
		Name:        "close_project",
		Description: "Unregister a project and drop everything cached for it. The stored type catalog is kept.",
		InputSchema: projectOnlySchema,
	}, s.handleCloseProject)

	// 4. lookup_properties
	s.mcp.AddTool(&mcp.Tool{
		Name:        "lookup_properties",
		Description: "Return the readable and writable bean properties of a Java type, including inherited ones. Readable properties come from public fields and getters (getX/isX), writable ones from non-final fields and setters (setX). Returns null for ignored library types such as java.lang.String.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "Registered project name"},
				"type": {"type": "string", "description": "Fully qualified type name, e.g. 'com.example.Order'"}
			},
			"required": ["project", "type"]
		}`),
	}, s.handleLookupProperties)

	// 5. resolve_path
	s.mcp.AddTool(&mcp.Tool{
		Name:        "resolve_path",
		Description: "Resolve a dotted property path such as 'customer.address.city' or 'items[0].product' starting at a type. Returns the properties matched by the final segment. Intermediate segments must name readable properties exactly; indexed segments continue into the element type.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "Registered project name"},
				"type": {"type": "string", "description": "Fully qualified type the path starts at"},
				"path": {"type": "string", "description": "Property path"},
				"readable": {"type": "boolean", "description": "Match the final segment against readable (true, default) or writable (false) properties"},
				"strict": {"type": "boolean", "description": "Require an exact final segment name (default true). When false the final segment is a case-insensitive prefix."}
			},
			"required": ["project", "type", "path"]
		}`),
	}, s.handleResolvePath)

	// 6. suggest_properties
	s.mcp.AddTool(&mcp.Tool{
		Name:        "suggest_properties",
		Description: "Complete a partially typed property path. Returns proposals ordered by relevance, each with the full replacement text and a 'name - type' label. Set lsp=true to receive LSP completion items instead.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "Registered project name"},
				"type": {"type": "string", "description": "Fully qualified type the path starts at"},
				"path": {"type": "string", "description": "Partially typed property path (may be empty)"},
				"readable": {"type": "boolean", "description": "Complete readable (true, default) or writable (false) properties"},
				"lsp": {"type": "boolean", "description": "Return LSP CompletionItem objects"}
			},
			"required": ["project", "type"]
		}`),
	}, s.handleSuggestProperties)

	// 7. invalidate_type
	s.mcp.AddTool(&mcp.Tool{
		Name:        "invalidate_type",
		Description: "Evict a type from the property cache together with its nested types and every known subclass. Use after a type changed outside the watched source roots.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "Project name"},
				"type": {"type": "string", "description": "Fully qualified type name"}
			},
			"required": ["project", "type"]
		}`),
	}, s.handleInvalidateType)

	// 8. clear_cache
	s.mcp.AddTool(&mcp.Tool{
		Name:        "clear_cache",
		Description: "Drop all cached properties of one project, or of every project when project is omitted.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "Project name (optional)"}
			}
		}`),
	}, s.handleClearCache)

	// 9. import_catalog
	s.mcp.AddTool(&mcp.Tool{
		Name:        "import_catalog",
		Description: "Import precompiled (binary) type descriptions from a YAML catalog into a project's store. Format: types: [{name, superclass, fields: [{name, type, public, final}], methods: [{name, params, return, public}]}]. Imported types are evicted from the cache.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {"type": "string", "description": "Project name"},
				"catalog": {"type": "string", "description": "Catalog YAML document"},
				"catalog_path": {"type": "string", "description": "Path to a catalog YAML file (used when catalog is empty)"}
			},
			"required": ["project"]
		}`),
	}, s.handleImportCatalog)

	// 10. warm_project
	s.mcp.AddTool(&mcp.Tool{
		Name:        "warm_project",
		Description: "Resolve every known type of a project ahead of time so later queries are served from the cache.",
		InputSchema: projectOnlySchema,
	}, s.handleWarmProject)
}

var projectOnlySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"project": {"type": "string", "description": "Registered project name"}
	},
	"required": ["project"]
}`)

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// serviceErr renders a service error, pointing at register_project for
// unknown projects.
func serviceErr(err error) *mcp.CallToolResult {
	if errors.Is(err, service.ErrUnknownProject) {
		return errResult(err.Error() + " (call register_project first)")
	}
	return errResult(err.Error())
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getBoolArg extracts a boolean argument with a default value.
func getBoolArg(args map[string]any, key string, defaultVal bool) bool {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// requireArgs returns the named string arguments or an error naming the
// first missing one.
func requireArgs(args map[string]any, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = getStringArg(args, k)
		if out[i] == "" {
			return nil, fmt.Errorf("%s is required", k)
		}
	}
	return out, nil
}
