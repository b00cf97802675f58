package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleRegisterProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	root := getStringArg(args, "root_path")
	if root == "" {
		return errResult("root_path is required"), nil
	}
	name := getStringArg(args, "project")
	if name == "" {
		name = filepath.Base(filepath.Clean(root))
	}

	info, err := s.svc.RegisterProject(ctx, name, root)
	if err != nil {
		return errResult(fmt.Sprintf("register failed: %v", err)), nil
	}
	return jsonResult(info), nil
}

func (s *Server) handleListProjects(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Projects(ctx)), nil
}

func (s *Server) handleCloseProject(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	vals, err := requireArgs(args, "project")
	if err != nil {
		return errResult(err.Error()), nil
	}
	if err := s.svc.CloseProject(vals[0]); err != nil {
		return serviceErr(err), nil
	}
	return jsonResult(map[string]any{
		"closed": vals[0],
		"status": "ok",
	}), nil
}

func (s *Server) handleImportCatalog(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	vals, err := requireArgs(args, "project")
	if err != nil {
		return errResult(err.Error()), nil
	}

	var r io.Reader
	if doc := getStringArg(args, "catalog"); doc != "" {
		r = strings.NewReader(doc)
	} else if path := getStringArg(args, "catalog_path"); path != "" {
		f, openErr := os.Open(path)
		if openErr != nil {
			return errResult(fmt.Sprintf("open catalog: %v", openErr)), nil
		}
		defer f.Close()
		r = f
	} else {
		return errResult("catalog or catalog_path is required"), nil
	}

	names, err := s.svc.ImportCatalog(ctx, vals[0], r)
	if err != nil {
		return errResult(fmt.Sprintf("import failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"project":  vals[0],
		"imported": names,
	}), nil
}

func (s *Server) handleWarmProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	vals, err := requireArgs(args, "project")
	if err != nil {
		return errResult(err.Error()), nil
	}
	n, err := s.svc.Warm(ctx, vals[0])
	if err != nil {
		return serviceErr(err), nil
	}
	return jsonResult(map[string]any{
		"project":  vals[0],
		"resolved": n,
		"cache":    s.svc.Cache().Stats(vals[0]),
	}), nil
}
