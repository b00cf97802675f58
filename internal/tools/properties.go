package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/beanprops-mcp/internal/suggest"
)

func (s *Server) handleLookupProperties(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	vals, err := requireArgs(args, "project", "type")
	if err != nil {
		return errResult(err.Error()), nil
	}

	info, err := s.svc.LookupProperties(ctx, vals[0], vals[1])
	if err != nil {
		return serviceErr(err), nil
	}
	return jsonResult(map[string]any{
		"project":    vals[0],
		"type":       vals[1],
		"ignored":    info == nil,
		"properties": info,
	}), nil
}

func (s *Server) handleResolvePath(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	vals, err := requireArgs(args, "project", "type")
	if err != nil {
		return errResult(err.Error()), nil
	}
	if _, ok := args["path"]; !ok {
		return errResult("path is required"), nil
	}
	path := getStringArg(args, "path")
	readable := getBoolArg(args, "readable", true)
	strict := getBoolArg(args, "strict", true)

	fields, err := s.svc.ResolvePath(ctx, vals[0], vals[1], path, readable, strict)
	if err != nil {
		return serviceErr(err), nil
	}
	return jsonResult(map[string]any{
		"type":     vals[1],
		"path":     path,
		"readable": readable,
		"strict":   strict,
		"matches":  fields,
	}), nil
}

func (s *Server) handleSuggestProperties(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	vals, err := requireArgs(args, "project", "type")
	if err != nil {
		return errResult(err.Error()), nil
	}
	path := getStringArg(args, "path")

	proposals, err := s.svc.Suggest(ctx, vals[0], vals[1], path, getBoolArg(args, "readable", true))
	if err != nil {
		return serviceErr(err), nil
	}
	if getBoolArg(args, "lsp", false) {
		return jsonResult(suggest.CompletionItems(proposals, nil)), nil
	}
	return jsonResult(proposals), nil
}

func (s *Server) handleInvalidateType(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	vals, err := requireArgs(args, "project", "type")
	if err != nil {
		return errResult(err.Error()), nil
	}
	evicted := s.svc.OnTypeChanged(ctx, vals[0], vals[1])
	if evicted == nil {
		evicted = []string{}
	}
	return jsonResult(map[string]any{
		"project": vals[0],
		"evicted": evicted,
	}), nil
}

func (s *Server) handleClearCache(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	project := getStringArg(args, "project")
	if project == "" {
		s.svc.OnCacheCleared()
		return jsonResult(map[string]any{"cleared": "all"}), nil
	}
	s.svc.OnProjectClosed(project)
	return jsonResult(map[string]any{"cleared": project}), nil
}
