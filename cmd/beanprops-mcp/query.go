package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DeusData/beanprops-mcp/internal/service"
	"github.com/DeusData/beanprops-mcp/internal/suggest"
)

// projectFlags select the project a one-shot query runs against.
type projectFlags struct {
	root     string
	project  string
	writable bool
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", ".", "project root directory")
	cmd.Flags().StringVar(&f.project, "project", "", "project name (default: base name of the root)")
	cmd.Flags().BoolVar(&f.writable, "writable", false, "use writable instead of readable properties")
}

func (f *projectFlags) name() (string, error) {
	if f.project != "" {
		return f.project, nil
	}
	abs, err := filepath.Abs(f.root)
	if err != nil {
		return "", err
	}
	return filepath.Base(abs), nil
}

// withProject registers the project in a fresh service and runs fn.
func (a *app) withProject(ctx context.Context, f *projectFlags, fn func(svc *service.Service, project string) error) error {
	name, err := f.name()
	if err != nil {
		return err
	}
	svc, r, err := a.newService()
	if err != nil {
		return err
	}
	defer r.CloseAll()
	if _, err := svc.RegisterProject(ctx, name, f.root); err != nil {
		return err
	}
	return fn(svc, name)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func newLookupCommand(a *app) *cobra.Command {
	f := &projectFlags{}
	cmd := &cobra.Command{
		Use:   "lookup TYPE",
		Short: "Print the readable and writable properties of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProject(cmd.Context(), f, func(svc *service.Service, project string) error {
				info, err := svc.LookupProperties(cmd.Context(), project, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), info)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newPathCommand(a *app) *cobra.Command {
	f := &projectFlags{}
	var prefix bool
	cmd := &cobra.Command{
		Use:   "path TYPE PATH",
		Short: "Resolve a dotted property path and print the matching properties",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProject(cmd.Context(), f, func(svc *service.Service, project string) error {
				fields, err := svc.ResolvePath(cmd.Context(), project, args[0], args[1], !f.writable, !prefix)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), fields)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&prefix, "prefix", false, "match the final segment as a case-insensitive prefix")
	return cmd
}

func newSuggestCommand(a *app) *cobra.Command {
	f := &projectFlags{}
	var lsp bool
	cmd := &cobra.Command{
		Use:   "suggest TYPE [PATH]",
		Short: "Print completion proposals for a partially typed property path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return a.withProject(cmd.Context(), f, func(svc *service.Service, project string) error {
				proposals, err := svc.Suggest(cmd.Context(), project, args[0], path, !f.writable)
				if err != nil {
					return err
				}
				if lsp {
					return printJSON(cmd.OutOrStdout(), suggest.CompletionItems(proposals, nil))
				}
				return printJSON(cmd.OutOrStdout(), proposals)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&lsp, "lsp", false, "print LSP completion items")
	return cmd
}
