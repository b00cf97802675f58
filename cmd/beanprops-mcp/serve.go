package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/DeusData/beanprops-mcp/internal/service"
	"github.com/DeusData/beanprops-mcp/internal/tools"
	"github.com/DeusData/beanprops-mcp/internal/watcher"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().Bool("watch", true, "poll registered projects for source changes")
	cmd.Flags().Int("warm-workers", service.DefaultWarmWorkers, "concurrent resolutions in warm_project")
	_ = a.v.BindPFlag("watch.enabled", cmd.Flags().Lookup("watch"))
	_ = a.v.BindPFlag("warm.workers", cmd.Flags().Lookup("warm-workers"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, r, err := a.newService()
	if err != nil {
		return err
	}
	defer r.CloseAll()

	if restored := svc.RestoreProjects(ctx); len(restored) > 0 {
		slog.Info("serve.restore", "projects", restored)
	}

	if a.v.GetBool("watch.enabled") {
		w := watcher.New(watchList(svc), func(ctx context.Context, project string, relPaths []string) error {
			_, err := svc.OnFilesChanged(ctx, project, relPaths)
			return err
		})
		go w.Run(ctx)
	}

	srv := tools.NewServer(svc, version)
	slog.Info("serve.start", "version", version, "cache_dir", r.Dir())
	return srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
}

// watchList adapts the service's registered projects to the watcher.
func watchList(svc *service.Service) watcher.ListFunc {
	return func(ctx context.Context) []watcher.Project {
		infos := svc.Projects(ctx)
		out := make([]watcher.Project, 0, len(infos))
		for _, p := range infos {
			out = append(out, watcher.Project{Name: p.Name, RootPath: p.RootPath})
		}
		return out
	}
}
