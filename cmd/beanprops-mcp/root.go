package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"

	"github.com/DeusData/beanprops-mcp/internal/service"
	"github.com/DeusData/beanprops-mcp/internal/store"
)

// app carries the process configuration shared by all subcommands.
type app struct {
	v *viper.Viper
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "beanprops-mcp",
		Short: "Java bean property lookup and path completion over MCP",
		Long: `beanprops-mcp resolves the readable and writable bean properties of Java
types from project sources and binary type catalogs, resolves dotted property
paths such as customer.address.city, and proposes completions. Without a
subcommand it serves the MCP tools over stdio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default ./beanprops.yaml or ~/.config/beanprops/beanprops.yaml)")
	flags.String("cache-dir", "", "directory of the per-project catalog databases (default ~/.cache/beanprops-mcp)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Int("max-depth", 0, "maximum superclass depth per lookup (default 64)")
	_ = a.v.BindPFlag("cache_dir", flags.Lookup("cache-dir"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("max_depth", flags.Lookup("max-depth"))

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newLookupCommand(a))
	rootCmd.AddCommand(newPathCommand(a))
	rootCmd.AddCommand(newSuggestCommand(a))
	rootCmd.AddCommand(newImportCatalogCommand(a))
	rootCmd.AddCommand(newProjectsCommand(a))
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newUninstallCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// init loads the config file and environment, then configures logging.
func (a *app) init(cmd *cobra.Command) error {
	v := a.v
	v.SetDefault("cache_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("watch.enabled", true)
	v.SetDefault("warm.workers", service.DefaultWarmWorkers)
	v.SetDefault("max_depth", 0)

	v.SetEnvPrefix("BEANPROPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("beanprops")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "beanprops"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return zerr.Wrap(err, "read config")
		}
	}

	// stdout carries the MCP protocol; logs go to stderr.
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(v.GetString("log.level"))})
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// router opens the catalog router in the configured cache directory.
func (a *app) router() (*store.StoreRouter, error) {
	if dir := a.v.GetString("cache_dir"); dir != "" {
		return store.NewRouterWithDir(dir)
	}
	return store.NewRouter()
}

// newService creates a service over a fresh router. The caller closes the router.
func (a *app) newService() (*service.Service, *store.StoreRouter, error) {
	r, err := a.router()
	if err != nil {
		return nil, nil, err
	}
	svc := service.New(r,
		service.WithLogger(slog.Default()),
		service.WithWarmWorkers(a.v.GetInt("warm.workers")),
		service.WithMaxDepth(a.v.GetInt("max_depth")),
	)
	return svc, r, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "beanprops-mcp", version)
		},
	}
}
