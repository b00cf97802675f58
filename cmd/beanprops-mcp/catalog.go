package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCatalogCommand(a *app) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "import-catalog FILE",
		Short: "Import a YAML binary type catalog into a project's store",
		Long: `Import precompiled type descriptions into the project's catalog database.

Format:
  types:
    - name: com.example.Money
      superclass: com.example.Value
      fields:
        - {name: amount, type: long, public: false, final: true}
      methods:
        - {name: getAmount, return: long, public: true}
        - {name: setAmount, params: [long], public: true}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if project == "" {
				return fmt.Errorf("--project is required")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			svc, r, err := a.newService()
			if err != nil {
				return err
			}
			defer r.CloseAll()
			names, err := svc.ImportCatalog(cmd.Context(), project, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d types into %s\n", len(names), project)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name")
	return cmd
}

func newProjectsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects with a catalog database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.router()
			if err != nil {
				return err
			}
			defer r.CloseAll()
			infos, err := r.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), infos)
		},
	}
}
