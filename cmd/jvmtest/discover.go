package main

import (
	"github.com/spf13/cobra"

	"github.com/specvital/jvmtest/pkg/discovery"
)

var (
	discoverScope   string
	discoverName    string
	discoverProject string
)

var discoverCmd = &cobra.Command{
	Use:   "discover [project-dir...]",
	Short: "Print the test item forest of a scope as JSON",
	Long: `Index the Java sources of one or more projects and print their test items.

Scopes:
  workspace  one item per project
  project    the package items of a project
  package    the classes of the package given by --name
  file       the classes of the file given by --name (URI or path relative to the project)
  type       one class given by its qualified name in --name`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverScope, "scope", string(discovery.ScopeWorkspace), "Scope kind")
	discoverCmd.Flags().StringVar(&discoverName, "name", "", "Package, file or type name of the scope")
	discoverCmd.Flags().StringVar(&discoverProject, "project", "", "Restrict the scope to one project")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	kind, err := discovery.ParseScopeKind(discoverScope)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	ctx := cmd.Context()
	d, _, err := openProjects(ctx, args)
	if err != nil {
		return err
	}

	scope := discovery.Scope{Kind: kind, Project: discoverProject, Name: discoverName}
	return writeJSON(cmd.OutOrStdout(), d.Discover(ctx, scope))
}
