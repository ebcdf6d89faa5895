package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specvital/jvmtest/pkg/discovery"
	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/launch"
)

var launchFramework string

var launchCmd = &cobra.Command{
	Use:   "launch <project-dir> <test-id>...",
	Short: "Print the launch arguments running the selected test items as JSON",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runLaunch,
}

func init() {
	launchCmd.Flags().StringVar(&launchFramework, "framework", "", "junit4, junit5 or testng; inferred from the selection when empty")
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	var kind domain.FrameworkKind
	if launchFramework != "" {
		k, ok := domain.ParseFrameworkKind(launchFramework)
		if !ok {
			return fmt.Errorf("unknown framework %q", launchFramework)
		}
		kind = k
	}

	ctx := cmd.Context()
	d, projects, err := openProjects(ctx, args[:1])
	if err != nil {
		return err
	}
	p := projects[0]

	resolver := launch.NewResolver([]launch.Project{p.config.Launch()})
	arguments, err := resolver.Resolve(ctx, launch.Request{
		Selection: args[1:],
		Framework: kind,
		Items:     d.Discover(ctx, discovery.Workspace()),
	})
	if err != nil {
		return fmt.Errorf("cannot launch selection: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), arguments)
}
