package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/git"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/scaffold"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new night-watch project",
	Long: `Initialize a new night-watch project with a default configuration.

Creates:
  • nightwatch.yml - instance, Slack, generator, persona and project configuration

This command must be run from the root of a Git repository.

Use --force to reinitialize an existing project (WARNING: overwrites existing configuration).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Force reinitialization (overwrites existing nightwatch.yml)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	checker := git.NewChecker()
	if err := checker.ValidateGitContext(); err != nil {
		return err
	}

	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess()
	return nil
}
