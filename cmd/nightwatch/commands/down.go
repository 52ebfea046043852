package commands

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/spf13/cobra"

	dockerpkg "github.com/jonit-dev/night-watch-cli-sub004/internal/docker"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/instance"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/printer"
)

var downInstanceName string

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop a night-watch instance",
	Long: `Stop and remove all Docker resources associated with a night-watch instance.

This includes:
  • The Redis container
  • The Docker network

The instance name is auto-inferred from the current workspace if not specified.
The command does not prompt for confirmation and executes immediately.

Examples:
  # Stop the instance for current workspace
  nightwatch down

  # Stop a specific instance
  nightwatch down --name prod-instance`,
	RunE: runDown,
}

func init() {
	downCmd.Flags().StringVarP(&downInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName := downInstanceName
	if targetInstanceName == "" {
		targetInstanceName, err = instance.InferInstanceFromWorkspace(ctx, cli)
		if err != nil {
			if err.Error() == "no nightwatch instances found for this workspace" {
				return printer.Error(
					"no night-watch instances found",
					"No running instances found for this workspace.",
					[]string{"Start an instance first:\n  nightwatch up"},
				)
			}
			if err.Error() == "multiple instances found for this workspace, use --name to specify which one" {
				return printer.Error(
					"multiple instances found",
					"Found multiple running instances for this workspace.",
					[]string{
						"Specify which instance to stop:\n  nightwatch down --name <instance-name>",
						"List instances:\n  nightwatch list",
					},
				)
			}
			return fmt.Errorf("failed to infer instance: %w", err)
		}
	}

	containerFilters := filters.NewArgs()
	containerFilters.Add("label", fmt.Sprintf("%s=%s", dockerpkg.LabelInstanceName, targetInstanceName))

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: containerFilters,
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	if len(containers) == 0 {
		return printer.Error(
			fmt.Sprintf("instance '%s' not found", targetInstanceName),
			fmt.Sprintf("No containers found with instance name '%s'.", targetInstanceName),
			[]string{"Run 'nightwatch list' to see available instances"},
		)
	}

	// 10s graceful stop, then force removal
	timeout := 10
	for _, c := range containers {
		containerName := c.Names[0]
		printer.Step("Stopping %s...\n", containerName)
		if err := cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout}); err != nil {
			printer.Warning("failed to stop %s: %v\n", containerName, err)
		}
	}

	for _, c := range containers {
		containerName := c.Names[0]
		printer.Step("Removing %s...\n", containerName)
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			return fmt.Errorf("failed to remove %s: %w", containerName, err)
		}
	}

	networkFilters := filters.NewArgs()
	networkFilters.Add("label", fmt.Sprintf("%s=%s", dockerpkg.LabelInstanceName, targetInstanceName))

	networks, err := cli.NetworkList(ctx, types.NetworkListOptions{
		Filters: networkFilters,
	})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}

	for _, net := range networks {
		printer.Step("Removing network %s...\n", net.Name)
		if err := cli.NetworkRemove(ctx, net.ID); err != nil {
			return fmt.Errorf("failed to remove network %s: %w", net.Name, err)
		}
	}

	printer.Success("\nInstance '%s' removed successfully\n", targetInstanceName)
	return nil
}
