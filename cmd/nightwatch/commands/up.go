package commands

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/spf13/cobra"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/config"
	dockerpkg "github.com/jonit-dev/night-watch-cli-sub004/internal/docker"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/git"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/instance"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/printer"
)

const redisImage = "redis:7-alpine"

var (
	upInstanceName string
	upForce        bool
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start a night-watch instance",
	Long: `Start a new night-watch instance in the current Git repository.

Creates and starts:
  • Isolated Docker network
  • Redis container (discussion storage)

The instance name is auto-generated (default-N) unless specified with --name.
Workspace safety checks prevent multiple instances on the same directory unless --force is used.`,
	RunE: runUp,
}

func init() {
	upCmd.Flags().StringVar(&upInstanceName, "name", "", "Instance name (auto-generated if omitted)")
	upCmd.Flags().BoolVar(&upForce, "force", false, "Bypass workspace collision check")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	checker := git.NewChecker()
	if err := checker.ValidateGitContext(); err != nil {
		return err
	}

	if _, err := config.Load(configPath); err != nil {
		return fmt.Errorf(`nightwatch.yml not found or invalid

Initialize your project first:
  nightwatch init

Then retry: nightwatch up

Error details: %w`, err)
	}

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName := upInstanceName
	if targetInstanceName == "" {
		targetInstanceName, err = instance.GenerateDefaultName(ctx, cli)
		if err != nil {
			return fmt.Errorf("failed to generate instance name: %w", err)
		}
	}

	if err := instance.ValidateName(targetInstanceName); err != nil {
		return err
	}

	nameCollision, err := instance.CheckNameCollision(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	if nameCollision {
		return fmt.Errorf(`instance '%s' already exists

Either:
  1. Stop the existing instance: nightwatch down --name %s
  2. Choose a different name: nightwatch up --name other-name`, targetInstanceName, targetInstanceName)
	}

	workspacePath, err := instance.GetCanonicalWorkspacePath()
	if err != nil {
		return fmt.Errorf("failed to get workspace path: %w", err)
	}

	if !upForce {
		collision, err := instance.CheckWorkspaceCollision(ctx, cli, workspacePath, targetInstanceName)
		if err != nil {
			return fmt.Errorf("failed to check workspace collision: %w", err)
		}
		if collision != nil {
			return fmt.Errorf(`workspace in use

Another instance '%s' is already running on this workspace:
  Workspace: %s

Either:
  1. Stop the other instance: nightwatch down --name %s
  2. Use --force to bypass this check (not recommended)`, collision.InstanceName, collision.WorkspacePath, collision.InstanceName)
		}
	}

	runID := dockerpkg.GenerateRunID()
	redisPort, err := createInstance(ctx, cli, targetInstanceName, runID, workspacePath)
	if err != nil {
		printer.Warning("\nResource creation failed. Rolling back...\n")
		if rollbackErr := rollbackInstance(ctx, cli, targetInstanceName); rollbackErr != nil {
			printer.Warning("rollback encountered errors: %v\n", rollbackErr)
		}
		return fmt.Errorf("failed to create instance: %w", err)
	}

	printUpSuccess(targetInstanceName, workspacePath, redisPort)
	return nil
}

func createInstance(ctx context.Context, cli *client.Client, instanceName, runID, workspacePath string) (int, error) {
	redisPort, err := instance.FindNextAvailablePort(ctx, cli)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate Redis port: %w", err)
	}
	printer.Step("Allocated Redis port: %d\n", redisPort)

	networkName := dockerpkg.NetworkName(instanceName)
	if _, err := cli.NetworkCreate(ctx, networkName, types.NetworkCreate{
		Driver: "bridge",
		Labels: dockerpkg.BuildLabels(instanceName, runID, workspacePath, ""),
	}); err != nil {
		return 0, fmt.Errorf("failed to create network '%s': %w", networkName, err)
	}
	printer.Step("Created network: %s\n", networkName)

	redisName := dockerpkg.RedisContainerName(instanceName)
	redisLabels := dockerpkg.BuildLabels(instanceName, runID, workspacePath, "redis")
	redisLabels[dockerpkg.LabelRedisPort] = fmt.Sprintf("%d", redisPort)

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image:  redisImage,
		Labels: redisLabels,
		ExposedPorts: nat.PortSet{
			"6379/tcp": struct{}{},
		},
	}, &container.HostConfig{
		NetworkMode: container.NetworkMode(networkName),
		PortBindings: nat.PortMap{
			"6379/tcp": []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: fmt.Sprintf("%d", redisPort),
				},
			},
		},
	}, nil, nil, redisName)
	if err != nil {
		return 0, fmt.Errorf("failed to create Redis container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return 0, fmt.Errorf("failed to start Redis container: %w", err)
	}
	printer.Step("Started Redis container: %s (port %d)\n", redisName, redisPort)

	return redisPort, nil
}

func rollbackInstance(ctx context.Context, cli *client.Client, instanceName string) error {
	timeout := 10

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=%s", dockerpkg.LabelInstanceName, instanceName)),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		_ = cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout})
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			printer.Warning("failed to remove %s: %v\n", c.Names[0], err)
		}
	}

	networks, err := cli.NetworkList(ctx, types.NetworkListOptions{
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=%s", dockerpkg.LabelInstanceName, instanceName)),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}

	for _, net := range networks {
		if err := cli.NetworkRemove(ctx, net.ID); err != nil {
			printer.Warning("failed to remove network %s: %v\n", net.Name, err)
		}
	}

	return nil
}

func printUpSuccess(instanceName, workspacePath string, redisPort int) {
	printer.Success("\nInstance '%s' started successfully\n\n", instanceName)
	printer.Printf("Containers:\n")
	printer.Printf("  • %s (running, port %d)\n", dockerpkg.RedisContainerName(instanceName), redisPort)
	printer.Printf("\nNetwork:\n")
	printer.Printf("  • %s\n", dockerpkg.NetworkName(instanceName))
	printer.Printf("\nWorkspace: %s\n\n", workspacePath)
	printer.Printf("Next steps:\n")
	printer.Printf("  1. Point redis.addr in nightwatch.yml at %s\n", instance.GetRedisAddr(redisPort))
	printer.Printf("  2. Run 'nightwatch serve' to start the listener\n")
	printer.Printf("  3. Run 'nightwatch down --name %s' when finished\n", instanceName)
}
