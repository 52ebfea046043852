package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/spf13/cobra"

	dockerpkg "github.com/jonit-dev/night-watch-cli-sub004/internal/docker"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/instance"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/printer"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all night-watch instances",
	Long: `List all night-watch instances by querying Docker for labeled containers.

For each instance, displays:
  • Instance name
  • Status (Running/Degraded/Stopped)
  • Workspace path
  • Uptime (for running instances)

Use --json for machine-readable output.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	containerFilters := filters.NewArgs()
	containerFilters.Add("label", fmt.Sprintf("%s=true", dockerpkg.LabelProject))

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: containerFilters,
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	instances := make(map[string][]types.Container)
	for _, c := range containers {
		name := c.Labels[dockerpkg.LabelInstanceName]
		instances[name] = append(instances[name], c)
	}

	var infos []instance.InstanceInfo
	for name, group := range instances {
		status := instance.DetermineStatus(group)

		uptime := "-"
		if status == instance.StatusRunning {
			uptime = formatDuration(time.Since(time.Unix(group[0].Created, 0)))
		}

		infos = append(infos, instance.InstanceInfo{
			Name:      name,
			Status:    status,
			Workspace: group[0].Labels[dockerpkg.LabelWorkspacePath],
			Uptime:    uptime,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	if len(infos) == 0 {
		if listJSON {
			printer.Println("[]")
		} else {
			printer.Println("No night-watch instances found.")
			printer.Println()
			printer.Println("Run 'nightwatch up' to start a new instance.")
		}
		return nil
	}

	if listJSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		printer.Println(string(data))
		return nil
	}

	printer.Printf("%-15s %-10s %-30s %s\n", "INSTANCE", "STATUS", "WORKSPACE", "UPTIME")
	for _, info := range infos {
		workspace := info.Workspace
		if len(workspace) > 30 {
			workspace = "..." + workspace[len(workspace)-27:]
		}
		printer.Printf("%-15s %-10s %-30s %s\n", info.Name, info.Status, workspace, info.Uptime)
	}

	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
