package instance

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	dockerpkg "github.com/jonit-dev/night-watch-cli-sub004/internal/docker"
)

// GetCanonicalWorkspacePath gets the absolute, canonical workspace path from
// the Git repository. This path is used for workspace collision detection.
func GetCanonicalWorkspacePath() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git root: %w", err)
	}

	gitRoot := strings.TrimSpace(string(output))

	realPath, err := filepath.EvalSymlinks(gitRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlinks: %w", err)
	}

	absPath, err := filepath.Abs(realPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// WorkspaceCollision represents a workspace collision with another instance
type WorkspaceCollision struct {
	InstanceName  string
	WorkspacePath string
	ContainerID   string
}

// CheckWorkspaceCollision checks if any other instance is using the given
// workspace path. Returns a collision object if found, or nil if no
// collision. The currentInstanceName parameter excludes the instance being
// created or updated from the check.
func CheckWorkspaceCollision(ctx context.Context, cli *client.Client, workspacePath, currentInstanceName string) (*WorkspaceCollision, error) {
	filter := filters.NewArgs()
	filter.Add("label", fmt.Sprintf("%s=true", dockerpkg.LabelProject))

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		containerInstance := c.Labels[dockerpkg.LabelInstanceName]
		if containerInstance == currentInstanceName {
			continue
		}
		if c.Labels[dockerpkg.LabelWorkspacePath] == workspacePath {
			return &WorkspaceCollision{
				InstanceName:  containerInstance,
				WorkspacePath: workspacePath,
				ContainerID:   c.ID,
			}, nil
		}
	}

	return nil, nil
}
