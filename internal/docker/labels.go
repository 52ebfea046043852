package docker

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys used for nightwatch resources
const (
	LabelProject       = "nightwatch.project"
	LabelInstanceName  = "nightwatch.instance.name"
	LabelInstanceRunID = "nightwatch.instance.run_id"
	LabelWorkspacePath = "nightwatch.workspace.path"
	LabelComponent     = "nightwatch.component"
	LabelRedisPort     = "nightwatch.redis.port"
)

// BuildLabels creates the standard label set for all nightwatch resources.
// All parameters are required except component (which is resource-specific).
func BuildLabels(instanceName, runID, workspacePath, component string) map[string]string {
	labels := map[string]string{
		LabelProject:       "true",
		LabelInstanceName:  instanceName,
		LabelInstanceRunID: runID,
		LabelWorkspacePath: workspacePath,
	}

	if component != "" {
		labels[LabelComponent] = component
	}

	return labels
}

// GenerateRunID creates a new UUID for an instance run.
// Each invocation of `nightwatch up` gets a unique run ID.
func GenerateRunID() string {
	return uuid.New().String()
}

// NetworkName returns the Docker network name for an instance
func NetworkName(instanceName string) string {
	return fmt.Sprintf("nightwatch-network-%s", instanceName)
}

// RedisContainerName returns the Redis container name for an instance
func RedisContainerName(instanceName string) string {
	return fmt.Sprintf("nightwatch-redis-%s", instanceName)
}
