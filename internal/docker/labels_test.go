package docker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildLabels(t *testing.T) {
	t.Run("with component", func(t *testing.T) {
		labels := BuildLabels("myteam", "run-1", "/srv/workspace", "redis")

		assert.Equal(t, "true", labels[LabelProject])
		assert.Equal(t, "myteam", labels[LabelInstanceName])
		assert.Equal(t, "run-1", labels[LabelInstanceRunID])
		assert.Equal(t, "/srv/workspace", labels[LabelWorkspacePath])
		assert.Equal(t, "redis", labels[LabelComponent])
	})

	t.Run("without component", func(t *testing.T) {
		labels := BuildLabels("myteam", "run-1", "/srv/workspace", "")

		_, hasComponent := labels[LabelComponent]
		assert.False(t, hasComponent)
		assert.Len(t, labels, 4)
	})
}

func TestGenerateRunID(t *testing.T) {
	id := GenerateRunID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, GenerateRunID())
}

func TestResourceNames(t *testing.T) {
	assert.Equal(t, "nightwatch-network-myteam", NetworkName("myteam"))
	assert.Equal(t, "nightwatch-redis-myteam", RedisContainerName("myteam"))
}
