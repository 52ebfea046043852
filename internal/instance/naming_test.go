package instance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	valid := []string{"prod", "staging-1", "default-123", "a"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := map[string]string{
		"":         "cannot be empty",
		"Prod":     "must be lowercase",
		"-prod":    "not at start/end",
		"prod-":    "not at start/end",
		"prod_env": "must be lowercase alphanumeric",
		"prod@1":   "must be lowercase alphanumeric",
	}
	for name, wantMsg := range invalid {
		err := ValidateName(name)
		assert.Error(t, err, name)
		assert.Contains(t, err.Error(), wantMsg)
	}
}

func TestValidateNameLengthBoundary(t *testing.T) {
	at := strings.Repeat("a", MaxNameLength)
	assert.NoError(t, ValidateName(at))

	over := strings.Repeat("a", MaxNameLength+1)
	err := ValidateName(over)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "too long")
}
