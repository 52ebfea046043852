package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("error carries only the title", func(t *testing.T) {
		err := Error("redis unreachable", "Could not connect to the discussion store.", []string{
			"Start the instance:\n  nightwatch up",
		})
		require.Error(t, err)
		require.Equal(t, "redis unreachable", err.Error())
	})

	t.Run("no suggestions is fine", func(t *testing.T) {
		err := Error("bad config", "nightwatch.yml failed validation", nil)
		require.Error(t, err)
		require.Equal(t, "bad config", err.Error())
	})
}

func TestErrorWithContext(t *testing.T) {
	details := map[string]string{
		"Workspace": "/srv/app",
		"Instance":  "default-1",
	}

	err := ErrorWithContext("workspace in use", "Another instance holds this workspace.", details, []string{
		"Stop it:\n  nightwatch down --name default-1",
	})
	require.Error(t, err)
	require.Equal(t, "workspace in use", err.Error())
}

func TestPrintSuggestions(t *testing.T) {
	t.Run("single suggestion prints bare", func(t *testing.T) {
		var buf bytes.Buffer
		printSuggestions(&buf, []string{"Run: nightwatch init"})
		require.Equal(t, "\nRun: nightwatch init\n", buf.String())
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		var buf bytes.Buffer
		printSuggestions(&buf, []string{"first", "second"})
		require.Contains(t, buf.String(), "Either:")
		require.Contains(t, buf.String(), "  1. first")
		require.Contains(t, buf.String(), "  2. second")
	})

	t.Run("none prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		printSuggestions(&buf, nil)
		require.Empty(t, buf.String())
	})
}
