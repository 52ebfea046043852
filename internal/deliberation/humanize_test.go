package deliberation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanize(t *testing.T) {
	t.Run("strips canned openers", func(t *testing.T) {
		assert.Equal(t, "The auth check is missing.",
			Humanize("Certainly! The auth check is missing."))
		assert.Equal(t, "I'd block this.",
			Humanize("Great question. I'd block this."))
	})

	t.Run("caps to two sentences", func(t *testing.T) {
		got := Humanize("First point. Second point. Third point. Fourth point.")
		assert.Equal(t, "First point. Second point.", got)
	})

	t.Run("strips list bullets", func(t *testing.T) {
		got := Humanize("- check the token\n- add a test")
		assert.NotContains(t, got, "- ")
		assert.Contains(t, got, "check the token")
	})

	t.Run("keeps at most one emoji", func(t *testing.T) {
		got := Humanize("Nice 🎉 really nice 🎉🚀")
		assert.Equal(t, "Nice 🎉 really nice", got)
	})

	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, "LGTM, ship it.", Humanize("LGTM, ship it."))
	})

	t.Run("empty stays empty", func(t *testing.T) {
		assert.Equal(t, "", Humanize("   "))
	})
}
