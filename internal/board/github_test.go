package board

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out  []byte
	err  error
	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return f.out, f.err
}

func TestCreateIssue(t *testing.T) {
	t.Run("parses URL and number from gh output", func(t *testing.T) {
		runner := &fakeRunner{out: []byte("https://github.com/o/board/issues/123\n")}
		b := NewGitHubBoard(runner, zerolog.Nop())

		issue, err := b.CreateIssue(context.Background(), "o/board", "fix: thing", "details", "Ready")
		require.NoError(t, err)

		assert.Equal(t, 123, issue.Number)
		assert.Equal(t, "https://github.com/o/board/issues/123", issue.URL)
		assert.Equal(t, "gh", runner.name)
		assert.Contains(t, runner.args, "--repo")
		assert.Contains(t, runner.args, "o/board")
		assert.Contains(t, runner.args, "status:ready")
	})

	t.Run("no column means no label flag", func(t *testing.T) {
		runner := &fakeRunner{out: []byte("https://github.com/o/board/issues/5")}
		b := NewGitHubBoard(runner, zerolog.Nop())

		_, err := b.CreateIssue(context.Background(), "o/board", "t", "b", "")
		require.NoError(t, err)
		assert.NotContains(t, runner.args, "--label")
	})

	t.Run("gh failure propagates", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("gh: not logged in")}
		b := NewGitHubBoard(runner, zerolog.Nop())

		_, err := b.CreateIssue(context.Background(), "o/board", "t", "b", "")
		assert.Error(t, err)
	})

	t.Run("garbage output is an error", func(t *testing.T) {
		runner := &fakeRunner{out: []byte("something went sideways")}
		b := NewGitHubBoard(runner, zerolog.Nop())

		_, err := b.CreateIssue(context.Background(), "o/board", "t", "b", "")
		assert.Error(t, err)
	})
}

func TestMoveIssue(t *testing.T) {
	t.Run("adds the target label and removes the others", func(t *testing.T) {
		runner := &fakeRunner{}
		b := NewGitHubBoard(runner, zerolog.Nop())

		require.NoError(t, b.MoveIssue(context.Background(), "o/board", 123, "In Progress"))

		assert.Contains(t, runner.args, "--add-label")
		assert.Contains(t, runner.args, "status:in-progress")
		assert.Contains(t, runner.args, "status:ready")
		assert.Contains(t, runner.args, "status:done")
		assert.NotContains(t, runner.args, "status:in progress")
	})

	t.Run("gh failure propagates", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("exit status 1")}
		b := NewGitHubBoard(runner, zerolog.Nop())
		assert.Error(t, b.MoveIssue(context.Background(), "o/board", 1, "Done"))
	})
}
