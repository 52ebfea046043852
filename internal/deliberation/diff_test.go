package deliberation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeDirRunner struct {
	out  []byte
	err  error
	dir  string
	args []string
}

func (f *fakeDirRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	f.dir = dir
	f.args = append([]string{name}, args...)
	return f.out, f.err
}

func TestDiffExcerpt(t *testing.T) {
	t.Run("non-numeric ref yields empty without running anything", func(t *testing.T) {
		runner := &fakeDirRunner{out: []byte("diff")}
		got := DiffExcerpt(context.Background(), runner, zerolog.Nop(), "/srv/app", "feature-branch")
		assert.Equal(t, "", got)
		assert.Nil(t, runner.args)
	})

	t.Run("runs gh pr diff in the project directory", func(t *testing.T) {
		runner := &fakeDirRunner{out: []byte("+added line\n-removed line")}
		got := DiffExcerpt(context.Background(), runner, zerolog.Nop(), "/srv/app", "42")

		assert.Equal(t, "+added line\n-removed line", got)
		assert.Equal(t, "/srv/app", runner.dir)
		assert.Equal(t, []string{"gh", "pr", "diff", "42"}, runner.args)
	})

	t.Run("caps output at 160 lines", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 300; i++ {
			fmt.Fprintf(&b, "line %d\n", i)
		}
		runner := &fakeDirRunner{out: []byte(b.String())}

		got := DiffExcerpt(context.Background(), runner, zerolog.Nop(), "/srv/app", "42")
		assert.Len(t, strings.Split(got, "\n"), MaxDiffLines)
		assert.Contains(t, got, "line 159")
		assert.NotContains(t, got, "line 160")
	})

	t.Run("command failure degrades to empty", func(t *testing.T) {
		runner := &fakeDirRunner{err: errors.New("gh: command not found")}
		assert.Equal(t, "", DiffExcerpt(context.Background(), runner, zerolog.Nop(), "/srv/app", "42"))
	})

	t.Run("empty diff is empty", func(t *testing.T) {
		runner := &fakeDirRunner{out: []byte("  \n")}
		assert.Equal(t, "", DiffExcerpt(context.Background(), runner, zerolog.Nop(), "/srv/app", "42"))
	})
}
