package deliberation

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// MaxDiffLines caps the diff excerpt handed to prompts.
	MaxDiffLines = 160

	diffTimeout = 10 * time.Second
)

// DirRunner executes a command inside a working directory. The diff helper
// needs the project checkout as cwd so gh resolves the right repository.
type DirRunner interface {
	RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecDirRunner runs commands with os/exec.
type ExecDirRunner struct{}

func (ExecDirRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// DiffExcerpt fetches a PR diff via `gh pr diff` and returns its first 160
// lines. Any failure (non-numeric ref, gh missing, non-zero exit, empty
// diff) degrades to "" with a warning.
func DiffExcerpt(ctx context.Context, runner DirRunner, logger zerolog.Logger, projectPath, ref string) string {
	if !isNumeric(ref) {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, diffTimeout)
	defer cancel()

	out, err := runner.RunInDir(ctx, projectPath, "gh", "pr", "diff", ref)
	if err != nil {
		logger.Warn().Err(err).Str("ref", ref).Msg("diff fetch failed")
		return ""
	}

	diff := strings.TrimSpace(string(out))
	if diff == "" {
		return ""
	}

	lines := strings.Split(diff, "\n")
	if len(lines) > MaxDiffLines {
		lines = lines[:MaxDiffLines]
	}

	return strings.Join(lines, "\n")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
