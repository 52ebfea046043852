// Package board files and moves tracked issues through the gh CLI. Board
// columns are modeled as status labels on the issue, so a "move" is a label
// swap rather than a Projects API call.
package board

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/deliberation"
)

const ghTimeout = 10 * time.Second

// Runner executes an external command. Injected so tests never spawn gh.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// GitHubBoard implements the deliberation engine's Board interface on top of
// gh.
type GitHubBoard struct {
	runner Runner
	logger zerolog.Logger
}

// NewGitHubBoard creates a board provider. A nil runner gets the
// exec-backed default.
func NewGitHubBoard(runner Runner, logger zerolog.Logger) *GitHubBoard {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &GitHubBoard{runner: runner, logger: logger}
}

var issueURLNumberRe = regexp.MustCompile(`/issues/(\d+)\s*$`)

// CreateIssue files an issue on the repo and returns its URL and number. A
// non-empty column becomes a status label on the new issue.
func (b *GitHubBoard) CreateIssue(ctx context.Context, repo, title, body, column string) (*deliberation.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, ghTimeout)
	defer cancel()

	args := []string{"issue", "create", "--repo", repo, "--title", title, "--body", body}
	if column != "" {
		args = append(args, "--label", columnLabel(column))
	}

	out, err := b.runner.Run(ctx, "gh", args...)
	if err != nil {
		return nil, fmt.Errorf("gh issue create: %w", err)
	}

	url := strings.TrimSpace(string(out))
	m := issueURLNumberRe.FindStringSubmatch(url)
	if m == nil {
		return nil, fmt.Errorf("unexpected gh issue create output: %q", url)
	}
	number, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing issue number from %q: %w", url, err)
	}

	b.logger.Info().Str("repo", repo).Int("number", number).Msg("issue created")

	return &deliberation.Issue{Number: number, URL: url}, nil
}

// knownColumns are the statuses a move can transition between. Moving to a
// column removes the labels of all the others.
var knownColumns = []string{"Backlog", "Ready", "In Progress", "In Review", "Done"}

// MoveIssue swaps the issue's status label to the target column.
func (b *GitHubBoard) MoveIssue(ctx context.Context, repo string, number int, column string) error {
	ctx, cancel := context.WithTimeout(ctx, ghTimeout)
	defer cancel()

	args := []string{"issue", "edit", strconv.Itoa(number), "--repo", repo, "--add-label", columnLabel(column)}
	for _, other := range knownColumns {
		if !strings.EqualFold(other, column) {
			args = append(args, "--remove-label", columnLabel(other))
		}
	}

	if _, err := b.runner.Run(ctx, "gh", args...); err != nil {
		return fmt.Errorf("gh issue edit: %w", err)
	}

	b.logger.Info().Str("repo", repo).Int("number", number).Str("column", column).Msg("issue moved")

	return nil
}

// columnLabel maps a column name to its status label.
func columnLabel(column string) string {
	return "status:" + strings.ReplaceAll(strings.ToLower(column), " ", "-")
}
