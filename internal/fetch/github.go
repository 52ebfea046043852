package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// TrackerTimeout bounds each gh invocation.
	TrackerTimeout = 10 * time.Second

	// MaxIssueURLs caps how many issue/PR URLs one message can make us fetch.
	MaxIssueURLs = 5

	// MaxIssueBodyChars truncates issue bodies before they reach a prompt.
	MaxIssueBodyChars = 1200
)

// CommandRunner executes an external command and returns its combined output.
// The production runner shells out; tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// IssueFetcher fetches issue/PR metadata through the gh CLI.
type IssueFetcher struct {
	runner CommandRunner
	logger zerolog.Logger
}

func NewIssueFetcher(runner CommandRunner, logger zerolog.Logger) *IssueFetcher {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &IssueFetcher{runner: runner, logger: logger}
}

type issueMetadata struct {
	Title  string `json:"title"`
	State  string `json:"state"`
	Body   string `json:"body"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// FetchIssueContext fetches title/state/body/labels for up to 5 issue or PR
// URLs via `gh issue view` / `gh pr view`. Bodies are truncated to 1200
// characters. Failures (gh missing, auth errors, bad JSON) are skipped with a
// warning; successes join with a "---" separator. Returns "" when nothing
// succeeded.
func (f *IssueFetcher) FetchIssueContext(ctx context.Context, urls []string) string {
	if len(urls) > MaxIssueURLs {
		urls = urls[:MaxIssueURLs]
	}

	var parts []string
	for _, url := range urls {
		section, err := f.fetchOne(ctx, url)
		if err != nil {
			f.logger.Warn().Err(err).Str("url", url).Msg("issue context fetch failed")
			continue
		}
		parts = append(parts, section)
	}

	return strings.Join(parts, "\n---\n")
}

func (f *IssueFetcher) fetchOne(ctx context.Context, url string) (string, error) {
	subcommand := "issue"
	if strings.Contains(url, "/pull/") {
		subcommand = "pr"
	}

	ctx, cancel := context.WithTimeout(ctx, TrackerTimeout)
	defer cancel()

	out, err := f.runner.Run(ctx, "gh", subcommand, "view", url, "--json", "title,state,body,labels")
	if err != nil {
		return "", fmt.Errorf("gh %s view: %w", subcommand, err)
	}

	var meta issueMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return "", fmt.Errorf("parsing gh output: %w", err)
	}

	body := meta.Body
	if len(body) > MaxIssueBodyChars {
		body = body[:MaxIssueBodyChars] + "…"
	}

	var labels []string
	for _, l := range meta.Labels {
		labels = append(labels, l.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Issue: %s\n", url)
	fmt.Fprintf(&b, "Title: %s\n", meta.Title)
	fmt.Fprintf(&b, "State: %s\n", meta.State)
	if len(labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(labels, ", "))
	}
	if body != "" {
		fmt.Fprintf(&b, "\n%s", body)
	}

	return b.String(), nil
}
