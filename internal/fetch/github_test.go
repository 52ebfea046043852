package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner returns canned output per command line and records invocations.
type fakeRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.outputs[key], nil
}

func TestFetchIssueContext(t *testing.T) {
	issueURL := "https://github.com/o/r/issues/7"
	prURL := "https://github.com/o/r/pull/42"

	t.Run("formats issue metadata with labels", func(t *testing.T) {
		runner := &fakeRunner{outputs: map[string][]byte{
			"gh issue view " + issueURL + " --json title,state,body,labels": []byte(
				`{"title":"Login broken","state":"OPEN","body":"Steps to reproduce","labels":[{"name":"bug"},{"name":"p1"}]}`),
		}}

		f := NewIssueFetcher(runner, zerolog.Nop())
		got := f.FetchIssueContext(context.Background(), []string{issueURL})

		assert.Contains(t, got, "Issue: "+issueURL)
		assert.Contains(t, got, "Title: Login broken")
		assert.Contains(t, got, "State: OPEN")
		assert.Contains(t, got, "Labels: bug, p1")
		assert.Contains(t, got, "Steps to reproduce")
	})

	t.Run("pull URLs use gh pr view", func(t *testing.T) {
		runner := &fakeRunner{outputs: map[string][]byte{
			"gh pr view " + prURL + " --json title,state,body,labels": []byte(
				`{"title":"Add retries","state":"OPEN","body":"","labels":[]}`),
		}}

		f := NewIssueFetcher(runner, zerolog.Nop())
		got := f.FetchIssueContext(context.Background(), []string{prURL})

		require.Len(t, runner.calls, 1)
		assert.Contains(t, runner.calls[0], "gh pr view")
		assert.Contains(t, got, "Title: Add retries")
	})

	t.Run("truncates long bodies", func(t *testing.T) {
		long := strings.Repeat("x", MaxIssueBodyChars+500)
		runner := &fakeRunner{outputs: map[string][]byte{
			"gh issue view " + issueURL + " --json title,state,body,labels": []byte(
				`{"title":"Big","state":"OPEN","body":"` + long + `","labels":[]}`),
		}}

		f := NewIssueFetcher(runner, zerolog.Nop())
		got := f.FetchIssueContext(context.Background(), []string{issueURL})

		assert.NotContains(t, got, strings.Repeat("x", MaxIssueBodyChars+1))
		assert.Contains(t, got, strings.Repeat("x", MaxIssueBodyChars)+"…")
	})

	t.Run("failures are skipped and successes joined", func(t *testing.T) {
		other := "https://github.com/o/r/issues/8"
		runner := &fakeRunner{
			outputs: map[string][]byte{
				"gh issue view " + other + " --json title,state,body,labels": []byte(
					`{"title":"Works","state":"OPEN","body":"","labels":[]}`),
			},
			errs: map[string]error{
				"gh issue view " + issueURL + " --json title,state,body,labels": errors.New("gh: not logged in"),
			},
		}

		f := NewIssueFetcher(runner, zerolog.Nop())
		got := f.FetchIssueContext(context.Background(), []string{issueURL, other})

		assert.NotContains(t, got, "---")
		assert.Contains(t, got, "Title: Works")
	})

	t.Run("two successes join with separator", func(t *testing.T) {
		other := "https://github.com/o/r/issues/8"
		runner := &fakeRunner{outputs: map[string][]byte{
			"gh issue view " + issueURL + " --json title,state,body,labels": []byte(
				`{"title":"One","state":"OPEN","body":"","labels":[]}`),
			"gh issue view " + other + " --json title,state,body,labels": []byte(
				`{"title":"Two","state":"CLOSED","body":"","labels":[]}`),
		}}

		f := NewIssueFetcher(runner, zerolog.Nop())
		got := f.FetchIssueContext(context.Background(), []string{issueURL, other})

		assert.Contains(t, got, "\n---\n")
	})

	t.Run("caps at five URLs", func(t *testing.T) {
		runner := &fakeRunner{errs: map[string]error{}}
		urls := []string{
			"https://github.com/o/r/issues/1",
			"https://github.com/o/r/issues/2",
			"https://github.com/o/r/issues/3",
			"https://github.com/o/r/issues/4",
			"https://github.com/o/r/issues/5",
			"https://github.com/o/r/issues/6",
		}

		f := NewIssueFetcher(runner, zerolog.Nop())
		f.FetchIssueContext(context.Background(), urls)

		assert.Len(t, runner.calls, 5)
	})

	t.Run("everything failing yields empty", func(t *testing.T) {
		runner := &fakeRunner{errs: map[string]error{
			"gh issue view " + issueURL + " --json title,state,body,labels": errors.New("boom"),
		}}

		f := NewIssueFetcher(runner, zerolog.Nop())
		assert.Equal(t, "", f.FetchIssueContext(context.Background(), []string{issueURL}))
	})
}
