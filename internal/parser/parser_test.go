package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeForParsing(t *testing.T) {
	t.Run("lowercases and collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "run the qa job", NormalizeForParsing("  Run   THE\tqa  job "))
	})

	t.Run("strips user-mention tokens", func(t *testing.T) {
		assert.Equal(t, "review this", NormalizeForParsing("<@U0123ABC> review this"))
		assert.Equal(t, "review this", NormalizeForParsing("<@U0123ABC|nightbot> review this"))
	})

	t.Run("preserves path-like substrings", func(t *testing.T) {
		assert.Equal(t, "check src/auth.ts please", NormalizeForParsing("Check src/auth.ts please"))
	})
}

func TestExtractInboundEvent(t *testing.T) {
	t.Run("unwraps the event key", func(t *testing.T) {
		ev := ExtractInboundEvent(map[string]interface{}{
			"type": "event_callback",
			"event": map[string]interface{}{
				"type":    "message",
				"user":    "U1",
				"text":    "hello",
				"channel": "C1",
				"ts":      "1.2",
			},
		})
		require.NotNil(t, ev)
		assert.Equal(t, "message", ev.Type)
		assert.Equal(t, "C1", ev.Channel)
		assert.Equal(t, "1.2", ev.TS)
	})

	t.Run("first present wrapper key wins", func(t *testing.T) {
		ev := ExtractInboundEvent(map[string]interface{}{
			"event":   map[string]interface{}{"type": "message", "user": "U1"},
			"payload": map[string]interface{}{"type": "other", "user": "U2"},
		})
		require.NotNil(t, ev)
		assert.Equal(t, "U1", ev.User)
	})

	t.Run("falls back to the payload itself", func(t *testing.T) {
		ev := ExtractInboundEvent(map[string]interface{}{"type": "message", "channel": "C9"})
		require.NotNil(t, ev)
		assert.Equal(t, "C9", ev.Channel)
	})

	t.Run("nil for nil or shapeless payloads", func(t *testing.T) {
		assert.Nil(t, ExtractInboundEvent(nil))
		assert.Nil(t, ExtractInboundEvent(map[string]interface{}{"challenge": "abc"}))
	})
}

func TestShouldIgnoreInboundEvent(t *testing.T) {
	valid := func() *InboundEvent {
		return &InboundEvent{Type: "message", User: "U1", Text: "hi", Channel: "C1", TS: "1.0"}
	}

	t.Run("processes a plain user message", func(t *testing.T) {
		assert.False(t, ShouldIgnoreInboundEvent(valid(), "UBOT"))
	})

	tests := []struct {
		name   string
		mutate func(*InboundEvent)
	}{
		{"missing channel", func(ev *InboundEvent) { ev.Channel = "" }},
		{"missing timestamp", func(ev *InboundEvent) { ev.TS = "" }},
		{"missing user", func(ev *InboundEvent) { ev.User = "" }},
		{"subtype present", func(ev *InboundEvent) { ev.Subtype = "message_changed" }},
		{"bot id present", func(ev *InboundEvent) { ev.BotID = "B42" }},
		{"own message", func(ev *InboundEvent) { ev.User = "UBOT" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := valid()
			tt.mutate(ev)
			assert.True(t, ShouldIgnoreInboundEvent(ev, "UBOT"))
		})
	}

	t.Run("nil event is ignored", func(t *testing.T) {
		assert.True(t, ShouldIgnoreInboundEvent(nil, "UBOT"))
	})
}

func TestParseJobRequest(t *testing.T) {
	t.Run("explicit run with project hint", func(t *testing.T) {
		req := ParseJobRequest("run yarn verify on night-watch-cli project")
		require.NotNil(t, req)
		assert.Equal(t, "run", req.Job)
		assert.Equal(t, "night-watch-cli", req.ProjectHint)
		assert.False(t, req.FixConflicts)
	})

	t.Run("inferred review from PR token and conflict signal", func(t *testing.T) {
		req := ParseJobRequest("can someone look at #42, seeing merge conflicts")
		require.NotNil(t, req)
		assert.Equal(t, "review", req.Job)
		assert.Equal(t, "42", req.PRNumber)
		assert.True(t, req.FixConflicts)
	})

	t.Run("inferred review from PR URL and request signal", func(t *testing.T) {
		req := ParseJobRequest("please take a look at https://github.com/o/r/pull/7")
		require.NotNil(t, req)
		assert.Equal(t, "review", req.Job)
		assert.Equal(t, "7", req.PRNumber)
		assert.False(t, req.FixConflicts)
	})

	t.Run("explicit qa with inline hint", func(t *testing.T) {
		req := ParseJobRequest("qa on api-gateway")
		require.NotNil(t, req)
		assert.Equal(t, "qa", req.Job)
		assert.Equal(t, "api-gateway", req.ProjectHint)
	})

	t.Run("stopword hint falls through to secondary scan", func(t *testing.T) {
		req := ParseJobRequest("run for the pipeline on billing-service repo")
		require.NotNil(t, req)
		assert.Equal(t, "run", req.Job)
		assert.Equal(t, "billing-service", req.ProjectHint)
	})

	t.Run("PR mention without any signal is not a job", func(t *testing.T) {
		assert.Nil(t, ParseJobRequest("saw #42 earlier today"))
	})

	t.Run("no keyword and no PR reference", func(t *testing.T) {
		assert.Nil(t, ParseJobRequest("what a lovely evening"))
		assert.Nil(t, ParseJobRequest(""))
	})
}

func TestParseIssuePickupRequest(t *testing.T) {
	t.Run("direct URL with pickup intent", func(t *testing.T) {
		req := ParseIssuePickupRequest("I'll pick up https://github.com/o/r/issues/7")
		require.NotNil(t, req)
		assert.Equal(t, "7", req.IssueNumber)
		assert.Equal(t, "r", req.RepoHint)
		assert.Equal(t, "https://github.com/o/r/issues/7", req.IssueURL)
	})

	t.Run("board-view encoding", func(t *testing.T) {
		req := ParseIssuePickupRequest(
			"let me tackle https://github.com/orgs/acme/projects/3/views/1?pane=issue&issue=acme%7Cwidgets%7C55")
		require.NotNil(t, req)
		assert.Equal(t, "55", req.IssueNumber)
		assert.Equal(t, "widgets", req.RepoHint)
		assert.Equal(t, "https://github.com/acme/widgets/issues/55", req.IssueURL)
	})

	t.Run("politeness plus this-issue phrasing", func(t *testing.T) {
		req := ParseIssuePickupRequest("can someone take this issue? https://github.com/o/r/issues/12")
		require.NotNil(t, req)
		assert.Equal(t, "12", req.IssueNumber)
	})

	t.Run("URL without pickup intent", func(t *testing.T) {
		assert.Nil(t, ParseIssuePickupRequest("fyi https://github.com/o/r/issues/7 exists"))
	})

	t.Run("pickup intent without URL", func(t *testing.T) {
		assert.Nil(t, ParseIssuePickupRequest("I'll pick up the groceries"))
	})
}

func TestParseProviderRequest(t *testing.T) {
	t.Run("plain provider prompt", func(t *testing.T) {
		req := ParseProviderRequest("claude summarize the last deploy")
		require.NotNil(t, req)
		assert.Equal(t, "claude", req.Provider)
		assert.Equal(t, "summarize the last deploy", req.Prompt)
		assert.Empty(t, req.ProjectHint)
	})

	t.Run("politeness prefix and project hint", func(t *testing.T) {
		req := ParseProviderRequest("hey claude, for night-watch explain the cache layer")
		require.NotNil(t, req)
		assert.Equal(t, "claude", req.Provider)
		assert.Equal(t, "night-watch", req.ProjectHint)
		assert.Equal(t, "explain the cache layer", req.Prompt)
	})

	t.Run("verb prefix with codex", func(t *testing.T) {
		req := ParseProviderRequest("can you ask codex to draft a migration plan")
		require.NotNil(t, req)
		assert.Equal(t, "codex", req.Provider)
		assert.Equal(t, "to draft a migration plan", req.Prompt)
	})

	t.Run("stopword after for is kept in the prompt", func(t *testing.T) {
		req := ParseProviderRequest("claude for the record, summarize standup")
		require.NotNil(t, req)
		assert.Empty(t, req.ProjectHint)
		assert.Contains(t, req.Prompt, "for the record")
	})

	t.Run("no provider addressed", func(t *testing.T) {
		assert.Nil(t, ParseProviderRequest("someone summarize the deploy"))
	})

	t.Run("provider with empty prompt", func(t *testing.T) {
		assert.Nil(t, ParseProviderRequest("claude"))
	})
}

func TestParseIssueReviewable(t *testing.T) {
	t.Run("direct issue URL", func(t *testing.T) {
		ref := ParseIssueReviewable("new one: https://github.com/acme/widgets/issues/9")
		require.NotNil(t, ref)
		assert.Equal(t, "https://github.com/acme/widgets/issues/9", ref.IssueURL)
		assert.Equal(t, "acme/widgets#9", ref.IssueRef)
		assert.Equal(t, "acme", ref.Owner)
		assert.Equal(t, "widgets", ref.Repo)
		assert.Equal(t, "9", ref.IssueNumber)
	})

	t.Run("board-view encoding is not reviewable", func(t *testing.T) {
		assert.Nil(t, ParseIssueReviewable(
			"https://github.com/orgs/acme/projects/3?pane=issue&issue=acme%7Cwidgets%7C55"))
	})

	t.Run("pull request URL is not an issue", func(t *testing.T) {
		assert.Nil(t, ParseIssueReviewable("https://github.com/acme/widgets/pull/9"))
	})
}
