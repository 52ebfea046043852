// Package parser normalizes raw inbound chat text and extracts structured
// intents: job requests, direct-provider requests, issue pickups, reviewable
// issue references and URLs. The patterns here are a fixed grammar - the
// behavior is the literal patterns, including the stopword list, and is not
// meant to generalize into real natural-language parsing.
package parser

import (
	"regexp"
	"strings"
)

// InboundEvent is the normalized shape of a chat-platform message event.
// Fields mirror the wire payload of the listener's platform.
type InboundEvent struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	BotID    string `json:"bot_id"`
	User     string `json:"user"`
	Text     string `json:"text"`
	Channel  string `json:"channel"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
}

// JobRequest is an explicit or inferred request to run a named job.
type JobRequest struct {
	Job          string // "run", "review" or "qa"
	ProjectHint  string // optional project/repo name mentioned in the message
	PRNumber     string // optional PR number the request refers to
	FixConflicts bool   // true when the message carries a conflict signal
}

// IssuePickupRequest is a request for the bot to start work on a tracked issue.
type IssuePickupRequest struct {
	IssueNumber string
	IssueURL    string
	RepoHint    string
}

// ProviderRequest is a direct request addressed to a named provider.
type ProviderRequest struct {
	Provider    string // "claude" or "codex"
	Prompt      string
	ProjectHint string
}

// IssueRef is a strict reference to a reviewable tracked issue.
type IssueRef struct {
	IssueURL    string
	IssueRef    string // "owner/repo#number"
	Owner       string
	Repo        string
	IssueNumber string
}

// stopwords are generic tokens that must never be mistaken for a project hint.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "or": {}, "the": {}, "this": {}, "that": {},
	"it": {}, "is": {}, "of": {}, "to": {}, "in": {}, "on": {}, "for": {},
	"pr": {}, "mr": {}, "pull": {}, "request": {}, "job": {}, "pipeline": {},
	"build": {}, "repo": {}, "repository": {}, "project": {}, "branch": {},
	"codebase": {}, "please": {}, "someone": {}, "review": {},
}

var (
	mentionTokenRe = regexp.MustCompile(`<@[A-Za-z0-9]+(?:\|[^>]*)?>`)

	jobKeywordRe   = regexp.MustCompile(`(?:^|\s)(run|review|qa)\b(?:\s+(?:for|on)\s+([a-z0-9][\w./-]*))?`)
	projectHintRe  = regexp.MustCompile(`(?:^|\s)(?:on|for)\s+([a-z0-9][\w./-]*)(?:\s+(?:project|repo|repository|codebase|branch))?\b`)
	prPathRe       = regexp.MustCompile(`/pull/(\d+)`)
	prTokenRe      = regexp.MustCompile(`(?:^|\s)#(\d+)\b`)
	issueURLRe     = regexp.MustCompile(`https?://github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)/issues/(\d+)`)
	boardIssueRe   = regexp.MustCompile(`(?i)[?&]issue=([A-Za-z0-9_.-]+)(?:%7C|\|)([A-Za-z0-9_.-]+)(?:%7C|\|)(\d+)`)
	providerLeadRe = regexp.MustCompile(`^(?:(?:hey|hi|hello|yo|ok|okay|please|pls|thanks)[,!]?\s+)*(?:(?:can|could|would)\s+you\s+)?(?:please\s+)?(?:(?:ask|use|run|have|get)\s+)?(claude|codex)\b[:,]?\s*(.*)$`)
	providerHintRe = regexp.MustCompile(`^(?:for|on)\s+([a-z0-9][\w./-]*)\s*(.*)$`)
)

// conflictSignals mark a PR mention as a conflict-resolution request.
var conflictSignals = []string{"conflict", "merge conflict", "rebase", "can't merge", "cannot merge"}

// requestSignals mark a PR mention as a review request.
var requestSignals = []string{"please", "can someone", "could someone", "review", "take a look", "look at", "check out"}

// pickupSignals mark an issue mention as a pickup request.
var pickupSignals = []string{"pick up", "pickup", "work on", "implement", "tackle", "start on", "grab", "handle this", "ship this"}

// NormalizeForParsing lower-cases text, strips platform user-mention tokens
// and collapses whitespace. Path-like substrings keep their slashes and dots.
func NormalizeForParsing(text string) string {
	text = mentionTokenRe.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	return strings.Join(strings.Fields(text), " ")
}

// ExtractInboundEvent unwraps an event payload. Platforms wrap the actual
// event under one of several optional keys; the first present wins. Returns
// nil when no event-shaped value can be found.
func ExtractInboundEvent(payload map[string]interface{}) *InboundEvent {
	if payload == nil {
		return nil
	}

	for _, key := range []string{"event", "payload", "data"} {
		if wrapped, ok := payload[key].(map[string]interface{}); ok {
			return eventFromMap(wrapped)
		}
	}

	// The payload may itself be the event
	if _, ok := payload["type"]; ok {
		return eventFromMap(payload)
	}

	return nil
}

func eventFromMap(m map[string]interface{}) *InboundEvent {
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}

	return &InboundEvent{
		Type:     str("type"),
		Subtype:  str("subtype"),
		BotID:    str("bot_id"),
		User:     str("user"),
		Text:     str("text"),
		Channel:  str("channel"),
		TS:       str("ts"),
		ThreadTS: str("thread_ts"),
	}
}

// ShouldIgnoreInboundEvent is the sole gate before any further processing.
// An event is ignored when the channel or timestamp is missing, the user is
// missing, a subtype is present, a bot id is present, or the acting user is
// the bot itself. The five conditions are independent, short-circuit OR.
func ShouldIgnoreInboundEvent(ev *InboundEvent, botUserID string) bool {
	if ev == nil {
		return true
	}
	return ev.Channel == "" || ev.TS == "" ||
		ev.User == "" ||
		ev.Subtype != "" ||
		ev.BotID != "" ||
		(botUserID != "" && ev.User == botUserID)
}

// ParseJobRequest recognizes an explicit job keyword (run|review|qa),
// optionally followed by "for/on <hint>", or infers a review job when the
// text mentions a PR combined with a conflict or request signal. A secondary
// scan anywhere in the message supplies a project hint when the primary
// match's hint slot is empty or a stopword. Returns nil when neither a job
// keyword nor a PR reference is found.
func ParseJobRequest(text string) *JobRequest {
	norm := NormalizeForParsing(text)
	if norm == "" {
		return nil
	}

	var job, hint string
	if m := jobKeywordRe.FindStringSubmatch(norm); m != nil {
		job = m[1]
		hint = m[2]
	}

	prNumber := extractPRNumber(norm)
	conflict := containsAny(norm, conflictSignals)

	if job == "" {
		if prNumber == "" || !(conflict || containsAny(norm, requestSignals)) {
			return nil
		}
		job = "review"
	}

	if _, stop := stopwords[hint]; hint == "" || stop {
		hint = scanProjectHint(norm)
	}

	return &JobRequest{
		Job:          job,
		ProjectHint:  hint,
		PRNumber:     prNumber,
		FixConflicts: conflict,
	}
}

// extractPRNumber finds a PR number via a /pull/<n> path or a bare #<n> token.
func extractPRNumber(norm string) string {
	if m := prPathRe.FindStringSubmatch(norm); m != nil {
		return m[1]
	}
	if m := prTokenRe.FindStringSubmatch(norm); m != nil {
		return m[1]
	}
	return ""
}

// scanProjectHint scans the whole message for an "on/for <name>" segment and
// returns the first candidate that is not a stopword.
func scanProjectHint(norm string) string {
	for _, m := range projectHintRe.FindAllStringSubmatch(norm, -1) {
		candidate := m[1]
		if _, stop := stopwords[candidate]; !stop {
			return candidate
		}
	}
	return ""
}

// ParseIssuePickupRequest recognizes a tracked-issue reference (direct issue
// URL or board-view owner|repo|number query encoding) combined with
// pickup-intent language. Returns nil when either half is missing.
func ParseIssuePickupRequest(text string) *IssuePickupRequest {
	norm := NormalizeForParsing(text)

	var owner, repo, number string
	if m := issueURLRe.FindStringSubmatch(text); m != nil {
		owner, repo, number = m[1], m[2], m[3]
	} else if m := boardIssueRe.FindStringSubmatch(text); m != nil {
		owner, repo, number = m[1], m[2], m[3]
	} else {
		return nil
	}

	wantsPickup := containsAny(norm, pickupSignals) ||
		((strings.Contains(norm, "please") || strings.Contains(norm, "can someone")) &&
			strings.Contains(norm, "this issue"))
	if !wantsPickup {
		return nil
	}

	return &IssuePickupRequest{
		IssueNumber: number,
		IssueURL:    "https://github.com/" + owner + "/" + repo + "/issues/" + number,
		RepoHint:    repo,
	}
}

// ParseProviderRequest recognizes a leading optional politeness/verb prefix
// followed by a provider name token; the remainder is the prompt. An optional
// "for/on <hint>" segment immediately after the provider name is peeled off
// into the project hint when the candidate is not a stopword. Returns nil
// when no provider is addressed or the prompt is empty.
func ParseProviderRequest(text string) *ProviderRequest {
	norm := NormalizeForParsing(text)

	m := providerLeadRe.FindStringSubmatch(norm)
	if m == nil {
		return nil
	}

	provider := m[1]
	prompt := strings.TrimSpace(m[2])

	var hint string
	if hm := providerHintRe.FindStringSubmatch(prompt); hm != nil {
		if _, stop := stopwords[hm[1]]; !stop {
			hint = hm[1]
			prompt = strings.TrimSpace(hm[2])
		}
	}

	if prompt == "" {
		return nil
	}

	return &ProviderRequest{
		Provider:    provider,
		Prompt:      prompt,
		ProjectHint: hint,
	}
}

// ParseIssueReviewable matches a direct tracked-issue URL only (never the
// board-view encoding). Returns nil when the text carries no such URL.
func ParseIssueReviewable(text string) *IssueRef {
	m := issueURLRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	return &IssueRef{
		IssueURL:    m[0],
		IssueRef:    m[1] + "/" + m[2] + "#" + m[3],
		Owner:       m[1],
		Repo:        m[2],
		IssueNumber: m[3],
	}
}

// containsAny reports whether any of the phrases occurs in the text.
func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
