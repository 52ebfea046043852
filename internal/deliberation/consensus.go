package deliberation

import (
	"regexp"
	"strings"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// Issue-review verdicts. Rounds are instructed to end with exactly one of
// these words.
const (
	VerdictReady = "READY"
	VerdictClose = "CLOSE"
	VerdictDraft = "DRAFT"
)

var verdictRe = regexp.MustCompile(`\b(READY|CLOSE|DRAFT)\b`)

// parseIssueVerdict returns the last verdict word present in the text, or "".
// Last wins so a persona can reason about the options before committing.
func parseIssueVerdict(text string) string {
	matches := verdictRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

var (
	approvalPhrases = []string{"lgtm", "looks good to me", "ship it", "approved", "i approve", "good to merge"}
	changesPhrases  = []string{"request changes", "changes requested", "needs changes", "needs rework", "please fix before"}
	humanPhrases    = []string{"needs a human", "human should", "escalate this", "beyond us", "needs human review"}
)

// interpretConsensus decides whether a contribution is a consensus signal.
// For issue_review the verdict word is authoritative: READY means the issue
// is actionable, DRAFT means it needs rework, CLOSE means a human has to
// deal with it. For every other trigger a fixed phrase list applies. Returns
// the empty (non-terminal) result when the text signals nothing.
func interpretConsensus(triggerType discussion.TriggerType, text string) discussion.ConsensusResult {
	if triggerType == discussion.TriggerIssueReview {
		switch parseIssueVerdict(text) {
		case VerdictReady:
			return discussion.ResultApproved
		case VerdictDraft:
			return discussion.ResultChangesRequested
		case VerdictClose:
			return discussion.ResultHumanNeeded
		}
		return ""
	}

	lower := strings.ToLower(text)
	for _, p := range humanPhrases {
		if strings.Contains(lower, p) {
			return discussion.ResultHumanNeeded
		}
	}
	for _, p := range changesPhrases {
		if strings.Contains(lower, p) {
			return discussion.ResultChangesRequested
		}
	}
	for _, p := range approvalPhrases {
		if strings.Contains(lower, p) {
			return discussion.ResultApproved
		}
	}

	return ""
}
