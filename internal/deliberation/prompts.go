package deliberation

import (
	"fmt"
	"strings"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// Prompt size caps. History and context are truncated from the front so the
// most recent material survives.
const (
	maxHistoryChars = 4000
	maxContextChars = 2000
	maxRoadmapChars = 1500
)

// triggerGuidance is the per-trigger instruction block folded into every
// round's prompt.
var triggerGuidance = map[discussion.TriggerType]string{
	discussion.TriggerPRReview:     "You are reviewing a pull request with your colleagues. Weigh in on correctness, risk and anything that should block the merge.",
	discussion.TriggerBuildFailure: "A build just failed. Focus on the most likely cause and the fastest safe path back to green.",
	discussion.TriggerPRDKickoff:   "The team is kicking off work from a product brief. Surface scope risks, sequencing and what must be decided before coding starts.",
	discussion.TriggerCodeWatch:    "An automated code watch flagged something suspicious. Judge whether it is a real problem and how urgent it is.",
	discussion.TriggerIssueReview:  "You are triaging a tracked issue with your colleagues. Decide whether it is actionable as written.",
}

// issueVerdictInstruction is appended to issue_review prompts so each round
// ends with a machine-readable verdict.
const issueVerdictInstruction = "End your message with exactly one verdict word: READY (actionable as written), CLOSE (should be closed), or DRAFT (needs rework before it is actionable)."

// BuildPrompts assembles the system and user prompts for one persona's
// contribution in one round.
func BuildPrompts(p *discussion.Persona, trigger *discussion.Trigger, round int, history, context, roadmap string) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	fmt.Fprintf(&sys, "You are %s, %s on a software team.\n", p.Name, p.Role)
	if len(p.Expertise) > 0 {
		fmt.Fprintf(&sys, "Your expertise: %s.\n", strings.Join(p.Expertise, ", "))
	}
	if len(p.Opinions) > 0 {
		fmt.Fprintf(&sys, "Opinions you hold: %s.\n", strings.Join(p.Opinions, "; "))
	}
	if len(p.Style) > 0 {
		fmt.Fprintf(&sys, "Your voice: %s.\n", strings.Join(p.Style, "; "))
	}
	sys.WriteString("You are chatting in a team thread. Reply in at most two short conversational sentences, no lists, no headings. Disagree when you actually disagree.")

	var usr strings.Builder
	if guidance, ok := triggerGuidance[trigger.Type]; ok {
		usr.WriteString(guidance)
		usr.WriteString("\n")
	}
	if trigger.Type == discussion.TriggerIssueReview {
		usr.WriteString(issueVerdictInstruction)
		usr.WriteString("\n")
	}

	fmt.Fprintf(&usr, "\nThis is round %d of %d", round, MaxRounds)
	switch round {
	case 1:
		usr.WriteString(" — open the discussion.")
	case MaxRounds:
		usr.WriteString(" — the final round, work toward a conclusion.")
	default:
		usr.WriteString(" — respond to what has been said.")
	}
	usr.WriteString("\n")

	fmt.Fprintf(&usr, "\nSubject: %s (%s)\n", trigger.Ref, trigger.Type)

	if history != "" {
		fmt.Fprintf(&usr, "\nThread so far:\n%s\n", truncateTail(history, maxHistoryChars))
	}
	if context != "" {
		fmt.Fprintf(&usr, "\nContext:\n%s\n", truncateTail(context, maxContextChars))
	}
	if roadmap != "" {
		fmt.Fprintf(&usr, "\nProject roadmap priorities:\n%s\nGround your feedback in these priorities.\n", truncateTail(roadmap, maxRoadmapChars))
	}

	return sys.String(), usr.String()
}

// truncateTail keeps the last max characters, preferring to cut at a line
// boundary.
func truncateTail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[len(s)-max:]
	if idx := strings.IndexByte(cut, '\n'); idx >= 0 && idx < len(cut)-1 {
		cut = cut[idx+1:]
	}
	return cut
}

// formatHistory renders transcript entries as a plain thread log.
func formatHistory(entries []discussion.TranscriptEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %s\n", e.Persona, e.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
