package persona

import (
	"strings"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// Domain buckets classify a persona for relevance scoring. Classification is
// keyword-based over role + declared expertise; first match wins in the order
// security → qa → lead → dev.
const (
	DomainSecurity = "security"
	DomainQA       = "qa"
	DomainLead     = "lead"
	DomainDev      = "dev"
	DomainGeneral  = "general"
)

// domainPatterns is evaluated in order; the first bucket with a keyword hit wins.
var domainPatterns = []struct {
	domain   string
	keywords []string
}{
	{DomainSecurity, []string{"security", "appsec", "pentest", "threat", "vulnerab"}},
	{DomainQA, []string{"qa", "quality", "test", "e2e"}},
	{DomainLead, []string{"lead", "architect", "principal", "staff", "manager"}},
	{DomainDev, []string{"dev", "engineer", "implement", "backend", "frontend", "fullstack", "programmer"}},
}

// domainSignals map message phrases to the domain they call for. A persona in
// the matching domain earns a scoring bonus.
var domainSignals = map[string][]string{
	DomainSecurity: {"xss", "auth", "vuln", "security", "injection", "csrf", "secret", "token", "exploit"},
	DomainQA:       {"flaky", "e2e", "test", "coverage", "regression", "ci failure", "broke"},
	DomainLead:     {"architecture", "design", "roadmap", "priorit", "scope", "tradeoff"},
	DomainDev:      {"implement", "refactor", "bug", "compile", "stack trace", "fix"},
}

// Scoring weights. Name recognition dominates, domain fit is strong, token
// overlap is a weak tiebreaker.
const (
	nameMatchScore    = 12
	domainSignalScore = 8
	tokenOverlapScore = 2

	// Anti-flapping thresholds for follow-up speaker selection
	switchMargin   = 4
	switchMinScore = 8
)

// Domain classifies a persona into a domain bucket using fixed keyword
// patterns over its role and declared expertise.
func Domain(p *discussion.Persona) string {
	haystack := strings.ToLower(p.Role + " " + strings.Join(p.Expertise, " "))

	for _, bucket := range domainPatterns {
		for _, kw := range bucket.keywords {
			if strings.Contains(haystack, kw) {
				return bucket.domain
			}
		}
	}

	return DomainGeneral
}

// ScoreForText computes an additive relevance score for a persona against a
// message: +12 when the persona's own name appears in the text, +8 when a
// domain-signal phrase matches the persona's domain, and +2 per distinct
// 3+ character text token also present among the persona's role/expertise
// tokens. Scores pick the best follow-up speaker; they never gate
// participation.
func ScoreForText(text string, p *discussion.Persona) int {
	lower := strings.ToLower(text)
	score := 0

	if p.Name != "" && strings.Contains(lower, strings.ToLower(p.Name)) {
		score += nameMatchScore
	}

	domain := Domain(p)
	for _, signal := range domainSignals[domain] {
		if strings.Contains(lower, signal) {
			score += domainSignalScore
			break
		}
	}

	personaTokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(p.Role + " " + strings.Join(p.Expertise, " "))) {
		personaTokens[tok] = struct{}{}
	}

	counted := make(map[string]struct{})
	for _, tok := range strings.Fields(lower) {
		tok = strings.Trim(tok, ".,;:!?()")
		if len(tok) < 3 {
			continue
		}
		if _, dup := counted[tok]; dup {
			continue
		}
		if _, hit := personaTokens[tok]; hit {
			counted[tok] = struct{}{}
			score += tokenOverlapScore
		}
	}

	return score
}

// SelectFollowUp picks the next speaker. It defaults to preferred for
// continuity; another persona takes over only when its score beats the
// preferred persona's score by at least 4 and is at least 8 in absolute
// terms, which keeps the speaker from flapping on weak signals.
func SelectFollowUp(preferred *discussion.Persona, personas []discussion.Persona, text string) *discussion.Persona {
	if preferred == nil {
		return nil
	}

	preferredScore := ScoreForText(text, preferred)

	best := preferred
	bestScore := preferredScore
	for i := range personas {
		if personas[i].ID == preferred.ID {
			continue
		}
		if s := ScoreForText(text, &personas[i]); s > bestScore {
			best = &personas[i]
			bestScore = s
		}
	}

	if best.ID != preferred.ID && bestScore >= preferredScore+switchMargin && bestScore >= switchMinScore {
		return best
	}

	return preferred
}
