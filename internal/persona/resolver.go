// Package persona decides who takes part in a deliberation and who should
// speak next. It maps trigger types to role archetypes, classifies personas
// into domains, scores persona relevance against message text, and resolves
// explicit mentions back to roster entries.
package persona

import (
	"regexp"
	"strings"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// archetypesByTrigger is the fixed mapping from trigger type to the ordered
// role archetypes that should take part in the resulting discussion.
var archetypesByTrigger = map[discussion.TriggerType][]string{
	discussion.TriggerPRReview:     {"security", "tech-lead", "qa"},
	discussion.TriggerBuildFailure: {"implementer", "tech-lead"},
	discussion.TriggerPRDKickoff:   {"tech-lead", "implementer", "qa"},
	discussion.TriggerCodeWatch:    {"security", "implementer"},
	discussion.TriggerIssueReview:  {"tech-lead", "qa", "implementer"},
}

// archetypeRoleKeywords resolves an archetype against free-text persona roles
// when no persona carries the archetype as its name.
var archetypeRoleKeywords = map[string][]string{
	"security":    {"security", "appsec", "pentest"},
	"tech-lead":   {"lead", "architect", "principal", "staff"},
	"qa":          {"qa", "quality", "test"},
	"implementer": {"implement", "developer", "backend", "frontend", "engineer", "dev"},
}

// ParticipatingPersonas resolves the personas that take part in a discussion
// for the given trigger type. Each archetype is resolved against the live
// roster by name first, then by role-keyword match; duplicates collapse by
// persona ID. When the mapping yields nobody and the roster is non-empty, the
// first available persona is used so a discussion is never empty.
func ParticipatingPersonas(triggerType discussion.TriggerType, personas []discussion.Persona) []discussion.Persona {
	var out []discussion.Persona
	seen := make(map[string]struct{})

	add := func(p *discussion.Persona) {
		if p == nil {
			return
		}
		if _, dup := seen[p.ID]; dup {
			return
		}
		seen[p.ID] = struct{}{}
		out = append(out, *p)
	}

	for _, archetype := range archetypesByTrigger[triggerType] {
		if p := FindByName(personas, archetype); p != nil {
			add(p)
			continue
		}
		add(findByRoleKeywords(personas, archetypeRoleKeywords[archetype]))
	}

	if len(out) == 0 && len(personas) > 0 {
		out = append(out, personas[0])
	}

	return out
}

// FindByName returns the persona whose name matches case-insensitively.
// First hit wins on duplicate names. Returns nil when no persona matches.
func FindByName(personas []discussion.Persona, name string) *discussion.Persona {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil
	}

	for i := range personas {
		if strings.ToLower(personas[i].Name) == want {
			return &personas[i]
		}
	}

	return nil
}

// findByRoleKeywords returns the best role-keyword match for an archetype.
// Keywords are tried in priority order across the whole roster so a specific
// keyword ("developer") beats a generic one ("engineer") regardless of
// roster order.
func findByRoleKeywords(personas []discussion.Persona, keywords []string) *discussion.Persona {
	for _, kw := range keywords {
		for i := range personas {
			if strings.Contains(strings.ToLower(personas[i].Role), kw) {
				return &personas[i]
			}
		}
	}
	return nil
}

var mentionHandleRe = regexp.MustCompile(`@([A-Za-z0-9][A-Za-z0-9._-]{1,31})`)

// ExtractMentionHandles pulls @handle tokens from text: 2-32 characters,
// case-normalized, de-duplicated with order preserved.
func ExtractMentionHandles(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, m := range mentionHandleRe.FindAllStringSubmatch(text, -1) {
		handle := strings.ToLower(m[1])
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}
		out = append(out, handle)
	}

	return out
}

// ResolveMentionedPersonas matches @handle tokens against normalized persona
// names. A handle matches a persona when it equals the lowercased name with
// spaces removed.
func ResolveMentionedPersonas(text string, personas []discussion.Persona) []discussion.Persona {
	var out []discussion.Persona
	seen := make(map[string]struct{})

	for _, handle := range ExtractMentionHandles(text) {
		for i := range personas {
			if normalizeHandle(personas[i].Name) != handle {
				continue
			}
			if _, dup := seen[personas[i].ID]; dup {
				continue
			}
			seen[personas[i].ID] = struct{}{}
			out = append(out, personas[i])
		}
	}

	return out
}

var platformMentionRe = regexp.MustCompile(`<@[A-Za-z0-9]+(?:\|[^>]*)?>`)

// ResolvePersonasByPlainName strips platform user-id mention tokens and then
// matches persona names as whole words anywhere in the remaining text. This
// covers "mention the bot, then say a name" phrasing.
func ResolvePersonasByPlainName(text string, personas []discussion.Persona) []discussion.Persona {
	stripped := strings.ToLower(platformMentionRe.ReplaceAllString(text, " "))

	var out []discussion.Persona
	seen := make(map[string]struct{})

	for i := range personas {
		name := strings.ToLower(personas[i].Name)
		if name == "" {
			continue
		}
		wordRe := regexp.MustCompile(`(?:^|[^a-z0-9])` + regexp.QuoteMeta(name) + `(?:[^a-z0-9]|$)`)
		if !wordRe.MatchString(stripped) {
			continue
		}
		if _, dup := seen[personas[i].ID]; dup {
			continue
		}
		seen[personas[i].ID] = struct{}{}
		out = append(out, personas[i])
	}

	return out
}

// normalizeHandle lowercases a persona name and removes spaces so it can be
// compared against an @handle token.
func normalizeHandle(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}
