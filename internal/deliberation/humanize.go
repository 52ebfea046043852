package deliberation

import (
	"regexp"
	"strings"
)

// Canned openers LLMs love. Matched case-insensitively at the start of the
// text, stripped along with any following punctuation.
var cannedOpenerRe = regexp.MustCompile(`(?i)^(?:certainly|sure|absolutely|great question|good question|of course|as an ai[^,.!]*|here'?s my take|happy to help)[,.!:\s]*`)

var (
	bulletRe   = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+`)
	emojiRe    = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}]`)
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// Humanize makes generated text read like a chat message instead of a
// report: canned openers removed, list bullets stripped, at most one emoji,
// at most two sentences. Semantics are untouched.
func Humanize(text string) string {
	text = strings.TrimSpace(text)
	text = cannedOpenerRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	text = capEmoji(text, 1)

	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	return strings.TrimSpace(strings.Join(sentences, " "))
}

func capEmoji(text string, max int) string {
	count := 0
	return emojiRe.ReplaceAllStringFunc(text, func(m string) string {
		count++
		if count > max {
			return ""
		}
		return m
	})
}
