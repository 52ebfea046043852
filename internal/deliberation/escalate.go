package deliberation

import (
	"fmt"
	"strings"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// DraftIssue builds an issue title and body from a trigger. code_watch
// triggers carry "Location:" and "Signal:" lines in their context and get a
// `fix: <signal> at <location>` title; everything else falls back to a
// trigger-typed title over the raw context.
func DraftIssue(trigger *discussion.Trigger) (title, body string) {
	if trigger.Type == discussion.TriggerCodeWatch {
		location, signal := parseWatchContext(trigger.Context)
		if location != "" && signal != "" {
			title = fmt.Sprintf("fix: %s at %s", signal, location)
			body = fmt.Sprintf("Automated code watch flagged `%s`.\n\nSignal: %s\n\n%s", location, signal, trigger.Context)
			return title, body
		}
	}

	title = fmt.Sprintf("%s: %s", trigger.Type, trigger.Ref)
	body = trigger.Context
	if body == "" {
		body = fmt.Sprintf("Raised from a %s deliberation on %s.", trigger.Type, trigger.Ref)
	}

	return title, body
}

// parseWatchContext pulls the Location: and Signal: lines out of a code
// watch context block.
func parseWatchContext(context string) (location, signal string) {
	for _, line := range strings.Split(context, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Location:"):
			location = strings.TrimSpace(strings.TrimPrefix(line, "Location:"))
		case strings.HasPrefix(line, "Signal:"):
			signal = strings.TrimSpace(strings.TrimPrefix(line, "Signal:"))
		}
	}
	return location, signal
}
