// Package resolver maps user-supplied short discussion IDs to full UUIDs.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Six characters balances usability with collision avoidance.
const MinShortIDLength = 6

// ResolveDiscussionID resolves a short ID prefix to a full discussion UUID.
//
// Three cases:
//  1. Input is already a full UUID (36 chars, 4 hyphens) - validates existence
//  2. Input is too short (< 6 chars) - returns a validation error
//  3. Input is a short prefix - scans for matches, returns the unique result
func ResolveDiscussionID(ctx context.Context, client *discussion.Client, shortID string) (string, error) {
	if len(shortID) == 36 && strings.Count(shortID, "-") == 4 {
		if _, err := client.GetDiscussion(ctx, shortID); err != nil {
			if discussion.IsNotFound(err) {
				return "", fmt.Errorf("discussion not found: %s", shortID)
			}
			return "", fmt.Errorf("failed to verify discussion existence: %w", err)
		}
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	all, err := client.ListDiscussions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to search for discussion: %w", err)
	}

	var matches []string
	for _, d := range all {
		if strings.HasPrefix(d.ID, shortID) {
			matches = append(matches, d.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no discussions matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no discussions found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple discussions matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d discussions", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly message listing the matches
// (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous short ID '%s' matches %d discussions:\n", err.ShortID, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}
	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}
	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to uniquely identify the discussion."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
