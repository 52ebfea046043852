// Package watch provides polling helpers for following a discussion from the
// CLI.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// pollInterval is how often the store is re-read while waiting.
const pollInterval = 200 * time.Millisecond

// PollForDiscussion polls until a discussion exists for the given project
// path and ref. Returns the discussion or an error on timeout.
func PollForDiscussion(ctx context.Context, client *discussion.Client, projectPath, ref string, timeout time.Duration) (*discussion.Discussion, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for discussion after %v", timeout)

		case <-ticker.C:
			d, err := client.FindOpenByRef(ctx, projectPath, ref)
			if err != nil {
				if discussion.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query for discussion: %w", err)
			}
			return d, nil
		}
	}
}

// PollForResolution polls an existing discussion until it reaches a terminal
// status. Returns the final discussion or an error on timeout.
func PollForResolution(ctx context.Context, client *discussion.Client, discussionID string, timeout time.Duration) (*discussion.Discussion, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for resolution after %v", timeout)

		case <-ticker.C:
			d, err := client.GetDiscussion(ctx, discussionID)
			if err != nil {
				if discussion.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to read discussion: %w", err)
			}
			if d.Status.Terminal() {
				return d, nil
			}
		}
	}
}
