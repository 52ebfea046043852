// Package transport posts deliberation messages to Slack. Each contribution
// goes out via chat.postMessage in the speaking persona's voice (username +
// icon override), threaded under the discussion anchor. Calls are
// rate-limited client-side to stay under Slack's per-channel posting limit.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

const defaultAPIBase = "https://slack.com/api"

// SlackClient posts messages through the Slack Web API.
type SlackClient struct {
	apiBase string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// Option customizes a SlackClient.
type Option func(*SlackClient)

// WithAPIBase overrides the API base URL. Tests point this at a local server.
func WithAPIBase(base string) Option {
	return func(c *SlackClient) { c.apiBase = base }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *SlackClient) { c.client = hc }
}

// NewSlackClient creates a rate-limited Slack client. Slack allows roughly
// one message per second per channel; 1 rps with burst 3 keeps short
// deliberations snappy without tripping it.
func NewSlackClient(token string, logger zerolog.Logger, opts ...Option) (*SlackClient, error) {
	if token == "" {
		return nil, fmt.Errorf("slack token cannot be empty")
	}

	c := &SlackClient{
		apiBase: defaultAPIBase,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type postMessageRequest struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	ThreadTS  string `json:"thread_ts,omitempty"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

type postMessageResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// PostAsPersona posts text to a channel (threaded when threadTS is set) in
// the persona's voice and returns the message timestamp.
func (c *SlackClient) PostAsPersona(ctx context.Context, channel, threadTS, text string, p *discussion.Persona) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	reqBody := postMessageRequest{
		Channel:  channel,
		Text:     text,
		ThreadTS: threadTS,
	}
	if p != nil {
		reqBody.Username = p.Name
		reqBody.IconEmoji = personaIcon(p)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat.postMessage", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting message: %w", err)
	}
	defer resp.Body.Close()

	var result postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if !result.OK {
		return "", fmt.Errorf("slack API error: %s", result.Error)
	}

	c.logger.Debug().
		Str("channel", result.Channel).
		Str("ts", result.TS).
		Msg("message posted")

	return result.TS, nil
}

// personaIcon picks an icon emoji from the persona's domain-ish role. Purely
// cosmetic.
func personaIcon(p *discussion.Persona) string {
	switch {
	case containsFold(p.Role, "security"):
		return ":shield:"
	case containsFold(p.Role, "qa"), containsFold(p.Role, "test"):
		return ":mag:"
	case containsFold(p.Role, "lead"), containsFold(p.Role, "architect"):
		return ":compass:"
	default:
		return ":robot_face:"
	}
}

func containsFold(haystack, needle string) bool {
	return bytes.Contains(bytes.ToLower([]byte(haystack)), []byte(needle))
}
