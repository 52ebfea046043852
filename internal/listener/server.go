// Package listener receives Slack event callbacks and turns them into work:
// deliberation triggers dispatched to the engine, or one-off persona replies
// in ad-hoc threads. The HTTP handler acknowledges Slack immediately and
// does the real work off the request path.
package listener

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/deliberation"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/fetch"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/parser"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/persona"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/threadstate"
	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// Engine dispatches a trigger into a deliberation.
type Engine interface {
	HandleTrigger(ctx context.Context, trigger *discussion.Trigger) (*discussion.Discussion, error)
}

// Options wires a Server.
type Options struct {
	BotUserID      string
	DefaultProject string
	Projects       []string // known project paths, matched against hints

	Engine       Engine
	Store        *discussion.Client
	Transport    deliberation.Transport
	Generator    deliberation.Generator
	State        *threadstate.Manager
	WebFetcher   *fetch.WebFetcher
	IssueFetcher *fetch.IssueFetcher
	Logger       zerolog.Logger
}

// Server is the Slack events listener.
type Server struct {
	echo *echo.Echo
	opts Options

	// async runs the post-acknowledge work. Swapped for a synchronous
	// runner in tests.
	async func(func())
}

// NewServer builds the listener and its routes.
func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:  e,
		opts:  opts,
		async: func(fn func()) { go fn() },
	}

	e.GET("/healthz", s.handleHealth)
	e.POST("/slack/events", s.handleSlackEvents)

	return s
}

// Start serves until the context is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.echo.Start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.echo.Shutdown(context.Background())
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSlackEvents(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if payload["type"] == "url_verification" {
		challenge, _ := payload["challenge"].(string)
		return c.JSON(http.StatusOK, map[string]string{"challenge": challenge})
	}

	ev := parser.ExtractInboundEvent(payload)
	if parser.ShouldIgnoreInboundEvent(ev, s.opts.BotUserID) {
		return c.NoContent(http.StatusOK)
	}

	// Slack redelivers on slow acks; the dedup window absorbs both
	// redeliveries and actual duplicates.
	if !s.opts.State.RememberMessageKey(ev.Channel + "|" + ev.TS) {
		return c.NoContent(http.StatusOK)
	}

	s.async(func() { s.Process(context.Background(), ev) })

	return c.NoContent(http.StatusOK)
}

// Process classifies one accepted event and acts on it. Exported so the
// dispatch pipeline is testable without HTTP.
func (s *Server) Process(ctx context.Context, ev *parser.InboundEvent) {
	switch {
	case s.dispatchJob(ctx, ev):
	case s.dispatchIssue(ctx, ev):
	case s.dispatchProvider(ctx, ev):
	default:
		s.replyAdHoc(ctx, ev)
	}
}

// dispatchJob turns a job request into a pr_review or prd_kickoff trigger.
func (s *Server) dispatchJob(ctx context.Context, ev *parser.InboundEvent) bool {
	req := parser.ParseJobRequest(ev.Text)
	if req == nil {
		return false
	}

	trigger := &discussion.Trigger{
		ProjectPath: s.resolveProject(req.ProjectHint),
		ChannelID:   ev.Channel,
		ThreadTS:    threadOf(ev),
	}

	switch {
	case req.PRNumber != "":
		trigger.Type = discussion.TriggerPRReview
		trigger.Ref = req.PRNumber
		if req.FixConflicts {
			trigger.Context = "The PR reportedly has merge conflicts."
		}
	case req.Job == "run":
		trigger.Type = discussion.TriggerPRDKickoff
		trigger.Ref = firstNonEmpty(req.ProjectHint, "workspace")
	default:
		trigger.Type = discussion.TriggerPRReview
		trigger.Ref = firstNonEmpty(req.ProjectHint, "HEAD")
	}

	s.fire(ctx, trigger)
	return true
}

// dispatchIssue handles both pickup requests and bare reviewable issue
// URLs, subject to the per-issue review cooldown.
func (s *Server) dispatchIssue(ctx context.Context, ev *parser.InboundEvent) bool {
	var issueURL string
	if pickup := parser.ParseIssuePickupRequest(ev.Text); pickup != nil {
		issueURL = pickup.IssueURL
	} else if ref := parser.ParseIssueReviewable(ev.Text); ref != nil {
		issueURL = ref.IssueURL
	}
	if issueURL == "" {
		return false
	}

	if s.opts.State.IsIssueOnReviewCooldown(issueURL) {
		s.opts.Logger.Debug().Str("issue", issueURL).Msg("issue on review cooldown, skipping")
		return true
	}
	s.opts.State.MarkIssueReviewed(issueURL)

	issueContext := s.opts.IssueFetcher.FetchIssueContext(ctx, []string{issueURL})

	s.fire(ctx, &discussion.Trigger{
		Type:        discussion.TriggerIssueReview,
		ProjectPath: s.opts.DefaultProject,
		Ref:         issueURL,
		Context:     issueContext,
		ChannelID:   ev.Channel,
		ThreadTS:    threadOf(ev),
	})
	return true
}

// dispatchProvider answers a direct "claude/codex, ..." request with a
// single generated reply, no deliberation.
func (s *Server) dispatchProvider(ctx context.Context, ev *parser.InboundEvent) bool {
	req := parser.ParseProviderRequest(ev.Text)
	if req == nil || req.Prompt == "" {
		return false
	}

	answer, err := s.opts.Generator.Generate(ctx,
		fmt.Sprintf("You are %s, answering a quick question from a teammate in a chat thread. Be direct and brief.", req.Provider),
		req.Prompt)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Str("provider", req.Provider).Msg("provider request failed")
		return true
	}

	p := &discussion.Persona{ID: req.Provider, Name: req.Provider, Role: "assistant"}
	if _, err := s.opts.Transport.PostAsPersona(ctx, ev.Channel, threadOf(ev), answer, p); err != nil {
		s.opts.Logger.Warn().Err(err).Msg("posting provider reply failed")
	}
	return true
}

// replyAdHoc posts a one-off persona reply when the bot is addressed, or
// when the thread is already bound to a persona. Anything else is ignored.
func (s *Server) replyAdHoc(ctx context.Context, ev *parser.InboundEvent) {
	threadTS := threadOf(ev)
	boundID := s.opts.State.RememberedAdHocPersona(ev.Channel, threadTS)
	if boundID == "" && !s.botMentioned(ev.Text) {
		return
	}

	roster, err := s.opts.Store.ActivePersonas(ctx)
	if err != nil || len(roster) == 0 {
		if err != nil {
			s.opts.Logger.Warn().Err(err).Msg("loading personas failed")
		}
		return
	}

	speaker := s.pickAdHocSpeaker(ev, roster, boundID, threadTS)
	if speaker == nil {
		return
	}

	contextText := s.gatherAdHocContext(ctx, ev.Text)
	systemPrompt := fmt.Sprintf("You are %s, %s on a software team, replying in a casual chat thread. At most two short sentences.", speaker.Name, speaker.Role)
	userPrompt := ev.Text
	if contextText != "" {
		userPrompt += "\n\nContext:\n" + contextText
	}

	raw, err := s.opts.Generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Str("persona", speaker.Name).Msg("ad-hoc reply generation failed")
		return
	}

	text := deliberation.Humanize(raw)
	if _, err := s.opts.Transport.PostAsPersona(ctx, ev.Channel, threadTS, text, speaker); err != nil {
		s.opts.Logger.Warn().Err(err).Msg("posting ad-hoc reply failed")
		return
	}

	s.opts.State.RememberAdHocThreadPersona(ev.Channel, threadTS, speaker.ID)
	s.opts.State.MarkPersonaReply(ev.Channel, threadTS, speaker.ID)
	s.opts.State.MarkChannelActivity(ev.Channel)
}

// pickAdHocSpeaker prefers the thread's bound persona, then an explicitly
// named one, then a cooldown-aware random pick.
func (s *Server) pickAdHocSpeaker(ev *parser.InboundEvent, roster []discussion.Persona, boundID, threadTS string) *discussion.Persona {
	if boundID != "" {
		for i := range roster {
			if roster[i].ID == boundID {
				return &roster[i]
			}
		}
	}

	if named := persona.ResolveMentionedPersonas(ev.Text, roster); len(named) > 0 {
		return &named[0]
	}
	if named := persona.ResolvePersonasByPlainName(ev.Text, roster); len(named) > 0 {
		return &named[0]
	}

	return s.opts.State.PickRandomPersona(ev.Channel, threadTS, roster)
}

// gatherAdHocContext pulls summaries for any URLs in the message.
func (s *Server) gatherAdHocContext(ctx context.Context, text string) string {
	var parts []string

	if issueURLs := parser.ExtractGitHubIssueURLs(text); len(issueURLs) > 0 {
		if got := s.opts.IssueFetcher.FetchIssueContext(ctx, issueURLs); got != "" {
			parts = append(parts, got)
		}
	}
	if urls := parser.ExtractGenericURLs(text); len(urls) > 0 {
		if got := s.opts.WebFetcher.FetchURLSummaries(ctx, urls); got != "" {
			parts = append(parts, got)
		}
	}

	return strings.Join(parts, "\n\n")
}

func (s *Server) fire(ctx context.Context, trigger *discussion.Trigger) {
	if _, err := s.opts.Engine.HandleTrigger(ctx, trigger); err != nil {
		s.opts.Logger.Warn().Err(err).
			Str("trigger", string(trigger.Type)).
			Str("ref", trigger.Ref).
			Msg("trigger dispatch failed")
	}
}

// resolveProject matches a hint against the known project paths; no match
// falls back to the default project.
func (s *Server) resolveProject(hint string) string {
	if hint != "" {
		for _, path := range s.opts.Projects {
			if strings.Contains(strings.ToLower(path), strings.ToLower(hint)) {
				return path
			}
		}
	}
	return s.opts.DefaultProject
}

func (s *Server) botMentioned(text string) bool {
	return s.opts.BotUserID != "" && strings.Contains(text, "<@"+s.opts.BotUserID)
}

func threadOf(ev *parser.InboundEvent) string {
	if ev.ThreadTS != "" {
		return ev.ThreadTS
	}
	return ev.TS
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
