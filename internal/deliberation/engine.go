// Package deliberation runs multi-round persona discussions. A trigger
// (PR opened, build failure, issue triage, code watch hit) becomes a
// Discussion; the engine walks up to MaxRounds rounds, picking a speaker,
// generating a contribution, posting it to the thread and watching for a
// consensus signal. External collaborators (transport, generator, board) are
// interfaces so the engine itself never touches a network API directly.
package deliberation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/persona"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/threadstate"
	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// MaxRounds bounds every deliberation.
const MaxRounds = 3

// Transport posts a message to a chat thread in a persona's voice and
// returns the posted message's timestamp.
type Transport interface {
	PostAsPersona(ctx context.Context, channel, threadTS, text string, p *discussion.Persona) (string, error)
}

// Generator produces one persona contribution. This is the sole LLM call
// boundary.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Issue is a tracked issue created through a board provider.
type Issue struct {
	Number int
	URL    string
}

// Board creates and moves tracked issues. Invoked only for escalation.
type Board interface {
	CreateIssue(ctx context.Context, repo, title, body, column string) (*Issue, error)
	MoveIssue(ctx context.Context, repo string, number int, column string) error
}

// Project is the per-project configuration the engine needs: where the
// checkout lives, the roadmap text folded into prompts, and the board the
// project escalates to (empty repo means no board).
type Project struct {
	Path        string
	Roadmap     string
	BoardRepo   string
	BoardColumn string
}

// Engine orchestrates deliberations against a discussion store.
type Engine struct {
	store     *discussion.Client
	transport Transport
	generator Generator
	board     Board
	state     *threadstate.Manager
	runner    DirRunner
	projects  map[string]Project
	logger    zerolog.Logger
}

// NewEngine wires an engine. A nil runner gets the exec-backed default.
func NewEngine(store *discussion.Client, transport Transport, generator Generator, board Board, state *threadstate.Manager, runner DirRunner, projects map[string]Project, logger zerolog.Logger) *Engine {
	if runner == nil {
		runner = ExecDirRunner{}
	}
	return &Engine{
		store:     store,
		transport: transport,
		generator: generator,
		board:     board,
		state:     state,
		runner:    runner,
		projects:  projects,
		logger:    logger,
	}
}

// HandleTrigger runs a full deliberation for a trigger: resolve or create
// the discussion, post the opening message, walk the rounds, and apply the
// terminal transition. Returns the discussion in its final state. External
// failures inside a round degrade to a skipped round; only store errors and
// an empty roster propagate.
func (e *Engine) HandleTrigger(ctx context.Context, trigger *discussion.Trigger) (*discussion.Discussion, error) {
	if err := trigger.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trigger: %w", err)
	}

	roster, err := e.store.ActivePersonas(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading personas: %w", err)
	}
	participants := persona.ParticipatingPersonas(trigger.Type, roster)
	if len(participants) == 0 {
		return nil, fmt.Errorf("no personas registered for trigger %q", trigger.Type)
	}

	disc, err := e.resolveDiscussion(ctx, trigger)
	if err != nil {
		return nil, err
	}

	if disc.ThreadTS == "" {
		if err := e.openThread(ctx, disc, trigger, &participants[0]); err != nil {
			return nil, err
		}
	}

	contextText := e.assembleContext(trigger)
	roadmap := e.projects[trigger.ProjectPath].Roadmap

	result := e.runRounds(ctx, disc, trigger, participants, contextText, roadmap)

	e.finalize(ctx, disc, result)

	if result != "" {
		e.escalate(ctx, disc, trigger, result)
	}

	return disc, nil
}

// resolveDiscussion returns the open discussion for (project, ref) or
// creates a fresh one.
func (e *Engine) resolveDiscussion(ctx context.Context, trigger *discussion.Trigger) (*discussion.Discussion, error) {
	disc, err := e.store.FindOpenByRef(ctx, trigger.ProjectPath, trigger.Ref)
	if err == nil {
		return disc, nil
	}
	if !discussion.IsNotFound(err) {
		return nil, fmt.Errorf("resolving discussion: %w", err)
	}

	now := time.Now().UnixMilli()
	disc = &discussion.Discussion{
		ID:          uuid.New().String(),
		ProjectPath: trigger.ProjectPath,
		TriggerType: trigger.Type,
		TriggerRef:  trigger.Ref,
		ChannelID:   trigger.ChannelID,
		ThreadTS:    trigger.ThreadTS,
		Status:      discussion.StatusActive,
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}
	if err := e.store.CreateDiscussion(ctx, disc); err != nil {
		return nil, fmt.Errorf("creating discussion: %w", err)
	}

	return disc, nil
}

// openThread posts the opening message and records its ts as the thread
// anchor.
func (e *Engine) openThread(ctx context.Context, disc *discussion.Discussion, trigger *discussion.Trigger, opener *discussion.Persona) error {
	text := trigger.OpeningMessage
	if text == "" {
		text = buildOpeningMessage(trigger)
	}

	ts, err := e.transport.PostAsPersona(ctx, disc.ChannelID, "", text, opener)
	if err != nil {
		return fmt.Errorf("posting opening message: %w", err)
	}

	disc.ThreadTS = ts
	if err := e.store.UpdateDiscussion(ctx, disc); err != nil {
		return fmt.Errorf("recording thread: %w", err)
	}

	return nil
}

// runRounds walks rounds 1..MaxRounds and returns the consensus result, or
// "" when the discussion ran out of rounds without one.
func (e *Engine) runRounds(ctx context.Context, disc *discussion.Discussion, trigger *discussion.Trigger, participants []discussion.Persona, contextText, roadmap string) discussion.ConsensusResult {
	var lastSpeaker *discussion.Persona
	lastText := trigger.OpeningMessage

	for round := disc.Round + 1; round <= MaxRounds; round++ {
		speaker := e.selectSpeaker(disc, participants, lastSpeaker, lastText)
		if speaker == nil {
			break
		}

		history := e.loadHistory(ctx, disc.ID)
		systemPrompt, userPrompt := BuildPrompts(speaker, trigger, round, history, contextText, roadmap)

		raw, err := e.generator.Generate(ctx, systemPrompt, userPrompt)
		if err != nil {
			e.logger.Warn().Err(err).
				Str("discussion_id", disc.ID).
				Int("round", round).
				Str("persona", speaker.Name).
				Msg("contribution generation failed, skipping round")
			disc.Round = round
			e.persist(ctx, disc)
			continue
		}

		text := Humanize(raw)
		if _, err := e.transport.PostAsPersona(ctx, disc.ChannelID, disc.ThreadTS, text, speaker); err != nil {
			e.logger.Warn().Err(err).Str("discussion_id", disc.ID).Msg("posting contribution failed")
		}

		e.state.MarkPersonaReply(disc.ChannelID, disc.ThreadTS, speaker.ID)
		e.state.MarkChannelActivity(disc.ChannelID)

		entry := &discussion.TranscriptEntry{
			Round:      round,
			PersonaID:  speaker.ID,
			Persona:    speaker.Name,
			Text:       text,
			PostedAtMs: time.Now().UnixMilli(),
		}
		if err := e.store.AppendTranscript(ctx, disc.ID, entry); err != nil {
			e.logger.Warn().Err(err).Str("discussion_id", disc.ID).Msg("appending transcript failed")
		}

		disc.Round = round
		disc.AddParticipant(speaker.ID)
		e.persist(ctx, disc)

		lastSpeaker = speaker
		lastText = raw

		// Consensus is read from the raw text so humanization can never
		// eat a verdict.
		if result := interpretConsensus(trigger.Type, raw); result != "" {
			return result
		}
	}

	return ""
}

// selectSpeaker is continuity-biased: the previous speaker keeps the floor
// unless another participant scores clearly higher on the last message.
// Cooldown applies when the floor changes hands; a fresh thread starts with
// a cooldown-aware pick.
func (e *Engine) selectSpeaker(disc *discussion.Discussion, participants []discussion.Persona, lastSpeaker *discussion.Persona, lastText string) *discussion.Persona {
	if lastSpeaker == nil {
		return e.state.PickRandomPersona(disc.ChannelID, disc.ThreadTS, participants)
	}

	next := persona.SelectFollowUp(lastSpeaker, participants, lastText)
	if next != nil && next.ID != lastSpeaker.ID && e.state.IsPersonaOnCooldown(disc.ChannelID, disc.ThreadTS, next.ID) {
		return e.state.PickRandomPersona(disc.ChannelID, disc.ThreadTS, participants)
	}

	return next
}

// assembleContext folds the trigger context with a diff excerpt for
// PR-shaped refs.
func (e *Engine) assembleContext(trigger *discussion.Trigger) string {
	contextText := trigger.Context

	if trigger.Type == discussion.TriggerPRReview {
		if diff := DiffExcerpt(context.Background(), e.runner, e.logger, e.projects[trigger.ProjectPath].Path, trigger.Ref); diff != "" {
			if contextText != "" {
				contextText += "\n\n"
			}
			contextText += "Diff excerpt:\n" + diff
		}
	}

	return contextText
}

func (e *Engine) loadHistory(ctx context.Context, discussionID string) string {
	entries, err := e.store.Transcript(ctx, discussionID)
	if err != nil {
		e.logger.Warn().Err(err).Str("discussion_id", discussionID).Msg("loading transcript failed")
		return ""
	}
	return formatHistory(entries)
}

// finalize applies the terminal transition. A discussion with a result
// passes through consensus (or blocked, for human_needed) before closing;
// one that ran out of rounds without a signal closes directly from active.
func (e *Engine) finalize(ctx context.Context, disc *discussion.Discussion, result discussion.ConsensusResult) {
	disc.ConsensusResult = result
	switch {
	case result == "":
	case result == discussion.ResultHumanNeeded:
		disc.Status = discussion.StatusBlocked
		e.persist(ctx, disc)
	default:
		disc.Status = discussion.StatusConsensus
		e.persist(ctx, disc)
	}

	disc.Status = discussion.StatusClosed
	e.persist(ctx, disc)
}

// escalate creates a tracked issue for results that call for one. The board
// is always the trigger project's own; a project without a board gets an
// explicit notice in the thread, never another project's board.
func (e *Engine) escalate(ctx context.Context, disc *discussion.Discussion, trigger *discussion.Trigger, result discussion.ConsensusResult) {
	needsIssue := false
	switch trigger.Type {
	case discussion.TriggerIssueReview:
		needsIssue = result == discussion.ResultApproved || result == discussion.ResultHumanNeeded
	case discussion.TriggerCodeWatch:
		needsIssue = result == discussion.ResultChangesRequested || result == discussion.ResultHumanNeeded
	}
	if !needsIssue {
		return
	}

	proj, ok := e.projects[trigger.ProjectPath]
	if !ok || proj.BoardRepo == "" {
		e.postNotice(ctx, disc, fmt.Sprintf("No board configured for %s — please create the follow-up issue manually.", trigger.ProjectPath))
		return
	}

	title, body := DraftIssue(trigger)
	issue, err := e.board.CreateIssue(ctx, proj.BoardRepo, title, body, proj.BoardColumn)
	if err != nil {
		e.logger.Warn().Err(err).Str("repo", proj.BoardRepo).Msg("issue creation failed")
		e.postNotice(ctx, disc, fmt.Sprintf("Tried to file %q on %s but the board call failed.", title, proj.BoardRepo))
		return
	}

	e.postNotice(ctx, disc, fmt.Sprintf("Filed %s (#%d).", issue.URL, issue.Number))
}

func (e *Engine) postNotice(ctx context.Context, disc *discussion.Discussion, text string) {
	notice := &discussion.Persona{ID: "nightwatch", Name: "nightwatch", Role: "orchestrator"}
	if _, err := e.transport.PostAsPersona(ctx, disc.ChannelID, disc.ThreadTS, text, notice); err != nil {
		e.logger.Warn().Err(err).Str("discussion_id", disc.ID).Msg("posting notice failed")
	}
}

func (e *Engine) persist(ctx context.Context, disc *discussion.Discussion) {
	disc.UpdatedAtMs = time.Now().UnixMilli()
	if err := e.store.UpdateDiscussion(ctx, disc); err != nil {
		e.logger.Warn().Err(err).Str("discussion_id", disc.ID).Msg("persisting discussion failed")
	}
}

// buildOpeningMessage writes the thread opener for triggers that do not
// bring their own.
func buildOpeningMessage(trigger *discussion.Trigger) string {
	switch trigger.Type {
	case discussion.TriggerPRReview:
		if trigger.PRURL != "" {
			return fmt.Sprintf("Taking a look at %s.", trigger.PRURL)
		}
		return fmt.Sprintf("Taking a look at PR #%s.", trigger.Ref)
	case discussion.TriggerBuildFailure:
		return fmt.Sprintf("Build failed on %s — digging in.", trigger.Ref)
	case discussion.TriggerPRDKickoff:
		return fmt.Sprintf("Kicking off planning for %s.", trigger.Ref)
	case discussion.TriggerIssueReview:
		return fmt.Sprintf("Triaging %s.", trigger.Ref)
	case discussion.TriggerCodeWatch:
		if location, signal := parseWatchContext(trigger.Context); location != "" && signal != "" {
			return fmt.Sprintf("Code watch flagged %s at %s — worth a look.", signal, location)
		}
		return fmt.Sprintf("Code watch flagged something in %s.", trigger.Ref)
	}
	return fmt.Sprintf("Starting a discussion about %s.", trigger.Ref)
}
